/*
Copyright (C) 2024  DataCode Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package builtins

import (
	"regexp"
	"strings"

	packrat "github.com/launix-de/go-packrat"
)

// noSkip matches zero characters everywhere, i.e. "skip nothing" — CSV
// fields are whitespace-significant, unlike the Lisp source memcp's own
// packrat grammars skip over (scm/packrat.go's SkipWhitespaceAndCommentsRegex
// default).
var noSkip = regexp.MustCompile(``)

// csvFieldParser is a small packrat grammar for one CSV field: either a
// double-quoted field (embedded delimiters and doubled "" escaping
// allowed) or a bare, unquoted run of anything but the delimiter/newline.
// This is grounded on the same building blocks memcp's scm/packrat.go
// assembles small grammars from (NewAtomParser/NewRegexParser/
// NewAndParser/NewOrParser/NewKleeneParser), reserved there for secondary
// grammars rather than memcp's own hand-written core Lisp reader — the
// same role it plays here, alongside DataCode's own hand-written
// lexer/parser for the language itself (see DESIGN.md).
//
//	quotedField := '"' ( '""' | [^"] )* '"'
//	bareField   := [^,\r\n]*
//	field       := quotedField | bareField
//	line        := field (delim field)*
func newFieldParser(delim byte) packrat.Parser {
	quote := packrat.NewAtomParser(`"`, false, false)
	escapedQuote := packrat.NewAtomParser(`""`, false, false)
	notQuote := packrat.NewRegexParser(`[^"]+`, false, false)
	quotedBody := packrat.NewKleeneParser(
		packrat.NewOrParser(escapedQuote, notQuote),
		packrat.NewEmptyParser(),
	)
	quotedField := packrat.NewAndParser(quote, quotedBody, quote)

	bareField := packrat.NewRegexParser(`[^`+string(delim)+`\r\n]*`, false, false)

	return packrat.NewOrParser(quotedField, bareField)
}

func newLineParser(delim byte) packrat.Parser {
	field := newFieldParser(delim)
	sep := packrat.NewAtomParser(string(delim), false, false)
	return packrat.NewAndParser(field, packrat.NewKleeneParser(field, sep))
}

// ParseCSVLine splits one CSV record into fields using the grammar above,
// unescaping doubled quotes inside quoted fields. It is used by read_file
// (§4.5 "CSV parsing buffers reads (chunked) and infers column types")
// and by read_csv_safe/analyze_csv.
func ParseCSVLine(line string, delim byte) []string {
	root := newLineParser(delim)
	scanner := packrat.NewScanner(line, noSkip)
	node, err := packrat.Parse(root, scanner)
	if err != nil {
		// malformed input the grammar can't fit: fall back to a raw split
		// rather than losing the row entirely.
		return strings.Split(line, string(delim))
	}
	// node is the AndParser{field, Kleene(field, sep)}; node.Children[0] is
	// the first field, node.Children[1] is the Kleene node whose own
	// Children alternate [sep, field, sep, field, ...] (sep first because
	// NewKleeneParser's separator is consumed before each repeated element
	// after the first, per scm/packrat.go's ExtractScmer stride-2 walk).
	var fields []string
	if len(node.Children) > 0 {
		fields = append(fields, unescapeCSVField(node.Children[0].Matched))
	}
	if len(node.Children) > 1 {
		rest := node.Children[1]
		for i := 1; i < len(rest.Children); i += 2 {
			fields = append(fields, unescapeCSVField(rest.Children[i].Matched))
		}
	}
	return fields
}

func unescapeCSVField(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		inner := raw[1 : len(raw)-1]
		return strings.ReplaceAll(inner, `""`, `"`)
	}
	return raw
}
