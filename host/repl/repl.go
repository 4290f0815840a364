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

// Package repl implements the line-oriented interactive REPL of spec §6.2,
// grounded directly on memcp's own Repl (scm/prompt.go): a
// chzyer/readline session with a "new" vs "continuation" prompt, a
// recover-guarded eval-and-print loop, and an accumulating `oldline`
// buffer. DataCode's continuation trigger differs from memcp's ("expecting
// matching )" from an unbalanced paren count): a block construct
// (if/for/function/try) is incomplete until its keyword balance returns to
// zero, so the REPL buffers lines until that balance closes instead of
// trying to parse early and reacting to a parse panic.
package repl

import (
	"fmt"
	"io"

	"github.com/chzyer/readline"

	"github.com/dcscript/datacode/eval"
	"github.com/dcscript/datacode/lexer"
)

const (
	newPrompt  = "\033[32mdc>\033[0m "
	contPrompt = "\033[32m...\033[0m "
)

var blockOpeners = map[string]bool{"if": true, "for": true, "function": true, "try": true}
var blockClosers = map[string]bool{"endif": true, "forend": true, "next": true, "endfunction": true, "endtry": true}

// pendingBlocks lexes buf and returns the net count of still-open block
// constructs: +1 per if/for/function/try, -1 per endif/forend/next/
// endfunction/endtry. A lex error (e.g. an unterminated string) also
// counts as "keep buffering" by returning a positive count, since the
// user is still mid-statement.
func pendingBlocks(buf string) int {
	toks, err := lexer.New(buf).Tokenize()
	if err != nil {
		return 1
	}
	depth := 0
	for _, t := range toks {
		if t.Kind != lexer.Keyword {
			continue
		}
		if blockOpeners[t.Lexeme] {
			depth++
		} else if blockClosers[t.Lexeme] {
			depth--
		}
	}
	if depth < 0 {
		depth = 0
	}
	return depth
}

// Run drives the REPL against the given interpreter until EOF or
// interrupt, printing captured print() output and any error after each
// completed statement group (spec §6.1 exec + capture_output, §7's
// "<Kind>: <message> (line N)" formatting).
func Run(in *eval.Interpreter) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            newPrompt,
		HistoryFile:       ".datacode-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	l.CaptureExitSignal()

	buf := ""
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if buf == "" {
				return nil
			}
			buf = ""
			l.SetPrompt(newPrompt)
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if buf != "" {
			buf += "\n" + line
		} else {
			buf = line
		}
		if buf == "" {
			continue
		}
		if pendingBlocks(buf) > 0 {
			l.SetPrompt(contPrompt)
			continue
		}

		runOne(in, buf)
		buf = ""
		l.SetPrompt(newPrompt)
	}
}

func runOne(in *eval.Interpreter, source string) {
	execErr := in.Exec(source)
	for _, line := range in.CaptureOutput() {
		fmt.Println(line)
	}
	if execErr != nil {
		fmt.Println(execErr.Error())
	}
}
