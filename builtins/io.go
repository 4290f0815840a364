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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
)

func registerIO(r *Registry) {
	r.register(Entry{Name: "getcwd", Category: CatFile, MinArgs: 0, MaxArgs: 0, Fn: biGetcwd})
	r.register(Entry{Name: "path", Category: CatFile, MinArgs: 1, MaxArgs: 1, Fn: biPath})
	r.register(Entry{Name: "list_files", Category: CatFile, MinArgs: 1, MaxArgs: 1, Fn: biListFiles})
	r.register(Entry{Name: "read_file", Category: CatFile, MinArgs: 1, MaxArgs: 3, Fn: biReadFile})
	r.register(Entry{Name: "analyze_csv", Category: CatFile, MinArgs: 1, MaxArgs: 1, Fn: biAnalyzeCSV})
	r.register(Entry{Name: "read_csv_safe", Category: CatFile, MinArgs: 1, MaxArgs: 2, Fn: biReadCSVSafe})
}

func biGetcwd(interp Interp, args []value.Value, line int) (value.Value, error) {
	return value.String(interp.Getcwd()), nil
}

func biPath(interp Interp, args []value.Value, line int) (value.Value, error) {
	s, err := wantString("path", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	return value.MakePath(s), nil
}

// biListFiles enumerates leaf names (not full Paths, per spec §4.6) for a
// Path or PathPattern. A remote (lib://) path is resolved to a local
// filesystem path via interp.ResolveShare first; the default
// eval.Interpreter has no share registered and reports IOError, while
// host/session's per-client interpreter resolves it against whatever the
// client connected with smb_connect.
func biListFiles(interp Interp, args []value.Value, line int) (value.Value, error) {
	var pattern string
	switch v := args[0].(type) {
	case value.Path:
		if v.IsRemote() {
			resolved, rerr := interp.ResolveShare(v.Raw)
			if rerr != nil {
				return nil, errs.New(errs.IOError, line, "list_files(): %v", rerr)
			}
			pattern = resolved
		} else {
			pattern = v.Raw
		}
	case value.PathPattern:
		pattern = v.Raw
	default:
		return nil, argErr("list_files", 0, "Path or PathPattern", args[0], line)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errs.New(errs.IOError, line, "list_files(): %v", err)
	}
	if !value.HasGlobMeta(pattern) {
		entries, rerr := os.ReadDir(pattern)
		if rerr != nil {
			return nil, errs.New(errs.IOError, line, "list_files(): %v", rerr)
		}
		matches = matches[:0]
		for _, e := range entries {
			matches = append(matches, e.Name())
		}
	}
	out := make([]value.Value, len(matches))
	for i, m := range matches {
		out[i] = value.String(filepath.Base(m))
	}
	return value.NewArray(out...), nil
}

func pathArgString(name string, idx int, v value.Value, line int) (string, error) {
	switch p := v.(type) {
	case value.Path:
		return p.Raw, nil
	case value.PathPattern:
		return p.Raw, nil
	case value.String:
		return string(p), nil
	}
	return "", argErr(name, idx, "Path or String", v, line)
}

// biReadFile implements the bit-exact overloads of spec §6.3: (path),
// (path, header_row), (path, header_row, sheet_name), (path, sheet_name).
// Dispatch is by file extension: .csv goes through the packrat CSV grammar
// of csv.go; anything else is read back as a plain String. XLSX is a named
// overload in the spec, but no XLSX-capable library is available anywhere
// in the corpus this module was grounded on, so an
// .xlsx path raises IOError rather than silently returning wrong data or
// reaching for a fabricated dependency.
func biReadFile(interp Interp, args []value.Value, line int) (value.Value, error) {
	p, err := pathArgString("read_file", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	if pv, ok := args[0].(value.Path); ok && pv.IsRemote() {
		resolved, rerr := interp.ResolveShare(pv.Raw)
		if rerr != nil {
			return nil, errs.New(errs.IOError, line, "read_file(): %v", rerr)
		}
		p = resolved
	}
	headerRow := 0
	sheet := ""
	if len(args) == 2 {
		switch v := args[1].(type) {
		case value.Int:
			headerRow = int(v)
		case value.String:
			sheet = string(v)
		default:
			return nil, argErr("read_file", 1, "Int (header_row) or String (sheet_name)", args[1], line)
		}
	} else if len(args) == 3 {
		hr, err := wantInt("read_file", 1, args[1], line)
		if err != nil {
			return nil, err
		}
		headerRow = int(hr)
		sheet, err = wantString("read_file", 2, args[2], line)
		if err != nil {
			return nil, err
		}
	}
	ext := strings.ToLower(filepath.Ext(p))
	switch ext {
	case ".csv":
		return readCSVTable(p, headerRow, line)
	case ".xlsx":
		_ = sheet
		return nil, errs.New(errs.IOError, line, "read_file(): .xlsx is not supported in this build (no XLSX library available)")
	default:
		data, rerr := os.ReadFile(p)
		if rerr != nil {
			return nil, errs.New(errs.IOError, line, "read_file(): %v", rerr)
		}
		return value.String(string(data)), nil
	}
}

func readCSVTable(path string, headerRow int, line int) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.IOError, line, "read_file(): %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if headerRow < 0 || headerRow >= len(lines) {
		return nil, errs.New(errs.ArgumentError, line, "read_file(): header_row %d out of range for %d lines", headerRow, len(lines))
	}
	headers := ParseCSVLine(lines[headerRow], ',')
	var rows [][]value.Value
	for _, l := range lines[headerRow+1:] {
		if l == "" {
			continue
		}
		fields := ParseCSVLine(l, ',')
		row := make([]value.Value, len(fields))
		for i, f := range fields {
			row[i] = inferCSVCell(f)
		}
		rows = append(rows, row)
	}
	return value.NewTableFromRows(headers, rows), nil
}

// inferCSVCell converts a raw CSV field into its most specific Value
// (Int, Real, Bool, or String), feeding column type inference
// (value.InferColumn, spec §3.2) with properly typed cells instead of raw
// strings.
func inferCSVCell(s string) value.Value {
	if s == "" {
		return value.TheNull
	}
	if s == "true" || s == "false" {
		return value.Bool(s == "true")
	}
	if iv, ok := parseIntStrict(s); ok {
		return value.Int(iv)
	}
	if fv, ok := parseFloatStrict(s); ok {
		return value.Real(fv)
	}
	return value.String(s)
}

func parseIntStrict(s string) (int64, bool) {
	var v int64
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		v = v*10 + int64(s[i]-'0')
	}
	if neg {
		v = -v
	}
	return v, true
}

func parseFloatStrict(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func biAnalyzeCSV(interp Interp, args []value.Value, line int) (value.Value, error) {
	p, err := pathArgString("analyze_csv", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	t, err := readCSVTable(p, 0, line)
	if err != nil {
		return nil, err
	}
	tbl := t.(*value.Table)
	o := value.NewObject()
	o.Set("row_count", value.Int(tbl.RowCount))
	o.Set("column_count", value.Int(len(tbl.Headers)))
	warnings := make([]value.Value, len(tbl.Warnings))
	for i, w := range tbl.Warnings {
		warnings[i] = value.String(w)
	}
	o.Set("warnings", value.NewArray(warnings...))
	return o, nil
}

// biReadCSVSafe is read_file's defensive sibling: on any IOError/parse
// failure it returns Null instead of propagating, for scripts that probe
// optional input files (SUPPLEMENT-adjacent convenience grounded in
// original_source/'s equivalent safe-read helper).
func biReadCSVSafe(interp Interp, args []value.Value, line int) (value.Value, error) {
	v, err := biReadFile(interp, args, line)
	if err != nil {
		return value.TheNull, nil
	}
	return v, nil
}
