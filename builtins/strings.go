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
	"strings"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
)

func registerStrings(r *Registry) {
	r.register(Entry{Name: "length", Category: CatString, MinArgs: 1, MaxArgs: 1, Fn: biLength})
	r.register(Entry{Name: "len", Category: CatString, MinArgs: 1, MaxArgs: 1, Fn: biLength})
	r.register(Entry{Name: "upper", Category: CatString, MinArgs: 1, MaxArgs: 1, Fn: biUpper})
	r.register(Entry{Name: "lower", Category: CatString, MinArgs: 1, MaxArgs: 1, Fn: biLower})
	r.register(Entry{Name: "trim", Category: CatString, MinArgs: 1, MaxArgs: 1, Fn: biTrim})
	r.register(Entry{Name: "split", Category: CatString, MinArgs: 2, MaxArgs: 2, Fn: biSplit})
	r.register(Entry{Name: "join", Category: CatString, MinArgs: 2, MaxArgs: 2, Fn: biJoin})
	r.register(Entry{Name: "contains", Category: CatString, MinArgs: 2, MaxArgs: 2, Fn: biContains})
}

// biLength implements both `length`/`len` over String (rune count), Array
// (element count), Object (key count), and Table (row_count), per spec
// §3.2's invariant that row_count mirrors every column's length.
func biLength(interp Interp, args []value.Value, line int) (value.Value, error) {
	switch v := args[0].(type) {
	case value.String:
		return value.Int(len([]rune(string(v)))), nil
	case *value.Array:
		return value.Int(len(v.Elements)), nil
	case *value.Object:
		return value.Int(len(v.Keys)), nil
	case *value.Table:
		return value.Int(v.RowCount), nil
	}
	return nil, argErr("length", 0, "String, Array, Object, or Table", args[0], line)
}

func biUpper(interp Interp, args []value.Value, line int) (value.Value, error) {
	s, err := wantString("upper", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	return value.String(strings.ToUpper(s)), nil
}

func biLower(interp Interp, args []value.Value, line int) (value.Value, error) {
	s, err := wantString("lower", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	return value.String(strings.ToLower(s)), nil
}

func biTrim(interp Interp, args []value.Value, line int) (value.Value, error) {
	s, err := wantString("trim", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	return value.String(strings.TrimSpace(s)), nil
}

func biSplit(interp Interp, args []value.Value, line int) (value.Value, error) {
	s, err := wantString("split", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	sep, err := wantString("split", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	elems := make([]value.Value, len(parts))
	for i, p := range parts {
		elems[i] = value.String(p)
	}
	return value.NewArray(elems...), nil
}

func biJoin(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("join", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	sep, err := wantString("join", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(arr.Elements))
	for i, e := range arr.Elements {
		parts[i] = e.String()
	}
	return value.String(strings.Join(parts, sep)), nil
}

// biContains implements `contains` over String (substring) and Array
// (value-based element membership, per spec §3.1 equality), returning
// TypeError for anything else.
func biContains(interp Interp, args []value.Value, line int) (value.Value, error) {
	switch v := args[0].(type) {
	case value.String:
		needle, err := wantString("contains", 1, args[1], line)
		if err != nil {
			return nil, err
		}
		return value.Bool(strings.Contains(string(v), needle)), nil
	case *value.Array:
		for _, e := range v.Elements {
			if value.Equal(e, args[1]) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	}
	return nil, errs.Typef(line, "contains(): expected String or Array, found %s", value.TypeName(args[0]))
}
