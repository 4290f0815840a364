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
	"strconv"
	"strings"
	"time"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
)

func registerCore(r *Registry) {
	r.register(Entry{Name: "print", Category: CatIO, MinArgs: 0, MaxArgs: -1, Fn: biPrint})
	r.register(Entry{Name: "now", Category: CatSystem, MinArgs: 0, MaxArgs: 0, Fn: biNow})
	r.register(Entry{Name: "typeof", Category: CatSystem, MinArgs: 1, MaxArgs: 1, Fn: biTypeof})
	r.register(Entry{Name: "isinstance", Category: CatSystem, MinArgs: 2, MaxArgs: 2, Fn: biIsInstance})
	r.register(Entry{Name: "isset", Category: CatSystem, MinArgs: 1, MaxArgs: 1, Fn: biIsset})
	r.register(Entry{Name: "int", Category: CatSystem, MinArgs: 1, MaxArgs: 1, Fn: biInt})
	r.register(Entry{Name: "float", Category: CatSystem, MinArgs: 1, MaxArgs: 1, Fn: biFloat})
	r.register(Entry{Name: "bool", Category: CatSystem, MinArgs: 1, MaxArgs: 1, Fn: biBool})
	r.register(Entry{Name: "str", Category: CatSystem, MinArgs: 1, MaxArgs: 1, Fn: biStr})
	r.register(Entry{Name: "date", Category: CatSystem, MinArgs: 1, MaxArgs: 1, Fn: biDate})
	r.register(Entry{Name: "money", Category: CatSystem, MinArgs: 1, MaxArgs: 2, Fn: biMoney})
}

func biPrint(interp Interp, args []value.Value, line int) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	interp.Print(strings.Join(parts, " "))
	return value.TheNull, nil
}

func biNow(interp Interp, args []value.Value, line int) (value.Value, error) {
	return value.Date{T: time.Now().UTC()}, nil
}

func biTypeof(interp Interp, args []value.Value, line int) (value.Value, error) {
	return value.String(value.TypeName(args[0])), nil
}

func biIsInstance(interp Interp, args []value.Value, line int) (value.Value, error) {
	name, err := wantString("isinstance", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	return value.Bool(strings.EqualFold(value.TypeName(args[0]), name)), nil
}

func biIsset(interp Interp, args []value.Value, line int) (value.Value, error) {
	_, isNull := args[0].(value.Null)
	return value.Bool(!isNull), nil
}

func biInt(interp Interp, args []value.Value, line int) (value.Value, error) {
	switch v := args[0].(type) {
	case value.Int:
		return v, nil
	case value.Real:
		return value.Int(int64(v)), nil
	case value.Bool:
		if v {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.String:
		i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, errs.Typef(line, "int(): cannot convert %q to Int", string(v))
		}
		return value.Int(i), nil
	}
	return nil, argErr("int", 0, "Int, Real, Bool, or String", args[0], line)
}

func biFloat(interp Interp, args []value.Value, line int) (value.Value, error) {
	switch v := args[0].(type) {
	case value.Real:
		return v, nil
	case value.Int:
		return value.Real(float64(v)), nil
	case value.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, errs.Typef(line, "float(): cannot convert %q to Real", string(v))
		}
		return value.Real(f), nil
	}
	return nil, argErr("float", 0, "Real, Int, or String", args[0], line)
}

func biBool(interp Interp, args []value.Value, line int) (value.Value, error) {
	return value.Bool(value.IsTruthy(args[0])), nil
}

func biStr(interp Interp, args []value.Value, line int) (value.Value, error) {
	if s, ok := args[0].(value.String); ok {
		return s, nil
	}
	return value.String(args[0].String()), nil
}

func biDate(interp Interp, args []value.Value, line int) (value.Value, error) {
	s, err := wantString("date", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	d, ok := value.ParseDate(s)
	if !ok {
		return nil, errs.Typef(line, "date(): %q does not match a supported date format", s)
	}
	return d, nil
}

func biMoney(interp Interp, args []value.Value, line int) (value.Value, error) {
	amt, ok := value.NumericValue(args[0])
	if !ok {
		return nil, argErr("money", 0, "Int or Real", args[0], line)
	}
	code := "USD"
	if len(args) > 1 {
		c, err := wantString("money", 1, args[1], line)
		if err != nil {
			return nil, err
		}
		code = c
	}
	return value.Currency{Amount: amt, Code: code}, nil
}
