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
	"math"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
)

func registerMath(r *Registry) {
	r.register(Entry{Name: "abs", Category: CatMath, MinArgs: 1, MaxArgs: 1, Fn: biAbs})
	r.register(Entry{Name: "sqrt", Category: CatMath, MinArgs: 1, MaxArgs: 1, Fn: biSqrt})
	r.register(Entry{Name: "pow", Category: CatMath, MinArgs: 2, MaxArgs: 2, Fn: biPow})
	r.register(Entry{Name: "min", Category: CatMath, MinArgs: 1, MaxArgs: -1, Fn: biMin})
	r.register(Entry{Name: "max", Category: CatMath, MinArgs: 1, MaxArgs: -1, Fn: biMax})
	r.register(Entry{Name: "round", Category: CatMath, MinArgs: 1, MaxArgs: 2, Fn: biRound})
	r.register(Entry{Name: "div", Category: CatMath, MinArgs: 2, MaxArgs: 2, Fn: biDiv})
}

func numArg(name string, idx int, v value.Value, line int) (float64, error) {
	f, ok := value.NumericValue(v)
	if !ok {
		return 0, argErr(name, idx, "Int or Real", v, line)
	}
	return f, nil
}

func biAbs(interp Interp, args []value.Value, line int) (value.Value, error) {
	if i, ok := args[0].(value.Int); ok {
		if i < 0 {
			i = -i
		}
		return i, nil
	}
	f, err := numArg("abs", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	return value.Real(math.Abs(f)), nil
}

func biSqrt(interp Interp, args []value.Value, line int) (value.Value, error) {
	f, err := numArg("sqrt", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	if f < 0 {
		return nil, errs.Typef(line, "sqrt(): negative argument %g", f)
	}
	return value.Real(math.Sqrt(f)), nil
}

func biPow(interp Interp, args []value.Value, line int) (value.Value, error) {
	base, err := numArg("pow", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	exp, err := numArg("pow", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	_, bothInt := args[0].(value.Int)
	_, expInt := args[1].(value.Int)
	if bothInt && expInt && exp >= 0 {
		return value.Int(int64(math.Pow(base, exp))), nil
	}
	return value.Real(math.Pow(base, exp)), nil
}

func biMin(interp Interp, args []value.Value, line int) (value.Value, error) {
	return foldExtreme("min", args, line, -1)
}

func biMax(interp Interp, args []value.Value, line int) (value.Value, error) {
	return foldExtreme("max", args, line, 1)
}

// foldExtreme implements min/max over either a single Array argument or a
// variadic argument list, per the representative-operations list of spec
// §4.5; want is -1 for "keep the smaller" (min), 1 for "keep the larger".
func foldExtreme(name string, args []value.Value, line int, want int) (value.Value, error) {
	items := args
	if len(args) == 1 {
		if arr, ok := args[0].(*value.Array); ok {
			items = arr.Elements
		}
	}
	if len(items) == 0 {
		return nil, errs.New(errs.ArgumentError, line, "%s(): empty input", name)
	}
	best := items[0]
	for _, v := range items[1:] {
		c, ok := value.Compare(v, best)
		if !ok {
			return nil, errs.Typef(line, "%s(): cannot compare %s and %s", name, value.TypeName(v), value.TypeName(best))
		}
		if c == want {
			best = v
		}
	}
	return best, nil
}

func biRound(interp Interp, args []value.Value, line int) (value.Value, error) {
	f, err := numArg("round", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	digits := int64(0)
	if len(args) > 1 {
		digits, err = wantInt("round", 1, args[1], line)
		if err != nil {
			return nil, err
		}
	}
	mult := math.Pow(10, float64(digits))
	rounded := math.Round(f*mult) / mult
	if digits == 0 {
		return value.Int(int64(rounded)), nil
	}
	return value.Real(rounded), nil
}

func biDiv(interp Interp, args []value.Value, line int) (value.Value, error) {
	a, err := numArg("div", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	b, err := numArg("div", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, errs.New(errs.DivisionByZero, line, "div() by zero")
	}
	_, aInt := args[0].(value.Int)
	_, bInt := args[1].(value.Int)
	if aInt && bInt {
		return value.Int(int64(a) / int64(b)), nil
	}
	return value.Real(a / b), nil
}
