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
	"sort"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
	"github.com/samber/lo"
)

func registerArrays(r *Registry) {
	r.register(Entry{Name: "push", Category: CatArray, MinArgs: 2, MaxArgs: 2, Fn: biPush})
	r.register(Entry{Name: "append", Category: CatArray, MinArgs: 2, MaxArgs: 2, Fn: biPush})
	r.register(Entry{Name: "pop", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biPop})
	r.register(Entry{Name: "sort", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biSort})
	r.register(Entry{Name: "unique", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biUnique})
	r.register(Entry{Name: "reverse", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biReverse})
	r.register(Entry{Name: "sum", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biSum})
	r.register(Entry{Name: "average", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biAverage})
	r.register(Entry{Name: "count", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biCount})
	r.register(Entry{Name: "range", Category: CatArray, MinArgs: 1, MaxArgs: 3, Fn: biRange})
	r.register(Entry{Name: "enum", Category: CatArray, MinArgs: 1, MaxArgs: 1, Fn: biEnum})
	r.register(Entry{Name: "map", Category: CatArray, MinArgs: 2, MaxArgs: 2, Fn: biMapFn})
	r.register(Entry{Name: "filter", Category: CatArray, MinArgs: 2, MaxArgs: 2, Fn: biFilterFn})
	r.register(Entry{Name: "reduce", Category: CatArray, MinArgs: 2, MaxArgs: 3, Fn: biReduceFn})
}

// biPush returns a new Array with v appended; it does not mutate its
// source, matching the "filter/sort/join do not mutate sources" contract
// spec §3.2 states for tables and which this package applies uniformly to
// Array-returning builtins too (§8.1 invariant 2 generalises cleanly).
func biPush(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("push", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	out := arr.Clone()
	out.Elements = append(out.Elements, args[1])
	return out, nil
}

func biPop(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("pop", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	if len(arr.Elements) == 0 {
		return nil, errs.New(errs.IndexError, line, "pop(): array is empty")
	}
	out := arr.Clone()
	out.Elements = out.Elements[:len(out.Elements)-1]
	return out, nil
}

// biSort implements spec §8.1 invariant 5 (idempotence) via a stable sort
// keyed by value.Compare; incomparable elements (mixed kinds that cannot be
// ordered) raise TypeError naming the offending pair.
func biSort(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("sort", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	out := arr.Clone()
	var sortErr error
	sort.SliceStable(out.Elements, func(i, j int) bool {
		c, ok := value.Compare(out.Elements[i], out.Elements[j])
		if !ok && sortErr == nil {
			sortErr = errs.Typef(line, "sort(): cannot compare %s and %s",
				value.TypeName(out.Elements[i]), value.TypeName(out.Elements[j]))
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}

// biUnique dedups by value.Equal (not Go's ==, per samber/lo.Uniq's
// comparable constraint mismatch with DataCode's cross-kind Int/Real
// numeric equality — see DESIGN.md) while preserving first-occurrence
// order, satisfying spec §8.1 invariant 5.
func biUnique(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("unique", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(arr.Elements))
	for _, v := range arr.Elements {
		seen := false
		for _, u := range out {
			if value.Equal(v, u) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return value.NewArray(out...), nil
}

func biReverse(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("reverse", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	out := arr.Clone()
	out.Elements = lo.Reverse(out.Elements)
	return out, nil
}

func biSum(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("sum", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	var total float64
	allInt := true
	for _, v := range arr.Elements {
		f, ok := value.NumericValue(v)
		if !ok {
			return nil, argErr("sum", 0, "Array of Int/Real", v, line)
		}
		if _, ok := v.(value.Int); !ok {
			allInt = false
		}
		total += f
	}
	if allInt {
		return value.Int(int64(total)), nil
	}
	return value.Real(total), nil
}

func biAverage(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("average", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	if len(arr.Elements) == 0 {
		return nil, errs.New(errs.ArgumentError, line, "average(): empty array")
	}
	var total float64
	for _, v := range arr.Elements {
		f, ok := value.NumericValue(v)
		if !ok {
			return nil, argErr("average", 0, "Array of Int/Real", v, line)
		}
		total += f
	}
	return value.Real(total / float64(len(arr.Elements))), nil
}

func biCount(interp Interp, args []value.Value, line int) (value.Value, error) {
	switch v := args[0].(type) {
	case *value.Array:
		return value.Int(len(v.Elements)), nil
	case *value.Table:
		return value.Int(v.RowCount), nil
	}
	return nil, argErr("count", 0, "Array or Table", args[0], line)
}

// biRange implements the half-open range()/negative-step contract of
// spec §6.3.
func biRange(interp Interp, args []value.Value, line int) (value.Value, error) {
	var start, end, step int64 = 0, 0, 1
	var err error
	switch len(args) {
	case 1:
		end, err = wantInt("range", 0, args[0], line)
	case 2:
		start, err = wantInt("range", 0, args[0], line)
		if err == nil {
			end, err = wantInt("range", 1, args[1], line)
		}
	default:
		start, err = wantInt("range", 0, args[0], line)
		if err == nil {
			end, err = wantInt("range", 1, args[1], line)
		}
		if err == nil {
			step, err = wantInt("range", 2, args[2], line)
		}
	}
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, errs.New(errs.ArgumentError, line, "range(): step must not be zero")
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, value.Int(i))
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, value.Int(i))
		}
	}
	return value.NewArray(out...), nil
}

// biEnum yields (index, element) pairs over any iterable as an Array of
// 2-element Arrays, destructurable by the for-loop's multi-name binding
// (spec §4.5 "enum: lazy sequence ... destructurable by the for-loop's
// multi-name binding" — materialised eagerly here since DataCode's for-loop
// consumes a concrete Array/Table/Object/String anyway per §4.4, so a lazy
// generator would gain nothing observable).
func biEnum(interp Interp, args []value.Value, line int) (value.Value, error) {
	items, err := iterableElements(args[0], line)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(items))
	for i, v := range items {
		out[i] = value.NewArray(value.Int(i), v)
	}
	return value.NewArray(out...), nil
}

// iterableElements normalizes any of the for-loop's allowed iterables
// (spec §4.4: Array, Table rows, Object values, String characters) into a
// plain []value.Value, shared by enum() and the evaluator's for-statement.
func iterableElements(v value.Value, line int) ([]value.Value, error) {
	switch x := v.(type) {
	case *value.Array:
		return x.Elements, nil
	case *value.Object:
		out := make([]value.Value, len(x.Keys))
		for i, k := range x.Keys {
			out[i] = x.Values[k]
		}
		return out, nil
	case value.String:
		runes := []rune(string(x))
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.String(string(r))
		}
		return out, nil
	case *value.Table:
		out := make([]value.Value, x.RowCount)
		for i := 0; i < x.RowCount; i++ {
			out[i] = x.Row(i)
		}
		return out, nil
	}
	return nil, errs.Typef(line, "not iterable: %s", value.TypeName(v))
}

func biMapFn(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("map", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	fn, err := wantFunction("map", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(arr.Elements))
	for i, item := range arr.Elements {
		r, err := interp.CallFunction(fn, []value.Value{item}, line)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return value.NewArray(out...), nil
}

func biFilterFn(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("filter", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	fn, err := wantFunction("filter", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, item := range arr.Elements {
		keep, err := interp.CallFunction(fn, []value.Value{item}, line)
		if err != nil {
			return nil, err
		}
		if value.IsTruthy(keep) {
			out = append(out, item)
		}
	}
	return value.NewArray(out...), nil
}

func biReduceFn(interp Interp, args []value.Value, line int) (value.Value, error) {
	arr, err := wantArray("reduce", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	fn, err := wantFunction("reduce", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	var acc value.Value = value.TheNull
	start := 0
	if len(args) > 2 {
		acc = args[2]
	} else if len(arr.Elements) > 0 {
		acc = arr.Elements[0]
		start = 1
	}
	for _, item := range arr.Elements[start:] {
		acc, err = interp.CallFunction(fn, []value.Value{acc, item}, line)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
