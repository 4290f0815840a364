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
	"testing"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInterp is a minimal Interp for exercising builtins without pulling in
// package eval (which would import this package, creating a cycle). Its
// CallFunction dispatches on the Function's Name since DataCode functions
// carry no native callback slot (value.Function is AST-only, see
// value/function.go).
type fakeInterp struct {
	printed []string
	relA    []*value.Array
	relB    []*value.Array
	predicates map[string]func(row value.Value) bool
}

func newFakeInterp() *fakeInterp {
	return &fakeInterp{predicates: map[string]func(row value.Value) bool{}}
}

func (f *fakeInterp) CallFunction(fn *value.Function, args []value.Value, line int) (value.Value, error) {
	pred, ok := f.predicates[fn.Name]
	if !ok {
		return nil, errs.New(errs.UndefinedFunction, line, "no test predicate registered for %s", fn.Name)
	}
	return value.Bool(pred(args[0])), nil
}

func (f *fakeInterp) Print(s string)  { f.printed = append(f.printed, s) }
func (f *fakeInterp) Getcwd() string  { return "/tmp" }
func (f *fakeInterp) RecordRelation(a, b *value.Array) {
	f.relA = append(f.relA, a)
	f.relB = append(f.relB, b)
}
func (f *fakeInterp) ResolveShare(raw string) (string, error) {
	return "", errs.New(errs.IOError, 0, "no share resolver in test double")
}

func call(t *testing.T, r *Registry, name string, interp Interp, args ...value.Value) value.Value {
	t.Helper()
	v, err := r.Call(name, interp, args, 1)
	require.NoError(t, err)
	return v
}

func TestAbsSqrtPow(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	assert.Equal(t, value.Int(5), call(t, r, "abs", interp, value.Int(-5)))
	assert.Equal(t, value.Real(2), call(t, r, "sqrt", interp, value.Int(4)))
	assert.Equal(t, value.Int(8), call(t, r, "pow", interp, value.Int(2), value.Int(3)))
}

func TestSqrtNegativeRaisesTypeError(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	_, err := r.Call("sqrt", interp, []value.Value{value.Int(-1)}, 1)
	require.Error(t, err)
	e, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.TypeError, e.Kind)
}

func TestMinMaxOverArrayOrVarargs(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	arr := value.NewArray(value.Int(3), value.Int(1), value.Int(2))
	assert.Equal(t, value.Int(1), call(t, r, "min", interp, arr))
	assert.Equal(t, value.Int(9), call(t, r, "max", interp, value.Int(5), value.Int(9), value.Int(2)))
}

func TestDivByZeroRaisesDivisionByZero(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	_, err := r.Call("div", interp, []value.Value{value.Int(1), value.Int(0)}, 1)
	require.Error(t, err)
	e, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.DivisionByZero, e.Kind)
}

func TestStringHelpers(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	assert.Equal(t, value.String("HELLO"), call(t, r, "upper", interp, value.String("hello")))
	assert.Equal(t, value.String("hello"), call(t, r, "lower", interp, value.String("HELLO")))
	assert.Equal(t, value.String("hi"), call(t, r, "trim", interp, value.String("  hi  ")))
	assert.Equal(t, value.Bool(true), call(t, r, "contains", interp, value.String("hello"), value.String("ell")))

	parts := call(t, r, "split", interp, value.String("a,b,c"), value.String(",")).(*value.Array)
	require.Len(t, parts.Elements, 3)
	assert.Equal(t, value.String("b"), parts.Elements[1])

	joined := call(t, r, "join", interp, value.NewArray(value.Int(1), value.Int(2)), value.String("-"))
	assert.Equal(t, value.String("1-2"), joined)
}

func TestLengthAcrossKinds(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	assert.Equal(t, value.Int(5), call(t, r, "length", interp, value.String("hello")))
	assert.Equal(t, value.Int(3), call(t, r, "length", interp, value.NewArray(value.Int(1), value.Int(2), value.Int(3))))
}

func TestArrayPushDoesNotMutateSource(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	arr := value.NewArray(value.Int(3), value.Int(1), value.Int(2))
	pushed := call(t, r, "push", interp, arr, value.Int(4)).(*value.Array)
	require.Len(t, pushed.Elements, 4)
	assert.Len(t, arr.Elements, 3)
}

func TestArraySortUniqueReverseSumAverage(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	arr := value.NewArray(value.Int(3), value.Int(1), value.Int(2), value.Int(1))

	sorted := call(t, r, "sort", interp, arr).(*value.Array)
	assert.Equal(t, []value.Value{value.Int(1), value.Int(1), value.Int(2), value.Int(3)}, sorted.Elements)

	uniq := call(t, r, "unique", interp, arr).(*value.Array)
	assert.Equal(t, []value.Value{value.Int(3), value.Int(1), value.Int(2)}, uniq.Elements)

	rev := call(t, r, "reverse", interp, arr).(*value.Array)
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2), value.Int(1), value.Int(3)}, rev.Elements)

	assert.Equal(t, value.Int(7), call(t, r, "sum", interp, arr))
	avg := call(t, r, "average", interp, arr).(value.Real)
	assert.InDelta(t, 1.75, float64(avg), 0.0001)
}

func TestRangeHalfOpenAndNegativeStep(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	up := call(t, r, "range", interp, value.Int(0), value.Int(5)).(*value.Array)
	assert.Equal(t, []value.Value{value.Int(0), value.Int(1), value.Int(2), value.Int(3), value.Int(4)}, up.Elements)

	down := call(t, r, "range", interp, value.Int(5), value.Int(0), value.Int(-1)).(*value.Array)
	assert.Equal(t, []value.Value{value.Int(5), value.Int(4), value.Int(3), value.Int(2), value.Int(1)}, down.Elements)
}

func TestTypeofIntStringBoolArray(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	assert.Equal(t, value.String("Int"), call(t, r, "typeof", interp, value.Int(1)))
	assert.Equal(t, value.String("String"), call(t, r, "typeof", interp, value.String("a")))
	assert.Equal(t, value.String("Array"), call(t, r, "typeof", interp, value.NewArray()))
}

func TestIsInstanceIsCaseInsensitive(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	assert.Equal(t, value.Bool(true), call(t, r, "isinstance", interp, value.Int(1), value.String("int")))
	assert.Equal(t, value.Bool(false), call(t, r, "isinstance", interp, value.Int(1), value.String("string")))
}

func TestIntFloatBoolStrConversions(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	assert.Equal(t, value.Int(42), call(t, r, "int", interp, value.String(" 42 ")))
	assert.Equal(t, value.Real(4.5), call(t, r, "float", interp, value.String("4.5")))
	assert.Equal(t, value.Bool(true), call(t, r, "bool", interp, value.Int(1)))
	assert.Equal(t, value.String("42"), call(t, r, "str", interp, value.Int(42)))
}

func TestIntConversionFailureRaisesTypeError(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	_, err := r.Call("int", interp, []value.Value{value.String("not a number")}, 1)
	require.Error(t, err)
	e, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.TypeError, e.Kind)
}

func TestUndefinedBuiltinRaisesUndefinedFunction(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	_, err := r.Call("no_such_builtin", interp, nil, 1)
	require.Error(t, err)
	e, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.UndefinedFunction, e.Kind)
}

func TestWrongArityRaisesArgumentError(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	_, err := r.Call("abs", interp, []value.Value{value.Int(1), value.Int(2)}, 1)
	require.Error(t, err)
	e, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ArgumentError, e.Kind)
}

func TestTableCreateSelectSortFilterDistinct(t *testing.T) {
	r := Default()
	interp := newFakeInterp()

	rows := value.NewArray(
		value.NewArray(value.Int(1), value.String("amy"), value.Int(30)),
		value.NewArray(value.Int(2), value.String("bo"), value.Int(20)),
		value.NewArray(value.Int(3), value.String("cy"), value.Int(20)),
	)
	headers := value.NewArray(value.String("id"), value.String("name"), value.String("age"))
	tbl := call(t, r, "table", interp, rows, headers).(*value.Table)
	require.Equal(t, 3, tbl.RowCount)

	selected := call(t, r, "table_select", interp, tbl, value.String("name"), value.String("age")).(*value.Table)
	assert.Equal(t, []string{"name", "age"}, selected.Headers)

	sorted := call(t, r, "table_sort", interp, tbl, value.String("age")).(*value.Table)
	ageCol, ok := sorted.Column("age")
	require.True(t, ok)
	assert.Equal(t, value.Int(20), ageCol.Values[0])

	interp.predicates["isAdult"] = func(row value.Value) bool {
		o := row.(*value.Object)
		age, _ := o.Get("age")
		return age == value.Int(30)
	}
	fn := value.NewFunction("isAdult", []string{"row"}, nil)
	filtered := call(t, r, "table_filter", interp, tbl, fn).(*value.Table)
	assert.Equal(t, 1, filtered.RowCount)

	distinct := call(t, r, "table_distinct", interp, tbl, value.NewArray(value.String("age"))).(*value.Table)
	assert.Equal(t, 2, distinct.RowCount)
}

func TestRelateRecordsArrayPairOnInterp(t *testing.T) {
	r := Default()
	interp := newFakeInterp()
	a := value.NewArray(value.Int(1), value.Int(2))
	b := value.NewArray(value.Int(3), value.Int(4))
	call(t, r, "relate", interp, a, b)
	require.Len(t, interp.relA, 1)
	assert.Same(t, a, interp.relA[0])
	assert.Same(t, b, interp.relB[0])
}
