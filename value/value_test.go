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

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualAcrossNumericTypes(t *testing.T) {
	assert.True(t, Equal(Int(3), Real(3.0)))
	assert.False(t, Equal(Int(3), Real(3.5)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("a"), String("b")))
	assert.True(t, Equal(TheNull, TheNull))
	assert.False(t, Equal(TheNull, Int(0)))
}

func TestEqualForJoinNullHandling(t *testing.T) {
	assert.False(t, EqualForJoin(TheNull, TheNull, false))
	assert.True(t, EqualForJoin(TheNull, TheNull, true))
}

func TestCompareOrdering(t *testing.T) {
	cases := []struct {
		a, b Value
		want int
	}{
		{Int(1), Int(2), -1},
		{Real(2.5), Int(2), 1},
		{String("a"), String("b"), -1},
		{String("x"), String("x"), 0},
	}
	for _, c := range cases {
		got, ok := Compare(c.a, c.b)
		require.True(t, ok, "expected comparable: %v vs %v", c.a, c.b)
		assert.Equal(t, c.want, got)
	}
}

func TestCompareIncomparableTypes(t *testing.T) {
	_, ok := Compare(NewArray(Int(1)), Int(1))
	assert.False(t, ok)
}

func TestArrayCloneIsIndependent(t *testing.T) {
	a := NewArray(Int(1), Int(2), Int(3))
	b := a.Clone()
	b.Elements[0] = Int(99)
	assert.Equal(t, Int(1), a.Elements[0])
	assert.Equal(t, Int(99), b.Elements[0])
}

func TestObjectSetGetDelete(t *testing.T) {
	o := NewObject()
	o.Set("a", Int(1))
	o.Set("b", Int(2))
	v, ok := o.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	o.Delete("a")
	_, ok = o.Get("a")
	assert.False(t, ok)

	require.Len(t, o.Keys, 1)
	assert.Equal(t, "b", o.Keys[0])
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", Int(1))
	o.Set("a", Int(2))
	o.Set("m", Int(3))
	assert.Equal(t, []string{"z", "a", "m"}, o.Keys)
}

func TestPathJoinAndRemote(t *testing.T) {
	p := Path{Raw: "data"}
	joined := p.Join("orders.csv")
	assert.Equal(t, "data/orders.csv", joined.Raw)
	assert.False(t, p.IsRemote())

	remote := Path{Raw: "lib://share/orders.csv"}
	assert.True(t, remote.IsRemote())
}

func TestHasGlobMeta(t *testing.T) {
	assert.True(t, HasGlobMeta("*.csv"))
	assert.True(t, HasGlobMeta("file?.csv"))
	assert.True(t, HasGlobMeta("file[0-9].csv"))
	assert.False(t, HasGlobMeta("plain.csv"))
}

func TestInferColumnDominantType(t *testing.T) {
	col, heterogeneous, _ := InferColumn("n", []Value{Int(1), Int(2), Int(3)})
	assert.Equal(t, ColInt, col.InferredType)
	assert.False(t, heterogeneous)

	mixed, heterogeneous2, pct := InferColumn("n", []Value{Int(1), String("x"), Int(3)})
	assert.Equal(t, ColInt, mixed.InferredType)
	assert.True(t, heterogeneous2)
	assert.Greater(t, pct, 0.0)
}

func TestNewTableRowRoundTrip(t *testing.T) {
	tbl := NewTable([]string{"id", "amount"}, [][]Value{
		{Int(1), Int(2)},
		{Real(10.5), Real(20.0)},
	})
	require.Equal(t, 2, tbl.RowCount)
	row := tbl.Row(0)
	v, ok := row.Get("id")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)
	v, ok = row.Get("amount")
	require.True(t, ok)
	assert.Equal(t, Real(10.5), v)
}

func TestTableColumnLookupMissing(t *testing.T) {
	tbl := NewTable([]string{"id"}, [][]Value{{Int(1)}})
	_, ok := tbl.Column("nope")
	assert.False(t, ok)
}

func TestTableCloneIndependence(t *testing.T) {
	tbl := NewTable([]string{"id"}, [][]Value{{Int(1), Int(2)}})
	clone := tbl.Clone()
	col, _ := clone.Column("id")
	col.Values[0] = Int(99)
	orig, _ := tbl.Column("id")
	assert.Equal(t, Int(1), orig.Values[0])
}
