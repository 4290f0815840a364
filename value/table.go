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
	"fmt"
	"strings"

	"github.com/google/btree"
)

// Table is the column-oriented tabular value of spec §3.2: an ordered
// sequence of named, typed Columns sharing one RowCount. Like Array and
// Object, Table is reference-shared (always held behind a pointer); derived
// operations such as table_filter/table_sort/table_join return a fresh
// *Table whose Columns slice and Column.Values are independent of the
// source, never aliasing it (spec §3.2: "filter/sort/join do not mutate
// sources").
type Table struct {
	Headers  []string
	Columns  []*Column
	RowCount int

	// Warnings accumulates heterogeneous-column messages raised during
	// construction (spec §3.2: "the builder emits a warning carrying the
	// minority percentage"). Builtins that build tables (read_csv,
	// make_table, table_from_rows) surface these to the caller.
	Warnings []string

	index *rowIndex // lazily built by EnsureSortIndex; nil until first use
}

func (*Table) Kind() Kind { return KindTable }

func (t *Table) String() string {
	return fmt.Sprintf("Table(%d cols, %d rows)", len(t.Headers), t.RowCount)
}

// NewTable builds a Table from column-major data: headers and one Values
// slice per header, in the same order. Missing headers are synthesized as
// Column_0, Column_1, … per spec §4.5 ("if headers are omitted, generate
// Column_0, Column_1, …"); every column is type-inferred via InferColumn,
// and a heterogeneity warning is recorded for any column whose dominant
// type covers less than 100% of its values.
func NewTable(headers []string, columns [][]Value) *Table {
	t := &Table{RowCount: 0}
	for i, vals := range columns {
		name := ""
		if i < len(headers) && headers[i] != "" {
			name = headers[i]
		} else {
			name = fmt.Sprintf("Column_%d", i)
		}
		t.Headers = append(t.Headers, name)
		col, heterogeneous, pct := InferColumn(name, vals)
		t.Columns = append(t.Columns, col)
		if heterogeneous {
			t.Warnings = append(t.Warnings, fmt.Sprintf(
				"column %q is heterogeneous (%s dominant, %.1f%% minority values)",
				name, col.InferredType, pct))
		}
		if len(vals) > t.RowCount {
			t.RowCount = len(vals)
		}
	}
	return t
}

// NewTableFromRows builds a Table from row-major data (the shape
// read_csv/read_xlsx naturally produce): one []Value per row, all of equal
// length. It transposes into column-major storage once, matching the
// layout InferColumn and the rest of this file expect.
func NewTableFromRows(headers []string, rows [][]Value) *Table {
	width := len(headers)
	cols := make([][]Value, width)
	for c := 0; c < width; c++ {
		col := make([]Value, len(rows))
		for r, row := range rows {
			if c < len(row) {
				col[r] = row[c]
			} else {
				col[r] = TheNull
			}
		}
		cols[c] = col
	}
	return NewTable(headers, cols)
}

// Column looks up a column by name, as used by field/index access (`t.col`,
// `t['col']`, spec §4.4).
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Row materializes row i as an Object keyed by header, used by `for row in
// table` iteration (spec §4.4: "Table (iterated as rows)").
func (t *Table) Row(i int) *Object {
	o := NewObject()
	for _, c := range t.Columns {
		if i < len(c.Values) {
			o.Set(c.Name, c.Values[i])
		} else {
			o.Set(c.Name, TheNull)
		}
	}
	return o
}

// Clone returns a *Table with independent Columns (and their backing
// slices), the same "return a fresh reference" contract as Array.Clone.
func (t *Table) Clone() *Table {
	out := &Table{Headers: append([]string(nil), t.Headers...), RowCount: t.RowCount}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, c.Clone())
	}
	out.Warnings = append([]string(nil), t.Warnings...)
	return out
}

// ---- sorted row index (table_sort / table_distinct acceleration) ----

// rowIndex is an optional btree.BTreeG-backed sorted index over a table's
// rows, built on demand by EnsureSortIndex. It mirrors the shape of
// storage.StorageIndex.deltaBtree (storage/index.go in the teacher repo):
// a degree-8 generic B-tree ordered by a caller-supplied comparator, used
// there to avoid a full re-sort when scanning a delta; here it caches one
// column's row order so a repeated EnsureSortIndex on the same column
// reuses the tree instead of rebuilding it.
type rowIndex struct {
	tree   *btree.BTreeG[rowEntry]
	colIdx int
}

// rowEntry pairs a row's sort-key value with its original row number;
// OriginalIndex breaks ties so equal keys keep stable (insertion) order,
// matching spec §8.1's "stable sort" invariant.
type rowEntry struct {
	Key            Value
	OriginalIndex  int
}

func rowLess(a, b rowEntry) bool {
	if c, ok := Compare(a.Key, b.Key); ok {
		if c != 0 {
			return c < 0
		}
		return a.OriginalIndex < b.OriginalIndex
	}
	// incomparable keys (mixed types): fall back to original order so the
	// tree still yields a total order, same as sort.Slice's tie-break.
	return a.OriginalIndex < b.OriginalIndex
}

// EnsureSortIndex builds (or reuses) a B-tree index over the named column,
// returning row numbers in ascending order of that column's values, or
// false when the column does not exist. The table_sort and table_distinct
// builtins do not call it; they order rows with the sort package directly.
func (t *Table) EnsureSortIndex(colName string) ([]int, bool) {
	col, ok := t.Column(colName)
	if !ok {
		return nil, false
	}
	colPos := -1
	for i, c := range t.Columns {
		if c == col {
			colPos = i
			break
		}
	}
	if t.index == nil || t.index.colIdx != colPos {
		tree := btree.NewG[rowEntry](8, rowLess)
		for i, v := range col.Values {
			tree.ReplaceOrInsert(rowEntry{Key: v, OriginalIndex: i})
		}
		t.index = &rowIndex{tree: tree, colIdx: colPos}
	}
	order := make([]int, 0, t.RowCount)
	t.index.tree.Ascend(func(e rowEntry) bool {
		order = append(order, e.OriginalIndex)
		return true
	})
	return order, true
}

// Describe renders a human-readable per-column type summary, used by the
// describe_table builtin (spec §4.5).
func (t *Table) Describe() string {
	var b strings.Builder
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "%s: %s (%d values)\n", c.Name, c.InferredType, len(c.Values))
	}
	return b.String()
}
