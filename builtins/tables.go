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
	"fmt"
	"sort"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
)

func registerTables(r *Registry) {
	r.register(Entry{Name: "table", Category: CatTable, MinArgs: 1, MaxArgs: 2, Fn: biTableCreate})
	r.register(Entry{Name: "table_create", Category: CatTable, MinArgs: 1, MaxArgs: 2, Fn: biTableCreate})
	r.register(Entry{Name: "show_table", Category: CatTable, MinArgs: 1, MaxArgs: 1, Fn: biShowTable})
	r.register(Entry{Name: "table_info", Category: CatTable, MinArgs: 1, MaxArgs: 1, Fn: biTableInfo})
	r.register(Entry{Name: "table_head", Category: CatTable, MinArgs: 1, MaxArgs: 2, Fn: biTableHead})
	r.register(Entry{Name: "table_tail", Category: CatTable, MinArgs: 1, MaxArgs: 2, Fn: biTableTail})
	r.register(Entry{Name: "table_headers", Category: CatTable, MinArgs: 1, MaxArgs: 1, Fn: biTableHeaders})
	r.register(Entry{Name: "table_select", Category: CatTable, MinArgs: 2, MaxArgs: -1, Fn: biTableSelect})
	r.register(Entry{Name: "table_sort", Category: CatTable, MinArgs: 2, MaxArgs: 3, Fn: biTableSort})
	r.register(Entry{Name: "table_where", Category: CatTable, MinArgs: 2, MaxArgs: 2, Fn: biTableFilter})
	r.register(Entry{Name: "table_filter", Category: CatTable, MinArgs: 2, MaxArgs: 2, Fn: biTableFilter})
	r.register(Entry{Name: "table_distinct", Category: CatTable, MinArgs: 1, MaxArgs: 2, Fn: biTableDistinct})
	r.register(Entry{Name: "table_sample", Category: CatTable, MinArgs: 2, MaxArgs: 2, Fn: biTableSample})
	r.register(Entry{Name: "table_union", Category: CatTable, MinArgs: 2, MaxArgs: 2, Fn: biTableUnion})
	r.register(Entry{Name: "table_join", Category: CatTable, MinArgs: 4, MaxArgs: 5, Fn: biTableJoin})
	r.register(Entry{Name: "relate", Category: CatTable, MinArgs: 2, MaxArgs: 2, Fn: biRelate})
	r.register(Entry{Name: "merge_tables", Category: CatTable, MinArgs: 2, MaxArgs: 2, Fn: biTableUnion})
}

// biTableCreate builds a Table from row-major 2-D data (spec §4.5 "table
// construction"): args[0] is an Array of row-Arrays, args[1] (optional) is
// an Array of String headers; omitted headers become Column_0, Column_1, …
// inside value.NewTableFromRows.
func biTableCreate(interp Interp, args []value.Value, line int) (value.Value, error) {
	rowsArr, err := wantArray("table", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	var headers []string
	if len(args) > 1 {
		hArr, err := wantArray("table", 1, args[1], line)
		if err != nil {
			return nil, err
		}
		for i, h := range hArr.Elements {
			s, err := wantString("table", 1, h, line)
			if err != nil {
				return nil, fmt.Errorf("header %d: %w", i, err)
			}
			headers = append(headers, s)
		}
	}
	rows := make([][]value.Value, len(rowsArr.Elements))
	width := len(headers)
	for i, r := range rowsArr.Elements {
		rowArr, err := wantArray("table", 0, r, line)
		if err != nil {
			return nil, err
		}
		rows[i] = rowArr.Elements
		if len(rowArr.Elements) > width {
			width = len(rowArr.Elements)
		}
	}
	if len(headers) == 0 {
		headers = make([]string, width)
		for i := range headers {
			headers[i] = fmt.Sprintf("Column_%d", i)
		}
	}
	return value.NewTableFromRows(headers, rows), nil
}

func biShowTable(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("show_table", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	interp.Print(t.Describe())
	return value.TheNull, nil
}

func biTableInfo(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_info", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	o := value.NewObject()
	o.Set("row_count", value.Int(t.RowCount))
	o.Set("column_count", value.Int(len(t.Headers)))
	cols := make([]value.Value, len(t.Columns))
	for i, c := range t.Columns {
		co := value.NewObject()
		co.Set("name", value.String(c.Name))
		co.Set("type", value.String(c.InferredType.String()))
		cols[i] = co
	}
	o.Set("columns", value.NewArray(cols...))
	return o, nil
}

func sliceTable(t *value.Table, from, to int) *value.Table {
	if from < 0 {
		from = 0
	}
	if to > t.RowCount {
		to = t.RowCount
	}
	if from > to {
		from = to
	}
	out := &value.Table{Headers: append([]string(nil), t.Headers...)}
	for _, c := range t.Columns {
		lo, hi := from, to
		if lo > len(c.Values) {
			lo = len(c.Values)
		}
		if hi > len(c.Values) {
			hi = len(c.Values)
		}
		vals := append([]value.Value(nil), c.Values[lo:hi]...)
		col, heterogeneous, pct := value.InferColumn(c.Name, vals)
		out.Columns = append(out.Columns, col)
		if heterogeneous {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q is heterogeneous (%.1f%% minority values)", c.Name, pct))
		}
	}
	out.RowCount = to - from
	return out
}

func biTableHead(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_head", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	n := int64(10)
	if len(args) > 1 {
		n, err = wantInt("table_head", 1, args[1], line)
		if err != nil {
			return nil, err
		}
	}
	return sliceTable(t, 0, int(n)), nil
}

func biTableTail(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_tail", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	n := int64(10)
	if len(args) > 1 {
		n, err = wantInt("table_tail", 1, args[1], line)
		if err != nil {
			return nil, err
		}
	}
	return sliceTable(t, t.RowCount-int(n), t.RowCount), nil
}

func biTableHeaders(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_headers", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(t.Headers))
	for i, h := range t.Headers {
		out[i] = value.String(h)
	}
	return value.NewArray(out...), nil
}

// biTableSelect projects a subset of named columns, preserving row order
// (spec §4.4 "Table derived operations preserve source row order").
func biTableSelect(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_select", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	out := &value.Table{RowCount: t.RowCount}
	for i, nameArg := range args[1:] {
		name, err := wantString("table_select", i+1, nameArg, line)
		if err != nil {
			return nil, err
		}
		col, ok := t.Column(name)
		if !ok {
			return nil, errs.New(errs.KeyError, line, "table_select(): no such column %q", name)
		}
		out.Headers = append(out.Headers, name)
		out.Columns = append(out.Columns, col.Clone())
	}
	return out, nil
}

// biTableSort orders rows by one column (ascending by default; a truthy
// third argument reverses to descending), applying the same permutation to
// every column so §3.2's row_count/length invariant is preserved.
func biTableSort(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_sort", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	colName, err := wantString("table_sort", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	desc := false
	if len(args) > 2 {
		desc = value.IsTruthy(args[2])
	}
	col, ok := t.Column(colName)
	if !ok {
		return nil, errs.New(errs.KeyError, line, "table_sort(): no such column %q", colName)
	}
	perm := make([]int, t.RowCount)
	for i := range perm {
		perm[i] = i
	}
	var sortErr error
	sort.SliceStable(perm, func(a, b int) bool {
		c, ok := value.Compare(col.Values[perm[a]], col.Values[perm[b]])
		if !ok && sortErr == nil {
			sortErr = errs.Typef(line, "table_sort(): column %q has incomparable values", colName)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return permuteTable(t, perm), nil
}

func permuteTable(t *value.Table, perm []int) *value.Table {
	out := &value.Table{Headers: append([]string(nil), t.Headers...), RowCount: len(perm)}
	for _, c := range t.Columns {
		vals := make([]value.Value, len(perm))
		for i, p := range perm {
			vals[i] = c.Values[p]
		}
		col, heterogeneous, pct := value.InferColumn(c.Name, vals)
		out.Columns = append(out.Columns, col)
		if heterogeneous {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q is heterogeneous (%.1f%% minority values)", c.Name, pct))
		}
	}
	return out
}

// biTableFilter implements table_where/table_filter: args[1] is a
// user Function receiving the row as an Object, returning a truthy/falsy
// result; matching rows preserve source order (stable filter, spec §4.4).
func biTableFilter(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_filter", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	fn, err := wantFunction("table_filter", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	var perm []int
	for i := 0; i < t.RowCount; i++ {
		keep, err := interp.CallFunction(fn, []value.Value{t.Row(i)}, line)
		if err != nil {
			return nil, err
		}
		if value.IsTruthy(keep) {
			perm = append(perm, i)
		}
	}
	return permuteTable(t, perm), nil
}

func biTableDistinct(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_distinct", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	var cols []string
	if len(args) > 1 {
		arr, err := wantArray("table_distinct", 1, args[1], line)
		if err != nil {
			return nil, err
		}
		for i, c := range arr.Elements {
			s, err := wantString("table_distinct", 1, c, line)
			if err != nil {
				return nil, fmt.Errorf("column %d: %w", i, err)
			}
			cols = append(cols, s)
		}
	} else {
		cols = append([]string(nil), t.Headers...)
	}
	var perm []int
	var seen [][]value.Value
	for i := 0; i < t.RowCount; i++ {
		key := make([]value.Value, len(cols))
		for j, cname := range cols {
			c, ok := t.Column(cname)
			if !ok {
				return nil, errs.New(errs.KeyError, line, "table_distinct(): no such column %q", cname)
			}
			key[j] = c.Values[i]
		}
		dup := false
		for _, s := range seen {
			if rowKeyEqual(key, s) {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, key)
			perm = append(perm, i)
		}
	}
	return permuteTable(t, perm), nil
}

func rowKeyEqual(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// biTableSample returns up to n rows taken at a fixed stride of
// RowCount/n (at least 1), starting at row 0: a deterministic sample so
// behaviour is reproducible across runs (no RNG dependency in the core, per
// §5: the core never suspends on or depends on external entropy sources).
func biTableSample(interp Interp, args []value.Value, line int) (value.Value, error) {
	t, err := wantTable("table_sample", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	n, err := wantInt("table_sample", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errs.New(errs.ArgumentError, line, "table_sample(): n must be positive")
	}
	stride := t.RowCount / int(n)
	if stride < 1 {
		stride = 1
	}
	var perm []int
	for i := 0; i < t.RowCount && len(perm) < int(n); i += stride {
		perm = append(perm, i)
	}
	return permuteTable(t, perm), nil
}

// biTableUnion concatenates rows from two tables with identical headers
// (order-sensitive, per §4.4 row-order preservation); mismatched headers
// fail with TypeError.
func biTableUnion(interp Interp, args []value.Value, line int) (value.Value, error) {
	a, err := wantTable("table_union", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	b, err := wantTable("table_union", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	if len(a.Headers) != len(b.Headers) {
		return nil, errs.Typef(line, "table_union(): column count mismatch (%d vs %d)", len(a.Headers), len(b.Headers))
	}
	for i := range a.Headers {
		if a.Headers[i] != b.Headers[i] {
			return nil, errs.Typef(line, "table_union(): column %d name mismatch (%q vs %q)", i, a.Headers[i], b.Headers[i])
		}
	}
	out := &value.Table{Headers: append([]string(nil), a.Headers...), RowCount: a.RowCount + b.RowCount}
	for i, ca := range a.Columns {
		cb := b.Columns[i]
		vals := append(append([]value.Value(nil), ca.Values...), cb.Values...)
		col, heterogeneous, pct := value.InferColumn(ca.Name, vals)
		out.Columns = append(out.Columns, col)
		if heterogeneous {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q is heterogeneous (%.1f%% minority values)", ca.Name, pct))
		}
	}
	return out, nil
}

// biTableJoin implements the equi-join of spec §4.5: args are (left,
// right, leftKeyCol, rightKeyCol[, joinType]); joinType one of inner,
// left, right, full, cross, semi, anti (default "inner"). The scan order
// is left-outer/right-inner, matching the deterministic Cartesian order
// spec §4.5 specifies; unmatched rows for left/right/full are emitted
// after matches for their outer row.
func biTableJoin(interp Interp, args []value.Value, line int) (value.Value, error) {
	left, err := wantTable("table_join", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	right, err := wantTable("table_join", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	leftKey, err := wantString("table_join", 2, args[2], line)
	if err != nil {
		return nil, err
	}
	rightKey, err := wantString("table_join", 3, args[3], line)
	if err != nil {
		return nil, err
	}
	joinType := "inner"
	if len(args) > 4 {
		joinType, err = wantString("table_join", 4, args[4], line)
		if err != nil {
			return nil, err
		}
	}
	lcol, ok := left.Column(leftKey)
	if !ok {
		return nil, errs.New(errs.KeyError, line, "table_join(): no such column %q on left table", leftKey)
	}
	rcol, ok := right.Column(rightKey)
	if !ok {
		return nil, errs.New(errs.KeyError, line, "table_join(): no such column %q on right table", rightKey)
	}

	headers := append([]string(nil), left.Headers...)
	for _, h := range right.Headers {
		name := h
		if contains(headers, name) {
			name = name + "_right"
		}
		headers = append(headers, name)
	}

	var leftRows, rightRows []int
	matchedRight := make(map[int]bool)
	emitPair := func(li, ri int) {
		leftRows = append(leftRows, li)
		rightRows = append(rightRows, ri)
		if ri >= 0 {
			matchedRight[ri] = true
		}
	}

	for li := 0; li < left.RowCount; li++ {
		matchedAny := false
		for ri := 0; ri < right.RowCount; ri++ {
			eq := joinType == "cross" || value.EqualForJoin(lcol.Values[li], rcol.Values[ri], false)
			if !eq {
				continue
			}
			matchedAny = true
			switch joinType {
			case "semi":
				// emitted once below, not per right match
			case "anti":
				// never emitted; handled after the loop
			default:
				emitPair(li, ri)
			}
		}
		switch joinType {
		case "semi":
			if matchedAny {
				emitPair(li, -1)
			}
		case "anti":
			if !matchedAny {
				emitPair(li, -1)
			}
		case "left", "full":
			if !matchedAny {
				emitPair(li, -1)
			}
		}
	}
	if joinType == "right" || joinType == "full" {
		for ri := 0; ri < right.RowCount; ri++ {
			if !matchedRight[ri] {
				leftRows = append(leftRows, -1)
				rightRows = append(rightRows, ri)
			}
		}
	}

	out := &value.Table{Headers: headers, RowCount: len(leftRows)}
	for _, c := range left.Columns {
		vals := make([]value.Value, len(leftRows))
		for i, li := range leftRows {
			if li < 0 {
				vals[i] = value.TheNull
			} else {
				vals[i] = c.Values[li]
			}
		}
		col, het, pct := value.InferColumn(c.Name, vals)
		out.Columns = append(out.Columns, col)
		if het {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q is heterogeneous (%.1f%% minority values)", c.Name, pct))
		}
	}
	if joinType != "semi" && joinType != "anti" {
		for i, c := range right.Columns {
			vals := make([]value.Value, len(rightRows))
			for j, ri := range rightRows {
				if ri < 0 {
					vals[j] = value.TheNull
				} else {
					vals[j] = c.Values[ri]
				}
			}
			col, het, pct := value.InferColumn(headers[len(left.Headers)+i], vals)
			out.Columns = append(out.Columns, col)
			if het {
				out.Warnings = append(out.Warnings, fmt.Sprintf("column %q is heterogeneous (%.1f%% minority values)", col.Name, pct))
			}
		}
	}
	return out, nil
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// biRelate records an explicit relation between two table columns for the
// SQLite exporter (spec §6.3, §6.4: "both columns must be from Table
// values held in globals"). `tbl.col`/`tbl['col']` (spec §4.4) hand back
// the Column's own Values slice wrapped in an Array rather than a copy, so
// the two Arrays here still share backing storage with their source
// Column; host/sqliteexport resolves the relation at --build_model time by
// matching that backing pointer against every global Table's columns.
func biRelate(interp Interp, args []value.Value, line int) (value.Value, error) {
	a, err := wantArray("relate", 0, args[0], line)
	if err != nil {
		return nil, err
	}
	b, err := wantArray("relate", 1, args[1], line)
	if err != nil {
		return nil, err
	}
	interp.RecordRelation(a, b)
	return value.TheNull, nil
}
