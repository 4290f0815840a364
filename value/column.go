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

// ColumnType is a Column's inferred dominant type (spec §3.2).
type ColumnType uint8

const (
	ColInt ColumnType = iota
	ColReal
	ColString
	ColBool
	ColDate
	ColCurrency
	ColNull
	ColMixed
)

func (t ColumnType) String() string {
	switch t {
	case ColInt:
		return "Int"
	case ColReal:
		return "Real"
	case ColString:
		return "String"
	case ColBool:
		return "Bool"
	case ColDate:
		return "Date"
	case ColCurrency:
		return "Currency"
	case ColNull:
		return "Null"
	case ColMixed:
		return "Mixed"
	}
	return "Unknown"
}

// Column is one named, typed vector of a Table (spec §3.2). Histogram is
// the optional type-distribution the inference step records, keyed by
// ColumnType.String() so builtins can surface it (e.g. describe_table)
// without a second pass over Values.
type Column struct {
	Name         string
	InferredType ColumnType
	Values       []Value
	Histogram    map[ColumnType]int
}

func columnTypeOf(v Value) ColumnType {
	switch v.(type) {
	case Null:
		return ColNull
	case Int:
		return ColInt
	case Real:
		return ColReal
	case String:
		return ColString
	case Bool:
		return ColBool
	case Date:
		return ColDate
	case Currency:
		return ColCurrency
	default:
		return ColMixed
	}
}

// InferColumn builds a Column from a name and its values, applying the
// dominant-type (>50%) rule of spec §3.2: the most frequent ColumnType
// among Values becomes InferredType only if it accounts for a strict
// majority; otherwise the column is ColMixed. heterogeneous reports
// whether any value disagreed with the winning type, and minorityPct is
// the percentage of values that did not match it — the builder
// (table.go's NewTable) turns that into the heterogeneity warning spec
// §3.2 asks for.
func InferColumn(name string, values []Value) (col *Column, heterogeneous bool, minorityPct float64) {
	hist := make(map[ColumnType]int)
	for _, v := range values {
		hist[columnTypeOf(v)]++
	}
	var winner ColumnType
	var winnerCount int
	for t, n := range hist {
		if n > winnerCount {
			winner, winnerCount = t, n
		}
	}
	total := len(values)
	inferred := ColMixed
	if total > 0 && winnerCount*2 > total {
		inferred = winner
	}
	minority := total - winnerCount
	pct := 0.0
	if total > 0 {
		pct = float64(minority) / float64(total) * 100
	}
	return &Column{Name: name, InferredType: inferred, Values: values, Histogram: hist}, minority > 0, pct
}

// Clone returns a Column with an independent backing slice (same rule as
// Array.Clone: derived table operations must not share mutable state with
// their source, spec §3.2 "filter/sort/join do not mutate sources").
func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	hist := make(map[ColumnType]int, len(c.Histogram))
	for k, v := range c.Histogram {
		hist[k] = v
	}
	return &Column{Name: c.Name, InferredType: c.InferredType, Values: vals, Histogram: hist}
}
