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

// Package value implements the DataCode runtime value model (spec §3.1) and
// the Table data model (spec §3.2). Equality and ordering are value-based
// (Array and Object compare element-wise), except for Table and Function,
// which Equal compares by identity. Array/Object/Table are
// reference-shared (spec §3.1, §3.2, §9): two Value wrappers holding the
// same *Array, *Object, or *Table point at the same interior.
package value

import "fmt"

// Kind tags the variant carried by a Value. Every operator in eval must
// switch on Kind exhaustively rather than relying on a Go type assertion
// failing silently (spec §9 design note: "tagged sum type ... exhaustive
// match at every operator site").
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindCurrency
	KindDate
	KindArray
	KindObject
	KindPath
	KindPathPattern
	KindTable
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindReal:
		return "Real"
	case KindString:
		return "String"
	case KindCurrency:
		return "Currency"
	case KindDate:
		return "Date"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	case KindPath:
		return "Path"
	case KindPathPattern:
		return "PathPattern"
	case KindTable:
		return "Table"
	case KindFunction:
		return "Function"
	}
	return "Unknown"
}

// Value is a runtime DataCode value (spec §3.1). Concrete variants below
// each implement Value by returning their own Kind; eval.go (and the other
// operator sites) switch on v.Kind() and then type-assert to the concrete
// struct, which is the idiomatic Go substitute for the union-match pattern
// this spec asks for in environments without sum types.
type Value interface {
	Kind() Kind
	String() string
}

// Null is the single distinguished absent value.
type Null struct{}

func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "null" }

var TheNull = Null{}

type Bool bool

func (Bool) Kind() Kind        { return KindBool }
func (b Bool) String() string  { if b { return "true" }; return "false" }

type Int int64

func (Int) Kind() Kind       { return KindInt }
func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }

type Real float64

func (Real) Kind() Kind       { return KindReal }
func (r Real) String() string { return formatReal(float64(r)) }

func formatReal(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

type String string

func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Currency carries an amount plus an ISO-ish currency code. Created by
// money() (spec §3.1).
type Currency struct {
	Amount float64
	Code   string
}

func (Currency) Kind() Kind { return KindCurrency }
func (c Currency) String() string {
	return fmt.Sprintf("%.2f %s", c.Amount, c.Code)
}

// NumericValue returns the float64 value of any Int/Real, and false for
// anything else (Currency included). Used by the arithmetic and comparison operator sites to
// implement the Int/Real promotion rule of spec §3.1.
func NumericValue(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		return float64(x), true
	case Real:
		return float64(x), true
	}
	return 0, false
}

// IsTruthy implements spec §4.4's truthiness rule: Null/false/0/0.0/""/[]/{}
// are falsy, everything else (including Currency, Date, Table, Function) is
// truthy (spec §9 open question, resolved to "non-Null is truthy" as a
// default and documented here).
func IsTruthy(v Value) bool {
	switch x := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Real:
		return x != 0
	case String:
		return x != ""
	case *Array:
		return len(x.Elements) > 0
	case *Object:
		return len(x.Keys) > 0
	default:
		return true
	}
}

// TypeName returns the user-facing type name used in error messages.
func TypeName(v Value) string {
	if v == nil {
		return "Null"
	}
	return v.Kind().String()
}
