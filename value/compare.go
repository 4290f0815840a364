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

// Equal implements the value-based equality rule of spec §3.1: Int/Real
// compare by numeric value across kinds, String/Date/Bool/Path/PathPattern
// compare exactly by kind and content, Currency requires both amount and
// code to match, Array/Object compare element-wise/key-wise (not by
// identity), and Null equals only Null — except inside a table join key
// comparison, where the caller passes nullsEqual=false to make Null never
// equal anything, per spec §3.2's join semantics.
func Equal(a, b Value) bool {
	return equal(a, b, true)
}

// EqualForJoin implements the table-join key comparison of spec §3.2: Null
// never matches another Null unless nullsEqual is requested explicitly by
// the caller (the join operator's own `nulls_equal` option).
func EqualForJoin(a, b Value, nullsEqual bool) bool {
	if _, aNull := a.(Null); aNull {
		if _, bNull := b.(Null); bNull {
			return nullsEqual
		}
		return false
	}
	return equal(a, b, true)
}

func equal(a, b Value, nullEqualsNull bool) bool {
	if af, aok := NumericValue(a); aok {
		if bf, bok := NumericValue(b); bok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case Null:
		_, bNull := b.(Null)
		return bNull && nullEqualsNull
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Date:
		bv, ok := b.(Date)
		return ok && av.T.Equal(bv.T)
	case Currency:
		bv, ok := b.(Currency)
		return ok && av.Amount == bv.Amount && av.Code == bv.Code
	case Path:
		bv, ok := b.(Path)
		return ok && av.Raw == bv.Raw
	case PathPattern:
		bv, ok := b.(PathPattern)
		return ok && av.Raw == bv.Raw
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !equal(av.Elements[i], bv.Elements[i], nullEqualsNull) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for _, k := range av.Keys {
			bval, ok := bv.Get(k)
			if !ok || !equal(av.Values[k], bval, nullEqualsNull) {
				return false
			}
		}
		return true
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	case *Table:
		bv, ok := b.(*Table)
		return ok && av == bv
	}
	return false
}

// Compare implements spec §3.1's ordering rule for sort()/</>/<=/>=:
// numeric kinds compare by value, String/Date compare lexically/temporally,
// and any other pairing (including any comparison involving Null, Array,
// Object, Table, Function, Path, or PathPattern) is reported as
// incomparable via the second return value, letting the caller raise a
// TypeError naming both operand kinds.
func Compare(a, b Value) (int, bool) {
	if af, aok := NumericValue(a); aok {
		if bf, bok := NumericValue(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case Date:
		bv, ok := b.(Date)
		if !ok {
			return 0, false
		}
		switch {
		case av.T.Before(bv.T):
			return -1, true
		case av.T.After(bv.T):
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}
