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

package eval

import (
	"github.com/dcscript/datacode/ast"
	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
)

func (in *Interpreter) evalExpr(e ast.Expr) value.Value {
	switch x := e.(type) {
	case *ast.NullLit:
		return value.TheNull
	case *ast.BoolLit:
		return value.Bool(x.Value)
	case *ast.IntLit:
		return value.Int(x.Value)
	case *ast.RealLit:
		return value.Real(x.Value)
	case *ast.StringLit:
		return value.String(x.Value)
	case *ast.Ident:
		v, ok := in.scope.Get(x.Name)
		if !ok {
			errs.Raise(errs.UndefinedVar(x.Name, x.Line()))
		}
		return v
	case *ast.ArrayLit:
		return in.evalArrayLit(x)
	case *ast.ObjectLit:
		return in.evalObjectLit(x)
	case *ast.BinaryOp:
		return in.evalBinaryOp(x)
	case *ast.UnaryOp:
		return in.evalUnaryOp(x)
	case *ast.Index:
		return in.evalIndex(x)
	case *ast.Field:
		return in.evalField(x)
	case *ast.Call:
		return in.evalCall(x)
	}
	errs.Raise(errs.New(errs.SyntaxError, e.Line(), "unhandled expression type %T", e))
	panic("unreachable")
}

// evalArrayLit builds an Array, splicing in each spread element's own
// Elements in place (spec SUPPLEMENT 3 `[...a, b, ...c]`); a spread operand
// that isn't itself an Array is a TypeError.
func (in *Interpreter) evalArrayLit(x *ast.ArrayLit) value.Value {
	var out []value.Value
	for i, elemExpr := range x.Elements {
		v := in.evalExpr(elemExpr)
		if i < len(x.Spreads) && x.Spreads[i] {
			arr, ok := v.(*value.Array)
			if !ok {
				errs.Raise(errs.Typef(elemExpr.Line(), "cannot spread %s into an array literal", value.TypeName(v)))
			}
			out = append(out, arr.Elements...)
			continue
		}
		out = append(out, v)
	}
	return value.NewArray(out...)
}

// evalObjectLit builds an Object; `...expr` splices in another Object's
// entries (later entries, including later spreads, override earlier keys —
// spec §4.4 "duplicate keys overwrite with last value").
func (in *Interpreter) evalObjectLit(x *ast.ObjectLit) value.Value {
	o := value.NewObject()
	for _, entry := range x.Entries {
		if entry.Spread {
			v := in.evalExpr(entry.Value)
			src, ok := v.(*value.Object)
			if !ok {
				errs.Raise(errs.Typef(entry.Value.Line(), "cannot spread %s into an object literal", value.TypeName(v)))
			}
			for _, k := range src.Keys {
				o.Set(k, src.Values[k])
			}
			continue
		}
		o.Set(entry.Key, in.evalExpr(entry.Value))
	}
	return o
}

func (in *Interpreter) evalUnaryOp(x *ast.UnaryOp) value.Value {
	v := in.evalExpr(x.Operand)
	switch x.Op {
	case "not":
		return value.Bool(!value.IsTruthy(v))
	case "-":
		switch n := v.(type) {
		case value.Int:
			return -n
		case value.Real:
			return -n
		}
		errs.Raise(errs.Typef(x.Line(), "unary -: expected Int or Real, found %s", value.TypeName(v)))
	}
	panic("unreachable")
}

// evalBinaryOp implements spec §4.4's operator table: `and`/`or` short
// circuit on Go boolean logic over IsTruthy; comparisons delegate to
// value.Compare/value.Equal; `+` also concatenates two Strings or two
// Arrays and `*` repeats an Array by an Int, otherwise `+`/`-`/`*` require
// both operands numeric (Int stays Int only when both operands are Int,
// otherwise promotes to Real); `/` is the overloaded operator — Path /
// String performs a path join (spec §4.2, §4.6) and numeric operands go
// through evalDivOrJoin's DivisionByZero-checked division.
func (in *Interpreter) evalBinaryOp(x *ast.BinaryOp) value.Value {
	switch x.Op {
	case "and":
		l := in.evalExpr(x.Left)
		if !value.IsTruthy(l) {
			return value.Bool(false)
		}
		return value.Bool(value.IsTruthy(in.evalExpr(x.Right)))
	case "or":
		l := in.evalExpr(x.Left)
		if value.IsTruthy(l) {
			return value.Bool(true)
		}
		return value.Bool(value.IsTruthy(in.evalExpr(x.Right)))
	}

	l := in.evalExpr(x.Left)
	r := in.evalExpr(x.Right)

	switch x.Op {
	case "==":
		return value.Bool(value.Equal(l, r))
	case "!=":
		return value.Bool(!value.Equal(l, r))
	case "<", "<=", ">", ">=":
		c, ok := value.Compare(l, r)
		if !ok {
			errs.Raise(errs.Typef(x.Line(), "cannot compare %s and %s", value.TypeName(l), value.TypeName(r)))
		}
		switch x.Op {
		case "<":
			return value.Bool(c < 0)
		case "<=":
			return value.Bool(c <= 0)
		case ">":
			return value.Bool(c > 0)
		default:
			return value.Bool(c >= 0)
		}
	case "/":
		return in.evalDivOrJoin(l, r, x.Line())
	case "+":
		if la, ok := l.(*value.Array); ok {
			if ra, ok := r.(*value.Array); ok {
				return value.NewArray(append(append([]value.Value{}, la.Elements...), ra.Elements...)...)
			}
			errs.Raise(errs.Typef(x.Line(), "operator %q requires Array+Array, found %s and %s", x.Op, value.TypeName(l), value.TypeName(r)))
		}
		if ls, ok := l.(value.String); ok {
			rs, ok := r.(value.String)
			if !ok {
				errs.Raise(errs.Typef(x.Line(), "operator %q requires String+String, found %s and %s", x.Op, value.TypeName(l), value.TypeName(r)))
			}
			return ls + rs
		}
		return in.evalArith(x.Op, l, r, x.Line())
	case "*":
		if la, ok := l.(*value.Array); ok {
			n, ok := r.(value.Int)
			if !ok {
				errs.Raise(errs.Typef(x.Line(), "operator %q requires Array*Int, found %s and %s", x.Op, value.TypeName(l), value.TypeName(r)))
			}
			return repeatArray(la, int64(n))
		}
		return in.evalArith(x.Op, l, r, x.Line())
	case "-":
		return in.evalArith(x.Op, l, r, x.Line())
	}
	errs.Raise(errs.New(errs.SyntaxError, x.Line(), "unknown operator %q", x.Op))
	panic("unreachable")
}

// repeatArray implements Array×Int (spec §4.4): n copies of arr's elements
// concatenated in order; n <= 0 yields an empty Array.
func repeatArray(arr *value.Array, n int64) *value.Array {
	if n < 0 {
		n = 0
	}
	out := make([]value.Value, 0, len(arr.Elements)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, arr.Elements...)
	}
	return value.NewArray(out...)
}

func (in *Interpreter) evalArith(op string, l, r value.Value, line int) value.Value {
	lf, lok := value.NumericValue(l)
	rf, rok := value.NumericValue(r)
	if !lok || !rok {
		errs.Raise(errs.Typef(line, "operator %q requires numeric operands, found %s and %s", op, value.TypeName(l), value.TypeName(r)))
	}
	_, lInt := l.(value.Int)
	_, rInt := r.(value.Int)
	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	}
	if lInt && rInt {
		return value.Int(int64(result))
	}
	return value.Real(result)
}

// evalDivOrJoin resolves `/`'s overload (spec §4.2, §4.6): Path/String or
// Path/Path performs a path join; PathPattern never appears on the left of
// a join (it is a terminal value, not composable); anything numeric divides
// with the same DivisionByZero check the div() builtin applies.
func (in *Interpreter) evalDivOrJoin(l, r value.Value, line int) value.Value {
	if p, ok := l.(value.Path); ok {
		switch seg := r.(type) {
		case value.String:
			return p.Join(string(seg))
		case value.Path:
			return p.Join(seg.Raw)
		}
		errs.Raise(errs.Typef(line, "cannot join Path with %s", value.TypeName(r)))
	}
	lf, lok := value.NumericValue(l)
	rf, rok := value.NumericValue(r)
	if !lok || !rok {
		errs.Raise(errs.Typef(line, "operator \"/\" requires numeric operands or a Path, found %s and %s", value.TypeName(l), value.TypeName(r)))
	}
	if rf == 0 {
		errs.Raise(errs.New(errs.DivisionByZero, line, "division by zero"))
	}
	_, lInt := l.(value.Int)
	_, rInt := r.(value.Int)
	if lInt && rInt && int64(lf)%int64(rf) == 0 {
		return value.Int(int64(lf) / int64(rf))
	}
	return value.Real(lf / rf)
}

// evalIndex implements `target[index]` (spec §4.4): Array by Int
// (negative indices count from the end), Object by String key, Table by
// either an Int row number (yielding the row as an Object, mirroring
// Table.Row) or a String column name (yielding that Column's values as an
// Array, sharing the Column's own backing slice so relate() can later
// resolve it back to its source by identity).
func (in *Interpreter) evalIndex(x *ast.Index) value.Value {
	base := in.evalExpr(x.Target)
	idx := in.evalExpr(x.Index)
	switch b := base.(type) {
	case *value.Array:
		i, ok := idx.(value.Int)
		if !ok {
			errs.Raise(errs.Typef(x.Line(), "array index must be Int, found %s", value.TypeName(idx)))
		}
		n := int(i)
		if n < 0 {
			n += len(b.Elements)
		}
		if n < 0 || n >= len(b.Elements) {
			errs.Raise(errs.New(errs.IndexError, x.Line(), "index %d out of range for array of length %d", int(i), len(b.Elements)))
		}
		return b.Elements[n]
	case *value.Object:
		k, ok := idx.(value.String)
		if !ok {
			errs.Raise(errs.Typef(x.Line(), "object key must be String, found %s", value.TypeName(idx)))
		}
		v, ok := b.Get(string(k))
		if !ok {
			errs.Raise(errs.New(errs.KeyError, x.Line(), "%s", string(k)))
		}
		return v
	case *value.Table:
		switch k := idx.(type) {
		case value.Int:
			n := int(k)
			if n < 0 || n >= b.RowCount {
				errs.Raise(errs.New(errs.IndexError, x.Line(), "row %d out of range for table of %d rows", n, b.RowCount))
			}
			return b.Row(n)
		case value.String:
			col, ok := b.Column(string(k))
			if !ok {
				errs.Raise(errs.New(errs.KeyError, x.Line(), "no such column %q", string(k)))
			}
			return value.NewArray(col.Values...)
		}
		errs.Raise(errs.Typef(x.Line(), "table index must be Int or String, found %s", value.TypeName(idx)))
	case value.String:
		i, ok := idx.(value.Int)
		if !ok {
			errs.Raise(errs.Typef(x.Line(), "string index must be Int, found %s", value.TypeName(idx)))
		}
		runes := []rune(string(b))
		n := int(i)
		if n < 0 {
			n += len(runes)
		}
		if n < 0 || n >= len(runes) {
			errs.Raise(errs.New(errs.IndexError, x.Line(), "index %d out of range for string of length %d", int(i), len(runes)))
		}
		return value.String(string(runes[n]))
	}
	errs.Raise(errs.Typef(x.Line(), "cannot index into %s", value.TypeName(base)))
	panic("unreachable")
}

// evalField implements `target.name` (spec §4.4): Object field lookup or
// Table column access, the same two cases evalIndex handles for a String
// index, spelled with dot syntax.
func (in *Interpreter) evalField(x *ast.Field) value.Value {
	base := in.evalExpr(x.Target)
	switch b := base.(type) {
	case *value.Object:
		v, ok := b.Get(x.Name)
		if !ok {
			errs.Raise(errs.New(errs.KeyError, x.Line(), "%s", x.Name))
		}
		return v
	case *value.Table:
		col, ok := b.Column(x.Name)
		if !ok {
			errs.Raise(errs.New(errs.KeyError, x.Line(), "no such column %q", x.Name))
		}
		return value.NewArray(col.Values...)
	}
	errs.Raise(errs.Typef(x.Line(), "cannot access field %q on %s", x.Name, value.TypeName(base)))
	panic("unreachable")
}

// evalCall dispatches a call expression (spec §4.4): a bare identifier
// callee resolves built-in names through the registry unless that name is
// shadowed by a user variable/function in scope, matching the shadowing
// rule spec §4.5 states for the built-in namespace; any other callee value
// (a Function bound to a variable, the result of an index/field
// expression) must itself be a user Function.
func (in *Interpreter) evalCall(x *ast.Call) value.Value {
	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		args[i] = in.evalExpr(a)
	}
	if id, ok := x.Callee.(*ast.Ident); ok {
		if v, shadowed := in.scope.Get(id.Name); shadowed {
			return in.invokeFunctionValue(v, args, x.Line())
		}
		if in.registry.Has(id.Name) {
			v, err := in.registry.Call(id.Name, in, args, x.Line())
			if err != nil {
				errs.Raise(err.(*errs.Error))
			}
			return v
		}
		errs.Raise(errs.UndefinedFunc(id.Name, x.Line()))
	}
	callee := in.evalExpr(x.Callee)
	return in.invokeFunctionValue(callee, args, x.Line())
}

func (in *Interpreter) invokeFunctionValue(callee value.Value, args []value.Value, line int) value.Value {
	fn, ok := callee.(*value.Function)
	if !ok {
		errs.Raise(errs.Typef(line, "not callable: %s", value.TypeName(callee)))
	}
	v, err := in.CallFunction(fn, args, line)
	if err != nil {
		errs.Raise(err.(*errs.Error))
	}
	return v
}
