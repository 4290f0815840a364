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

// returnSignal/breakSignal/continueSignal are panic payloads used to unwind
// control flow across nested execBlock calls, the same non-local-exit
// mechanism memcp's scm.Eval uses for its own (break)/(return) special
// forms (scm/scm.go) rather than threading a sentinel return value through
// every statement executor.
type returnSignal struct{ value value.Value }
type breakSignal struct{}
type continueSignal struct{}

func (in *Interpreter) execBlock(stmts []ast.Stmt) {
	for _, s := range stmts {
		in.execStmt(s)
	}
}

func (in *Interpreter) execStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		in.execVarDecl(st)
	case *ast.IndexAssign:
		in.execIndexAssign(st)
	case *ast.ExprStmt:
		in.evalExpr(st.X)
	case *ast.If:
		in.execIf(st)
	case *ast.For:
		in.execFor(st)
	case *ast.FuncDecl:
		in.execFuncDecl(st)
	case *ast.Return:
		var v value.Value = value.TheNull
		if st.Value != nil {
			v = in.evalExpr(st.Value)
		}
		panic(returnSignal{value: v})
	case *ast.Break:
		panic(breakSignal{})
	case *ast.Continue:
		panic(continueSignal{})
	case *ast.Throw:
		v := in.evalExpr(st.Value)
		errs.Raise(errs.Thrown(v, st.Line()))
	case *ast.Try:
		in.execTry(st)
	default:
		errs.Raise(errs.New(errs.SyntaxError, s.Line(), "unhandled statement type %T", s))
	}
}

func (in *Interpreter) execVarDecl(s *ast.VarDecl) {
	v := in.evalExpr(s.Value)
	switch s.Qualifier {
	case "global":
		in.scope.BindGlobal(s.Name, v)
	case "local":
		in.scope.BindLocal(s.Name, v)
	default:
		if !in.scope.Reassign(s.Name, v) {
			errs.Raise(errs.UndefinedVar(s.Name, s.Line()))
		}
	}
}

func (in *Interpreter) execFuncDecl(s *ast.FuncDecl) {
	fn := value.NewFunction(s.Name, s.Params, s.Body)
	if s.Qualifier == "local" {
		in.scope.BindLocal(s.Name, fn)
		return
	}
	in.scope.BindGlobal(s.Name, fn)
}

func (in *Interpreter) execIf(s *ast.If) {
	if value.IsTruthy(in.evalExpr(s.Cond)) {
		in.execBlock(s.Then)
		return
	}
	if s.Else != nil {
		in.execBlock(s.Else)
	}
}

// execFor implements spec §4.4's for-loop: it iterates any of Array, Table
// (as rows), Object (as values), or String (as characters), binding either
// one loop variable to the element or, when the loop declares more than
// one name, destructuring a 2+-element Array (the shape enum() and
// table_join-like pairing builtins produce) positionally across them.
func (in *Interpreter) execFor(s *ast.For) {
	items, err := iterableElements(in.evalExpr(s.Iter), s.Line())
	if err != nil {
		errs.Raise(err.(*errs.Error))
	}
	in.scope.PushLoop()
	defer in.scope.PopLoop()
	for _, item := range items {
		in.bindForVars(s.Vars, item, s.Line())
		if in.runLoopBody(s.Body) {
			break
		}
	}
}

func (in *Interpreter) bindForVars(names []string, item value.Value, line int) {
	if len(names) <= 1 {
		if len(names) == 1 {
			in.scope.BindLoopVar(names[0], item)
		}
		return
	}
	arr, ok := item.(*value.Array)
	if !ok {
		errs.Raise(errs.Typef(line, "cannot destructure %s into %d loop variables", value.TypeName(item), len(names)))
	}
	for i, n := range names {
		if i < len(arr.Elements) {
			in.scope.BindLoopVar(n, arr.Elements[i])
		} else {
			in.scope.BindLoopVar(n, value.TheNull)
		}
	}
}

// runLoopBody executes one iteration's body, absorbing a continueSignal
// (ends this iteration early) and reporting a breakSignal back to execFor
// as a bool (ends the loop). Any other panic — a return, a thrown error, a
// genuine Go panic — propagates unchanged.
func (in *Interpreter) runLoopBody(body []ast.Stmt) (broke bool) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case breakSignal:
				broke = true
			case continueSignal:
				// swallow: next iteration proceeds normally
			default:
				panic(r)
			}
		}
	}()
	in.execBlock(body)
	return false
}

func (in *Interpreter) execIndexAssign(s *ast.IndexAssign) {
	val := in.evalExpr(s.Value)
	switch t := s.Target.(type) {
	case *ast.Index:
		base := in.evalExpr(t.Target)
		idx := in.evalExpr(t.Index)
		in.assignIndex(base, idx, val, t.Line())
	case *ast.Field:
		base := in.evalExpr(t.Target)
		in.assignField(base, t.Name, val, t.Line())
	default:
		errs.Raise(errs.Typef(s.Line(), "invalid assignment target %T", s.Target))
	}
}

// assignIndex mutates Array/Object values in place through `target[i] = v`
// (spec §4.4: index assignment is the one place Array/Object are mutated
// rather than copied, unlike the builtin registry's push/sort/etc., which
// always return a fresh value per §8.1 invariant 2). Table columns are
// read-only at this layer — there is no builtin that writes a single cell —
// so assigning through a Table raises TypeError.
func (in *Interpreter) assignIndex(base, idx, val value.Value, line int) {
	switch b := base.(type) {
	case *value.Array:
		i, ok := idx.(value.Int)
		if !ok {
			errs.Raise(errs.Typef(line, "array index must be Int, found %s", value.TypeName(idx)))
		}
		n := int(i)
		if n < 0 {
			n += len(b.Elements)
		}
		if n < 0 || n >= len(b.Elements) {
			errs.Raise(errs.New(errs.IndexError, line, "index %d out of range for array of length %d", int(i), len(b.Elements)))
		}
		b.Elements[n] = val
	case *value.Object:
		k, ok := idx.(value.String)
		if !ok {
			errs.Raise(errs.Typef(line, "object key must be String, found %s", value.TypeName(idx)))
		}
		b.Set(string(k), val)
	default:
		errs.Raise(errs.Typef(line, "cannot index-assign into %s", value.TypeName(base)))
	}
}

func (in *Interpreter) assignField(base value.Value, name string, val value.Value, line int) {
	obj, ok := base.(*value.Object)
	if !ok {
		errs.Raise(errs.Typef(line, "cannot assign field %q on %s", name, value.TypeName(base)))
	}
	obj.Set(name, val)
}

// execTry implements try/catch/finally (spec §4.7): the finally block runs
// on every path out of the try/catch — normal completion, a caught error,
// an uncaught error, or a return/break/continue unwinding through it —
// mirroring the teacher's own call-frame cleanup-via-defer discipline
// rather than duplicating the finally body on each exit path.
func (in *Interpreter) execTry(s *ast.Try) {
	var pending any

	func() {
		defer func() {
			if r := recover(); r != nil {
				pending = r
			}
		}()
		in.execBlock(s.Body)
	}()

	if e, ok := errs.AsError(pending); ok && s.Catch != nil {
		pending = nil
		func() {
			defer func() {
				if r := recover(); r != nil {
					pending = r
				}
			}()
			if s.Catch.Name != "" {
				in.scope.PushLoop()
				defer in.scope.PopLoop()
				in.scope.BindLoopVar(s.Catch.Name, errorToValue(e))
			}
			in.execBlock(s.Catch.Body)
		}()
	}

	if s.Finally != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					pending = r
				}
			}()
			in.execBlock(s.Finally)
		}()
	}

	if pending != nil {
		panic(pending)
	}
}

// iterableElements normalizes any for-loop-legal iterable into a plain
// slice, the same enumeration rule builtins.iterableElements applies to
// enum() (spec §4.4) — duplicated here rather than exported across the
// package boundary, since builtins intentionally never imports eval and
// the rule is three cases long.
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

// errorToValue converts a caught *errs.Error into the Object bound by
// `catch(e)` (spec §4.7): always `{kind, message, line, value}`. A thrown
// user value (`throw expr`) keeps its Kind of UserError and carries the
// thrown value itself in `value`; any other taxonomy error has no Value to
// report, so `value` is Null.
func errorToValue(e *errs.Error) value.Value {
	o := value.NewObject()
	o.Set("kind", value.String(string(e.Kind)))
	o.Set("message", value.String(e.Message))
	o.Set("line", value.Int(e.Line))
	if pv, ok := e.Payload.(value.Value); ok {
		o.Set("value", pv)
	} else {
		o.Set("value", value.TheNull)
	}
	return o
}
