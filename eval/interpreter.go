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

// Package eval is the tree-walking evaluator (spec §4.4, component C5). It
// mirrors memcp's own scm.Eval: a recursive descent over the AST that
// propagates faults via panic/recover annotated with a source line,
// instead of threading a Go error return through every recursive call
// (scm/scm.go's Eval/Apply). Evaluator, scope manager, and built-in
// registry together form the public Interpreter API of spec §6.1.
package eval

import (
	"github.com/dcscript/datacode/ast"
	"github.com/dcscript/datacode/builtins"
	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/lexer"
	"github.com/dcscript/datacode/parser"
	"github.com/dcscript/datacode/scope"
	"github.com/dcscript/datacode/value"
)

// maxCallDepth bounds recursion (spec §5: "Recursion depth is tracked;
// exceeding a configurable limit ... fails with a dedicated error rather
// than overflowing the host stack"), sized with a comfortable safety
// margin under a typical 8MB goroutine stack for this evaluator's
// per-frame stack usage.
const maxCallDepth = 2000

// Interpreter is one DataCode execution context (spec §6.1's
// create_interpreter result). It owns a scope.Manager, a captured-output
// buffer, and the relation records from relate() calls; the built-in
// registry itself is process-wide and shared (spec §5).
type Interpreter struct {
	scope     *scope.Manager
	registry  *builtins.Registry
	output    []string
	relations [][2]*value.Array
	cwd       string
	useVE     bool
}

// NewInterpreter implements spec §6.1's create_interpreter(): a fresh
// interpreter with empty globals, sharing the process-wide builtin
// registry.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		scope:    scope.New(),
		registry: builtins.Default(),
	}
}

// SetWorkingDir configures the host-provided current directory; in
// per-session isolated mode (spec §6.2 --use-ve), the host passes useVE
// true and Getcwd() returns "" regardless of cwd.
func (in *Interpreter) SetWorkingDir(cwd string, useVE bool) {
	in.cwd = cwd
	in.useVE = useVE
}

func (in *Interpreter) Getcwd() string {
	if in.useVE {
		return ""
	}
	return in.cwd
}

func (in *Interpreter) Print(s string) {
	in.output = append(in.output, s)
}

// CaptureOutput drains and returns every string print()-ed since the last
// call (spec §6.1 capture_output()).
func (in *Interpreter) CaptureOutput() []string {
	out := in.output
	in.output = nil
	return out
}

// ResolveShare satisfies builtins.Interp's lib:// resolution hook. A bare
// Interpreter has no share registry of its own (spec §4.6 calls the
// session-scoped share resolver "an external collaborator; see §6") — it
// always fails, so list_files/read_file on a lib:// path raise IOError
// unless the host wraps this Interpreter with its own resolver (see
// host/session's sessionInterp).
func (in *Interpreter) ResolveShare(raw string) (string, error) {
	return "", errs.New(errs.IOError, 0, "no share resolver registered for %q", raw)
}

func (in *Interpreter) RecordRelation(a, b *value.Array) {
	in.relations = append(in.relations, [2]*value.Array{a, b})
}

// Relations exposes recorded relate() pairs for host/sqliteexport.
func (in *Interpreter) Relations() [][2]*value.Array {
	return in.relations
}

func (in *Interpreter) GetGlobal(name string) (value.Value, bool) {
	v, ok := in.scope.Globals[name]
	return v, ok
}

func (in *Interpreter) SetGlobal(name string, v value.Value) {
	in.scope.BindGlobal(name, v)
}

// Globals exposes the live global map for read-only iteration (used by
// host/sqliteexport to walk every Table-valued global, spec §6.4).
func (in *Interpreter) Globals() map[string]value.Value {
	return in.scope.Globals
}

// Reset clears per-interpreter state but keeps the process-wide builtin
// registry intact (spec §6.1 reset(): "clears non-global-builtin state").
func (in *Interpreter) Reset() {
	in.scope = scope.New()
	in.output = nil
	in.relations = nil
}

// Exec implements spec §6.1's exec(source): lex, parse, and run every
// top-level statement. It returns a typed *errs.Error (never a bare Go
// error) on any failure, per §7's propagation policy.
func (in *Interpreter) Exec(source string) error {
	toks, err := lexer.New(source).Tokenize()
	if err != nil {
		return err
	}
	stmts, err := parser.Parse(toks)
	if err != nil {
		return err
	}
	return in.run(stmts)
}

// run executes a top-level statement list and converts any panic into a
// returned *errs.Error, restoring scope/exception-stack depth on every
// path per spec §8.1 invariant 1. A bare top-level `return` (spec §4.4:
// "At top level ... it terminates script execution with that value")
// simply ends execution without being an error.
func (in *Interpreter) run(stmts []ast.Stmt) (err error) {
	depthBefore := in.scope.FunctionDepth()
	defer func() {
		if r := recover(); r != nil {
			for in.scope.FunctionDepth() > depthBefore {
				in.scope.PopCall()
			}
			if e, ok := errs.AsError(r); ok {
				err = e
				return
			}
			if _, ok := r.(returnSignal); ok {
				return
			}
			switch r.(type) {
			case breakSignal, continueSignal:
				err = errs.New(errs.ScopeError, 0, "break/continue outside a loop")
				return
			}
			panic(r)
		}
	}()
	in.execBlock(stmts)
	return nil
}

// CallFunction implements the user-function call path of spec §4.4
// ("create a new call frame, bind parameters positionally, execute the
// body, and return the returned value (or Null if none)"). It satisfies
// builtins.Interp so map/filter/reduce/table_filter can call back into
// user code.
func (in *Interpreter) CallFunction(fn *value.Function, args []value.Value, line int) (value.Value, error) {
	if in.scope.FunctionDepth() >= maxCallDepth {
		return nil, errs.New(errs.ScopeError, line, "maximum call depth exceeded calling %s", fn.Name)
	}
	if len(args) != len(fn.Params) {
		return nil, errs.WrongArity(fn.Name, len(fn.Params), len(fn.Params), len(args), line)
	}
	var result value.Value
	var callErr error
	func() {
		in.scope.PushCall(fn.Name)
		defer in.scope.PopCall()
		for i, p := range fn.Params {
			in.scope.BindParam(p, args[i])
		}
		defer func() {
			if r := recover(); r != nil {
				if rs, ok := r.(returnSignal); ok {
					result = rs.value
					return
				}
				if e, ok := errs.AsError(r); ok {
					callErr = e
					return
				}
				switch r.(type) {
				case breakSignal, continueSignal:
					callErr = errs.New(errs.ScopeError, line, "break/continue outside a loop in %s", fn.Name)
					return
				}
				panic(r)
			}
		}()
		in.execBlock(fn.Body)
		result = value.TheNull
	}()
	return result, callErr
}
