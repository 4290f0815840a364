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
	"testing"

	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
)

func mustExec(t *testing.T, in *Interpreter, src string) {
	t.Helper()
	if err := in.Exec(src); err != nil {
		t.Fatalf("exec %q: %v", src, err)
	}
}

func globalOrFatal(t *testing.T, in *Interpreter, name string) value.Value {
	t.Helper()
	v, ok := in.GetGlobal(name)
	if !ok {
		t.Fatalf("global %q not set", name)
	}
	return v
}

func TestArithmeticAndConcat(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, "global x = 1 + 2 * 3\nglobal s = 'a' + 'b'\n")
	if v := globalOrFatal(t, in, "x"); v != value.Int(7) {
		t.Fatalf("got %v, want 7", v)
	}
	if v := globalOrFatal(t, in, "s"); v != value.String("ab") {
		t.Fatalf("got %v, want ab", v)
	}
}

func TestDivisionStaysIntWhenEven(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, "global a = 10 / 2\nglobal b = 10 / 3\n")
	if v := globalOrFatal(t, in, "a"); v != value.Int(5) {
		t.Fatalf("got %v, want Int(5)", v)
	}
	if _, ok := globalOrFatal(t, in, "b").(value.Real); !ok {
		t.Fatalf("got %v, want Real", globalOrFatal(t, in, "b"))
	}
}

func TestDivisionByZeroRaises(t *testing.T) {
	in := NewInterpreter()
	err := in.Exec("global x = 1 / 0\n")
	if err == nil {
		t.Fatal("expected an error")
	}
	e, ok := errs.AsError(err)
	if !ok || e.Kind != errs.DivisionByZero {
		t.Fatalf("got %v, want DivisionByZero", err)
	}
}

func TestPathJoinOperator(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, "global p = path('data') / 'orders.csv'\n")
	p, ok := globalOrFatal(t, in, "p").(value.Path)
	if !ok {
		t.Fatalf("got %T, want value.Path", globalOrFatal(t, in, "p"))
	}
	if p.Raw != "data/orders.csv" {
		t.Fatalf("got %q, want data/orders.csv", p.Raw)
	}
}

func TestIfElse(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global x = 5
if x > 3 do
    global y = 'big'
else
    global y = 'small'
endif
`)
	if v := globalOrFatal(t, in, "y"); v != value.String("big") {
		t.Fatalf("got %v, want big", v)
	}
}

func TestForLoopAccumulatesAndScopesVariable(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global total = 0
for i in range(0, 5) do
    total = total + i
next i
`)
	if v := globalOrFatal(t, in, "total"); v != value.Int(10) {
		t.Fatalf("got %v, want 10", v)
	}
	if _, ok := in.GetGlobal("i"); ok {
		t.Fatal("loop variable i leaked into globals")
	}
}

func TestBreakAndContinue(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global seen = 0
for i in range(0, 10) do
    if i == 5 do
        break
    endif
    if i == 2 do
        continue
    endif
    seen = seen + 1
next i
`)
	// i=0,1 counted (2), i=2 skipped via continue, i=3,4 counted (2), i=5 breaks.
	if v := globalOrFatal(t, in, "seen"); v != value.Int(4) {
		t.Fatalf("got %v, want 4", v)
	}
}

func TestUserFunctionCallAndReturn(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global function square(n) do
    return n * n
endfunction
global r = square(6)
`)
	if v := globalOrFatal(t, in, "r"); v != value.Int(36) {
		t.Fatalf("got %v, want 36", v)
	}
}

func TestRecursiveFunction(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global function fact(n) do
    if n <= 1 do
        return 1
    endif
    return n * fact(n - 1)
endfunction
global r = fact(6)
`)
	if v := globalOrFatal(t, in, "r"); v != value.Int(720) {
		t.Fatalf("got %v, want 720", v)
	}
}

func TestFunctionWrongArityRaisesArgumentError(t *testing.T) {
	in := NewInterpreter()
	err := in.Exec(`
global function f(a, b) do
    return a
endfunction
global r = f(1)
`)
	if err == nil {
		t.Fatal("expected an error")
	}
	if e, ok := errs.AsError(err); !ok || e.Kind != errs.ArgumentError {
		t.Fatalf("got %v, want ArgumentError", err)
	}
}

func TestArraysAndIndexAssign(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global arr = [1, 2, 3]
arr[1] = 99
global first = arr[0]
global mid = arr[1]
`)
	if v := globalOrFatal(t, in, "mid"); v != value.Int(99) {
		t.Fatalf("got %v, want 99", v)
	}
	if v := globalOrFatal(t, in, "first"); v != value.Int(1) {
		t.Fatalf("got %v, want 1", v)
	}
}

func TestArraySpreadLiteral(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global a = [1, 2]
global b = [0, ...a, 3]
`)
	arr, ok := globalOrFatal(t, in, "b").(*value.Array)
	if !ok {
		t.Fatalf("got %T, want *value.Array", globalOrFatal(t, in, "b"))
	}
	want := []value.Value{value.Int(0), value.Int(1), value.Int(2), value.Int(3)}
	if len(arr.Elements) != len(want) {
		t.Fatalf("got %v, want %v", arr.Elements, want)
	}
	for i := range want {
		if arr.Elements[i] != want[i] {
			t.Fatalf("element %d: got %v, want %v", i, arr.Elements[i], want[i])
		}
	}
}

func TestObjectFieldAndIndexAccess(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global o = {name: 'ann', age: 30}
o.age = 31
global age = o.age
global name = o['name']
`)
	if v := globalOrFatal(t, in, "age"); v != value.Int(31) {
		t.Fatalf("got %v, want 31", v)
	}
	if v := globalOrFatal(t, in, "name"); v != value.String("ann") {
		t.Fatalf("got %v, want ann", v)
	}
}

func TestUndefinedVariableRaises(t *testing.T) {
	in := NewInterpreter()
	err := in.Exec("global x = nope\n")
	e, ok := errs.AsError(err)
	if !ok || e.Kind != errs.UndefinedVariable {
		t.Fatalf("got %v, want UndefinedVariable", err)
	}
}

func TestTryCatchFinallyAlwaysRuns(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global finallyRan = false
global caughtKind = ''
global caughtValue = ''
try
    throw 'boom'
catch e
    caughtKind = e.kind
    caughtValue = e.value
finally
    finallyRan = true
endtry
`)
	if v := globalOrFatal(t, in, "finallyRan"); v != value.Bool(true) {
		t.Fatalf("got %v, want true", v)
	}
	if v := globalOrFatal(t, in, "caughtKind"); v != value.String("UserError") {
		t.Fatalf("got %v, want UserError", v)
	}
	if v := globalOrFatal(t, in, "caughtValue"); v != value.String("boom") {
		t.Fatalf("got %v, want boom", v)
	}
}

func TestThrowCaughtPrintsKindAndMessage(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
try
    throw 'boom'
catch e
    print(e.kind, e.message)
endtry
`)
	out := in.CaptureOutput()
	if len(out) != 1 || out[0] != "UserError boom" {
		t.Fatalf("got %v, want [\"UserError boom\"]", out)
	}
}

func TestTryFinallyRunsEvenWithoutCatchMatch(t *testing.T) {
	in := NewInterpreter()
	err := in.Exec(`
global finallyRan = false
try
    global x = 1 / 0
finally
    finallyRan = true
endtry
`)
	if err == nil {
		t.Fatal("expected the uncaught DivisionByZero to propagate")
	}
	if v := globalOrFatal(t, in, "finallyRan"); v != value.Bool(true) {
		t.Fatalf("finally did not run: got %v", v)
	}
}

func TestCaptureOutputDrainsOnce(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, "print('hello')\nprint('world')\n")
	out := in.CaptureOutput()
	if len(out) != 2 || out[0] != "hello" || out[1] != "world" {
		t.Fatalf("got %v", out)
	}
	if more := in.CaptureOutput(); len(more) != 0 {
		t.Fatalf("expected drained buffer, got %v", more)
	}
}

func TestMapFilterReduceCallUserFunctions(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, `
global function double(n) do
    return n * 2
endfunction
global function isEven(n) do
    return div(n, 2) * 2 == n
endfunction
global function add(a, b) do
    return a + b
endfunction
global doubled = map([1, 2, 3], double)
global evens = filter([1, 2, 3, 4], isEven)
global total = reduce([1, 2, 3, 4], add, 0)
`)
	doubled := globalOrFatal(t, in, "doubled").(*value.Array)
	if doubled.Elements[0] != value.Int(2) || doubled.Elements[2] != value.Int(6) {
		t.Fatalf("got %v", doubled.Elements)
	}
	evens := globalOrFatal(t, in, "evens").(*value.Array)
	if len(evens.Elements) != 2 {
		t.Fatalf("got %v, want 2 evens", evens.Elements)
	}
	if v := globalOrFatal(t, in, "total"); v != value.Int(10) {
		t.Fatalf("got %v, want 10", v)
	}
}

func TestResetClearsGlobalsButKeepsRegistry(t *testing.T) {
	in := NewInterpreter()
	mustExec(t, in, "global x = 1\n")
	in.Reset()
	if _, ok := in.GetGlobal("x"); ok {
		t.Fatal("expected globals cleared after Reset")
	}
	mustExec(t, in, "global y = typeof(1)\n")
	if v := globalOrFatal(t, in, "y"); v != value.String("Int") {
		t.Fatalf("registry should survive Reset, got %v", v)
	}
}

func TestDeepRecursionHitsCallDepthLimit(t *testing.T) {
	in := NewInterpreter()
	err := in.Exec(`
global function loop(n) do
    return loop(n + 1)
endfunction
global r = loop(0)
`)
	if err == nil {
		t.Fatal("expected a ScopeError for exceeding the call depth limit")
	}
	e, ok := errs.AsError(err)
	if !ok || e.Kind != errs.ScopeError {
		t.Fatalf("got %v, want ScopeError", err)
	}
}
