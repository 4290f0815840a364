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

package scope

import (
	"testing"

	"github.com/dcscript/datacode/value"
)

func TestBindLocalAtTopLevelFallsThroughToGlobal(t *testing.T) {
	m := New()
	m.BindLocal("x", value.Int(1))
	if _, ok := m.Globals["x"]; !ok {
		t.Fatal("expected local at top level to land in Globals")
	}
}

func TestBindLoopVarNeverLeaksIntoGlobals(t *testing.T) {
	m := New()
	m.PushLoop()
	m.BindLoopVar("i", value.Int(0))
	if v, ok := m.Get("i"); !ok || v != value.Int(0) {
		t.Fatalf("expected to read loop var while loop scope is active, got %v, %v", v, ok)
	}
	m.PopLoop()
	if _, ok := m.Globals["i"]; ok {
		t.Fatal("loop variable leaked into Globals after PopLoop")
	}
	if _, ok := m.Get("i"); ok {
		t.Fatal("loop variable still visible after PopLoop")
	}
}

func TestBindLocalInsideFunctionStaysInFrame(t *testing.T) {
	m := New()
	m.PushCall("f")
	m.BindLocal("y", value.Int(5))
	m.PopCall()
	if _, ok := m.Globals["y"]; ok {
		t.Fatal("local inside a function leaked into Globals")
	}
}

func TestReassignSearchesInnerToOuterToGlobal(t *testing.T) {
	m := New()
	m.BindGlobal("g", value.Int(1))
	if !m.Reassign("g", value.Int(2)) {
		t.Fatal("expected Reassign to find the global binding")
	}
	if m.Globals["g"] != value.Int(2) {
		t.Fatalf("got %v, want 2", m.Globals["g"])
	}

	if m.Reassign("nope", value.Int(1)) {
		t.Fatal("expected Reassign to report false for an unbound name")
	}
}

func TestPushCallIsolatesLocals(t *testing.T) {
	m := New()
	m.BindGlobal("shared", value.Int(1))
	m.PushCall("f")
	m.BindParam("shared", value.Int(99)) // shadow without mutating the global
	v, ok := m.Get("shared")
	if !ok || v != value.Int(99) {
		t.Fatalf("expected shadowed param, got %v, %v", v, ok)
	}
	m.PopCall()
	v, ok = m.Get("shared")
	if !ok || v != value.Int(1) {
		t.Fatalf("expected global to survive the call unchanged, got %v, %v", v, ok)
	}
}

func TestPopCallWithoutPushPanics(t *testing.T) {
	m := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping the implicit top-level frame")
		}
	}()
	m.PopCall()
}

func TestFunctionAndLoopDepth(t *testing.T) {
	m := New()
	if m.FunctionDepth() != 0 {
		t.Fatalf("got %d, want 0", m.FunctionDepth())
	}
	m.PushCall("f")
	if m.FunctionDepth() != 1 {
		t.Fatalf("got %d, want 1", m.FunctionDepth())
	}
	m.PushLoop()
	if m.LoopDepth() != 1 {
		t.Fatalf("got %d, want 1", m.LoopDepth())
	}
	m.PopLoop()
	m.PopCall()
}

func TestNestedLoopScopesShadow(t *testing.T) {
	m := New()
	m.PushLoop()
	m.BindLoopVar("i", value.Int(1))
	m.PushLoop()
	m.BindLoopVar("i", value.Int(2))
	if v, _ := m.Get("i"); v != value.Int(2) {
		t.Fatalf("expected inner loop's i to shadow outer, got %v", v)
	}
	m.PopLoop()
	if v, _ := m.Get("i"); v != value.Int(1) {
		t.Fatalf("expected outer loop's i after inner pop, got %v", v)
	}
	m.PopLoop()
}
