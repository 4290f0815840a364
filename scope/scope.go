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

// Package scope implements the DataCode variable manager (spec §3.4, §4.3,
// component C4): one global frame plus a stack of call frames, each of
// which can itself carry a stack of lexical (loop) scopes. It generalizes
// memcp's scm.Env (scm/scm.go), whose `Vars map[Symbol]Scmer` plus `Outer
// *Env` pointer chain is exactly the "search this level, else recurse to
// parent" shape spec §4.3 asks for — DataCode additionally distinguishes a
// call frame boundary from a lexical scope boundary, since `local` inside a
// function must stop at the function's own base scope rather than leaking
// into the caller the way a plain Outer chain would if call frames weren't
// marked.
package scope

import "github.com/dcscript/datacode/value"

// level is one entry in a frame's lexical-scope stack: either the function
// base scope (isBase == true, the `local` target) or a nested for-loop
// scope pushed by push_loop.
type level struct {
	vars   map[string]value.Value
	isBase bool
}

// Frame is a call frame: the scope stack for one user-function invocation
// (or, for frame index 0, the toplevel script frame). Frame 0 read access
// still has to fall through to Globals for names not locally bound, so
// Manager.get/reassign always try the current frame's levels before falling
// back to Globals explicitly (Frame 0's base level is conceptually "no
// function" rather than unifying with Globals, since functions have no
// closures over it per spec §3.3).
type Frame struct {
	levels []level
	name   string // for diagnostics
}

func newFrame(name string) *Frame {
	return &Frame{levels: []level{{vars: make(map[string]value.Value), isBase: true}}, name: name}
}

// Manager is the scope/variable manager of spec §4.3. The zero value is not
// usable; use New().
type Manager struct {
	Globals map[string]value.Value
	frames  []*Frame // frames[0] is the implicit top-level frame
}

func New() *Manager {
	m := &Manager{Globals: make(map[string]value.Value)}
	m.frames = []*Frame{newFrame("<toplevel>")}
	return m
}

func (m *Manager) currentFrame() *Frame {
	return m.frames[len(m.frames)-1]
}

// PushCall enters a user function: a fresh frame whose only visible
// bindings beyond its own locals are the globals (spec §3.3: "no
// closures"). Every PushCall must be matched by exactly one PopCall, even
// on an error path (spec §4.3 invariant); callers use a defer for this.
func (m *Manager) PushCall(name string) {
	m.frames = append(m.frames, newFrame(name))
}

func (m *Manager) PopCall() {
	if len(m.frames) <= 1 {
		panic("scope: PopCall without matching PushCall")
	}
	m.frames = m.frames[:len(m.frames)-1]
}

// PushLoop enters a for-loop body: a new lexical scope nested inside the
// current call frame (spec §3.4: "for-loops push nested lexical scopes").
func (m *Manager) PushLoop() {
	f := m.currentFrame()
	f.levels = append(f.levels, level{vars: make(map[string]value.Value)})
}

func (m *Manager) PopLoop() {
	f := m.currentFrame()
	if len(f.levels) <= 1 {
		panic("scope: PopLoop without matching PushLoop")
	}
	f.levels = f.levels[:len(f.levels)-1]
}

// FunctionDepth returns the number of active call frames beyond the
// top-level one (spec §4.3 introspection, used by recursion-limit checks).
func (m *Manager) FunctionDepth() int {
	return len(m.frames) - 1
}

// LoopDepth returns the number of active loop scopes within the current
// call frame (spec §4.3 introspection).
func (m *Manager) LoopDepth() int {
	return len(m.currentFrame().levels) - 1
}

// BindGlobal implements `global name = expr` (spec §3.4): always writes to
// the global frame, creating the binding if absent.
func (m *Manager) BindGlobal(name string, v value.Value) {
	m.Globals[name] = v
}

// BindLocal implements `local name = expr` (spec §3.4): writes to the
// innermost scope of the current call frame; outside a function (frame 0)
// it writes to the global frame, per spec §3.4's explicit carve-out.
func (m *Manager) BindLocal(name string, v value.Value) {
	if m.FunctionDepth() == 0 {
		m.BindGlobal(name, v)
		return
	}
	f := m.currentFrame()
	f.levels[len(f.levels)-1].vars[name] = v
}

// Reassign implements bare `name = expr`: locates the nearest existing
// binding (innermost scope of the current frame, outward to its base
// scope, then globals) and overwrites it in place. Returns false if no
// binding exists anywhere in that chain (spec §4.3: "fails with
// UndefinedVariable if none exists" — the caller raises that error, scope
// only reports presence).
func (m *Manager) Reassign(name string, v value.Value) bool {
	f := m.currentFrame()
	for i := len(f.levels) - 1; i >= 0; i-- {
		if _, ok := f.levels[i].vars[name]; ok {
			f.levels[i].vars[name] = v
			return true
		}
	}
	if _, ok := m.Globals[name]; ok {
		m.Globals[name] = v
		return true
	}
	return false
}

// Get implements the read side of spec §4.3: innermost scope of the current
// call frame outward to globals.
func (m *Manager) Get(name string) (value.Value, bool) {
	f := m.currentFrame()
	for i := len(f.levels) - 1; i >= 0; i-- {
		if v, ok := f.levels[i].vars[name]; ok {
			return v, true
		}
	}
	if v, ok := m.Globals[name]; ok {
		return v, true
	}
	return nil, false
}

// BindLoopVar binds a for-loop iteration variable into the innermost scope
// of the current frame (the loop scope just pushed by PushLoop). Unlike
// BindLocal, it never falls through to Globals at function depth 0: a
// top-level for-loop still has its own lexical scope (the one PushLoop just
// created), and the loop variable must not leak into globals after the loop
// ends.
func (m *Manager) BindLoopVar(name string, v value.Value) {
	f := m.currentFrame()
	f.levels[len(f.levels)-1].vars[name] = v
}

// BindParam binds a function parameter into the fresh frame's base scope.
// It is distinct from BindLocal only in that it always targets the base
// level even if loop scopes were (incorrectly) already pushed — parameters
// are bound immediately after PushCall, before any loop scope exists, so in
// practice the two coincide; BindParam documents the intent at call sites.
func (m *Manager) BindParam(name string, v value.Value) {
	f := m.currentFrame()
	f.levels[0].vars[name] = v
}
