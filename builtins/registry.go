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

// Package builtins implements the DataCode built-in registry (spec §4.5,
// component C6): a name → function-info map, its category/arity metadata,
// and the ~60 built-in dispatchers of spec §6.3. The registry never depends
// on package eval — a built-in that needs to invoke a user Function value
// (map/filter/reduce, table_filter with a predicate) does so through the
// Interp interface below, which eval.Interpreter satisfies; this keeps the
// dependency direction eval -> builtins -> value/errs/ast and avoids an
// import cycle.
package builtins

import (
	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/value"
	lrm "github.com/launix-de/NonLockingReadMap"
)

// entrySize is a rough constant-ish ComputeSize for an Entry, satisfying
// lrm.Sizable. The registry is small (on the order of 60 rows) and never
// resized after Default() finishes, so precise accounting doesn't matter;
// the teacher's own ComputeSize implementations (storage/table.go,
// storage/shard.go) are similarly approximate for non-hot-path structures.
func (e Entry) ComputeSize() uint { return uint(64 + len(e.Name)) }

// GetKey satisfies lrm.KeyGetter[string]; the registry is keyed by the
// built-in's canonical name.
func (e Entry) GetKey() string { return e.Name }

// Interp is the set of interpreter services a built-in dispatcher may need
// beyond its own already-evaluated arguments: calling back into a
// user-defined Function (for functional array methods and table
// predicates), emitting captured output, and reading the host's working
// directory/IO backend. eval.Interpreter implements this interface.
type Interp interface {
	CallFunction(fn *value.Function, args []value.Value, line int) (value.Value, error)
	Print(s string)
	Getcwd() string
	RecordRelation(a, b *value.Array)

	// ResolveShare turns a "lib://<share>/..." raw path into a local
	// filesystem path, or returns an error when no share resolver is
	// registered (the default for a bare eval.Interpreter; host/session
	// overrides it per connected client).
	ResolveShare(raw string) (string, error)
}

// Category mirrors spec §4.5's category tag, used only for introspection
// (e.g. a future `help()` builtin) and for grouping this package's files.
type Category string

const (
	CatIO     Category = "io"
	CatMath   Category = "math"
	CatString Category = "string"
	CatArray  Category = "array"
	CatTable  Category = "table"
	CatSystem Category = "system"
	CatFile   Category = "file"
	CatCache  Category = "cache"
)

// Dispatcher receives already-evaluated arguments (spec §4.5: "a dispatcher
// that receives already-evaluated arguments and a handle to interpreter
// services") plus the call's source line for error attribution.
type Dispatcher func(interp Interp, args []value.Value, line int) (value.Value, error)

// Entry is one registry row: canonical name, category, arity bounds
// (MaxArgs < 0 means unbounded), and its dispatcher.
type Entry struct {
	Name     string
	Category Category
	MinArgs  int
	MaxArgs  int
	Fn       Dispatcher
}

// Registry is the process-wide, read-only-after-init builtin table (spec
// §5: "the built-in registry is process-wide, read-only after
// initialisation"). It is backed by launix-de/NonLockingReadMap, the same
// lock-free sorted-array map the teacher uses for its schema/table
// catalogs (storage/database.go, storage/shard.go): entries are inserted
// once, when Default() first builds the registry, and never mutated afterward, which is
// exactly the access pattern NonLockingReadMap is built for — concurrent
// lookups from many interpreter goroutines (one per session, spec §5)
// without a mutex.
type Registry struct {
	entries lrm.NonLockingReadMap[Entry, string]
}

func newRegistry() *Registry {
	return &Registry{entries: lrm.New[Entry, string]()}
}

func (r *Registry) register(e Entry) {
	r.entries.Set(&e)
}

// Lookup returns the entry for name, if registered.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e := r.entries.Get(name)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Has reports whether name is a registered built-in (used by the
// evaluator's Call dispatch to decide between registry lookup and
// user-function lookup, spec §4.4: "if f is a built-in name, dispatch via
// the registry").
func (r *Registry) Has(name string) bool {
	return r.entries.Get(name) != nil
}

// Call validates arity and invokes the dispatcher, returning its value and
// error unchanged; it does not recover panics raised inside the dispatcher.
func (r *Registry) Call(name string, interp Interp, args []value.Value, line int) (value.Value, error) {
	e := r.entries.Get(name)
	if e == nil {
		return nil, errs.UndefinedFunc(name, line)
	}
	if len(args) < e.MinArgs || (e.MaxArgs >= 0 && len(args) > e.MaxArgs) {
		return nil, errs.WrongArity(name, e.MinArgs, e.MaxArgs, len(args), line)
	}
	return e.Fn(interp, args, line)
}

var defaultRegistry *Registry

// Default returns the process-wide registry, building it on first use from
// every category's registerXxx function.
func Default() *Registry {
	if defaultRegistry != nil {
		return defaultRegistry
	}
	r := newRegistry()
	registerCore(r)
	registerMath(r)
	registerStrings(r)
	registerArrays(r)
	registerTables(r)
	registerIO(r)
	registerSystem(r)
	defaultRegistry = r
	return r
}

func argErr(name string, idx int, expected string, got value.Value, line int) error {
	return errs.BadArgument(name, idx, expected, value.TypeName(got), line)
}

func typeErr(line int, format string, args ...any) error {
	return errs.Typef(line, format, args...)
}

func wantInt(name string, idx int, v value.Value, line int) (int64, error) {
	if i, ok := v.(value.Int); ok {
		return int64(i), nil
	}
	if f, ok := v.(value.Real); ok {
		return int64(f), nil
	}
	return 0, argErr(name, idx, "Int", v, line)
}

func wantString(name string, idx int, v value.Value, line int) (string, error) {
	if s, ok := v.(value.String); ok {
		return string(s), nil
	}
	return "", argErr(name, idx, "String", v, line)
}

func wantArray(name string, idx int, v value.Value, line int) (*value.Array, error) {
	if a, ok := v.(*value.Array); ok {
		return a, nil
	}
	return nil, argErr(name, idx, "Array", v, line)
}

func wantFunction(name string, idx int, v value.Value, line int) (*value.Function, error) {
	if f, ok := v.(*value.Function); ok {
		return f, nil
	}
	return nil, argErr(name, idx, "Function", v, line)
}

func wantTable(name string, idx int, v value.Value, line int) (*value.Table, error) {
	if t, ok := v.(*value.Table); ok {
		return t, nil
	}
	return nil, argErr(name, idx, "Table", v, line)
}
