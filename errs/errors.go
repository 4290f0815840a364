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

// Package errs implements the DataCode error taxonomy (spec §4.7, §7) and the
// Raise/AsError panic helpers that eval's try/catch/finally recovers with.
package errs

import "fmt"

// Kind enumerates the error taxonomy of spec §4.7. It is never shown to the
// user except as the leading token of a formatted message.
type Kind string

const (
	SyntaxError        Kind = "SyntaxError"
	ParseError         Kind = "ParseError"
	UndefinedVariable  Kind = "UndefinedVariable"
	UndefinedFunction  Kind = "UndefinedFunction"
	TypeError          Kind = "TypeError"
	ArgumentError      Kind = "ArgumentError"
	IndexError         Kind = "IndexError"
	KeyError           Kind = "KeyError"
	ScopeError         Kind = "ScopeError"
	DivisionByZero     Kind = "DivisionByZero"
	IOError            Kind = "IOError"
	UserError          Kind = "UserError"
)

// Error is a typed DataCode error: kind, message, source line, and an
// optional payload (the thrown value for UserError). The payload is stored
// as `any` here to avoid an import cycle with the value package; eval wraps
// it back into a value.Value when building the catch binding.
type Error struct {
	Kind    Kind
	Message string
	Line    int
	Column  int // only meaningful for SyntaxError, per original_source/src/error.rs
	Payload any
}

func (e *Error) Error() string {
	if e.Kind == SyntaxError && e.Column > 0 {
		return fmt.Sprintf("%s: %s (line %d, column %d)", e.Kind, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
}

func New(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}

func Syntaxf(line, col int, format string, args ...any) *Error {
	return &Error{Kind: SyntaxError, Message: fmt.Sprintf(format, args...), Line: line, Column: col}
}

func UndefinedVar(name string, line int) *Error {
	return New(UndefinedVariable, line, "%s", name)
}

func UndefinedFunc(name string, line int) *Error {
	return New(UndefinedFunction, line, "%s", name)
}

func Typef(line int, format string, args ...any) *Error {
	return New(TypeError, line, format, args...)
}

func WrongArity(name string, min, max, got, line int) *Error {
	if min == max {
		return New(ArgumentError, line, "%s expects %d argument(s), found %d", name, min, got)
	}
	if max < 0 {
		return New(ArgumentError, line, "%s expects at least %d argument(s), found %d", name, min, got)
	}
	return New(ArgumentError, line, "%s expects between %d and %d argument(s), found %d", name, min, max, got)
}

func BadArgument(name string, index int, expected, found string, line int) *Error {
	return New(ArgumentError, line, "argument %d of %s: expected %s, found %s", index+1, name, expected, found)
}

func Thrown(payload any, line int) *Error {
	return &Error{Kind: UserError, Message: fmt.Sprint(payload), Line: line, Payload: payload}
}

// Raise panics with a *Error. The evaluator is the only place that is
// allowed to recover it; this mirrors memcp's scm.Eval, which propagates
// faults with panic/recover annotated by SourceInfo instead of threading a
// Go error return through every recursive AST visit.
func Raise(e *Error) {
	panic(e)
}

// AsError recovers a panic value raised by Raise into an *Error, or
// returns (nil, false) if the panic value was not ours (a genuine Go bug
// surfaces unchanged to the embedder's recover point).
func AsError(r any) (*Error, bool) {
	if e, ok := r.(*Error); ok {
		return e, true
	}
	return nil, false
}
