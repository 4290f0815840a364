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

import (
	"strings"

	"github.com/dcscript/datacode/ast"
)

// Function is a user-defined function descriptor (spec §3.3): name,
// parameter names, and a body statement list. DataCode functions have no
// closures — a Function carries no captured environment, only the AST it
// was declared with, so the evaluator always runs its body against a fresh
// call frame seeded solely by the call's own arguments plus the global
// frame (spec §3.3: "defining-scope snapshot policy: none; body resolves
// free names only against globals at call time").
type Function struct {
	Name   string
	Params []string
	Body   []ast.Stmt
}

func NewFunction(name string, params []string, body []ast.Stmt) *Function {
	return &Function{Name: name, Params: params, Body: body}
}

func (*Function) Kind() Kind { return KindFunction }

func (f *Function) String() string {
	return "function " + f.Name + "(" + strings.Join(f.Params, ", ") + ")"
}
