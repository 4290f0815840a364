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

// Package parser turns a DataCode token stream into the statement list +
// expression AST of spec §4.2 (component C3). It is a hand-written
// recursive-descent / precedence-climbing parser, the same shape memcp uses
// for its own core Lisp reader (scm.readFrom in scm/parser.go) rather than
// the packrat PEG combinator memcp reserves for secondary, user-defined
// grammars (see DESIGN.md for why the core grammar stays hand-written).
package parser

import (
	"github.com/dcscript/datacode/ast"
	"github.com/dcscript/datacode/errs"
	"github.com/dcscript/datacode/lexer"
)

type Parser struct {
	toks []lexer.Token
	pos  int
}

func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse tokenizes nothing further (the Lexer already ran); it returns the
// top-level statement list, or a *errs.Error with Kind SyntaxError/ParseError.
func Parse(toks []lexer.Token) (stmts []ast.Stmt, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := errs.AsError(r); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	p := New(toks)
	stmts = p.parseProgram()
	return
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) curLine() int      { return p.cur().Line }
func (p *Parser) atEnd() bool       { return p.cur().Kind == lexer.EOF }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) is(kind lexer.Kind) bool { return p.cur().Kind == kind }

func (p *Parser) isKeyword(word string) bool {
	return p.cur().Kind == lexer.Keyword && p.cur().Lexeme == word
}

func (p *Parser) isOp(op string) bool {
	return p.cur().Kind == lexer.Op && p.cur().Lexeme == op
}

func (p *Parser) expect(kind lexer.Kind, what string) lexer.Token {
	if !p.is(kind) {
		errs.Raise(errs.Syntaxf(p.curLine(), p.cur().Col, "expected %s, found %q", what, p.cur().Lexeme))
	}
	return p.advance()
}

func (p *Parser) expectKeyword(word string) lexer.Token {
	if !p.isKeyword(word) {
		errs.Raise(errs.Syntaxf(p.curLine(), p.cur().Col, "expected %q, found %q", word, p.cur().Lexeme))
	}
	return p.advance()
}

func (p *Parser) skipNewlines() {
	for p.is(lexer.Newline) {
		p.advance()
	}
}

func (p *Parser) skipStmtTerminator() {
	// a simple statement ends at a newline, EOF, or the start of the next
	// block terminator/clause keyword (so that e.g. `if x do print(1) endif`
	// on one line also parses without a newline before `endif`).
	if p.is(lexer.Newline) {
		p.skipNewlines()
	}
}

var blockEnders = map[string]bool{
	"endif": true, "else": true, "forend": true, "next": true,
	"endfunction": true, "catch": true, "finally": true, "endtry": true,
}

func (p *Parser) atBlockEnd() bool {
	if p.atEnd() {
		return true
	}
	if p.cur().Kind == lexer.Keyword && blockEnders[p.cur().Lexeme] {
		return true
	}
	return false
}

func (p *Parser) parseProgram() []ast.Stmt {
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.atEnd() {
		stmts = append(stmts, p.parseStmt())
		p.skipStmtTerminator()
	}
	return stmts
}

// parseBlock parses statements until the current token is one of the given
// terminator keywords, without consuming the terminator.
func (p *Parser) parseBlock() []ast.Stmt {
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.atBlockEnd() {
		stmts = append(stmts, p.parseStmt())
		p.skipStmtTerminator()
	}
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	line := p.curLine()
	switch {
	case p.isKeyword("global") || p.isKeyword("local"):
		return p.parseQualifiedDecl()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("return"):
		p.advance()
		if p.is(lexer.Newline) || p.atEnd() || p.atBlockEnd() {
			return &ast.Return{Pos: ast.NewPos(line)}
		}
		return &ast.Return{Value: p.parseExpr(), Pos: ast.NewPos(line)}
	case p.isKeyword("break"):
		p.advance()
		return &ast.Break{Pos: ast.NewPos(line)}
	case p.isKeyword("continue"):
		p.advance()
		return &ast.Continue{Pos: ast.NewPos(line)}
	case p.isKeyword("throw"):
		p.advance()
		return &ast.Throw{Value: p.parseExpr(), Pos: ast.NewPos(line)}
	case p.isKeyword("try"):
		return p.parseTry()
	}
	// either a bare reassignment `name = expr` or a bare expression statement
	if p.is(lexer.Ident) {
		save := p.pos
		target := p.parsePostfix()
		if p.isOp("=") {
			p.advance()
			val := p.parseExpr()
			if id, ok := target.(*ast.Ident); ok {
				return &ast.VarDecl{Name: id.Name, Value: val, Pos: ast.NewPos(line)}
			}
			return &ast.IndexAssign{Target: target, Value: val, Pos: ast.NewPos(line)}
		}
		p.pos = save
	}
	return &ast.ExprStmt{X: p.parseExpr(), Pos: ast.NewPos(line)}
}

func (p *Parser) parseQualifiedDecl() ast.Stmt {
	qualifier := p.advance().Lexeme // "global" or "local"
	if p.isKeyword("function") {
		return p.parseFuncDecl(qualifier)
	}
	name := p.expect(lexer.Ident, "identifier").Lexeme
	p.expectAssignOp()
	val := p.parseExpr()
	return &ast.VarDecl{Qualifier: qualifier, Name: name, Value: val, Pos: ast.NewPos(p.curLine())}
}

func (p *Parser) expectAssignOp() {
	if !p.isOp("=") {
		errs.Raise(errs.Syntaxf(p.curLine(), p.cur().Col, "expected '=', found %q", p.cur().Lexeme))
	}
	p.advance()
}

func (p *Parser) parseFuncDecl(qualifier string) ast.Stmt {
	p.expectKeyword("function")
	name := p.expect(lexer.Ident, "function name").Lexeme
	p.expect(lexer.LParen, "'('")
	var params []string
	for !p.is(lexer.RParen) {
		params = append(params, p.expect(lexer.Ident, "parameter name").Lexeme)
		if p.is(lexer.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RParen, "')'")
	p.expectKeyword("do")
	body := p.parseBlock()
	p.expectKeyword("endfunction")
	return &ast.FuncDecl{Qualifier: qualifier, Name: name, Params: params, Body: body, Pos: ast.NewPos(p.curLine())}
}

func (p *Parser) parseIf() ast.Stmt {
	p.expectKeyword("if")
	cond := p.parseExpr()
	p.expectKeyword("do")
	thenBody := p.parseBlock()
	var elseBody []ast.Stmt
	if p.isKeyword("else") {
		p.advance()
		elseBody = p.parseBlock()
	}
	p.expectKeyword("endif")
	return &ast.If{Cond: cond, Then: thenBody, Else: elseBody, Pos: ast.NewPos(p.curLine())}
}

func (p *Parser) parseFor() ast.Stmt {
	p.expectKeyword("for")
	var vars []string
	vars = append(vars, p.expect(lexer.Ident, "loop variable").Lexeme)
	for p.is(lexer.Comma) {
		p.advance()
		vars = append(vars, p.expect(lexer.Ident, "loop variable").Lexeme)
	}
	p.expectKeyword("in")
	iter := p.parseExpr()
	p.expectKeyword("do")
	body := p.parseBlock()
	if p.isKeyword("next") {
		p.advance()
		name := p.expect(lexer.Ident, "loop variable").Lexeme
		if len(vars) != 1 || vars[0] != name {
			errs.Raise(errs.Syntaxf(p.curLine(), p.cur().Col,
				"'next %s' does not match loop variable '%s'", name, vars[0]))
		}
	} else {
		p.expectKeyword("forend")
	}
	return &ast.For{Vars: vars, Iter: iter, Body: body, Pos: ast.NewPos(p.curLine())}
}

func (p *Parser) parseTry() ast.Stmt {
	p.expectKeyword("try")
	body := p.parseBlock()
	var catch *ast.Catch
	var finally []ast.Stmt
	if p.isKeyword("catch") {
		p.advance()
		name := ""
		if p.is(lexer.Ident) {
			name = p.advance().Lexeme
		}
		catchBody := p.parseBlock()
		catch = &ast.Catch{Name: name, Body: catchBody}
	}
	if p.isKeyword("finally") {
		p.advance()
		finally = p.parseBlock()
	}
	p.expectKeyword("endtry")
	return &ast.Try{Body: body, Catch: catch, Finally: finally, Pos: ast.NewPos(p.curLine())}
}

// ---- expressions, lowest to highest precedence ----

func (p *Parser) parseExpr() ast.Expr { return p.parseOr() }

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.isKeyword("or") {
		line := p.curLine()
		p.advance()
		right := p.parseAnd()
		left = &ast.BinaryOp{Op: "or", Left: left, Right: right, Pos: ast.NewPos(line)}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseNot()
	for p.isKeyword("and") {
		line := p.curLine()
		p.advance()
		right := p.parseNot()
		left = &ast.BinaryOp{Op: "and", Left: left, Right: right, Pos: ast.NewPos(line)}
	}
	return left
}

func (p *Parser) parseNot() ast.Expr {
	if p.isKeyword("not") {
		line := p.curLine()
		p.advance()
		operand := p.parseNot()
		return &ast.UnaryOp{Op: "not", Operand: operand, Pos: ast.NewPos(line)}
	}
	return p.parseComparison()
}

var compOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for p.cur().Kind == lexer.Op && compOps[p.cur().Lexeme] {
		op := p.cur().Lexeme
		line := p.curLine()
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: ast.NewPos(line)}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.isOp("+") || p.isOp("-") {
		op := p.cur().Lexeme
		line := p.curLine()
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: ast.NewPos(line)}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.isOp("*") || p.isOp("/") {
		op := p.cur().Lexeme
		line := p.curLine()
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryOp{Op: op, Left: left, Right: right, Pos: ast.NewPos(line)}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.isOp("-") {
		line := p.curLine()
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryOp{Op: "-", Operand: operand, Pos: ast.NewPos(line)}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch {
		case p.is(lexer.LBracket):
			line := p.curLine()
			p.advance()
			idx := p.parseExpr()
			p.expect(lexer.RBracket, "']'")
			expr = &ast.Index{Target: expr, Index: idx, Pos: ast.NewPos(line)}
		case p.is(lexer.Dot):
			line := p.curLine()
			p.advance()
			name := p.expect(lexer.Ident, "field name").Lexeme
			expr = &ast.Field{Target: expr, Name: name, Pos: ast.NewPos(line)}
		case p.is(lexer.LParen):
			line := p.curLine()
			p.advance()
			var args []ast.Expr
			for !p.is(lexer.RParen) {
				args = append(args, p.parseExpr())
				if p.is(lexer.Comma) {
					p.advance()
				} else {
					break
				}
			}
			p.expect(lexer.RParen, "')'")
			expr = &ast.Call{Callee: expr, Args: args, Pos: ast.NewPos(line)}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	line := p.curLine()
	tok := p.cur()
	switch {
	case tok.Kind == lexer.IntLit:
		p.advance()
		return &ast.IntLit{Value: tok.IntVal, Pos: ast.NewPos(line)}
	case tok.Kind == lexer.RealLit:
		p.advance()
		return &ast.RealLit{Value: tok.RealVal, Pos: ast.NewPos(line)}
	case tok.Kind == lexer.StringLit:
		p.advance()
		return &ast.StringLit{Value: tok.Lexeme, Pos: ast.NewPos(line)}
	case p.isKeyword("true"):
		p.advance()
		return &ast.BoolLit{Value: true, Pos: ast.NewPos(line)}
	case p.isKeyword("false"):
		p.advance()
		return &ast.BoolLit{Value: false, Pos: ast.NewPos(line)}
	case p.isKeyword("null"):
		p.advance()
		return &ast.NullLit{Pos: ast.NewPos(line)}
	case tok.Kind == lexer.Ident:
		p.advance()
		return &ast.Ident{Name: tok.Lexeme, Pos: ast.NewPos(line)}
	case p.is(lexer.LParen):
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RParen, "')'")
		return e
	case p.is(lexer.LBracket):
		return p.parseArrayLit()
	case p.is(lexer.LBrace):
		return p.parseObjectLit()
	case p.isOp("-"):
		// handled in parseUnary, but parsePrimary can be reached directly
		// for a leading unary minus inside postfix chains; delegate.
		return p.parseUnary()
	}
	errs.Raise(errs.Syntaxf(line, tok.Col, "unexpected token %q", tok.Lexeme))
	panic("unreachable")
}

func (p *Parser) parseArrayLit() ast.Expr {
	line := p.curLine()
	p.expect(lexer.LBracket, "'['")
	lit := &ast.ArrayLit{Pos: ast.NewPos(line)}
	p.skipNewlines()
	for !p.is(lexer.RBracket) {
		spread := false
		if p.is(lexer.Dot) && p.peekIsDotDotDot() {
			p.advance()
			p.advance()
			p.advance()
			spread = true
		}
		lit.Elements = append(lit.Elements, p.parseExpr())
		lit.Spreads = append(lit.Spreads, spread)
		p.skipNewlines()
		if p.is(lexer.Comma) {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	p.skipNewlines()
	p.expect(lexer.RBracket, "']'")
	return lit
}

// peekIsDotDotDot checks for three consecutive Dot tokens, which is how the
// lexer represents the spread operator `...` (SUPPLEMENT 3 of SPEC_FULL.md):
// each `.` lexes as its own Dot token, so spread is "..." == Dot Dot Dot.
func (p *Parser) peekIsDotDotDot() bool {
	return p.toks[p.pos].Kind == lexer.Dot &&
		p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == lexer.Dot &&
		p.pos+2 < len(p.toks) && p.toks[p.pos+2].Kind == lexer.Dot
}

func (p *Parser) parseObjectLit() ast.Expr {
	line := p.curLine()
	p.expect(lexer.LBrace, "'{'")
	lit := &ast.ObjectLit{Pos: ast.NewPos(line)}
	p.skipNewlines()
	for !p.is(lexer.RBrace) {
		if p.is(lexer.Dot) && p.peekIsDotDotDot() {
			p.advance()
			p.advance()
			p.advance()
			val := p.parseExpr()
			lit.Entries = append(lit.Entries, ast.ObjectEntry{Spread: true, Value: val})
		} else {
			var key string
			if p.is(lexer.Ident) || p.cur().Kind == lexer.Keyword {
				key = p.advance().Lexeme
			} else {
				key = p.expect(lexer.StringLit, "object key").Lexeme
			}
			p.expect(lexer.Colon, "':'")
			val := p.parseExpr()
			lit.Entries = append(lit.Entries, ast.ObjectEntry{Key: key, Value: val})
		}
		p.skipNewlines()
		if p.is(lexer.Comma) {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	p.skipNewlines()
	p.expect(lexer.RBrace, "'}'")
	return lit
}
