package ir

import (
	"fmt"
	"go/ast"
	"go/token"
)

// Hidden names used when a statement is turned back into Go.
const (
	doName   = "__do"
	iterName = "__it"
)

// Syntax turns s back into a Go statement with the same behavior. It is used
// for statements that run inside a single state and need no lowering.
func Syntax(s Stmt) ast.Stmt {
	switch s := s.(type) {
	case *Block:
		return block(s.List)
	case *VarDecl:
		return varDecl(s)
	case *Yield:
		return &ast.ReturnStmt{Results: []ast.Expr{&ast.CallExpr{Fun: ast.NewIdent("Yield"), Args: []ast.Expr{s.Value}}}}
	case *Return:
		return &ast.ReturnStmt{Results: []ast.Expr{ast.NewIdent("nil")}}
	case *If:
		stmt := &ast.IfStmt{Cond: s.Cond, Body: block(s.Then.List)}
		if s.Else != nil {
			stmt.Else = Syntax(s.Else)
		}
		return stmt
	case *While:
		return &ast.ForStmt{Cond: s.Cond, Body: block(s.Body.List)}
	case *DoWhile:
		cond := s.Cond
		if cond == nil {
			cond = ast.NewIdent("true")
		}
		return &ast.ForStmt{
			Init: define([]ast.Expr{ast.NewIdent(doName)}, ast.NewIdent("true")),
			Cond: ast.NewIdent(doName),
			Post: assign([]ast.Expr{ast.NewIdent(doName)}, cond),
			Body: block(s.Body.List),
		}
	case *For:
		stmt := &ast.ForStmt{Cond: s.Cond, Body: block(s.Body.List)}
		if s.Init != nil {
			stmt.Init = Syntax(s.Init)
		}
		if s.Post != nil {
			stmt.Post = Syntax(s.Post)
		}
		return stmt
	case *ForEach:
		return forEach(s)
	case *Switch:
		return switchStmt(s)
	case *Labeled:
		return &ast.LabeledStmt{Label: ast.NewIdent(s.Label), Stmt: Syntax(s.Stmt)}
	case *Break:
		return branch(token.BREAK, s.Label)
	case *Continue:
		return branch(token.CONTINUE, s.Label)
	case *TypeDecl:
		return &ast.DeclStmt{Decl: s.Decl}
	case *Simple:
		return s.Stmt
	}
	panic(fmt.Sprintf("ir: unknown statement %T", s))
}

func block(list []Stmt) *ast.BlockStmt {
	out := &ast.BlockStmt{}
	for _, s := range list {
		out.List = append(out.List, Syntax(s))
	}
	return out
}

func define(lhs []ast.Expr, rhs ...ast.Expr) *ast.AssignStmt {
	return &ast.AssignStmt{Lhs: lhs, Tok: token.DEFINE, Rhs: rhs}
}

func assign(lhs []ast.Expr, rhs ...ast.Expr) *ast.AssignStmt {
	return &ast.AssignStmt{Lhs: lhs, Tok: token.ASSIGN, Rhs: rhs}
}

func branch(tok token.Token, label string) *ast.BranchStmt {
	stmt := &ast.BranchStmt{Tok: tok}
	if label != "" {
		stmt.Label = ast.NewIdent(label)
	}
	return stmt
}

func varDecl(s *VarDecl) ast.Stmt {
	lhs := make([]ast.Expr, len(s.Names))
	for i, name := range s.Names {
		lhs[i] = name
	}
	if s.Define {
		return define(lhs, s.Values...)
	}
	spec := &ast.ValueSpec{Names: s.Names, Values: s.Values}
	if typ := sharedType(s.Types); typ != nil {
		spec.Type = typ
	}
	return &ast.DeclStmt{Decl: &ast.GenDecl{Tok: token.VAR, Specs: []ast.Spec{spec}}}
}

// sharedType returns the type written for all names, if there is exactly one.
func sharedType(types []ast.Expr) ast.Expr {
	if len(types) == 0 {
		return nil
	}
	for _, typ := range types[1:] {
		if typ != types[0] {
			return nil
		}
	}
	return types[0]
}

func blankOr(expr ast.Expr) ast.Expr {
	if expr == nil {
		return ast.NewIdent("_")
	}
	return expr
}

func isBlank(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return expr == nil || ok && ident.Name == "_"
}

func forEach(s *ForEach) ast.Stmt {
	it := ast.NewIdent(iterName)
	next := &ast.CallExpr{Fun: &ast.SelectorExpr{X: it, Sel: ast.NewIdent("Next")}}
	lhs := []ast.Expr{blankOr(s.Key), blankOr(s.Value)}
	var take ast.Stmt = assign(lhs, next)
	if s.Define && !(isBlank(s.Key) && isBlank(s.Value)) {
		take = define(lhs, next)
	}
	body := block(s.Body.List)
	body.List = append([]ast.Stmt{take}, body.List...)
	return &ast.ForStmt{
		Init: define([]ast.Expr{ast.NewIdent(iterName)}, s.X),
		Cond: &ast.CallExpr{Fun: &ast.SelectorExpr{X: ast.NewIdent(iterName), Sel: ast.NewIdent("HasNext")}},
		Body: body,
	}
}

// endsCase reports whether a case body leaves the switch on its own.
func endsCase(body []Stmt) bool {
	if len(body) == 0 {
		return false
	}
	switch body[len(body)-1].(type) {
	case *Break, *Continue, *Return, *Yield:
		return true
	}
	return false
}

func switchStmt(s *Switch) ast.Stmt {
	out := &ast.SwitchStmt{Tag: s.Tag, Body: &ast.BlockStmt{}}
	for i, c := range s.Cases {
		body := c.Body
		if n := len(body); n > 0 {
			if br, ok := body[n-1].(*Break); ok && br.Label == "" {
				body = body[:n-1]
			}
		}
		clause := &ast.CaseClause{List: c.List}
		for _, stmt := range body {
			clause.Body = append(clause.Body, Syntax(stmt))
		}
		if len(body) == len(c.Body) && !endsCase(body) && i < len(s.Cases)-1 {
			clause.Body = append(clause.Body, &ast.BranchStmt{Tok: token.FALLTHROUGH})
		}
		out.Body.List = append(out.Body.List, clause)
	}
	return out
}
