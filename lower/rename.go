package lower

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// renamer rewrites references to captured names. Nested scopes (function
// literals, blocks, statement headers, case clauses) shadow names they declare
// and restore the outer bindings once left.
type renamer struct {
	env  Env
	recv string
	// keep lists identifiers that never refer to variables, such as the
	// keys of a struct literal.
	keep map[*ast.Ident]bool
}

// Rename rewrites node according to env. Field targets become selectors on
// recv. The rewritten node is returned, and node may be modified in place.
func Rename(node ast.Node, env Env, recv string, keep map[*ast.Ident]bool) ast.Node {
	r := &renamer{env: env, recv: recv, keep: keep}
	return r.node(node)
}

func (r *renamer) node(node ast.Node) ast.Node {
	if node == nil {
		return nil
	}
	return astutil.Apply(node, r.pre, nil)
}

func (r *renamer) expr(expr ast.Expr) ast.Expr {
	if expr == nil {
		return nil
	}
	return r.node(expr).(ast.Expr)
}

func (r *renamer) stmt(stmt ast.Stmt) ast.Stmt {
	if stmt == nil {
		return nil
	}
	return r.node(stmt).(ast.Stmt)
}

func (r *renamer) exprs(exprs []ast.Expr) {
	for i, expr := range exprs {
		exprs[i] = r.expr(expr)
	}
}

func (r *renamer) stmts(stmts []ast.Stmt) {
	for i, stmt := range stmts {
		stmts[i] = r.stmt(stmt)
	}
}

func (r *renamer) block(block *ast.BlockStmt) {
	if block == nil {
		return
	}
	defer r.scope()()
	r.stmts(block.List)
}

// scope opens a nested scope and returns the function closing it.
func (r *renamer) scope() func() {
	saved := r.env
	return func() { r.env = saved }
}

func (r *renamer) declare(idents ...*ast.Ident) {
	for _, ident := range idents {
		if ident != nil {
			r.env = r.env.Shadow(ident.Name)
		}
	}
}

func (r *renamer) declareExprs(exprs []ast.Expr) {
	for _, expr := range exprs {
		if ident, ok := expr.(*ast.Ident); ok {
			r.declare(ident)
		}
	}
}

func (r *renamer) fields(list *ast.FieldList) {
	if list == nil {
		return
	}
	for _, field := range list.List {
		field.Type = r.expr(field.Type)
	}
}

func (r *renamer) declareFields(list *ast.FieldList) {
	if list == nil {
		return
	}
	for _, field := range list.List {
		r.declare(field.Names...)
	}
}

func (r *renamer) replacement(target Target) ast.Expr {
	if target.Field {
		return &ast.SelectorExpr{X: ast.NewIdent(r.recv), Sel: ast.NewIdent(target.Name)}
	}
	return ast.NewIdent(target.Name)
}

func (r *renamer) pre(c *astutil.Cursor) bool {
	switch n := c.Node().(type) {
	case *ast.Ident:
		if r.keep[n] {
			return false
		}
		if target, ok := r.env.Lookup(n.Name); ok && (target.Field || target.Name != n.Name) {
			c.Replace(r.replacement(target))
		}
		return false
	case *ast.SelectorExpr:
		n.X = r.expr(n.X)
		return false
	case *ast.Field:
		n.Type = r.expr(n.Type)
		return false
	case *ast.LabeledStmt:
		n.Stmt = r.stmt(n.Stmt)
		return false
	case *ast.BranchStmt:
		return false
	case *ast.FuncLit:
		defer r.scope()()
		r.fields(n.Type.TypeParams)
		r.fields(n.Type.Params)
		r.fields(n.Type.Results)
		r.declareFields(n.Type.Params)
		r.declareFields(n.Type.Results)
		r.block(n.Body)
		return false
	case *ast.BlockStmt:
		r.block(n)
		return false
	case *ast.AssignStmt:
		r.exprs(n.Rhs)
		if n.Tok == token.DEFINE {
			r.declareExprs(n.Lhs)
		} else {
			r.exprs(n.Lhs)
		}
		return false
	case *ast.DeclStmt:
		r.genDecl(n.Decl.(*ast.GenDecl))
		return false
	case *ast.IfStmt:
		defer r.scope()()
		n.Init = r.stmt(n.Init)
		n.Cond = r.expr(n.Cond)
		r.block(n.Body)
		n.Else = r.stmt(n.Else)
		return false
	case *ast.ForStmt:
		defer r.scope()()
		n.Init = r.stmt(n.Init)
		n.Cond = r.expr(n.Cond)
		n.Post = r.stmt(n.Post)
		r.block(n.Body)
		return false
	case *ast.RangeStmt:
		n.X = r.expr(n.X)
		defer r.scope()()
		if n.Tok == token.DEFINE {
			r.declareExprs([]ast.Expr{n.Key, n.Value})
		} else {
			n.Key = r.expr(n.Key)
			n.Value = r.expr(n.Value)
		}
		r.block(n.Body)
		return false
	case *ast.SwitchStmt:
		defer r.scope()()
		n.Init = r.stmt(n.Init)
		n.Tag = r.expr(n.Tag)
		r.clauses(n.Body)
		return false
	case *ast.TypeSwitchStmt:
		defer r.scope()()
		n.Init = r.stmt(n.Init)
		switch a := n.Assign.(type) {
		case *ast.AssignStmt:
			r.exprs(a.Rhs)
			r.declareExprs(a.Lhs)
		case *ast.ExprStmt:
			a.X = r.expr(a.X)
		}
		r.clauses(n.Body)
		return false
	case *ast.SelectStmt:
		r.clauses(n.Body)
		return false
	case *ast.CaseClause:
		defer r.scope()()
		r.exprs(n.List)
		r.stmts(n.Body)
		return false
	case *ast.CommClause:
		defer r.scope()()
		n.Comm = r.stmt(n.Comm)
		r.stmts(n.Body)
		return false
	}
	return true
}

func (r *renamer) clauses(body *ast.BlockStmt) {
	for i, clause := range body.List {
		body.List[i] = r.stmt(clause)
	}
}

func (r *renamer) genDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch spec := spec.(type) {
		case *ast.ValueSpec:
			spec.Type = r.expr(spec.Type)
			r.exprs(spec.Values)
			r.declare(spec.Names...)
		case *ast.TypeSpec:
			r.declare(spec.Name)
			r.fields(spec.TypeParams)
			spec.Type = r.expr(spec.Type)
		}
	}
}
