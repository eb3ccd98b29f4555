package frontend

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"go.uber.org/multierr"

	"github.com/tmr232/yieldgen/ir"
)

// converter turns a type checked generator body into ir statements,
// collecting a Diagnostic for every construct it cannot express.
type converter struct {
	fset    *token.FileSet
	info    *types.Info
	types   *typeNamer
	runtime string
	decl    *ast.FuncDecl
	generic bool
	keep    map[*ast.Ident]bool
	errs    error
}

func (c *converter) errorf(node ast.Node, format string, args ...any) {
	c.errs = multierr.Append(c.errs, &Diagnostic{
		Pos:    c.fset.Position(node.Pos()),
		Func:   c.decl.Name.Name,
		Reason: fmt.Sprintf(format, args...),
	})
}

func one(s ir.Stmt) []ir.Stmt {
	return []ir.Stmt{s}
}

// prepare records struct literal keys, which must not be renamed, and rejects
// Yield inside function literals. Variables declared in loops become a single
// holder field, so closures and pointers may not outlive an iteration of them.
func (c *converter) prepare(body *ast.BlockStmt) {
	locals := c.loopLocals(body, false, map[types.Object]bool{})
	reported := map[types.Object]bool{}
	capture := func(ident *ast.Ident, how string) {
		obj := c.info.Uses[ident]
		if obj == nil || !locals[obj] || reported[obj] {
			return
		}
		reported[obj] = true
		c.errorf(ident, "%s %s, which is declared in a loop", how, ident.Name)
	}
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			if usesYield(c.info, n.Body) {
				c.errorf(n, "Yield inside a function literal")
			}
			ast.Inspect(n.Body, func(n ast.Node) bool {
				if ident, ok := n.(*ast.Ident); ok {
					capture(ident, "function literal captures")
				}
				return true
			})
		case *ast.UnaryExpr:
			if ident, ok := ast.Unparen(n.X).(*ast.Ident); ok && n.Op == token.AND {
				capture(ident, "address taken of")
			}
		case *ast.CompositeLit:
			typ := c.info.TypeOf(n)
			if typ == nil {
				return true
			}
			if _, ok := typ.Underlying().(*types.Struct); !ok {
				return true
			}
			for _, elt := range n.Elts {
				if kv, ok := elt.(*ast.KeyValueExpr); ok {
					if key, ok := kv.Key.(*ast.Ident); ok {
						c.keep[key] = true
					}
				}
			}
		}
		return true
	})
}

// loopLocals collects the variables that are declared inside a loop and that
// lowering turns into holder fields. Function literals, selects and type
// switches keep their own variables.
func (c *converter) loopLocals(node ast.Node, inLoop bool, locals map[types.Object]bool) map[types.Object]bool {
	ast.Inspect(node, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit, *ast.TypeSwitchStmt, *ast.SelectStmt:
			return false
		case *ast.ForStmt, *ast.RangeStmt:
			if !inLoop {
				c.loopLocals(n, true, locals)
				return false
			}
		case *ast.Ident:
			if v, ok := c.info.Defs[n].(*types.Var); ok && inLoop && !v.IsField() {
				locals[v] = true
			}
		}
		return true
	})
	return locals
}

// check reports uses of Yield outside the two marker forms. Function
// literals are covered by prepare.
func (c *converter) check(node ast.Node) {
	if node == nil {
		return
	}
	ast.Inspect(node, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.Ident:
			if YieldType.Is(c.info.Uses[n]) {
				c.errorf(n, "Yield used as a value, write return %s.Yield(v)", c.runtime)
			}
		}
		return true
	})
}

// yieldValue returns the argument of a Yield call.
func (c *converter) yieldValue(expr ast.Expr) (ast.Expr, bool) {
	call, ok := ast.Unparen(expr).(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return nil, false
	}
	fun := ast.Unparen(call.Fun)
	if index, ok := fun.(*ast.IndexExpr); ok {
		fun = index.X
	}
	var ident *ast.Ident
	switch fun := fun.(type) {
	case *ast.Ident:
		ident = fun
	case *ast.SelectorExpr:
		ident = fun.Sel
	default:
		return nil, false
	}
	if !YieldType.Is(c.info.Uses[ident]) {
		return nil, false
	}
	c.check(call.Args[0])
	return call.Args[0], true
}

func (c *converter) block(list []ast.Stmt) *ir.Block {
	b := &ir.Block{}
	for _, s := range list {
		b.List = append(b.List, c.stmt(s)...)
	}
	return b
}

func (c *converter) stmt(s ast.Stmt) []ir.Stmt {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return one(c.block(s.List))
	case *ast.ReturnStmt:
		return c.returnStmt(s)
	case *ast.ExprStmt:
		if value, ok := c.yieldValue(s.X); ok {
			return one(&ir.Yield{Value: value})
		}
		c.check(s)
		return one(&ir.Simple{Stmt: s})
	case *ast.AssignStmt:
		c.check(s)
		if s.Tok == token.DEFINE {
			return one(c.define(s))
		}
		return one(&ir.Simple{Stmt: s})
	case *ast.DeclStmt:
		return c.declStmt(s)
	case *ast.IfStmt:
		return one(c.ifStmt(s))
	case *ast.ForStmt:
		return one(c.forStmt(s))
	case *ast.RangeStmt:
		return one(c.rangeStmt(s))
	case *ast.SwitchStmt:
		return one(c.switchStmt(s))
	case *ast.TypeSwitchStmt, *ast.SelectStmt:
		return one(c.opaque(s))
	case *ast.LabeledStmt:
		inner := c.stmt(s.Stmt)
		var target ir.Stmt = &ir.Block{List: inner}
		if len(inner) == 1 {
			target = inner[0]
		}
		return one(&ir.Labeled{Label: s.Label.Name, Stmt: target})
	case *ast.BranchStmt:
		return c.branch(s)
	case *ast.DeferStmt:
		c.errorf(s, "defer is not supported in generators")
		return nil
	case *ast.GoStmt, *ast.IncDecStmt, *ast.SendStmt, *ast.EmptyStmt:
		c.check(s)
		return one(&ir.Simple{Stmt: s})
	}
	c.errorf(s, "unsupported statement %T", s)
	return nil
}

func (c *converter) returnStmt(s *ast.ReturnStmt) []ir.Stmt {
	if len(s.Results) == 1 {
		if value, ok := c.yieldValue(s.Results[0]); ok {
			return one(&ir.Yield{Value: value})
		}
		if tv, ok := c.info.Types[s.Results[0]]; ok && tv.IsNil() {
			return one(&ir.Return{})
		}
	}
	c.errorf(s, "return must be return %s.Yield(v) or return nil", c.runtime)
	return nil
}

func (c *converter) branch(s *ast.BranchStmt) []ir.Stmt {
	label := ""
	if s.Label != nil {
		label = s.Label.Name
	}
	switch s.Tok {
	case token.BREAK:
		return one(&ir.Break{Label: label})
	case token.CONTINUE:
		return one(&ir.Continue{Label: label})
	case token.GOTO:
		c.errorf(s, "goto is not supported in generators")
	default:
		c.errorf(s, "misplaced %s", s.Tok)
	}
	return nil
}

// define turns a short variable declaration into a VarDecl. Names that are
// only reassigned keep a nil type.
func (c *converter) define(s *ast.AssignStmt) *ir.VarDecl {
	decl := &ir.VarDecl{Values: s.Rhs, Define: true}
	for _, lhs := range s.Lhs {
		ident := lhs.(*ast.Ident)
		decl.Names = append(decl.Names, ident)
		var typ ast.Expr
		if obj := c.info.Defs[ident]; obj != nil {
			typ = c.types.expr(obj.Type())
		}
		decl.Types = append(decl.Types, typ)
	}
	return decl
}

func (c *converter) declStmt(s *ast.DeclStmt) []ir.Stmt {
	decl := s.Decl.(*ast.GenDecl)
	if decl.Tok != token.VAR {
		if c.generic {
			c.errorf(s, "local %s declarations are not supported in generic generators", decl.Tok)
			return nil
		}
		c.check(s)
		return one(&ir.TypeDecl{Decl: decl})
	}
	var out []ir.Stmt
	for _, spec := range decl.Specs {
		spec := spec.(*ast.ValueSpec)
		c.check(spec)
		v := &ir.VarDecl{Names: spec.Names, Values: spec.Values}
		for _, name := range spec.Names {
			typ := spec.Type
			if typ == nil {
				if obj := c.info.Defs[name]; obj != nil {
					typ = c.types.expr(obj.Type())
				}
			}
			v.Types = append(v.Types, typ)
		}
		out = append(out, v)
	}
	return out
}

// withInit places init in a block around s, so that its names stay scoped to
// the statement.
func (c *converter) withInit(init ast.Stmt, s ir.Stmt) ir.Stmt {
	if init == nil {
		return s
	}
	return &ir.Block{List: append(c.stmt(init), s)}
}

func (c *converter) ifStmt(s *ast.IfStmt) ir.Stmt {
	c.check(s.Cond)
	out := &ir.If{Cond: s.Cond, Then: c.block(s.Body.List)}
	switch e := s.Else.(type) {
	case *ast.BlockStmt:
		out.Else = c.block(e.List)
	case *ast.IfStmt:
		out.Else = c.ifStmt(e)
	}
	return c.withInit(s.Init, out)
}

func (c *converter) forStmt(s *ast.ForStmt) ir.Stmt {
	c.check(s.Cond)
	body := c.block(s.Body.List)
	if s.Init == nil && s.Post == nil {
		return &ir.While{Cond: s.Cond, Body: body}
	}
	out := &ir.For{Cond: s.Cond, Body: body}
	if s.Init != nil {
		if init := c.stmt(s.Init); len(init) == 1 {
			out.Init = init[0]
		}
	}
	if s.Post != nil {
		c.check(s.Post)
		out.Post = &ir.Simple{Stmt: s.Post}
	}
	return out
}

func (c *converter) switchStmt(s *ast.SwitchStmt) ir.Stmt {
	c.check(s.Tag)
	out := &ir.Switch{Tag: s.Tag}
	for _, clause := range s.Body.List {
		clause := clause.(*ast.CaseClause)
		for _, expr := range clause.List {
			c.check(expr)
		}
		body := clause.Body
		fallsThrough := false
		if n := len(body); n > 0 {
			if br, ok := body[n-1].(*ast.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
				body, fallsThrough = body[:n-1], true
			}
		}
		arm := &ir.Case{List: clause.List}
		for _, stmt := range body {
			arm.Body = append(arm.Body, c.stmt(stmt)...)
		}
		if !fallsThrough {
			arm.Body = append(arm.Body, &ir.Break{})
		}
		out.Cases = append(out.Cases, arm)
	}
	return c.withInit(s.Init, out)
}

// opaque keeps a select or type switch as it is. It may not leave its own
// body except by finishing normally or with an unlabeled break.
func (c *converter) opaque(s ast.Stmt) ir.Stmt {
	var reason string
	ast.Walk(&exitFinder{info: c.info, reason: &reason}, s)
	if reason != "" {
		c.errorf(s, "%s inside a select or type switch", reason)
	}
	return &ir.Simple{Stmt: s}
}

type exitFinder struct {
	info   *types.Info
	loops  int
	labels map[string]bool
	reason *string
}

func (v *exitFinder) Visit(n ast.Node) ast.Visitor {
	if *v.reason != "" {
		return nil
	}
	switch n := n.(type) {
	case *ast.FuncLit:
		return nil
	case *ast.Ident:
		if YieldType.Is(v.info.Uses[n]) {
			*v.reason = "Yield"
		}
	case *ast.ReturnStmt:
		*v.reason = "return"
	case *ast.ForStmt, *ast.RangeStmt:
		inner := *v
		inner.loops++
		return &inner
	case *ast.LabeledStmt:
		inner := *v
		inner.labels = map[string]bool{n.Label.Name: true}
		for label := range v.labels {
			inner.labels[label] = true
		}
		return &inner
	case *ast.BranchStmt:
		switch {
		case n.Tok == token.GOTO:
			*v.reason = "goto"
		case n.Label != nil && !v.labels[n.Label.Name]:
			*v.reason = fmt.Sprintf("%s %s", n.Tok, n.Label.Name)
		case n.Label == nil && n.Tok == token.CONTINUE && v.loops == 0:
			*v.reason = "continue"
		}
	}
	return v
}
