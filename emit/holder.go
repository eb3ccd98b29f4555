package emit

import (
	"go/ast"
	"go/token"
	"strconv"

	"github.com/tmr232/yieldgen/lower"
)

// holderDecls builds the Go declarations for a lowered generator: the holder
// type, its lifted declarations and one method per state.
type holderDecls struct {
	h *lower.Holder
}

func (d holderDecls) runtime(name string, typeArgs ...ast.Expr) ast.Expr {
	sel := &ast.SelectorExpr{X: ast.NewIdent(d.h.Runtime), Sel: ast.NewIdent(name)}
	if len(typeArgs) == 0 {
		return sel
	}
	return &ast.IndexExpr{X: sel, Index: typeArgs[0]}
}

// typeArgs lists the type parameter names of the holder.
func (d holderDecls) typeArgs() []ast.Expr {
	if d.h.TypeParams == nil {
		return nil
	}
	var args []ast.Expr
	for _, field := range d.h.TypeParams.List {
		for _, name := range field.Names {
			args = append(args, ast.NewIdent(name.Name))
		}
	}
	return args
}

// instance is the holder type as used inside its methods and the wrapper.
func (d holderDecls) instance() ast.Expr {
	name := ast.NewIdent(d.h.Name)
	switch args := d.typeArgs(); len(args) {
	case 0:
		return name
	case 1:
		return &ast.IndexExpr{X: name, Index: args[0]}
	default:
		return &ast.IndexListExpr{X: name, Indices: args}
	}
}

func (d holderDecls) typeDecl() ast.Decl {
	fields := &ast.FieldList{}
	for _, f := range d.h.Fields {
		fields.List = append(fields.List, &ast.Field{Names: []*ast.Ident{ast.NewIdent(f.Name)}, Type: f.Type})
	}
	return &ast.GenDecl{Tok: token.TYPE, Specs: []ast.Spec{&ast.TypeSpec{
		Name:       ast.NewIdent(d.h.Name),
		TypeParams: d.h.TypeParams,
		Type:       &ast.StructType{Fields: fields},
	}}}
}

func (d holderDecls) state(s *lower.State) ast.Decl {
	return &ast.FuncDecl{
		Recv: &ast.FieldList{List: []*ast.Field{{
			Names: []*ast.Ident{ast.NewIdent(d.h.Recv)},
			Type:  &ast.StarExpr{X: d.instance()},
		}}},
		Name: ast.NewIdent(lower.StateMethod(s.ID)),
		Type: &ast.FuncType{
			Params: &ast.FieldList{List: []*ast.Field{{
				Names: []*ast.Ident{ast.NewIdent(lower.Continuation)},
				Type:  d.runtime("State", d.h.Elem),
			}}},
			Results: &ast.FieldList{List: []*ast.Field{{Type: d.runtime("Bounce", d.h.Elem)}}},
		},
		Body: &ast.BlockStmt{List: d.ops(s.Ops)},
	}
}

func (d holderDecls) stateRef(id int) ast.Expr {
	return &ast.SelectorExpr{X: ast.NewIdent(d.h.Recv), Sel: ast.NewIdent(lower.StateMethod(id))}
}

func (d holderDecls) ret(fun string, args ...ast.Expr) ast.Stmt {
	return &ast.ReturnStmt{Results: []ast.Expr{&ast.CallExpr{Fun: d.runtime(fun, d.h.Elem), Args: args}}}
}

func (d holderDecls) ops(ops []lower.Op) []ast.Stmt {
	var out []ast.Stmt
	k := ast.NewIdent(lower.Continuation)
	for _, op := range ops {
		switch op := op.(type) {
		case lower.Exec:
			out = append(out, op.Stmt)
		case lower.Jump:
			if op.Value != nil {
				out = append(out, d.ret("Emit", k, d.stateRef(op.To), op.Value))
			} else {
				out = append(out, d.ret("Goto", k, d.stateRef(op.To)))
			}
		case lower.Finish:
			out = append(out, d.ret("Finish", k))
		case lower.Branch:
			stmt := &ast.IfStmt{Cond: op.Cond, Body: &ast.BlockStmt{List: d.ops(op.Then)}}
			if op.Else != nil {
				stmt.Else = &ast.BlockStmt{List: d.ops(op.Else)}
			}
			out = append(out, stmt)
		case lower.Dispatch:
			body := &ast.BlockStmt{}
			for _, arm := range op.Arms {
				body.List = append(body.List, &ast.CaseClause{List: arm.List, Body: d.ops(arm.Ops)})
			}
			out = append(out, &ast.SwitchStmt{Tag: op.Tag, Body: body})
		}
	}
	return out
}

// wrapper replaces the generator body: it fills a holder with the parameters
// and starts the sequence at the entry state.
func (d holderDecls) wrapper(decl *ast.FuncDecl) *ast.FuncDecl {
	lit := &ast.CompositeLit{Type: d.instance()}
	for _, name := range d.h.Params {
		lit.Elts = append(lit.Elts, &ast.KeyValueExpr{Key: ast.NewIdent(name), Value: ast.NewIdent(name)})
	}
	recv := ast.NewIdent(d.h.Recv)
	return &ast.FuncDecl{
		Recv: decl.Recv,
		Name: decl.Name,
		Type: decl.Type,
		Body: &ast.BlockStmt{List: []ast.Stmt{
			&ast.AssignStmt{
				Lhs: []ast.Expr{recv},
				Tok: token.DEFINE,
				Rhs: []ast.Expr{&ast.UnaryExpr{Op: token.AND, X: lit}},
			},
			d.ret("Start", d.stateRef(lower.Entry)),
		}},
	}
}

func (d holderDecls) decls(decl *ast.FuncDecl) []ast.Decl {
	out := []ast.Decl{d.wrapper(decl), d.typeDecl()}
	for _, lifted := range d.h.Types {
		out = append(out, lifted)
	}
	for _, s := range d.h.States {
		out = append(out, d.state(s))
	}
	return out
}

// stub replaces the body of a generator that could not be rewritten.
func stub(decl *ast.FuncDecl, message string) *ast.FuncDecl {
	return &ast.FuncDecl{
		Recv: decl.Recv,
		Name: decl.Name,
		Type: decl.Type,
		Body: &ast.BlockStmt{List: []ast.Stmt{&ast.ExprStmt{X: &ast.CallExpr{
			Fun:  ast.NewIdent("panic"),
			Args: []ast.Expr{&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(message)}},
		}}}},
	}
}
