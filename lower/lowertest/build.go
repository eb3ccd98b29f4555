package lowertest

import (
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/tmr232/yieldgen/ir"
)

// Expr parses a Go expression.
func Expr(src string) ast.Expr {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		panic(err)
	}
	return expr
}

// Stmt parses a single Go statement.
func Stmt(src string) ast.Stmt {
	file, err := parser.ParseFile(token.NewFileSet(), "", "package p\nfunc _() {\n"+src+"\n}", 0)
	if err != nil {
		panic(err)
	}
	return file.Decls[0].(*ast.FuncDecl).Body.List[0]
}

func Simple(src string) ir.Stmt {
	return &ir.Simple{Stmt: Stmt(src)}
}

// Define declares name of type typ initialized to value, as in name := value.
func Define(name, typ, value string) *ir.VarDecl {
	return &ir.VarDecl{
		Names:  []*ast.Ident{ast.NewIdent(name)},
		Types:  []ast.Expr{Expr(typ)},
		Values: []ast.Expr{Expr(value)},
		Define: true,
	}
}

// Var declares name of type typ without a value.
func Var(name, typ string) *ir.VarDecl {
	return &ir.VarDecl{
		Names: []*ast.Ident{ast.NewIdent(name)},
		Types: []ast.Expr{Expr(typ)},
	}
}

func Yield(value string) *ir.Yield {
	return &ir.Yield{Value: Expr(value)}
}

func Return() *ir.Return {
	return &ir.Return{}
}

func Block(list ...ir.Stmt) *ir.Block {
	return &ir.Block{List: list}
}

func If(cond string, then *ir.Block, els ir.Stmt) *ir.If {
	return &ir.If{Cond: Expr(cond), Then: then, Else: els}
}

// While loops while cond holds, forever when cond is empty.
func While(cond string, body ...ir.Stmt) *ir.While {
	s := &ir.While{Body: Block(body...)}
	if cond != "" {
		s.Cond = Expr(cond)
	}
	return s
}

func DoWhile(cond string, body ...ir.Stmt) *ir.DoWhile {
	return &ir.DoWhile{Body: Block(body...), Cond: Expr(cond)}
}

// For builds a three clause loop over an int counter, as in
// for name := from; cond; post {}.
func For(name, from, cond, post string, body ...ir.Stmt) *ir.For {
	s := &ir.For{Init: Define(name, "int", from), Body: Block(body...)}
	if cond != "" {
		s.Cond = Expr(cond)
	}
	if post != "" {
		s.Post = Simple(post)
	}
	return s
}

// ForEach declares key and value and walks x, which holds the adapter call.
func ForEach(key, value, keyType, valueType, x string, body ...ir.Stmt) *ir.ForEach {
	return &ir.ForEach{
		Key:       ast.NewIdent(key),
		Value:     ast.NewIdent(value),
		Define:    true,
		KeyType:   Expr(keyType),
		ValueType: Expr(valueType),
		X:         Expr(x),
		Body:      Block(body...),
	}
}

// Switch dispatches on tag, or on the first true case when tag is empty.
func Switch(tag string, cases ...*ir.Case) *ir.Switch {
	s := &ir.Switch{Cases: cases}
	if tag != "" {
		s.Tag = Expr(tag)
	}
	return s
}

// Case builds a case matching list, or the default case when list is empty.
func Case(list []string, body ...ir.Stmt) *ir.Case {
	c := &ir.Case{Body: body}
	if list != nil {
		c.List = []ast.Expr{}
		for _, src := range list {
			c.List = append(c.List, Expr(src))
		}
	}
	return c
}

func Labeled(label string, s ir.Stmt) *ir.Labeled {
	return &ir.Labeled{Label: label, Stmt: s}
}

func Break(label string) *ir.Break {
	return &ir.Break{Label: label}
}

func Continue(label string) *ir.Continue {
	return &ir.Continue{Label: label}
}
