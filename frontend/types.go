package frontend

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"

	"github.com/tmr232/yieldgen/ir"
)

// typeNamer spells types the way the source file can refer to them. Packages
// the file does not import yet are recorded in extra.
type typeNamer struct {
	pkg     *types.Package
	imports map[string]string
	extra   map[string]string
}

func newTypeNamer(pkg *types.Package, info *types.Info, file *ast.File) *typeNamer {
	n := &typeNamer{pkg: pkg, imports: map[string]string{}, extra: map[string]string{}}
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		switch {
		case spec.Name != nil:
			n.imports[path] = spec.Name.Name
		case info.PkgNameOf(spec) != nil:
			n.imports[path] = info.PkgNameOf(spec).Name()
		}
	}
	return n
}

func (n *typeNamer) qualifier(pkg *types.Package) string {
	if pkg == n.pkg {
		return ""
	}
	if name, ok := n.imports[pkg.Path()]; ok {
		if name == "." {
			return ""
		}
		return name
	}
	n.extra[pkg.Path()] = pkg.Name()
	return pkg.Name()
}

// expr returns an expression denoting typ.
func (n *typeNamer) expr(typ types.Type) ast.Expr {
	expr, err := parser.ParseExpr(types.TypeString(typ, n.qualifier))
	if err != nil {
		// Every type string is a valid type expression.
		panic(err)
	}
	return expr
}

func (c *converter) adapter(name string, x ast.Expr) ast.Expr {
	return &ast.CallExpr{
		Fun:  &ast.SelectorExpr{X: ast.NewIdent(c.runtime), Sel: ast.NewIdent(name)},
		Args: []ast.Expr{x},
	}
}

func addressable(expr ast.Expr) bool {
	switch e := ast.Unparen(expr).(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return addressable(e.X)
	case *ast.IndexExpr:
		return addressable(e.X)
	case *ast.StarExpr:
		return true
	}
	return false
}

func sliceOf(x ast.Expr) ast.Expr {
	return &ast.SliceExpr{X: x}
}

// seqArg returns the generator passed to Seq when x is a Seq call.
func (c *converter) seqArg(x ast.Expr) (ast.Expr, bool) {
	call, ok := ast.Unparen(x).(*ast.CallExpr)
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
	}
	if ident == nil || !SeqType.Is(c.info.Uses[ident]) {
		return nil, false
	}
	return call.Args[0], true
}

var (
	intType   = types.Typ[types.Int]
	runeType  = types.Universe.Lookup("rune").Type()
	emptyType = types.NewStruct(nil, nil)
)

// iteration picks the runtime adapter walking x, along with the key and value
// types it produces.
func (c *converter) iteration(s *ast.RangeStmt) (adapter ast.Expr, key, value types.Type, ok bool) {
	if arg, isSeq := c.seqArg(s.X); isSeq {
		elem, _ := elemType(c.info.TypeOf(arg))
		if elem == nil {
			c.errorf(s.X, "cannot range over %s", types.ExprString(s.X))
			return nil, nil, nil, false
		}
		return c.adapter("Each", arg), elem, emptyType, true
	}
	typ := c.info.TypeOf(s.X)
	if _, isParam := typ.(*types.TypeParam); isParam {
		c.errorf(s.X, "cannot range over type parameter %s", typ)
		return nil, nil, nil, false
	}
	switch t := typ.Underlying().(type) {
	case *types.Slice:
		return c.adapter("Slice", s.X), intType, t.Elem(), true
	case *types.Array:
		if !addressable(s.X) {
			c.errorf(s.X, "cannot range over unaddressable array %s", types.ExprString(s.X))
			return nil, nil, nil, false
		}
		return c.adapter("Slice", sliceOf(s.X)), intType, t.Elem(), true
	case *types.Pointer:
		if array, isArray := t.Elem().Underlying().(*types.Array); isArray {
			return c.adapter("Slice", sliceOf(s.X)), intType, array.Elem(), true
		}
	case *types.Map:
		return c.adapter("Map", s.X), t.Key(), t.Elem(), true
	case *types.Chan:
		return c.adapter("Chan", s.X), t.Elem(), emptyType, true
	case *types.Basic:
		switch {
		case t.Info()&types.IsString != 0:
			return c.adapter("String", s.X), intType, runeType, true
		case t.Info()&types.IsInteger != 0:
			return c.adapter("Count", s.X), types.Default(typ), emptyType, true
		}
	case *types.Signature:
		c.errorf(s.X, "cannot range over function %s, use %s.Seq only on generators", types.ExprString(s.X), c.runtime)
		return nil, nil, nil, false
	}
	c.errorf(s.X, "cannot range over %s of type %s", types.ExprString(s.X), typ)
	return nil, nil, nil, false
}

func (c *converter) rangeStmt(s *ast.RangeStmt) ir.Stmt {
	c.check(s.X)
	body := c.block(s.Body.List)
	adapter, key, value, ok := c.iteration(s)
	if !ok {
		return body
	}
	return &ir.ForEach{
		Key:       s.Key,
		Value:     s.Value,
		Define:    s.Tok == token.DEFINE,
		KeyType:   c.types.expr(key),
		ValueType: c.types.expr(value),
		X:         adapter,
		Body:      body,
	}
}
