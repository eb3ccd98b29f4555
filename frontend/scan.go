package frontend

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"
	"unicode"
	"unicode/utf8"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tmr232/yieldgen/lower"
)

// Generator is a generator function found in a source file.
type Generator struct {
	Decl *ast.FuncDecl
	// Func is the converted generator, nil when it is ineligible.
	Func *lower.Func
	// Imports lists packages, by path, that type expressions of Func refer
	// to but the file does not import.
	Imports map[string]string
}

// Scanner finds and converts the generators of one package.
type Scanner struct {
	Fset *token.FileSet
	Pkg  *types.Package
	Info *types.Info
	// holders tracks holder names taken in the package.
	holders map[string]bool
}

func NewScanner(fset *token.FileSet, pkg *types.Package, info *types.Info) *Scanner {
	return &Scanner{Fset: fset, Pkg: pkg, Info: info, holders: map[string]bool{}}
}

// RuntimeName returns the name file imports the runtime package under.
func RuntimeName(file *ast.File) (string, bool) {
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil || path != RuntimePath() {
			continue
		}
		if spec.Name != nil {
			return spec.Name.Name, true
		}
		return "yieldgen", true
	}
	return "", false
}

// Scan returns every generator declared in file. Generators that cannot be
// rewritten are returned without a Func, and the reasons are combined into the
// returned error.
func (s *Scanner) Scan(file *ast.File) ([]*Generator, error) {
	var generators []*Generator
	var errs error
	runtime, imported := RuntimeName(file)
	for _, decl := range file.Decls {
		fdecl, ok := decl.(*ast.FuncDecl)
		if !ok || fdecl.Body == nil || !usesYield(s.Info, fdecl.Body) {
			continue
		}
		g := &Generator{Decl: fdecl}
		generators = append(generators, g)
		if !IsGenerator(s.Info, fdecl) {
			errs = multierr.Append(errs, s.diagnostic(fdecl, "Yield used in a function that does not return a Generator"))
			continue
		}
		if !imported || runtime == "." || runtime == "_" {
			errs = multierr.Append(errs, s.diagnostic(fdecl, "the runtime package must be imported by name"))
			continue
		}
		fn, extra, err := s.convert(file, fdecl, runtime)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		g.Func, g.Imports = fn, extra
		Logger().Debug("found generator",
			zap.String("func", fdecl.Name.Name),
			zap.String("holder", fn.Name),
			zap.Stringer("pos", s.Fset.Position(fdecl.Pos())))
	}
	return generators, errs
}

func (s *Scanner) diagnostic(decl *ast.FuncDecl, reason string) *Diagnostic {
	return &Diagnostic{Pos: s.Fset.Position(decl.Pos()), Func: decl.Name.Name, Reason: reason}
}

func (s *Scanner) convert(file *ast.File, decl *ast.FuncDecl, runtime string) (*lower.Func, map[string]string, error) {
	result := decl.Type.Results.List[0]
	if len(result.Names) > 0 {
		return nil, nil, s.diagnostic(decl, "generators must not name their result")
	}
	c := &converter{
		fset:    s.Fset,
		info:    s.Info,
		types:   newTypeNamer(s.Pkg, s.Info, file),
		runtime: runtime,
		decl:    decl,
		keep:    map[*ast.Ident]bool{},
	}
	fn := &lower.Func{
		Name:       s.holderName(decl),
		TypeParams: decl.Type.TypeParams,
		Params:     decl.Type.Params,
		Runtime:    runtime,
		Keep:       c.keep,
	}
	elem, _ := elemType(s.Info.TypeOf(result.Type))
	fn.Elem = c.types.expr(elem)
	if decl.Recv != nil {
		fn.Recv = decl.Recv.List[0]
		fn.TypeParams = s.receiverTypeParams(c.types, decl)
	}
	c.generic = fn.TypeParams != nil && len(fn.TypeParams.List) > 0
	c.prepare(decl.Body)
	fn.Body = c.block(decl.Body.List)
	if c.errs != nil {
		return nil, nil, c.errs
	}
	return fn, c.types.extra, nil
}

// receiverTypeParams declares the type parameters of a generic receiver, so
// that the holder can be generic over them too.
func (s *Scanner) receiverTypeParams(namer *typeNamer, decl *ast.FuncDecl) *ast.FieldList {
	obj, ok := s.Info.Defs[decl.Name].(*types.Func)
	if !ok {
		return nil
	}
	params := obj.Type().(*types.Signature).RecvTypeParams()
	if params.Len() == 0 {
		return nil
	}
	list := &ast.FieldList{}
	for i := 0; i < params.Len(); i++ {
		param := params.At(i)
		list.List = append(list.List, &ast.Field{
			Names: []*ast.Ident{ast.NewIdent(param.Obj().Name())},
			Type:  namer.expr(param.Constraint()),
		})
	}
	return list
}

// holderName derives the holder type name from the generator name, prefixed
// with the receiver type for methods, and keeps it unique in the package.
func (s *Scanner) holderName(decl *ast.FuncDecl) string {
	name := decl.Name.Name
	if decl.Recv != nil {
		if recv := receiverTypeName(decl.Recv.List[0].Type); recv != "" {
			name = recv + upperFirst(name)
		}
	}
	namer := lower.NewNamer(lowerFirst(name) + "Generator")
	for s.holders[namer.Name()] || s.Pkg.Scope().Lookup(namer.Name()) != nil {
		namer.Next()
	}
	s.holders[namer.Name()] = true
	return namer.Name()
}

func receiverTypeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(e.X)
	case *ast.IndexExpr:
		return receiverTypeName(e.X)
	case *ast.IndexListExpr:
		return receiverTypeName(e.X)
	case *ast.ParenExpr:
		return receiverTypeName(e.X)
	case *ast.Ident:
		return e.Name
	}
	return ""
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
