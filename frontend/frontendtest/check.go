// Package frontendtest type checks Go source snippets that use the yieldgen
// runtime, without going through the go command.
package frontendtest

import (
	"fmt"
	"go/ast"
	"go/build"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"runtime"
	"sync"
)

const runtimePath = "github.com/tmr232/yieldgen"

// Package is a type checked package of a single file.
type Package struct {
	Fset  *token.FileSet
	Types *types.Package
	Info  *types.Info
	File  *ast.File
}

var (
	fset     = token.NewFileSet()
	std      = importer.ForCompiler(fset, "source", nil)
	loadOnce sync.Once
	rt       *types.Package
	rtErr    error
)

// moduleRoot is the directory holding the runtime package sources.
func moduleRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

func loadRuntime() (*types.Package, error) {
	loadOnce.Do(func() {
		ctx := build.Default
		ctx.BuildTags = nil
		bp, err := ctx.ImportDir(moduleRoot(), 0)
		if err != nil {
			rtErr = err
			return
		}
		var files []*ast.File
		for _, name := range bp.GoFiles {
			f, err := parser.ParseFile(fset, filepath.Join(bp.Dir, name), nil, 0)
			if err != nil {
				rtErr = err
				return
			}
			files = append(files, f)
		}
		conf := types.Config{Importer: std}
		rt, rtErr = conf.Check(runtimePath, fset, files, nil)
	})
	return rt, rtErr
}

type moduleImporter struct{}

func (moduleImporter) Import(path string) (*types.Package, error) {
	if path == runtimePath {
		return loadRuntime()
	}
	return std.Import(path)
}

// Importer resolves the runtime package from source and everything else from
// the standard library.
func Importer() types.Importer {
	return moduleImporter{}
}

// FileSet is shared by every package checked here.
func FileSet() *token.FileSet {
	return fset
}

// Check parses and type checks src as the only file of package path.
func Check(path, src string) (*Package, error) {
	file, err := parser.ParseFile(fset, filepath.Base(path)+".go", src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	info := &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Implicits:  map[ast.Node]types.Object{},
		Scopes:     map[ast.Node]*types.Scope{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
		Instances:  map[*ast.Ident]types.Instance{},
	}
	conf := types.Config{Importer: Importer()}
	pkg, err := conf.Check(path, fset, []*ast.File{file}, info)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	return &Package{Fset: fset, Types: pkg, Info: info, File: file}, nil
}
