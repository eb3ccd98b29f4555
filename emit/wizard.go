// Package emit writes the generated counterpart of a generator source file.
package emit

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/tmr232/yieldgen/frontend"
	"github.com/tmr232/yieldgen/lower"
)

type Wizard struct {
	template *template.Template
	// Tag is the build tag marking generator source files.
	Tag string
}

//go:embed yieldgen.tmpl
var coreTemplate string

func NewWizard(tag string) (*Wizard, error) {
	funcMap := template.FuncMap{
		"join":       strings.Join,
		"trimPrefix": strings.TrimPrefix,
	}
	t, err := template.New("core").Funcs(funcMap).Parse(coreTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Wizard{template: t, Tag: tag}, nil
}

func (wiz *Wizard) Render(name string, data any) ([]byte, error) {
	var out bytes.Buffer
	err := wiz.template.ExecuteTemplate(&out, name, data)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// FileWizard renders one source file.
type FileWizard struct {
	*Wizard
	fset *token.FileSet
	file *ast.File
	// generators maps generator declarations to what the frontend made of
	// them.
	generators map[*ast.FuncDecl]*frontend.Generator
}

func (wiz *Wizard) WithFile(fset *token.FileSet, file *ast.File, generators []*frontend.Generator) *FileWizard {
	byDecl := make(map[*ast.FuncDecl]*frontend.Generator, len(generators))
	for _, g := range generators {
		byDecl[g.Decl] = g
	}
	return &FileWizard{Wizard: wiz, fset: fset, file: file, generators: byDecl}
}

// Lowered is a generator after lowering, ready to be written out.
type Lowered struct {
	Generator *frontend.Generator
	Holder    *lower.Holder
}

// Lower lowers every eligible generator of the file. Failures are returned
// together; the affected generators are left without a holder.
func (fw *FileWizard) Lower() (map[*ast.FuncDecl]*Lowered, error) {
	out := make(map[*ast.FuncDecl]*Lowered, len(fw.generators))
	var errs error
	for decl, g := range fw.generators {
		l := &Lowered{Generator: g}
		out[decl] = l
		if g.Func == nil {
			continue
		}
		h, err := lower.Lower(g.Func)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", fw.fset.Position(decl.Pos()), err))
			continue
		}
		l.Holder = h
	}
	return out, errs
}

// Generate renders the generated file. Generators that could not be rewritten
// become stubs that panic, so the output always compiles; the returned error
// lists what went wrong.
func (fw *FileWizard) Generate() ([]byte, error) {
	lowered, errs := fw.Lower()
	extra := map[string]string{}
	var decls []string
	for i, decl := range fw.file.Decls {
		fdecl, isFunc := decl.(*ast.FuncDecl)
		l, isGenerator := lowered[fdecl]
		if !isFunc || !isGenerator {
			text, err := fw.verbatim(i)
			if err != nil {
				return nil, err
			}
			decls = append(decls, text)
			continue
		}
		text, err := fw.generator(fdecl, l)
		if err != nil {
			return nil, err
		}
		decls = append(decls, text)
		if l.Holder != nil {
			for path, name := range l.Generator.Imports {
				extra[path] = name
			}
		}
	}

	src, err := fw.Render("file", struct {
		Tag     string
		Doc     []string
		Package string
		Decls   []string
	}{
		Tag:     fw.Tag,
		Doc:     commentLines(fw.file.Doc),
		Package: fw.file.Name.Name,
		Decls:   decls,
	})
	if err != nil {
		return nil, err
	}
	src, err = fixImports(src, extra)
	if err != nil {
		return nil, err
	}
	return formatSource(src), errs
}

func commentLines(group *ast.CommentGroup) []string {
	if group == nil {
		return nil
	}
	lines := make([]string, len(group.List))
	for i, c := range group.List {
		lines[i] = c.Text
	}
	return lines
}

// verbatim prints declaration i of the file with the comments around it.
func (fw *FileWizard) verbatim(i int) (string, error) {
	decl := fw.file.Decls[i]
	start := decl.Pos()
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
	case *ast.GenDecl:
		if d.Doc != nil {
			start = d.Doc.Pos()
		}
	}
	end := fw.file.End()
	if i+1 < len(fw.file.Decls) {
		end = fw.file.Decls[i+1].Pos()
		if next := docOf(fw.file.Decls[i+1]); next != nil {
			end = next.Pos()
		}
	}
	var comments []*ast.CommentGroup
	for _, group := range fw.file.Comments {
		if group.Pos() >= start && group.Pos() < end && !isGenerate(group) {
			comments = append(comments, group)
		}
	}
	var out bytes.Buffer
	err := format.Node(&out, fw.fset, &printer.CommentedNode{Node: decl, Comments: comments})
	if err != nil {
		return "", fmt.Errorf("printing %s: %w", fw.fset.Position(decl.Pos()), err)
	}
	return out.String(), nil
}

// isGenerate reports whether group holds a go:generate directive, which must
// not run again from the generated file.
func isGenerate(group *ast.CommentGroup) bool {
	for _, c := range group.List {
		if strings.HasPrefix(c.Text, "//go:generate ") {
			return true
		}
	}
	return false
}

func docOf(decl ast.Decl) *ast.CommentGroup {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		return d.Doc
	case *ast.GenDecl:
		return d.Doc
	}
	return nil
}

func (fw *FileWizard) generator(decl *ast.FuncDecl, l *Lowered) (string, error) {
	var out bytes.Buffer
	if doc := commentLines(decl.Doc); doc != nil {
		text, err := fw.Render("doc", doc)
		if err != nil {
			return "", err
		}
		out.Write(text)
	}
	var decls []ast.Decl
	if l.Holder == nil {
		message, err := fw.Render("unsupported", decl.Name.Name)
		if err != nil {
			return "", err
		}
		decls = []ast.Decl{stub(decl, string(message))}
	} else {
		decls = holderDecls{h: l.Holder}.decls(decl)
		Logger().Debug("emitting generator",
			zap.String("func", decl.Name.Name),
			zap.String("holder", l.Holder.Name),
			zap.Int("states", len(l.Holder.States)))
	}
	// Synthesized nodes carry no positions, so they are printed on their own.
	fset := token.NewFileSet()
	for i, d := range decls {
		if i > 0 {
			out.WriteString("\n\n")
		}
		if err := format.Node(&out, fset, d); err != nil {
			return "", fmt.Errorf("printing %s: %w", decl.Name.Name, err)
		}
	}
	return out.String(), nil
}

// fixImports adds the imports generated code needs and drops the ones nothing
// uses anymore.
func fixImports(src []byte, extra map[string]string) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		// Leave broken output to formatSource, which reports it.
		Logger().Warn("generated source does not parse", zap.Error(err))
		return src, nil
	}
	paths := make([]string, 0, len(extra))
	for p := range extra {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if name := extra[p]; name == path.Base(p) {
			astutil.AddImport(fset, file, p)
		} else {
			astutil.AddNamedImport(fset, file, name, p)
		}
	}
	type unused struct{ name, path string }
	var drop []unused
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := ""
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." || name == "" && !guessable(p) || astutil.UsesImport(file, p) {
			continue
		}
		drop = append(drop, unused{name, p})
	}
	for _, imp := range drop {
		astutil.DeleteNamedImport(fset, file, imp.name, imp.path)
	}
	var out bytes.Buffer
	if err := format.Node(&out, fset, file); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// guessable reports whether the name of the package at path is likely its
// last element, which is what astutil.UsesImport assumes.
func guessable(p string) bool {
	base := path.Base(p)
	if !token.IsIdentifier(base) {
		return false
	}
	if len(base) > 1 && base[0] == 'v' && strings.Trim(base[1:], "0123456789") == "" {
		return false
	}
	return true
}

func formatSource(src []byte) []byte {
	formattedSrc, err := format.Source(src)
	if err != nil {
		// Should never happen, but can arise when developing this code.
		// The user can compile the output to see the error.
		Logger().Warn("internal error: invalid Go generated", zap.Error(err))
		Logger().Warn("compile the package to analyze the error")
		return src
	}
	return formattedSrc
}
