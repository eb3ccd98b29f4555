package frontend_test

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/tmr232/yieldgen"
	"github.com/tmr232/yieldgen/frontend"
	"github.com/tmr232/yieldgen/frontend/frontendtest"
	"github.com/tmr232/yieldgen/lower"
	"github.com/tmr232/yieldgen/lower/lowertest"
)

const header = `package sample

import "github.com/tmr232/yieldgen"

`

func check(t *testing.T, src string) *frontendtest.Package {
	t.Helper()
	pkg, err := frontendtest.Check("example.com/sample", src)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

func scan(t *testing.T, src string) ([]*frontend.Generator, error) {
	t.Helper()
	pkg := check(t, src)
	return frontend.NewScanner(pkg.Fset, pkg.Types, pkg.Info).Scan(pkg.File)
}

func funcDecl(pkg *frontendtest.Package, name string) *ast.FuncDecl {
	for _, decl := range pkg.File.Decls {
		if fdecl, ok := decl.(*ast.FuncDecl); ok && fdecl.Name.Name == name {
			return fdecl
		}
	}
	return nil
}

func TestIsGenerator(t *testing.T) {
	pkg := check(t, header+`
func Count(n int) yieldgen.Generator[int] {
	for i := 0; i < n; i++ {
		yieldgen.Yield(i)
	}
	return nil
}

func Wrapped() yieldgen.Generator[int] {
	return Count(3)
}

func Plain() int {
	return 1
}

func Empty() yieldgen.Generator[string] {
	return nil
}
`)
	tests := []struct {
		name string
		want bool
	}{
		{"Count", true},
		{"Wrapped", false},
		{"Plain", false},
		{"Empty", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := frontend.IsGenerator(pkg.Info, funcDecl(pkg, tt.name)); got != tt.want {
				t.Errorf("IsGenerator() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSourceFile(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"tagged", "//go:build yieldgen\n\npackage p\n", true},
		{"negated", "//go:build !yieldgen\n\npackage p\n", false},
		{"untagged", "package p\n", false},
		{"other tag", "//go:build linux\n\npackage p\n", false},
		{"after doc comment", "//go:build yieldgen\n\n// Package p is here.\npackage p\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := parser.ParseFile(token.NewFileSet(), "p.go", tt.src, parser.ParseComments)
			if err != nil {
				t.Fatal(err)
			}
			if got := frontend.IsSourceFile(file, "yieldgen"); got != tt.want {
				t.Errorf("IsSourceFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		args   map[string]any
		holder string
		want   []any
	}{
		{
			name: "range with continue",
			src: `
func Evens(xs []int) yieldgen.Generator[int] {
	for _, x := range xs {
		if x%2 != 0 {
			continue
		}
		yieldgen.Yield(x)
	}
	return nil
}`,
			args:   map[string]any{"xs": []any{1, 2, 3, 4}},
			holder: "evensGenerator",
			want:   []any{2, 4},
		},
		{
			name: "switch with fallthrough",
			src: `
func Grades(scores []int) yieldgen.Generator[string] {
	for _, s := range scores {
		switch {
		case s >= 90:
			yieldgen.Yield("A")
		case s >= 80:
			yieldgen.Yield("B")
			fallthrough
		case s >= 70:
			yieldgen.Yield("pass")
		default:
			yieldgen.Yield("fail")
		}
	}
	return nil
}`,
			args:   map[string]any{"scores": []any{95, 85, 75, 10}},
			holder: "gradesGenerator",
			want:   []any{"A", "B", "pass", "pass", "fail"},
		},
		{
			name: "if with init",
			src: `
func Halves(n int) yieldgen.Generator[int] {
	for i := 0; i < n; i++ {
		if h := i / 2; h*2 == i {
			return yieldgen.Yield(h)
		}
	}
	return nil
}`,
			args:   map[string]any{"n": 5},
			holder: "halvesGenerator",
			want:   []any{0, 1, 2},
		},
		{
			name: "labeled loops",
			src: `
func Pairs(n int) yieldgen.Generator[int] {
outer:
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j > i {
				continue outer
			}
			yieldgen.Yield(i*10 + j)
		}
	}
	return nil
}`,
			args:   map[string]any{"n": 3},
			holder: "pairsGenerator",
			want:   []any{0, 10, 11, 20, 21, 22},
		},
		{
			name: "var declarations",
			src: `
func Sums(n int) yieldgen.Generator[int] {
	var total int
	for i := range n {
		total += i
		yieldgen.Yield(total)
	}
	return nil
}`,
			args:   map[string]any{"n": 4},
			holder: "sumsGenerator",
			want:   []any{0, 1, 3, 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generators, err := scan(t, header+tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if len(generators) != 1 {
				t.Fatalf("found %d generators, want 1", len(generators))
			}
			fn := generators[0].Func
			if fn.Name != tt.holder {
				t.Errorf("holder = %s, want %s", fn.Name, tt.holder)
			}
			h, err := lower.Lower(fn)
			if err != nil {
				t.Fatal(err)
			}
			got := yieldgen.ToSlice(lowertest.Start(h, tt.args, nil))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason string
	}{
		{
			name:   "defer",
			src:    `func F() yieldgen.Generator[int] { defer println(); return yieldgen.Yield(1) }`,
			reason: "defer",
		},
		{
			name: "goto",
			src: `func F() yieldgen.Generator[int] {
again:
	yieldgen.Yield(1)
	goto again
}`,
			reason: "goto",
		},
		{
			name:   "function literal",
			src:    `func F() yieldgen.Generator[int] { f := func() { yieldgen.Yield(1) }; f(); return nil }`,
			reason: "function literal",
		},
		{
			name:   "value",
			src:    `func F() yieldgen.Generator[int] { g := yieldgen.Yield(1); _ = g; return nil }`,
			reason: "used as a value",
		},
		{
			name:   "return other generator",
			src:    `func F() yieldgen.Generator[int] { yieldgen.Yield(1); return F() }`,
			reason: "return must be",
		},
		{
			name:   "named result",
			src:    `func F() (g yieldgen.Generator[int]) { return yieldgen.Yield(1) }`,
			reason: "name their result",
		},
		{
			name:   "yield in select",
			src:    `func F() yieldgen.Generator[int] { select { default: yieldgen.Yield(1) }; return nil }`,
			reason: "select or type switch",
		},
		{
			name:   "range over function",
			src:    `func F(seq func(func(int) bool)) yieldgen.Generator[int] { for x := range seq { yieldgen.Yield(x) }; return nil }`,
			reason: "cannot range over function",
		},
		{
			name: "closure over loop local",
			src: `func F() yieldgen.Generator[func() int] {
	for i := 0; i < 3; i++ {
		x := i * 10
		yieldgen.Yield(func() int { return x })
	}
	return nil
}`,
			reason: "function literal captures x, which is declared in a loop",
		},
		{
			name: "closure over loop variable",
			src: `func F(xs []int) yieldgen.Generator[func() int] {
	for _, x := range xs {
		yieldgen.Yield(func() int { return x })
	}
	return nil
}`,
			reason: "function literal captures x",
		},
		{
			name: "address of loop local",
			src: `func F() yieldgen.Generator[*int] {
	for i := 0; i < 3; i++ {
		x := i
		yieldgen.Yield(&x)
	}
	return nil
}`,
			reason: "address taken of x",
		},
		{
			name:   "not a generator",
			src:    `func F() int { yieldgen.Yield(1); return 0 }`,
			reason: "does not return a Generator",
		},
		{
			name:   "local type in generic generator",
			src:    `func F[T any]() yieldgen.Generator[T] { type pair struct{}; _ = pair{}; yieldgen.Yield(*new(T)); return nil }`,
			reason: "generic",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generators, err := scan(t, header+tt.src)
			if !errors.Is(err, frontend.ErrIneligible) {
				t.Fatalf("Scan() error = %v, want %v", err, frontend.ErrIneligible)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("Scan() error = %v, want it to mention %q", err, tt.reason)
			}
			if len(generators) != 1 || generators[0].Func != nil {
				t.Errorf("ineligible generator was converted")
			}
			var diagnostic *frontend.Diagnostic
			if !errors.As(err, &diagnostic) || diagnostic.Func != "F" {
				t.Errorf("Scan() error = %v, want a diagnostic for F", err)
			}
		})
	}
}

func TestScanAllowsCapturesOutsideLoops(t *testing.T) {
	generators, err := scan(t, header+`
func F(n int) yieldgen.Generator[int] {
	base := 10
	add := func(i int) int { return base + i }
	for i := 0; i < n; i++ {
		sum := 0
		for _, d := range []int{i, i} {
			sum += d
		}
		yieldgen.Yield(add(sum))
	}
	return nil
}
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(generators) != 1 || generators[0].Func == nil {
		t.Errorf("generator was not converted")
	}
}

func TestScanReportsEveryGenerator(t *testing.T) {
	generators, err := scan(t, header+`
func A() yieldgen.Generator[int] { defer println(); return yieldgen.Yield(1) }
func B() yieldgen.Generator[int] { return yieldgen.Yield(2) }
func C() yieldgen.Generator[int] { g := yieldgen.Yield(1); _ = g; return nil }
`)
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("got %d errors, want 2: %v", got, err)
	}
	if len(generators) != 3 || generators[1].Func == nil {
		t.Errorf("eligible generator B was not converted")
	}
}

func TestScanImportsTypes(t *testing.T) {
	generators, err := scan(t, `package sample

import (
	"context"

	"github.com/tmr232/yieldgen"
)

func Years(ctx context.Context) yieldgen.Generator[int] {
	deadline, ok := ctx.Deadline()
	if ok {
		return yieldgen.Yield(deadline.Year())
	}
	return nil
}
`)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"time": "time"}
	if got := generators[0].Imports; !reflect.DeepEqual(got, want) {
		t.Errorf("Imports = %v, want %v", got, want)
	}
}

func TestScanRuntimeAlias(t *testing.T) {
	generators, err := scan(t, `package sample

import rt "github.com/tmr232/yieldgen"

func One() rt.Generator[int] {
	return rt.Yield(1)
}
`)
	if err != nil {
		t.Fatal(err)
	}
	if got := generators[0].Func.Runtime; got != "rt" {
		t.Errorf("Runtime = %s, want rt", got)
	}
}

func TestScanKeepsStructKeys(t *testing.T) {
	generators, err := scan(t, header+`
type point struct{ x, y int }

func Points(n int) yieldgen.Generator[point] {
	for x := 0; x < n; x++ {
		y := x * x
		yieldgen.Yield(point{x: x, y: y})
	}
	return nil
}
`)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(generators[0].Func.Keep); got != 2 {
		t.Errorf("kept %d identifiers, want 2", got)
	}
}

func TestScanHolderNames(t *testing.T) {
	generators, err := scan(t, header+`
type fibGenerator struct{}

type Rep struct{ n int }

func Fib() yieldgen.Generator[int] { return yieldgen.Yield(1) }

func (r *Rep) Items() yieldgen.Generator[int] { return yieldgen.Yield(r.n) }

func (r Rep) items() yieldgen.Generator[int] { return yieldgen.Yield(r.n) }
`)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, g := range generators {
		got = append(got, g.Func.Name)
	}
	want := []string{"fibGenerator1", "repItemsGenerator", "repItemsGenerator1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("holders = %v, want %v", got, want)
	}
}

func TestScanGenericReceiver(t *testing.T) {
	generators, err := scan(t, header+`
type Box[T any] struct{ items []T }

func (b *Box[E]) All() yieldgen.Generator[E] {
	for _, item := range b.items {
		yieldgen.Yield(item)
	}
	return nil
}
`)
	if err != nil {
		t.Fatal(err)
	}
	params := generators[0].Func.TypeParams
	if params == nil || len(params.List) != 1 || params.List[0].Names[0].Name != "E" {
		t.Errorf("TypeParams = %v, want [E any]", params)
	}
}
