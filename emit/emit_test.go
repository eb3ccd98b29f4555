package emit_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/tmr232/yieldgen/emit"
	"github.com/tmr232/yieldgen/frontend"
	"github.com/tmr232/yieldgen/frontend/frontendtest"
)

// generate runs src through the frontend and the wizard and type checks the
// result.
func generate(t *testing.T, src string) (string, error) {
	t.Helper()
	pkg, err := frontendtest.Check("example.com/sample", src)
	if err != nil {
		t.Fatal(err)
	}
	generators, scanErr := frontend.NewScanner(pkg.Fset, pkg.Types, pkg.Info).Scan(pkg.File)
	wiz, err := emit.NewWizard("yieldgen")
	if err != nil {
		t.Fatal(err)
	}
	out, genErr := wiz.WithFile(pkg.Fset, pkg.File, generators).Generate()
	if out == nil {
		t.Fatalf("Generate() = nil, %v", genErr)
	}
	if _, err := frontendtest.Check("example.com/sample", string(out)); err != nil {
		t.Fatalf("generated code does not compile: %v\n%s", err, out)
	}
	if scanErr != nil {
		return string(out), scanErr
	}
	return string(out), genErr
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    []string
		notWant []string
	}{
		{
			name: "header",
			src: `//go:build yieldgen

package sample

import "github.com/tmr232/yieldgen"

func Evens(n int) yieldgen.Generator[int] {
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			yieldgen.Yield(i)
		}
	}
	return nil
}
`,
			want: []string{
				"//go:build !yieldgen",
				"// Code generated by yieldgen. DO NOT EDIT.",
				"package sample",
				"type evensGenerator struct",
				"func Evens(n int) yieldgen.Generator[int] {",
				"return yieldgen.Start[int](__g.__state0)",
				"func (__g *evensGenerator) __state0(__k yieldgen.State[int]) yieldgen.Bounce[int]",
			},
			notWant: []string{"//go:build yieldgen\n", "Yield("},
		},
		{
			name: "keeps other declarations",
			src: `package sample

import "github.com/tmr232/yieldgen"

// Limit bounds Small.
const Limit = 10

type pair struct{ a, b int }

// Small yields numbers below Limit.
func Small() yieldgen.Generator[int] {
	for i := 0; i < Limit; i++ {
		// Skip odd numbers.
		if i%2 == 1 {
			continue
		}
		return yieldgen.Yield(i)
	}
	return nil
}

func (p pair) sum() int { return p.a + p.b }
`,
			want: []string{
				"// Limit bounds Small.\nconst Limit = 10",
				"type pair struct{ a, b int }",
				"// Small yields numbers below Limit.\nfunc Small() yieldgen.Generator[int] {",
				"func (p pair) sum() int { return p.a + p.b }",
			},
		},
		{
			name: "method on generic type",
			src: `package sample

import "github.com/tmr232/yieldgen"

type Stack[E any] struct {
	items []E
}

func (s *Stack[E]) Pop() yieldgen.Generator[E] {
	for len(s.items) > 0 {
		top := s.items[len(s.items)-1]
		s.items = s.items[:len(s.items)-1]
		yieldgen.Yield(top)
	}
	return nil
}
`,
			want: []string{
				"type stackPopGenerator[E any] struct",
				"__g := &stackPopGenerator[E]{s: s}",
				"func (__g *stackPopGenerator[E]) __state0(__k yieldgen.State[E]) yieldgen.Bounce[E]",
			},
		},
		{
			name: "lifted declarations",
			src: `package sample

import "github.com/tmr232/yieldgen"

func Squares() yieldgen.Generator[int] {
	const limit = 4
	type square struct{ n, sq int }
	for i := 0; i < limit; i++ {
		s := square{i, i * i}
		yieldgen.Yield(s.sq)
	}
	return nil
}
`,
			want: []string{
				"squaresGenerator_limit = 4",
				"type squaresGenerator_square struct",
				"__g.s = squaresGenerator_square{__g.i, __g.i * __g.i}",
			},
			notWant: []string{"const limit"},
		},
		{
			name: "runtime alias",
			src: `package sample

import rt "github.com/tmr232/yieldgen"

func Letters(s string) rt.Generator[rune] {
	for _, r := range s {
		rt.Yield(r)
	}
	return nil
}
`,
			want: []string{
				`rt "github.com/tmr232/yieldgen"`,
				"rt.String(__g.s)",
				"rt.Emit[rune](",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generate(t, tt.src)
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output lacks %q:\n%s", want, got)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("output has %q:\n%s", notWant, got)
				}
			}
		})
	}
}

func TestGenerateAddsImports(t *testing.T) {
	got, err := generate(t, `package sample

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
	if !strings.Contains(got, `"time"`) {
		t.Errorf("output does not import time:\n%s", got)
	}
}

func TestGenerateStubs(t *testing.T) {
	got, err := generate(t, `package sample

import (
	"fmt"

	"github.com/tmr232/yieldgen"
)

func Deferred() yieldgen.Generator[int] {
	defer fmt.Println("done")
	return yieldgen.Yield(1)
}

func Fine() yieldgen.Generator[int] {
	return yieldgen.Yield(1)
}
`)
	if !errors.Is(err, frontend.ErrIneligible) {
		t.Fatalf("Generate() error = %v, want %v", err, frontend.ErrIneligible)
	}
	want := `panic("yieldgen: Deferred could not be rewritten, run yieldgen for details")`
	if !strings.Contains(got, want) {
		t.Errorf("output lacks stub:\n%s", got)
	}
	if strings.Contains(got, `"fmt"`) {
		t.Errorf("output keeps unused import:\n%s", got)
	}
	if !strings.Contains(got, "type fineGenerator struct") {
		t.Errorf("output lacks fineGenerator:\n%s", got)
	}
}
