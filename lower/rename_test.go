package lower_test

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/token"
	"strings"
	"testing"

	"github.com/tmr232/yieldgen/lower"
	"github.com/tmr232/yieldgen/lower/lowertest"
)

func render(t *testing.T, node ast.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := format.Node(&buf, token.NewFileSet(), node); err != nil {
		t.Fatal(err)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

func fields(names ...string) lower.Env {
	env := lower.Env{}
	for _, name := range names {
		env = env.WithRename(name, lower.Target{Name: name, Field: true})
	}
	return env
}

func TestRename(t *testing.T) {
	tests := []struct {
		name string
		src  string
		env  lower.Env
		want string
	}{
		{
			name: "expression",
			src:  "x = x + y",
			env:  fields("x"),
			want: "__g.x = __g.x + y",
		},
		{
			name: "selector",
			src:  "p.x = x",
			env:  fields("p", "x"),
			want: "__g.p.x = __g.x",
		},
		{
			name: "func literal parameter",
			src:  "f := func(x int) int { return x + y }",
			env:  fields("x", "y"),
			want: "f := func(x int) int { return x + __g.y }",
		},
		{
			name: "short declaration shadows",
			src:  "{ y := x; x := 1; print(x, y) }",
			env:  fields("x", "y"),
			want: "{ y := __g.x x := 1 print(x, y) }",
		},
		{
			name: "shadow ends with block",
			src:  "{ { x := 1; print(x) }; print(x) }",
			env:  fields("x"),
			want: "{ { x := 1 print(x) } print(__g.x) }",
		},
		{
			name: "loop header",
			src:  "for x := 0; x < n; x++ { s += x }",
			env:  fields("x", "n", "s"),
			want: "for x := 0; x < __g.n; x++ { __g.s += x }",
		},
		{
			name: "range",
			src:  "for _, v := range xs { total += v }",
			env:  fields("v", "xs", "total"),
			want: "for _, v := range __g.xs { __g.total += v }",
		},
		{
			name: "labels",
			src:  "x: for { break x }",
			env:  fields("x"),
			want: "x: for { break x }",
		},
		{
			name: "plain rename",
			src:  "var v limit",
			env:  lower.Env{}.WithRename("limit", lower.Target{Name: "holder_limit"}),
			want: "var v holder_limit",
		},
		{
			name: "var declaration",
			src:  "{ var x = x; print(x) }",
			env:  fields("x"),
			want: "{ var x = __g.x print(x) }",
		},
		{
			name: "switch clause",
			src:  "switch x { case 1: x := 2; print(x) }",
			env:  fields("x"),
			want: "switch __g.x { case 1: x := 2 print(x) }",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, lower.Rename(lowertest.Stmt(tt.src), tt.env, lower.Receiver, nil))
			if got != tt.want {
				t.Errorf("Rename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenameKeepsStructKeys(t *testing.T) {
	expr := lowertest.Expr("T{x: x}")
	keep := map[*ast.Ident]bool{}
	ast.Inspect(expr, func(n ast.Node) bool {
		if kv, ok := n.(*ast.KeyValueExpr); ok {
			keep[kv.Key.(*ast.Ident)] = true
		}
		return true
	})
	got := render(t, lower.Rename(expr, fields("x"), lower.Receiver, keep))
	if want := "T{x: __g.x}"; got != want {
		t.Errorf("Rename() = %q, want %q", got, want)
	}
}

func TestRenameRoot(t *testing.T) {
	got := render(t, lower.Rename(lowertest.Expr("x"), fields("x"), lower.Receiver, nil))
	if want := "__g.x"; got != want {
		t.Errorf("Rename() = %q, want %q", got, want)
	}
}
