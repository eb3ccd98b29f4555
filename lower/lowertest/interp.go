// Package lowertest runs lowered state tables without compiling them.
//
// The interpreter understands the subset of Go used by lowering tests: ints,
// strings, bools, slices, the runtime's range adapters, and host functions
// passed in by the test. Every state becomes a real yieldgen.State, so values
// flow through the same trampoline and Sequence as generated code.
package lowertest

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"

	"github.com/tmr232/yieldgen"
	"github.com/tmr232/yieldgen/lower"
)

// Func is a host function callable from interpreted code.
type Func func(args ...any) any

type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
	sigFallthrough
)

type control struct {
	sig   signal
	label string
}

type scope struct {
	vars   map[string]any
	parent *scope
}

func (s *scope) lookup(name string) (*scope, bool) {
	for c := s; c != nil; c = c.parent {
		if _, ok := c.vars[name]; ok {
			return c, true
		}
	}
	return nil, false
}

type interp struct {
	holder *lower.Holder
	fields map[string]any
	funcs  map[string]Func
	states []yieldgen.State[any]
}

// Start instantiates h with the given parameter values and returns the
// running sequence, like the generated wrapper function would.
func Start(h *lower.Holder, params map[string]any, funcs map[string]Func) *yieldgen.Sequence[any] {
	in := &interp{holder: h, fields: make(map[string]any), funcs: funcs}
	for _, f := range h.Fields {
		in.fields[f.Name] = nil
	}
	for name, value := range params {
		in.fields[name] = value
	}
	in.states = make([]yieldgen.State[any], len(h.States))
	for i, s := range h.States {
		ops := s.Ops
		in.states[i] = func(k yieldgen.State[any]) yieldgen.Bounce[any] {
			b, ok := in.run(ops, k)
			if !ok {
				panic(fmt.Sprintf("state %d fell through", s.ID))
			}
			return b
		}
	}
	return yieldgen.Start[any](in.states[lower.Entry])
}

func (in *interp) run(ops []lower.Op, k yieldgen.State[any]) (yieldgen.Bounce[any], bool) {
	for _, op := range ops {
		switch op := op.(type) {
		case lower.Exec:
			in.exec(op.Stmt, &scope{vars: map[string]any{}})
		case lower.Jump:
			target := in.states[op.To]
			if op.Value != nil {
				return yieldgen.Emit[any](k, target, in.eval(op.Value, nil)), true
			}
			return yieldgen.Goto[any](k, target), true
		case lower.Finish:
			return yieldgen.Finish[any](k), true
		case lower.Branch:
			arm := op.Else
			if in.eval(op.Cond, nil).(bool) {
				arm = op.Then
			}
			if b, ok := in.run(arm, k); ok {
				return b, true
			}
		case lower.Dispatch:
			if arm := in.dispatch(op, nil); arm != nil {
				if b, ok := in.run(arm.Ops, k); ok {
					return b, true
				}
			}
		}
	}
	return yieldgen.Bounce[any]{}, false
}

func (in *interp) dispatch(op lower.Dispatch, sc *scope) *lower.Arm {
	var tag any = true
	if op.Tag != nil {
		tag = in.eval(op.Tag, sc)
	}
	var def *lower.Arm
	for i := range op.Arms {
		arm := &op.Arms[i]
		if arm.List == nil {
			def = arm
			continue
		}
		for _, expr := range arm.List {
			if in.eval(expr, sc) == tag {
				return arm
			}
		}
	}
	return def
}

func (in *interp) exec(stmt ast.Stmt, sc *scope) control {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		in.eval(s.X, sc)
	case *ast.AssignStmt:
		in.assign(s, sc)
	case *ast.IncDecStmt:
		delta := 1
		if s.Tok == token.DEC {
			delta = -1
		}
		in.store(s.X, in.eval(s.X, sc).(int)+delta, sc, false)
	case *ast.DeclStmt:
		for _, spec := range s.Decl.(*ast.GenDecl).Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				var value any
				if i < len(vs.Values) {
					value = in.eval(vs.Values[i], sc)
				} else {
					value = zero(vs.Type)
				}
				sc.vars[name.Name] = value
			}
		}
	case *ast.BlockStmt:
		return in.block(s.List, &scope{vars: map[string]any{}, parent: sc})
	case *ast.IfStmt:
		inner := &scope{vars: map[string]any{}, parent: sc}
		if s.Init != nil {
			in.exec(s.Init, inner)
		}
		if in.eval(s.Cond, inner).(bool) {
			return in.exec(s.Body, inner)
		} else if s.Else != nil {
			return in.exec(s.Else, inner)
		}
	case *ast.ForStmt:
		return in.loop(s, "", sc)
	case *ast.LabeledStmt:
		if loop, ok := s.Stmt.(*ast.ForStmt); ok {
			return in.loop(loop, s.Label.Name, sc)
		}
		c := in.exec(s.Stmt, sc)
		if c.sig == sigBreak && c.label == s.Label.Name {
			return control{}
		}
		return c
	case *ast.SwitchStmt:
		return in.switchStmt(s, sc)
	case *ast.BranchStmt:
		label := ""
		if s.Label != nil {
			label = s.Label.Name
		}
		switch s.Tok {
		case token.BREAK:
			return control{sig: sigBreak, label: label}
		case token.CONTINUE:
			return control{sig: sigContinue, label: label}
		case token.FALLTHROUGH:
			return control{sig: sigFallthrough}
		}
	case *ast.EmptyStmt:
	default:
		panic(fmt.Sprintf("lowertest: unsupported statement %T", stmt))
	}
	return control{}
}

func (in *interp) block(list []ast.Stmt, sc *scope) control {
	for _, stmt := range list {
		if c := in.exec(stmt, sc); c.sig != sigNone {
			return c
		}
	}
	return control{}
}

func (in *interp) loop(s *ast.ForStmt, label string, sc *scope) control {
	inner := &scope{vars: map[string]any{}, parent: sc}
	if s.Init != nil {
		in.exec(s.Init, inner)
	}
	for s.Cond == nil || in.eval(s.Cond, inner).(bool) {
		c := in.exec(s.Body, inner)
		mine := c.label == "" || c.label == label
		if c.sig == sigBreak {
			if mine {
				break
			}
			return c
		}
		if c.sig == sigContinue && !mine {
			return c
		}
		if s.Post != nil {
			in.exec(s.Post, inner)
		}
	}
	return control{}
}

func (in *interp) switchStmt(s *ast.SwitchStmt, sc *scope) control {
	inner := &scope{vars: map[string]any{}, parent: sc}
	if s.Init != nil {
		in.exec(s.Init, inner)
	}
	var tag any = true
	if s.Tag != nil {
		tag = in.eval(s.Tag, inner)
	}
	clauses := make([]*ast.CaseClause, len(s.Body.List))
	start := -1
	for i, stmt := range s.Body.List {
		clauses[i] = stmt.(*ast.CaseClause)
	}
	for i, clause := range clauses {
		for _, expr := range clause.List {
			if start < 0 && in.eval(expr, inner) == tag {
				start = i
			}
		}
	}
	if start < 0 {
		for i, clause := range clauses {
			if clause.List == nil {
				start = i
			}
		}
	}
	for i := start; i >= 0 && i < len(clauses); i++ {
		c := in.block(clauses[i].Body, &scope{vars: map[string]any{}, parent: inner})
		switch {
		case c.sig == sigFallthrough:
			continue
		case c.sig == sigBreak && c.label == "":
			return control{}
		default:
			return c
		}
	}
	return control{}
}

func (in *interp) assign(s *ast.AssignStmt, sc *scope) {
	var values []any
	if len(s.Rhs) == 1 && len(s.Lhs) > 1 {
		values = in.multi(s.Rhs[0], sc)
	} else {
		for _, expr := range s.Rhs {
			values = append(values, in.eval(expr, sc))
		}
	}
	switch s.Tok {
	case token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN:
		op := map[token.Token]token.Token{token.ADD_ASSIGN: token.ADD, token.SUB_ASSIGN: token.SUB, token.MUL_ASSIGN: token.MUL}[s.Tok]
		values[0] = binary(op, in.eval(s.Lhs[0], sc), values[0])
	}
	for i, target := range s.Lhs {
		in.store(target, values[i], sc, s.Tok == token.DEFINE)
	}
}

func (in *interp) store(target ast.Expr, value any, sc *scope, define bool) {
	switch t := target.(type) {
	case *ast.Ident:
		if t.Name == "_" {
			return
		}
		if define {
			sc.vars[t.Name] = value
			return
		}
		if owner, ok := sc.lookup(t.Name); ok {
			owner.vars[t.Name] = value
			return
		}
		panic(fmt.Sprintf("lowertest: assignment to unknown %s", t.Name))
	case *ast.SelectorExpr:
		in.fields[in.fieldName(t)] = value
	case *ast.IndexExpr:
		in.eval(t.X, sc).([]any)[in.eval(t.Index, sc).(int)] = value
	default:
		panic(fmt.Sprintf("lowertest: unsupported assignment target %T", target))
	}
}

func (in *interp) fieldName(sel *ast.SelectorExpr) string {
	if x, ok := sel.X.(*ast.Ident); !ok || x.Name != in.holder.Recv {
		panic(fmt.Sprintf("lowertest: unsupported selector on %v", sel.X))
	}
	if _, ok := in.fields[sel.Sel.Name]; !ok {
		panic(fmt.Sprintf("lowertest: unknown field %s", sel.Sel.Name))
	}
	return sel.Sel.Name
}

func (in *interp) multi(expr ast.Expr, sc *scope) []any {
	call, ok := expr.(*ast.CallExpr)
	if ok {
		if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Next" {
			k, v := in.eval(sel.X, sc).(iterator).Next()
			return []any{k, v}
		}
	}
	panic(fmt.Sprintf("lowertest: unsupported multi-valued expression %T", expr))
}

func (in *interp) eval(expr ast.Expr, sc *scope) any {
	switch e := expr.(type) {
	case *ast.BasicLit:
		switch e.Kind {
		case token.INT:
			n, err := strconv.Atoi(e.Value)
			if err != nil {
				panic(err)
			}
			return n
		case token.STRING:
			s, err := strconv.Unquote(e.Value)
			if err != nil {
				panic(err)
			}
			return s
		}
	case *ast.Ident:
		switch e.Name {
		case "true":
			return true
		case "false":
			return false
		case "nil":
			return nil
		}
		if owner, ok := sc.lookup(e.Name); ok {
			return owner.vars[e.Name]
		}
		if f, ok := in.funcs[e.Name]; ok {
			return f
		}
		panic(fmt.Sprintf("lowertest: unknown identifier %s", e.Name))
	case *ast.SelectorExpr:
		return in.fields[in.fieldName(e)]
	case *ast.ParenExpr:
		return in.eval(e.X, sc)
	case *ast.UnaryExpr:
		x := in.eval(e.X, sc)
		switch e.Op {
		case token.NOT:
			return !x.(bool)
		case token.SUB:
			return -x.(int)
		}
	case *ast.BinaryExpr:
		switch e.Op {
		case token.LAND:
			return in.eval(e.X, sc).(bool) && in.eval(e.Y, sc).(bool)
		case token.LOR:
			return in.eval(e.X, sc).(bool) || in.eval(e.Y, sc).(bool)
		}
		return binary(e.Op, in.eval(e.X, sc), in.eval(e.Y, sc))
	case *ast.IndexExpr:
		return in.eval(e.X, sc).([]any)[in.eval(e.Index, sc).(int)]
	case *ast.CompositeLit:
		out := []any{}
		for _, elt := range e.Elts {
			out = append(out, in.eval(elt, sc))
		}
		return out
	case *ast.StarExpr:
		if call, ok := e.X.(*ast.CallExpr); ok && isIdent(call.Fun, "new") {
			return zero(call.Args[0])
		}
	case *ast.CallExpr:
		return in.call(e, sc)
	}
	panic(fmt.Sprintf("lowertest: unsupported expression %T", expr))
}

func (in *interp) call(e *ast.CallExpr, sc *scope) any {
	args := func() []any {
		out := make([]any, len(e.Args))
		for i, arg := range e.Args {
			out[i] = in.eval(arg, sc)
		}
		return out
	}
	switch fun := e.Fun.(type) {
	case *ast.Ident:
		switch fun.Name {
		case "len":
			switch x := in.eval(e.Args[0], sc).(type) {
			case string:
				return len(x)
			case []any:
				return len(x)
			}
		case "append":
			a := args()
			s, _ := a[0].([]any)
			return append(s, a[1:]...)
		}
		if f, ok := in.eval(fun, sc).(Func); ok {
			return f(args()...)
		}
	case *ast.SelectorExpr:
		if isIdent(fun.X, in.holder.Runtime) {
			return adapter(fun.Sel.Name, args())
		}
		if fun.Sel.Name == "HasNext" {
			return in.eval(fun.X, sc).(iterator).HasNext()
		}
	}
	panic(fmt.Sprintf("lowertest: unsupported call of %T", e.Fun))
}

func isIdent(expr ast.Expr, name string) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == name
}

func zero(typ ast.Expr) any {
	ident, _ := typ.(*ast.Ident)
	if ident == nil {
		return nil
	}
	switch ident.Name {
	case "int":
		return 0
	case "string":
		return ""
	case "bool":
		return false
	}
	return nil
}

func binary(op token.Token, x, y any) any {
	switch op {
	case token.EQL:
		return x == y
	case token.NEQ:
		return x != y
	}
	if xs, ok := x.(string); ok {
		ys := y.(string)
		switch op {
		case token.ADD:
			return xs + ys
		case token.LSS:
			return xs < ys
		case token.GTR:
			return xs > ys
		}
	}
	xi, yi := x.(int), y.(int)
	switch op {
	case token.ADD:
		return xi + yi
	case token.SUB:
		return xi - yi
	case token.MUL:
		return xi * yi
	case token.QUO:
		return xi / yi
	case token.REM:
		return xi % yi
	case token.LSS:
		return xi < yi
	case token.LEQ:
		return xi <= yi
	case token.GTR:
		return xi > yi
	case token.GEQ:
		return xi >= yi
	}
	panic(fmt.Sprintf("lowertest: unsupported operator %s", op))
}

type iterator interface {
	HasNext() bool
	Next() (any, any)
}

type boxed[K, V any] struct {
	it yieldgen.Iterator2[K, V]
}

func (b boxed[K, V]) HasNext() bool {
	return b.it.HasNext()
}

func (b boxed[K, V]) Next() (any, any) {
	k, v := b.it.Next()
	return k, v
}

func adapter(name string, args []any) iterator {
	switch name {
	case "Slice":
		slice, _ := args[0].([]any)
		return boxed[int, any]{yieldgen.Slice(slice)}
	case "String":
		return boxed[int, rune]{yieldgen.String(args[0].(string))}
	case "Count":
		return boxed[int, struct{}]{yieldgen.Count(args[0].(int))}
	case "Each":
		return boxed[any, struct{}]{yieldgen.Each(args[0].(yieldgen.Generator[any]))}
	}
	panic(fmt.Sprintf("lowertest: unsupported adapter %s", name))
}
