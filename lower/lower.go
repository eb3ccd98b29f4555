// Package lower turns a generator body into a table of states.
//
// Every state is a flat list of operations ending in a transfer to another
// state. Locals and parameters live in fields of a holder type so that they
// survive between states, which run as separate calls driven by the runtime
// trampoline.
package lower

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"

	"go.uber.org/zap"

	"github.com/tmr232/yieldgen/ir"
)

var (
	// ErrUnresolvedTarget is returned when a break or continue has no target.
	ErrUnresolvedTarget = errors.New("unresolved branch target")
	// ErrIncompleteState is returned when a state does not end in a transfer.
	ErrIncompleteState = errors.New("state without transfer")
)

// Func is a generator ready for lowering.
type Func struct {
	// Name becomes the holder type name.
	Name       string
	Recv       *ast.Field
	TypeParams *ast.FieldList
	Params     *ast.FieldList
	// Elem is the element type of the produced sequence.
	Elem ast.Expr
	Body *ir.Block
	// Runtime is the name the runtime package is imported as.
	Runtime string
	// Keep lists identifiers the renamer must leave alone.
	Keep map[*ast.Ident]bool
}

type lowerer struct {
	fn     *Func
	holder *Holder
	names  names
	iters  int
}

// abort carries an error out of the recursive pass.
type abort struct {
	err error
}

// Lower builds the state table of fn. The body of fn is consumed: its
// expressions end up, rewritten, inside the holder.
func Lower(fn *Func) (holder *Holder, err error) {
	l := &lowerer{
		fn:    fn,
		names: names{},
		holder: &Holder{
			Name:       fn.Name,
			Recv:       Receiver,
			Runtime:    fn.Runtime,
			Elem:       fn.Elem,
			TypeParams: fn.TypeParams,
		},
	}
	defer func() {
		if r := recover(); r != nil {
			a, ok := r.(abort)
			if !ok {
				panic(r)
			}
			holder, err = nil, fmt.Errorf("lowering %s: %w", fn.Name, a.err)
		}
	}()

	entry := l.newState()
	end := l.newState()
	env := Env{}.WithNext(end)
	if fn.Recv != nil {
		env = l.param(fn.Recv, env)
	}
	if fn.Params != nil {
		for _, field := range fn.Params.List {
			env = l.param(field, env)
		}
	}
	l.block(fn.Body.List, entry, env)
	l.emit(end, Finish{})

	if err := l.holder.Validate(); err != nil {
		return nil, err
	}
	Logger().Debug("lowered generator",
		zap.String("holder", l.holder.Name),
		zap.Int("states", len(l.holder.States)),
		zap.Int("fields", len(l.holder.Fields)))
	return l.holder, nil
}

func (l *lowerer) param(field *ast.Field, env Env) Env {
	typ := field.Type
	if ellipsis, ok := typ.(*ast.Ellipsis); ok {
		typ = &ast.ArrayType{Elt: ellipsis.Elt}
	}
	for _, name := range field.Names {
		if name.Name == "_" {
			continue
		}
		// Parameters keep their names so the wrapper can fill them in.
		l.names[name.Name] = true
		l.holder.Fields = append(l.holder.Fields, Field{Name: name.Name, Type: typ})
		l.holder.Params = append(l.holder.Params, name.Name)
		env = env.WithRename(name.Name, Target{Name: name.Name, Field: true})
	}
	return env
}

func (l *lowerer) newState() int {
	id := len(l.holder.States)
	l.holder.States = append(l.holder.States, &State{ID: id})
	return id
}

func (l *lowerer) emit(id int, op Op) {
	l.holder.States[id].Ops = append(l.holder.States[id].Ops, op)
}

func (l *lowerer) terminated(id int) bool {
	return l.holder.States[id].Terminated()
}

func (l *lowerer) fail(format string, args ...any) {
	panic(abort{err: fmt.Errorf(format, args...)})
}

func (l *lowerer) rename(node ast.Node, env Env) ast.Node {
	return Rename(node, env, Receiver, l.fn.Keep)
}

func (l *lowerer) expr(expr ast.Expr, env Env) ast.Expr {
	if expr == nil {
		return nil
	}
	return l.rename(expr, env).(ast.Expr)
}

func (l *lowerer) field(name string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: ast.NewIdent(Receiver), Sel: ast.NewIdent(name)}
}

func (l *lowerer) hoist(name string, typ ast.Expr) string {
	field := l.names.unique(name)
	l.holder.Fields = append(l.holder.Fields, Field{Name: field, Type: typ})
	return field
}

// block lowers list into current. Straight-line statements share a state; a
// statement that ends its state moves lowering into the reserved continuation
// state and a fresh one is reserved.
func (l *lowerer) block(list []ir.Stmt, current int, env Env) {
	cont := l.newState()
	for _, s := range list {
		switch s := s.(type) {
		case *ir.VarDecl:
			env = l.varDecl(s, current, env)
		case *ir.TypeDecl:
			env = l.typeDecl(s, env)
		default:
			child := env.WithNext(cont).ClearLabels()
			if ModifiesControlFlow(s) {
				l.stmt(s, current, child)
			} else {
				l.verbatim(s, current, child)
			}
		}
		if l.terminated(current) {
			current = cont
			cont = l.newState()
		}
	}
	if !l.terminated(current) {
		l.emit(current, Jump{To: env.Next()})
	}
	l.emit(cont, Jump{To: env.Next()})
}

// body lowers a branch or loop body, wrapping single statements in a block
// so that their state is always closed.
func (l *lowerer) body(s ir.Stmt, current int, env Env) {
	if b, ok := s.(*ir.Block); ok {
		l.block(b.List, current, env)
		return
	}
	l.block([]ir.Stmt{s}, current, env)
}

func (l *lowerer) stmt(s ir.Stmt, current int, env Env) {
	switch s := s.(type) {
	case *ir.Block:
		l.block(s.List, current, env)
	case *ir.VarDecl:
		l.varDecl(s, current, env)
	case *ir.TypeDecl:
		l.typeDecl(s, env)
	case *ir.Yield:
		l.emit(current, Jump{To: env.Next(), Value: l.expr(s.Value, env)})
	case *ir.Return:
		l.emit(current, Jump{To: End})
	case *ir.If:
		l.ifStmt(s, current, env)
	case *ir.While:
		l.while(s, current, env)
	case *ir.DoWhile:
		l.doWhile(s, current, env)
	case *ir.For:
		l.forStmt(s, current, env)
	case *ir.ForEach:
		l.forEach(s, current, env)
	case *ir.Switch:
		l.switchStmt(s, current, env)
	case *ir.Labeled:
		l.stmt(s.Stmt, current, env.WithLabel(s.Label).WithBreak(s.Label, env.Next()))
	case *ir.Break:
		to, ok := env.Break(s.Label)
		if !ok {
			l.fail("%w: break %s", ErrUnresolvedTarget, s.Label)
		}
		l.emit(current, Jump{To: to})
	case *ir.Continue:
		to, ok := env.Continue(s.Label)
		if !ok {
			l.fail("%w: continue %s", ErrUnresolvedTarget, s.Label)
		}
		l.emit(current, Jump{To: to})
	case *ir.Simple:
		l.verbatim(s, current, env)
	default:
		panic(fmt.Sprintf("lower: unknown statement %T", s))
	}
}

func (l *lowerer) verbatim(s ir.Stmt, current int, env Env) {
	if simple, ok := s.(*ir.Simple); ok {
		if _, empty := simple.Stmt.(*ast.EmptyStmt); empty {
			return
		}
	}
	stmt := l.rename(ir.Syntax(s), env).(ast.Stmt)
	l.emit(current, Exec{Stmt: stmt})
}

// varDecl hoists the declared names and assigns their initial values. Values
// see the bindings from before the declaration.
func (l *lowerer) varDecl(s *ir.VarDecl, current int, env Env) Env {
	values := make([]ast.Expr, len(s.Values))
	for i, value := range s.Values {
		values[i] = l.expr(value, env)
	}
	inner := env
	lhs := make([]ast.Expr, len(s.Names))
	var zeroed []int
	for i, name := range s.Names {
		switch {
		case name.Name == "_":
			lhs[i] = ast.NewIdent("_")
		case s.Types[i] == nil:
			lhs[i] = l.expr(ast.NewIdent(name.Name), env)
		default:
			field := l.hoist(name.Name, l.expr(s.Types[i], env))
			inner = inner.WithRename(name.Name, Target{Name: field, Field: true})
			lhs[i] = l.field(field)
			zeroed = append(zeroed, i)
		}
	}
	if len(values) > 0 {
		l.emit(current, Exec{Stmt: &ast.AssignStmt{Lhs: lhs, Tok: token.ASSIGN, Rhs: values}})
		return inner
	}
	// Declarations can run more than once, so fields are reset explicitly.
	for _, i := range zeroed {
		zero := &ast.StarExpr{X: &ast.CallExpr{Fun: ast.NewIdent("new"), Args: []ast.Expr{l.expr(s.Types[i], env)}}}
		l.emit(current, Exec{Stmt: &ast.AssignStmt{Lhs: []ast.Expr{lhs[i]}, Tok: token.ASSIGN, Rhs: []ast.Expr{zero}}})
	}
	return inner
}

// typeDecl lifts a local type or const declaration into the holder's
// declarations under a name unique to the holder.
func (l *lowerer) typeDecl(s *ir.TypeDecl, env Env) Env {
	for _, spec := range s.Decl.Specs {
		switch spec := spec.(type) {
		case *ast.TypeSpec:
			env = l.lift(spec.Name, env)
		case *ast.ValueSpec:
			for _, name := range spec.Names {
				env = l.lift(name, env)
			}
		}
	}
	for _, spec := range s.Decl.Specs {
		switch spec := spec.(type) {
		case *ast.TypeSpec:
			spec.Name = l.liftedName(spec.Name, env)
			spec.TypeParams = l.fieldTypes(spec.TypeParams, env)
			spec.Type = l.expr(spec.Type, env)
		case *ast.ValueSpec:
			for i, name := range spec.Names {
				spec.Names[i] = l.liftedName(name, env)
			}
			spec.Type = l.expr(spec.Type, env)
			for i, value := range spec.Values {
				spec.Values[i] = l.expr(value, env)
			}
		}
	}
	l.holder.Types = append(l.holder.Types, s.Decl)
	return env
}

func (l *lowerer) lift(name *ast.Ident, env Env) Env {
	if name.Name == "_" {
		return env
	}
	lifted := l.names.unique(fmt.Sprintf("%s_%s", l.holder.Name, name.Name))
	return env.WithRename(name.Name, Target{Name: lifted})
}

func (l *lowerer) liftedName(name *ast.Ident, env Env) *ast.Ident {
	if target, ok := env.Lookup(name.Name); ok {
		return ast.NewIdent(target.Name)
	}
	return name
}

func (l *lowerer) fieldTypes(list *ast.FieldList, env Env) *ast.FieldList {
	if list == nil {
		return nil
	}
	for _, field := range list.List {
		field.Type = l.expr(field.Type, env)
	}
	return list
}

func hasUnconditionalElse(s *ir.If) bool {
	switch e := s.Else.(type) {
	case nil:
		return false
	case *ir.If:
		return hasUnconditionalElse(e)
	default:
		return true
	}
}

func (l *lowerer) ifStmt(s *ir.If, current int, env Env) {
	cond := l.expr(s.Cond, env)
	thenState := l.newState()
	l.body(s.Then, thenState, env.ClearLabels())

	var elseOps []Op
	elseState := -1
	unconditional := hasUnconditionalElse(s)
	if s.Else != nil {
		elseState = l.newState()
		l.body(s.Else, elseState, env.ClearLabels())
		if !unconditional {
			elseOps = []Op{Jump{To: elseState}}
		}
	}
	l.emit(current, Branch{Cond: cond, Then: []Op{Jump{To: thenState}}, Else: elseOps})
	switch {
	case unconditional:
		l.emit(current, Jump{To: elseState})
	case s.Else == nil:
		l.emit(current, Jump{To: env.Next()})
	}
}

// loopEnv binds break to the loop exit and continue to state, for the
// unlabeled case and for every label attached to the loop.
func loopEnv(env Env, state int) Env {
	inner := env.WithBreak("", env.Next()).WithContinue("", state)
	for _, label := range env.Labels() {
		inner = inner.WithContinue(label, state)
	}
	return inner.WithNext(state).ClearLabels()
}

// test closes a condition state: on to body while cond holds, otherwise to
// exit. A nil cond always holds.
func (l *lowerer) test(state int, cond ast.Expr, body, exit int, env Env) {
	if cond == nil {
		l.emit(state, Jump{To: body})
		return
	}
	l.emit(state, Branch{Cond: l.expr(cond, env), Then: []Op{Jump{To: body}}})
	l.emit(state, Jump{To: exit})
}

func (l *lowerer) while(s *ir.While, current int, env Env) {
	condState := l.newState()
	l.emit(current, Jump{To: condState})
	bodyState := l.newState()
	l.test(condState, s.Cond, bodyState, env.Next(), env)
	l.block(s.Body.List, bodyState, loopEnv(env, condState))
}

func (l *lowerer) doWhile(s *ir.DoWhile, current int, env Env) {
	bodyState := l.newState()
	l.emit(current, Jump{To: bodyState})
	condState := l.newState()
	l.test(condState, s.Cond, bodyState, env.Next(), env)
	l.block(s.Body.List, bodyState, loopEnv(env, condState))
}

func (l *lowerer) forStmt(s *ir.For, current int, env Env) {
	initState := l.newState()
	l.emit(current, Jump{To: initState})
	inner := env
	switch init := s.Init.(type) {
	case nil:
	case *ir.VarDecl:
		inner = l.varDecl(init, initState, inner)
	default:
		l.verbatim(init, initState, inner)
	}
	condState := l.newState()
	l.emit(initState, Jump{To: condState})
	bodyState := l.newState()
	l.test(condState, s.Cond, bodyState, env.Next(), inner)
	updateState := l.newState()
	if s.Post != nil {
		l.verbatim(s.Post, updateState, inner)
	}
	l.emit(updateState, Jump{To: condState})
	l.block(s.Body.List, bodyState, loopEnv(inner, updateState))
}

func (l *lowerer) iterType(s *ir.ForEach, env Env) ast.Expr {
	return &ast.IndexListExpr{
		X:       &ast.SelectorExpr{X: ast.NewIdent(l.fn.Runtime), Sel: ast.NewIdent("Iterator2")},
		Indices: []ast.Expr{l.expr(s.KeyType, env), l.expr(s.ValueType, env)},
	}
}

// forEach captures the iterator once, then tests HasNext in the condition
// state and takes the next key and value on the way into the body.
func (l *lowerer) forEach(s *ir.ForEach, current int, env Env) {
	initState := l.newState()
	l.emit(current, Jump{To: initState})
	it := l.hoist(fmt.Sprintf("%s%d", iterPrefix, l.iters), l.iterType(s, env))
	l.iters++
	l.emit(initState, Exec{Stmt: &ast.AssignStmt{
		Lhs: []ast.Expr{l.field(it)},
		Tok: token.ASSIGN,
		Rhs: []ast.Expr{l.expr(s.X, env)},
	}})

	inner := env
	lhs := make([]ast.Expr, 2)
	types := []ast.Expr{s.KeyType, s.ValueType}
	for i, target := range []ast.Expr{s.Key, s.Value} {
		ident, isIdent := target.(*ast.Ident)
		switch {
		case target == nil || isIdent && ident.Name == "_":
			lhs[i] = ast.NewIdent("_")
		case s.Define && isIdent:
			field := l.hoist(ident.Name, l.expr(types[i], env))
			inner = inner.WithRename(ident.Name, Target{Name: field, Field: true})
			lhs[i] = l.field(field)
		default:
			lhs[i] = l.expr(target, env)
		}
	}

	condState := l.newState()
	l.emit(initState, Jump{To: condState})
	bodyState := l.newState()
	next := &ast.CallExpr{Fun: &ast.SelectorExpr{X: l.field(it), Sel: ast.NewIdent("Next")}}
	hasNext := &ast.CallExpr{Fun: &ast.SelectorExpr{X: l.field(it), Sel: ast.NewIdent("HasNext")}}
	l.emit(condState, Branch{Cond: hasNext, Then: []Op{
		Exec{Stmt: &ast.AssignStmt{Lhs: lhs, Tok: token.ASSIGN, Rhs: []ast.Expr{next}}},
		Jump{To: bodyState},
	}})
	l.emit(condState, Jump{To: env.Next()})
	l.block(s.Body.List, bodyState, loopEnv(inner, condState))
}

// switchStmt evaluates the tag once in a dispatcher state whose arms jump to
// one state per case. Cases are stitched like a block, each continuing into
// the next, so a case without a break falls through.
func (l *lowerer) switchStmt(s *ir.Switch, current int, env Env) {
	dispatcher := l.newState()
	l.emit(current, Jump{To: dispatcher})

	caseStates := make([]int, len(s.Cases))
	arms := make([]Arm, len(s.Cases))
	hasDefault := false
	for i, c := range s.Cases {
		caseStates[i] = l.newState()
		var list []ast.Expr
		if c.List == nil {
			hasDefault = true
		} else {
			list = make([]ast.Expr, len(c.List))
			for j, expr := range c.List {
				list[j] = l.expr(expr, env)
			}
		}
		arms[i] = Arm{List: list, Ops: []Op{Jump{To: caseStates[i]}}}
	}
	l.emit(dispatcher, Dispatch{Tag: l.expr(s.Tag, env), Arms: arms})
	if !hasDefault {
		l.emit(dispatcher, Jump{To: env.Next()})
	}

	for i, c := range s.Cases {
		inner := env.WithBreak("", env.Next()).ClearLabels()
		if i < len(s.Cases)-1 {
			inner = inner.WithNext(caseStates[i+1])
		}
		l.block(c.Body, caseStates[i], inner)
	}
}
