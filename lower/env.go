package lower

import (
	"maps"
	"slices"
)

// Target is what a name is rewritten to. Field targets become a selector on
// the holder receiver, others a plain identifier.
type Target struct {
	Name  string
	Field bool
}

// Env is the context threaded through lowering. It is a value: every With
// method returns a copy and leaves the receiver untouched, so sibling branches
// never see each other's bindings.
type Env struct {
	next      int
	breaks    map[string]int
	continues map[string]int
	renames   map[string]Target
	labels    []string
}

// Next is the state to go to when a statement completes normally.
func (e Env) Next() int {
	return e.next
}

func (e Env) WithNext(state int) Env {
	e.next = state
	return e
}

// WithBreak binds the target of break label. The empty label stands for an
// unlabeled break.
func (e Env) WithBreak(label string, state int) Env {
	e.breaks = with(e.breaks, label, state)
	return e
}

// WithContinue binds the target of continue label. The empty label stands for
// an unlabeled continue.
func (e Env) WithContinue(label string, state int) Env {
	e.continues = with(e.continues, label, state)
	return e
}

func (e Env) WithRename(name string, target Target) Env {
	e.renames = with(e.renames, name, target)
	return e
}

// Shadow makes name refer to itself again.
func (e Env) Shadow(name string) Env {
	if _, ok := e.renames[name]; !ok {
		return e
	}
	return e.WithRename(name, Target{Name: name})
}

// WithLabel attaches label to the statement about to be lowered.
func (e Env) WithLabel(label string) Env {
	e.labels = append(slices.Clip(e.labels), label)
	return e
}

func (e Env) ClearLabels() Env {
	e.labels = nil
	return e
}

func (e Env) Labels() []string {
	return slices.Clone(e.labels)
}

func (e Env) Break(label string) (int, bool) {
	state, ok := e.breaks[label]
	return state, ok
}

func (e Env) Continue(label string) (int, bool) {
	state, ok := e.continues[label]
	return state, ok
}

// Lookup returns the target of name, if it was renamed.
func (e Env) Lookup(name string) (Target, bool) {
	target, ok := e.renames[name]
	return target, ok
}

func with[K comparable, V any](m map[K]V, key K, value V) map[K]V {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[K]V)
	}
	out[key] = value
	return out
}
