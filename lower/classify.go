package lower

import "github.com/tmr232/yieldgen/ir"

type bound struct {
	brk, cont bool
	labels    map[string]bool
}

func (b bound) withLabel(label string) bound {
	b.labels = with(b.labels, label, true)
	return b
}

// ModifiesControlFlow reports whether s has to be split into states. That is
// the case when it yields, returns, or holds a break or continue that leaves
// s itself. Everything else can run inside the current state unchanged.
func ModifiesControlFlow(s ir.Stmt) bool {
	return escapes(s, bound{})
}

func escapes(s ir.Stmt, b bound) bool {
	switch s := s.(type) {
	case *ir.Yield, *ir.Return:
		return true
	case *ir.Break:
		if s.Label == "" {
			return !b.brk
		}
		return !b.labels[s.Label]
	case *ir.Continue:
		if s.Label == "" {
			return !b.cont
		}
		return !b.labels[s.Label]
	case *ir.Block:
		return anyEscapes(s.List, b)
	case *ir.If:
		if escapes(s.Then, b) {
			return true
		}
		return s.Else != nil && escapes(s.Else, b)
	case *ir.While:
		return anyEscapes(s.Body.List, inLoop(b))
	case *ir.DoWhile:
		return anyEscapes(s.Body.List, inLoop(b))
	case *ir.For:
		return anyEscapes(s.Body.List, inLoop(b))
	case *ir.ForEach:
		return anyEscapes(s.Body.List, inLoop(b))
	case *ir.Switch:
		inner := b
		inner.brk = true
		for _, c := range s.Cases {
			if anyEscapes(c.Body, inner) {
				return true
			}
		}
		return false
	case *ir.Labeled:
		return escapes(s.Stmt, b.withLabel(s.Label))
	}
	return false
}

func inLoop(b bound) bound {
	b.brk, b.cont = true, true
	return b
}

func anyEscapes(list []ir.Stmt, b bound) bool {
	for _, s := range list {
		if escapes(s, b) {
			return true
		}
	}
	return false
}
