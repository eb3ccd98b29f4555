package lower

import (
	"fmt"
	"go/ast"
)

const (
	// Entry is the state a generator starts in.
	Entry = 0
	// End is the state that finishes a generator.
	End = 1
)

// Op is a single instruction of a state.
type Op interface {
	op() // unexported marker method
}

// Exec runs a statement.
type Exec struct {
	Stmt ast.Stmt
}

// Jump transfers to state To, producing Value on the way when it is not nil.
type Jump struct {
	To    int
	Value ast.Expr
}

// Finish resumes the continuation the generator was started with.
type Finish struct{}

// Branch runs Then or Else depending on Cond.
type Branch struct {
	Cond       ast.Expr
	Then, Else []Op
}

// Dispatch runs the first arm matching Tag, like a switch statement.
type Dispatch struct {
	Tag  ast.Expr
	Arms []Arm
}

// Arm is a Dispatch case. A nil List marks the default arm.
type Arm struct {
	List []ast.Expr
	Ops  []Op
}

func (Exec) op()     {}
func (Jump) op()     {}
func (Finish) op()   {}
func (Branch) op()   {}
func (Dispatch) op() {}

type State struct {
	ID  int
	Ops []Op
}

// Terminated reports whether the state ends in a transfer on every path.
func (s *State) Terminated() bool {
	return terminates(s.Ops)
}

func terminates(ops []Op) bool {
	if len(ops) == 0 {
		return false
	}
	switch op := ops[len(ops)-1].(type) {
	case Jump, Finish:
		return true
	case Branch:
		return op.Else != nil && terminates(op.Then) && terminates(op.Else)
	case Dispatch:
		hasDefault := false
		for _, arm := range op.Arms {
			if arm.List == nil {
				hasDefault = true
			}
			if !terminates(arm.Ops) {
				return false
			}
		}
		return hasDefault
	}
	return false
}

// Field is a holder field.
type Field struct {
	Name string
	Type ast.Expr
}

// Holder is the result of lowering one generator.
type Holder struct {
	// Name is the holder type name.
	Name string
	// Recv is the receiver name of the state methods.
	Recv string
	// Runtime is the name the runtime package is imported as.
	Runtime    string
	Elem       ast.Expr
	TypeParams *ast.FieldList
	Fields     []Field
	// Params lists the fields initialized from parameters of the same name,
	// the receiver first.
	Params []string
	// Types holds lifted local type and const declarations.
	Types  []*ast.GenDecl
	States []*State
}

// Validate checks that every state ends in a transfer.
func (h *Holder) Validate() error {
	for _, s := range h.States {
		if !s.Terminated() {
			return fmt.Errorf("%w: %s state %d", ErrIncompleteState, h.Name, s.ID)
		}
	}
	return nil
}
