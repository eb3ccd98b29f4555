package frontend

import (
	"errors"
	"fmt"
	"go/token"
)

// ErrIneligible is wrapped by every Diagnostic.
var ErrIneligible = errors.New("generator cannot be rewritten")

// Diagnostic explains why a generator cannot be rewritten.
type Diagnostic struct {
	Pos    token.Position
	Func   string
	Reason string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Func, d.Reason)
}

func (d *Diagnostic) Unwrap() error {
	return ErrIneligible
}
