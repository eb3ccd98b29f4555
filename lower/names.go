package lower

import (
	"fmt"
	"strings"
)

const (
	// Receiver is the receiver name of holder methods.
	Receiver = "__g"
	// Continuation is the parameter name of state methods.
	Continuation = "__k"
	iterPrefix   = "__iter"
	statePrefix  = "__state"
)

// StateMethod is the name of the method implementing state id.
func StateMethod(id int) string {
	return fmt.Sprintf("%s%d", statePrefix, id)
}

// Namer hands out name, name1, name2 and so on.
type Namer struct {
	name string
	id   int
}

func NewNamer(name string) *Namer {
	return &Namer{name: name}
}

func (n *Namer) Next() {
	n.id++
}

func (n *Namer) Name() string {
	if n.id > 0 {
		return fmt.Sprintf("%s%d", n.name, n.id)
	}
	return n.name
}

// names hands out identifiers unique within one holder.
type names map[string]bool

func (ns names) unique(name string) string {
	if strings.HasPrefix(name, statePrefix) {
		name = "_" + name
	}
	namer := NewNamer(name)
	for ns[namer.Name()] {
		namer.Next()
	}
	ns[namer.Name()] = true
	return namer.Name()
}
