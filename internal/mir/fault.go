package mir

import (
	"fmt"
	"strings"

	"svir/internal/hir"
	"svir/internal/source"
)

// InternalFault is the panic value of a broken invariant: a state the type
// checker should have made impossible. It is never a user error.
type InternalFault struct {
	Span     source.Span
	Node     hir.NodeID
	Msg      string
	Expected string // formatted type, if the fault is a type mismatch
	Actual   string
}

func (f *InternalFault) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "internal compiler error at node %d (%s): %s", f.Node, f.Span, f.Msg)
	if f.Expected != "" || f.Actual != "" {
		fmt.Fprintf(&sb, "\n  expected: `%s`\n  actual:   `%s`", f.Expected, f.Actual)
	}
	return sb.String()
}
