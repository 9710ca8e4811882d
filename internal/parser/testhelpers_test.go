package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/parser"
	"svir/internal/source"
	"svir/internal/types"
)

func parseExpr(t *testing.T, input string) (*hir.Store, hir.NodeID, bool, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.expr", []byte(input))
	store := hir.NewStore()
	bag := diag.NewBag(16)
	root, ok := parser.ParseExpr(fs.Get(id), store, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return store, root, ok, bag
}

// sexpr renders an expression tree compactly for comparisons.
func sexpr(s *hir.Store, id hir.NodeID) string {
	e, ok := s.Expr(id)
	if !ok {
		return "<?>"
	}
	sub := func(ids ...hir.NodeID) string {
		parts := make([]string, len(ids))
		for i, c := range ids {
			parts[i] = sexpr(s, c)
		}
		return strings.Join(parts, " ")
	}
	switch d := e.Data.(type) {
	case hir.IdentData:
		return d.Name
	case hir.ScopeData:
		return d.Scope + "::" + d.Name
	case hir.IntLitData:
		return fmt.Sprint(d.Value)
	case hir.IndexData:
		switch d.Mode.Kind {
		case hir.IndexRange:
			return "(range " + sub(d.Target, d.Mode.A, d.Mode.B) + ")"
		case hir.IndexUp:
			return "(up " + sub(d.Target, d.Mode.A, d.Mode.B) + ")"
		case hir.IndexDown:
			return "(down " + sub(d.Target, d.Mode.A, d.Mode.B) + ")"
		default:
			return "(idx " + sub(d.Target, d.Mode.A) + ")"
		}
	case hir.FieldData:
		return "(. " + sub(d.Target) + " " + d.Name + ")"
	case hir.ConcatData:
		if d.Repeat != hir.NoNodeID {
			return "(repeat " + sub(append([]hir.NodeID{d.Repeat}, d.Parts...)...) + ")"
		}
		return "(concat " + sub(d.Parts...) + ")"
	case hir.BinaryData:
		return "(" + d.Op.String() + " " + sub(d.LHS, d.RHS) + ")"
	case hir.UnaryData:
		return "(neg " + sub(d.Operand) + ")"
	case hir.CallData:
		if len(d.Args) == 0 {
			return "(call " + d.Callee + ")"
		}
		return "(call " + d.Callee + " " + sub(d.Args...) + ")"
	default:
		return "<?>"
	}
}

// names resolves `pair` and `bus` (with modport `master`).
type names struct {
	pair, bus types.TypeID
	in        *types.Interner
}

func newNames(in *types.Interner) *names {
	strs := in.Strings
	n := &names{in: in}
	n.pair = in.RegisterStruct(strs.Intern("pair"), source.Span{}, true)
	in.SetStructMembers(n.pair, []types.StructMember{
		{Name: strs.Intern("a"), Type: in.Packed(in.Builtins().Logic, 3, 0, types.Unsigned)},
	})
	n.bus = in.RegisterInterface(strs.Intern("bus"), source.Span{}, 1)
	return n
}

func (n *names) ResolveType(name, modport string) (types.TypeID, bool) {
	switch {
	case name == "pair" && modport == "":
		return n.pair, true
	case name == "bus" && modport == "":
		return n.bus, true
	case name == "bus" && modport == "master":
		return n.in.ModportView(n.bus, n.in.Strings.Intern(modport)), true
	}
	return types.NoTypeID, false
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}
