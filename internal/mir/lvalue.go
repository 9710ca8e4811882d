// Package mir builds the mid-level representation of assignment targets and
// values.
//
// Every implicit conversion the type checker decided on is explicit in MIR:
// a Lvalue or Rvalue always carries exactly the type its use site expects.
// Nodes are immutable once built and owned by an Arena for the session.
package mir

import (
	"svir/internal/hir"
	"svir/internal/source"
	"svir/internal/types"
)

// NodeID identifies a MIR node within an Arena.
type NodeID uint32

// LvalueKind enumerates lvalue shapes.
type LvalueKind uint8

const (
	// LvalueError marks a target that could not be built. Absorbing.
	LvalueError LvalueKind = iota
	// LvalueGenvar refers to a generate variable (Decl).
	LvalueGenvar
	// LvalueVar refers to a variable or net (Decl).
	LvalueVar
	// LvaluePort refers to a module port (Decl).
	LvaluePort
	// LvalueIntf refers to an interface instance or interface port (Decl).
	LvalueIntf
	// LvalueIntfSignal selects signal Member of the interface Value.
	LvalueIntfSignal
	// LvalueIndex selects Length elements of Value starting at Base.
	LvalueIndex
	// LvalueMember selects struct member Field of Value.
	LvalueMember
	// LvalueConcat concatenates Parts, most significant first.
	LvalueConcat
	// LvalueRepeat replicates the concatenation Value Count times.
	LvalueRepeat
	// LvalueTransmute reinterprets the bits of Value as Type.
	LvalueTransmute
)

func (k LvalueKind) String() string {
	switch k {
	case LvalueError:
		return "Error"
	case LvalueGenvar:
		return "Genvar"
	case LvalueVar:
		return "Var"
	case LvaluePort:
		return "Port"
	case LvalueIntf:
		return "Intf"
	case LvalueIntfSignal:
		return "IntfSignal"
	case LvalueIndex:
		return "Index"
	case LvalueMember:
		return "Member"
	case LvalueConcat:
		return "Concat"
	case LvalueRepeat:
		return "Repeat"
	case LvalueTransmute:
		return "Transmute"
	default:
		return "Unknown"
	}
}

// Lvalue is an addressable assignment target. Only the payload fields of
// Kind are meaningful.
type Lvalue struct {
	ID     NodeID
	Origin hir.NodeID
	Env    hir.ParamEnv
	Span   source.Span
	Type   types.TypeID
	Kind   LvalueKind

	Decl   hir.NodeID // Genvar, Var, Port, Intf
	Value  *Lvalue    // IntfSignal, Index, Member, Repeat, Transmute
	Member hir.NodeID // IntfSignal
	Base   *Rvalue    // Index, zero-relative
	Length uint32     // Index, number of elements
	Field  int        // Member
	Parts  []*Lvalue  // Concat
	Count  uint32     // Repeat
}

// IsError reports whether l is the error marker.
func (l *Lvalue) IsError() bool {
	return l == nil || l.Kind == LvalueError
}

// payload copies the shape of l without its identity and type.
func (l *Lvalue) payload() Lvalue {
	return Lvalue{
		Kind:   l.Kind,
		Decl:   l.Decl,
		Value:  l.Value,
		Member: l.Member,
		Base:   l.Base,
		Length: l.Length,
		Field:  l.Field,
		Parts:  l.Parts,
		Count:  l.Count,
	}
}
