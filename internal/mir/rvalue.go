package mir

import (
	"svir/internal/hir"
	"svir/internal/source"
	"svir/internal/types"
)

// RvalueKind enumerates value shapes.
type RvalueKind uint8

const (
	// RvalueError marks a value that could not be built. Absorbing.
	RvalueError RvalueKind = iota
	// RvalueConst is the constant Const.
	RvalueConst
	// RvalueVar reads a variable or net (Decl).
	RvalueVar
	// RvalueGenvar reads a generate variable (Decl).
	RvalueGenvar
	// RvaluePort reads a module port (Decl).
	RvaluePort
	// RvalueIntf is a handle to an interface instance or port (Decl).
	RvalueIntf
	// RvalueIntfSignal reads signal Member of the interface Value.
	RvalueIntfSignal
	// RvalueBinary applies BinaryOp to Args[0] and Args[1].
	RvalueBinary
	// RvalueUnary applies UnaryOp to Args[0].
	RvalueUnary
	// RvalueIndex reads Length elements of Value starting at Base.
	RvalueIndex
	// RvalueMember reads struct member Field of Value.
	RvalueMember
	// RvalueConcat concatenates Args, most significant first.
	RvalueConcat
	// RvalueRepeat replicates the concatenation Value Count times.
	RvalueRepeat
	// RvalueTransmute reinterprets the bits of Value as Type.
	RvalueTransmute
	// RvalueResize truncates or extends Value to the width of Type.
	RvalueResize
	// RvalueDomain converts Value between two- and four-valued logic of the
	// same width. Going to two values maps X and Z bits to 0.
	RvalueDomain
)

func (k RvalueKind) String() string {
	switch k {
	case RvalueError:
		return "Error"
	case RvalueConst:
		return "Const"
	case RvalueVar:
		return "Var"
	case RvalueGenvar:
		return "Genvar"
	case RvaluePort:
		return "Port"
	case RvalueIntf:
		return "Intf"
	case RvalueIntfSignal:
		return "IntfSignal"
	case RvalueBinary:
		return "Binary"
	case RvalueUnary:
		return "Unary"
	case RvalueIndex:
		return "Index"
	case RvalueMember:
		return "Member"
	case RvalueConcat:
		return "Concat"
	case RvalueRepeat:
		return "Repeat"
	case RvalueTransmute:
		return "Transmute"
	case RvalueResize:
		return "Resize"
	case RvalueDomain:
		return "Domain"
	default:
		return "Unknown"
	}
}

// Rvalue is a computed value.
type Rvalue struct {
	ID     NodeID
	Origin hir.NodeID
	Env    hir.ParamEnv
	Span   source.Span
	Type   types.TypeID
	Kind   RvalueKind

	Const    int64
	Decl     hir.NodeID
	Member   hir.NodeID
	BinaryOp hir.BinaryOp
	UnaryOp  hir.UnaryOp
	Args     []*Rvalue
	Value    *Rvalue
	Base     *Rvalue
	Length   uint32
	Field    int
	Count    uint32
}

// IsError reports whether r is the error marker.
func (r *Rvalue) IsError() bool {
	return r == nil || r.Kind == RvalueError
}

// IsConst reports whether r is a folded constant.
func (r *Rvalue) IsConst() bool {
	return r != nil && r.Kind == RvalueConst
}

// payload copies the shape of r without its identity and type.
func (r *Rvalue) payload() Rvalue {
	return Rvalue{
		Kind:     r.Kind,
		Const:    r.Const,
		Decl:     r.Decl,
		Member:   r.Member,
		BinaryOp: r.BinaryOp,
		UnaryOp:  r.UnaryOp,
		Args:     r.Args,
		Value:    r.Value,
		Base:     r.Base,
		Length:   r.Length,
		Field:    r.Field,
		Count:    r.Count,
	}
}
