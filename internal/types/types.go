package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindError is the type of expressions that failed to check.
	KindError
	// KindScalar is a single bit/logic.
	KindScalar
	// KindIntAtom covers byte, shortint, int, longint, integer and time.
	KindIntAtom
	// KindPacked is a packed dimension over Elem.
	KindPacked
	// KindUnpacked is an unpacked dimension over Elem.
	KindUnpacked
	// KindStruct is a nominal struct; Payload indexes StructInfo.
	KindStruct
	// KindInterface is a nominal interface, optionally restricted to a modport.
	KindInterface
	// KindVoid has no value; void functions and module instances have it.
	KindVoid
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindError:
		return "error"
	case KindScalar:
		return "scalar"
	case KindIntAtom:
		return "int-atom"
	case KindPacked:
		return "packed"
	case KindUnpacked:
		return "unpacked"
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindVoid:
		return "void"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Domain is the value domain of a bit.
type Domain uint8

const (
	// TwoValued bits hold 0 and 1 (bit, int, byte...).
	TwoValued Domain = iota
	// FourValued bits also hold X and Z (logic, integer...).
	FourValued
)

func (d Domain) String() string {
	if d == FourValued {
		return "logic"
	}
	return "bit"
}

// Sign is the signedness of an integral type.
type Sign uint8

const (
	Unsigned Sign = iota
	Signed
)

func (s Sign) String() string {
	if s == Signed {
		return "signed"
	}
	return "unsigned"
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // for packed/unpacked dimensions
	Domain  Domain // for scalars and int atoms
	Sign    Sign   // for scalars, int atoms and packed dimensions
	Width   uint32 // for int atoms
	Left    int32  // declared left bound of a dimension
	Right   int32  // declared right bound of a dimension
	Payload uint32 // struct/interface slot
	Modport uint32 // modport name (source.StringID) for interface views
}

// Descriptor helpers ---------------------------------------------------------

// MakeScalar describes a single bit or logic.
func MakeScalar(domain Domain, sign Sign) Type {
	return Type{Kind: KindScalar, Domain: domain, Sign: sign}
}

// MakeIntAtom describes a fixed-width integer atom such as int or integer.
func MakeIntAtom(domain Domain, sign Sign, width uint32) Type {
	return Type{Kind: KindIntAtom, Domain: domain, Sign: sign, Width: width}
}

// MakePacked describes `elem [left:right]` as a packed dimension.
func MakePacked(elem TypeID, left, right int32, sign Sign) Type {
	return Type{Kind: KindPacked, Elem: elem, Left: left, Right: right, Sign: sign}
}

// MakeUnpacked describes `elem $ [left:right]` as an unpacked dimension.
func MakeUnpacked(elem TypeID, left, right int32) Type {
	return Type{Kind: KindUnpacked, Elem: elem, Left: left, Right: right}
}
