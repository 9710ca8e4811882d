package mir

import (
	"svir/internal/types"
)

// packSimpleBitVector reinterprets value as the flat bit vector of the same
// width. Element 0 of an array and the last member of a struct end up least
// significant.
func packSimpleBitVector(b *builder, value *Lvalue) *Lvalue {
	if value.IsError() {
		return value
	}
	in := b.types()
	to := in.SimpleBitVectorOf(value.Type)
	if in.CoalescesToScalar(value.Type) {
		return b.build(to, Lvalue{Kind: LvalueTransmute, Value: value})
	}
	if dim, ok := in.OutermostDim(value.Type); ok {
		return packArray(b, value, dim, to)
	}
	if info, ok := in.StructInfo(value.Type); ok {
		return packStruct(b, value, info, to)
	}
	panic(b.fault(value.Span, "cannot pack a `%s` as a simple bit vector", in.Format(value.Type)))
}

func packStruct(b *builder, value *Lvalue, info *types.StructInfo, to types.TypeID) *Lvalue {
	parts := make([]*Lvalue, 0, len(info.Members))
	for i, m := range info.Members {
		field := b.build(m.Type, Lvalue{Kind: LvalueMember, Value: value, Field: i})
		parts = append(parts, packSimpleBitVector(b, field))
	}
	return b.build(to, Lvalue{Kind: LvalueConcat, Parts: parts})
}

func packArray(b *builder, value *Lvalue, dim types.Dim, to types.TypeID) *Lvalue {
	in := b.types()
	length := dim.Size()
	elem, _ := in.PopDim(value.Type)

	// `logic $ [0:7]` is already laid out as one vector
	if in.IsBareScalar(elem) {
		return b.build(to, Lvalue{Kind: LvalueTransmute, Value: value})
	}

	// Highest index first: the concatenation lists its most significant part
	// first and element 0 must be least significant.
	idxTy := in.SimpleBitVector(types.TwoValued, types.Unsigned, 32)
	parts := make([]*Lvalue, 0, length)
	for i := int64(length) - 1; i >= 0; i-- {
		base := b.constR(idxTy, i)
		el := b.build(elem, Lvalue{Kind: LvalueIndex, Value: value, Base: base, Length: 1})
		parts = append(parts, packSimpleBitVector(b, el))
	}
	return b.build(to, Lvalue{Kind: LvalueConcat, Parts: parts})
}
