package typeck

import (
	"errors"
	"fmt"

	"svir/internal/types"
)

// ErrNoConversion is returned when no cast chain connects two types.
var ErrNoConversion = errors.New("no implicit conversion")

// Convert computes the chain from `from` to `to`. In lvalue position only
// layout-preserving steps (PackSBV, PickModport) are allowed, since every
// other step would need a temporary.
func Convert(in *types.Interner, from, to types.TypeID, lvalue bool) (CastType, error) {
	if in.IsError(from) || in.IsError(to) {
		return ErrorChain(in), nil
	}
	chain := Identity(from)
	if from == to {
		return chain, nil
	}
	if view, ok := pickModport(in, from, to); ok {
		return chain.Then(CastPickModport, view), nil
	}
	fromTT, _ := in.Lookup(from)
	if fromTT.Kind == types.KindInterface || fromTT.Kind == types.KindVoid {
		return CastType{}, fmt.Errorf("%w from `%s` to `%s`", ErrNoConversion, in.Format(from), in.Format(to))
	}
	if !in.IsSimpleBitVector(to) {
		return CastType{}, fmt.Errorf("%w from `%s` to `%s`", ErrNoConversion, in.Format(from), in.Format(to))
	}

	cur := from
	if !in.IsSimpleBitVector(cur) {
		cur = in.SimpleBitVectorOf(cur)
		if in.IsError(cur) {
			return CastType{}, fmt.Errorf("%w: `%s` has no bit vector form", ErrNoConversion, in.Format(from))
		}
		chain = chain.Then(CastPackSBV, cur)
	}
	if cur == to {
		return chain, nil
	}
	if lvalue {
		return CastType{}, fmt.Errorf("%w: cannot assign `%s` through `%s`", ErrNoConversion, in.Format(to), in.Format(from))
	}

	width, _ := in.BitSize(to)
	curWidth, _ := in.BitSize(cur)
	if curWidth != width {
		cur = in.SimpleBitVector(in.DomainOf(cur), in.SignOf(cur), width)
		chain = chain.Then(CastRange, cur)
	}
	if in.SignOf(cur) != in.SignOf(to) {
		cur = in.SimpleBitVector(in.DomainOf(cur), in.SignOf(to), width)
		chain = chain.Then(CastSign, cur)
	}
	if in.DomainOf(cur) != in.DomainOf(to) {
		cur = in.SimpleBitVector(in.DomainOf(to), in.SignOf(to), width)
		chain = chain.Then(CastDomain, cur)
	}
	if cur != to {
		// bare scalar vs. [0:0] of the same bit
		return CastType{}, fmt.Errorf("%w from `%s` to `%s`", ErrNoConversion, in.Format(from), in.Format(to))
	}
	return chain, nil
}

// pickModport returns `to` when it is a modport view of the interface `from`.
func pickModport(in *types.Interner, from, to types.TypeID) (types.TypeID, bool) {
	fromTT, ok1 := in.Lookup(from)
	toTT, ok2 := in.Lookup(to)
	if !ok1 || !ok2 || fromTT.Kind != types.KindInterface || toTT.Kind != types.KindInterface {
		return types.NoTypeID, false
	}
	if fromTT.Payload != toTT.Payload || toTT.Modport == 0 || fromTT.Modport == toTT.Modport {
		return types.NoTypeID, false
	}
	return to, true
}
