package types

import (
	"fmt"

	"fortio.org/safecast"
)

// BitSize returns the total number of bits of id. Interfaces and error types
// have no bit size.
func (in *Interner) BitSize(id TypeID) (uint32, bool) {
	tt, ok := in.Lookup(id)
	if !ok {
		return 0, false
	}
	switch tt.Kind {
	case KindScalar:
		return 1, true
	case KindIntAtom:
		return tt.Width, true
	case KindPacked, KindUnpacked:
		elem, ok := in.BitSize(tt.Elem)
		if !ok {
			return 0, false
		}
		return mulWidth(elem, Dim{Left: tt.Left, Right: tt.Right}.Size()), true
	case KindStruct:
		info, ok := in.StructInfo(id)
		if !ok {
			return 0, false
		}
		var total uint32
		for _, m := range info.Members {
			w, ok := in.BitSize(m.Type)
			if !ok {
				return 0, false
			}
			total = addWidth(total, w)
		}
		return total, true
	default:
		return 0, false
	}
}

// DomainOf returns the value domain of id. Composite types are four-valued as
// soon as any leaf is.
func (in *Interner) DomainOf(id TypeID) Domain {
	tt, ok := in.Lookup(id)
	if !ok {
		return TwoValued
	}
	switch tt.Kind {
	case KindScalar, KindIntAtom:
		return tt.Domain
	case KindPacked, KindUnpacked:
		return in.DomainOf(tt.Elem)
	case KindStruct:
		info, ok := in.StructInfo(id)
		if !ok {
			return TwoValued
		}
		for _, m := range info.Members {
			if in.DomainOf(m.Type) == FourValued {
				return FourValued
			}
		}
	}
	return TwoValued
}

// SignOf returns the signedness of an integral type; composites are unsigned.
func (in *Interner) SignOf(id TypeID) Sign {
	tt, ok := in.Lookup(id)
	if !ok {
		return Unsigned
	}
	switch tt.Kind {
	case KindScalar, KindIntAtom, KindPacked:
		return tt.Sign
	}
	return Unsigned
}

// SimpleBitVector returns the canonical flat vector `domain sign [width-1:0]`.
func (in *Interner) SimpleBitVector(domain Domain, sign Sign, width uint32) TypeID {
	if width == 0 {
		return in.builtins.Error
	}
	hi, err := safecast.Conv[int32](int64(width) - 1)
	if err != nil {
		panic(fmt.Errorf("types: vector width %d too large: %w", width, err))
	}
	return in.Packed(in.Intern(MakeScalar(domain, Unsigned)), hi, 0, sign)
}

// SimpleBitVectorOf returns the flat vector of the same width, domain and
// sign as id. A single bit is its own simple bit vector.
func (in *Interner) SimpleBitVectorOf(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind == KindError {
		return in.builtins.Error
	}
	if tt.Kind == KindScalar {
		return id
	}
	width, ok := in.BitSize(id)
	if !ok {
		return in.builtins.Error
	}
	return in.SimpleBitVector(in.DomainOf(id), in.SignOf(id), width)
}

// IsSimpleBitVector reports whether id is a single bit or a single packed
// dimension [n:0] over an unsigned bit.
func (in *Interner) IsSimpleBitVector(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindScalar:
		return true
	case KindPacked:
		elem, ok := in.Lookup(tt.Elem)
		return ok && elem.Kind == KindScalar && elem.Sign == Unsigned && tt.Right == 0 && tt.Left >= 0
	}
	return false
}

// CoalescesToScalar reports whether id occupies one contiguous bit range
// without struct members or unpacked dimensions: a bit, an int atom, or any
// stack of packed dimensions over one of those.
func (in *Interner) CoalescesToScalar(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindScalar, KindIntAtom:
		return true
	case KindPacked:
		return in.CoalescesToScalar(tt.Elem)
	}
	return false
}

// IsBareScalar reports whether id is a bit/logic with no dimensions.
func (in *Interner) IsBareScalar(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindScalar
}

func mulWidth(a, b uint32) uint32 {
	w, err := safecast.Conv[uint32](uint64(a) * uint64(b))
	if err != nil {
		panic(fmt.Errorf("types: bit width overflow: %w", err))
	}
	return w
}

func addWidth(a, b uint32) uint32 {
	w, err := safecast.Conv[uint32](uint64(a) + uint64(b))
	if err != nil {
		panic(fmt.Errorf("types: bit width overflow: %w", err))
	}
	return w
}
