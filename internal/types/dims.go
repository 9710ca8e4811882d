package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Dim is a declared dimension range such as [7:0] or [0:3].
type Dim struct {
	Left   int32
	Right  int32
	Packed bool
}

// Size returns the number of elements in the dimension.
func (d Dim) Size() uint32 {
	lo, hi := int64(d.Left), int64(d.Right)
	if lo > hi {
		lo, hi = hi, lo
	}
	n, err := safecast.Conv[uint32](hi - lo + 1)
	if err != nil {
		panic(fmt.Errorf("types: dimension %s too large: %w", d, err))
	}
	return n
}

// Offset is the lowest declared index; element k lives at k - Offset.
func (d Dim) Offset() int32 {
	return min(d.Left, d.Right)
}

// Descending reports whether the range is written high to low.
func (d Dim) Descending() bool {
	return d.Left >= d.Right
}

func (d Dim) String() string {
	return fmt.Sprintf("[%d:%d]", d.Left, d.Right)
}

// Packed creates `elem [left:right]`.
func (in *Interner) Packed(elem TypeID, left, right int32, sign Sign) TypeID {
	return in.Intern(MakePacked(elem, left, right, sign))
}

// Unpacked creates `elem $ [left:right]`.
func (in *Interner) Unpacked(elem TypeID, left, right int32) TypeID {
	return in.Intern(MakeUnpacked(elem, left, right))
}

// UnpackedSize creates `elem $ [n]`, i.e. `[0:n-1]`.
func (in *Interner) UnpackedSize(elem TypeID, n uint32) TypeID {
	hi, err := safecast.Conv[int32](int64(n) - 1)
	if err != nil {
		panic(fmt.Errorf("types: unpacked size %d too large: %w", n, err))
	}
	return in.Unpacked(elem, 0, hi)
}

// Dims lists the dimensions of id, outermost first.
func (in *Interner) Dims(id TypeID) []Dim {
	var out []Dim
	for {
		tt, ok := in.Lookup(id)
		if !ok {
			return out
		}
		switch tt.Kind {
		case KindPacked, KindUnpacked:
			out = append(out, Dim{Left: tt.Left, Right: tt.Right, Packed: tt.Kind == KindPacked})
			id = tt.Elem
		default:
			return out
		}
	}
}

// OutermostDim returns the first dimension of id, if any.
func (in *Interner) OutermostDim(id TypeID) (Dim, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindPacked && tt.Kind != KindUnpacked) {
		return Dim{}, false
	}
	return Dim{Left: tt.Left, Right: tt.Right, Packed: tt.Kind == KindPacked}, true
}

// PopDim strips the outermost dimension and returns the element type.
func (in *Interner) PopDim(id TypeID) (TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindPacked && tt.Kind != KindUnpacked) {
		return NoTypeID, false
	}
	return tt.Elem, true
}

// Slice returns the type of a range of n elements taken from the outermost
// dimension of id. The result is always normalised to [n-1:0].
func (in *Interner) Slice(id TypeID, n uint32) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindPacked && tt.Kind != KindUnpacked) || n == 0 {
		return in.builtins.Error
	}
	hi, err := safecast.Conv[int32](int64(n) - 1)
	if err != nil {
		panic(fmt.Errorf("types: slice width %d too large: %w", n, err))
	}
	if tt.Kind == KindPacked {
		return in.Packed(tt.Elem, hi, 0, Unsigned)
	}
	return in.Unpacked(tt.Elem, hi, 0)
}
