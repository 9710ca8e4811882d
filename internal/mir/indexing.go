package mir

import (
	"fmt"

	"fortio.org/safecast"

	"svir/internal/hir"
	"svir/internal/types"
)

// computeIndexing normalises `[i]`, `[a:b]`, `[a+:w]` and `[a-:w]` to the
// lowest selected index and the number of selected elements. The base is in
// declared coordinates; adjustIndexing makes it zero-relative.
func computeIndexing(b *builder, mode hir.IndexMode) (*Rvalue, uint32) {
	switch mode.Kind {
	case hir.IndexOne:
		return b.l.Rvalue(mode.A, b.env), 1

	case hir.IndexRange:
		lhs, err1 := b.cx.ConstantIntValueOf(mode.A, b.env)
		rhs, err2 := b.cx.ConstantIntValueOf(mode.B, b.env)
		if err1 != nil || err2 != nil {
			return b.errorR(), 0
		}
		length, ok := selectLength(max(lhs, rhs) - min(lhs, rhs) + 1)
		if !ok {
			return b.errorR(), 0
		}
		lo := mode.A
		if rhs < lhs {
			lo = mode.B
		}
		return b.with(lo).constR(b.cx.SelfDeterminedType(lo, b.env), min(lhs, rhs)), length

	case hir.IndexUp, hir.IndexDown:
		width, err := b.cx.ConstantIntValueOf(mode.B, b.env)
		if err != nil {
			return b.errorR(), 0
		}
		length, ok := selectLength(width)
		if !ok {
			return b.errorR(), 0
		}
		base := b.l.Rvalue(mode.A, b.env)
		if base.IsError() || mode.Kind == hir.IndexUp {
			return base, length
		}
		// a-:w covers [a-w+1 : a]
		return offsetBy(b.with(mode.A), base, -(width - 1)), length

	default:
		panic(b.fault(b.span, "unknown index mode %d", mode.Kind))
	}
}

func selectLength(n int64) (uint32, bool) {
	length, err := safecast.Conv[uint32](n)
	return length, err == nil && length > 0
}

// adjustIndexing re-bases base against dim so that the lowest declared index
// becomes 0.
func adjustIndexing(b *builder, base *Rvalue, dim types.Dim) *Rvalue {
	if base.IsError() {
		return base
	}
	return offsetBy(b, base, -int64(dim.Offset()))
}

// offsetBy adds delta to base, folding constants.
func offsetBy(b *builder, base *Rvalue, delta int64) *Rvalue {
	if delta == 0 {
		return base
	}
	if base.IsConst() {
		return b.constR(base.Type, base.Const+delta)
	}
	op, amount := hir.BinaryAdd, delta
	if delta < 0 {
		op, amount = hir.BinarySub, -delta
	}
	rhs := b.constR(base.Type, amount)
	b.trace("offset_index", func() string { return fmt.Sprintf("%s %d", op, amount) })
	return b.buildR(base.Type, Rvalue{Kind: RvalueBinary, BinaryOp: op, Args: []*Rvalue{base, rhs}})
}
