package mir

import (
	"fmt"

	"fortio.org/safecast"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/typeck"
	"svir/internal/types"
)

func lowerLvalue(b *builder) *Lvalue {
	node, err := b.cx.HIROf(b.expr)
	if err != nil {
		return b.error()
	}
	e, ok := node.(*hir.Expr)
	if !ok {
		panic(b.fault(b.span, "no lvalue for %s", node.Desc()))
	}
	cast, err := b.cx.CastType(b.expr, b.env)
	if err != nil {
		return b.error()
	}

	lv := lowerLvalueExpr(b, e, cast.Init)
	if lv.IsError() {
		return lv
	}
	b.assertType(lv.Type, cast.Init, e.Span(), "lvalue lowering produced a type other than the initial type of its cast")
	return lowerCast(b, lv, cast)
}

// lowerLvalueExpr builds e with type ty, the initial type of its cast chain.
func lowerLvalueExpr(b *builder, e *hir.Expr, ty types.TypeID) *Lvalue {
	if b.types().IsError(ty) {
		return b.error()
	}
	switch e.Kind {
	case hir.ExprIdent, hir.ExprScope:
		return lowerName(b, e, ty)
	case hir.ExprIndex:
		return lowerIndex(b, e, payload[hir.IndexData](b, e), ty)
	case hir.ExprField:
		return lowerField(b, e, payload[hir.FieldData](b, e), ty)
	case hir.ExprConcat:
		return lowerConcat(b, e, payload[hir.ConcatData](b, e), ty)
	case hir.ExprIntLit, hir.ExprBinary, hir.ExprUnary, hir.ExprCall:
		b.report(diag.MirNotAssignable, fmt.Sprintf("%s cannot be assigned to", e.Desc()))
		return b.error()
	default:
		panic(b.fault(e.Span(), "unknown expression kind %s", e.Kind))
	}
}

func payload[T hir.ExprData](b *builder, e *hir.Expr) T {
	d, ok := e.Data.(T)
	if !ok {
		panic(b.fault(e.Span(), "%s expression carries %T", e.Kind, e.Data))
	}
	return d
}

func isInterface(in *types.Interner, ty types.TypeID) bool {
	_, ok := in.Interface(ty)
	return ok
}

func lowerName(b *builder, e *hir.Expr, ty types.TypeID) *Lvalue {
	binding, err := b.cx.ResolveNode(e.ID(), b.env)
	if err != nil {
		return b.error()
	}
	decl, err := b.cx.HIROf(binding)
	if err != nil {
		return b.error()
	}
	switch d := decl.(type) {
	case *hir.GenvarDecl:
		return b.build(ty, Lvalue{Kind: LvalueGenvar, Decl: d.ID()})
	case *hir.VarDecl:
		return b.build(ty, Lvalue{Kind: LvalueVar, Decl: d.ID()})
	case *hir.PortDecl:
		if isInterface(b.types(), ty) {
			return b.build(ty, Lvalue{Kind: LvalueIntf, Decl: d.ID()})
		}
		return b.build(ty, Lvalue{Kind: LvaluePort, Decl: d.ID()})
	case *hir.InstDecl:
		if isInterface(b.types(), ty) {
			return b.build(ty, Lvalue{Kind: LvalueIntf, Decl: d.ID()})
		}
	}
	b.report(diag.MirNotAssignTarget, fmt.Sprintf("%s cannot be used as the target of an assignment", decl.Desc()))
	return b.error()
}

func lowerIndex(b *builder, e *hir.Expr, d hir.IndexData, ty types.TypeID) *Lvalue {
	base, length := computeIndexing(b, d.Mode)
	if base.IsError() {
		return b.error()
	}

	target := b.l.Lvalue(d.Target, b.env)
	if target.IsError() {
		return b.error()
	}
	dim, ok := b.types().OutermostDim(target.Type)
	if !ok {
		panic(b.fault(target.Span, "cannot index into `%s`", b.types().Format(target.Type)))
	}

	// `x[1]` into `logic [2:1] x` addresses element 0
	base = adjustIndexing(b.with(base.Origin), base, dim)
	return b.build(ty, Lvalue{Kind: LvalueIndex, Value: target, Base: base, Length: length})
}

func lowerField(b *builder, e *hir.Expr, d hir.FieldData, ty types.TypeID) *Lvalue {
	in := b.types()
	targetTy := b.cx.SelfDeterminedType(d.Target, b.env)
	value := b.l.Lvalue(d.Target, b.env)
	if value.IsError() {
		return b.error()
	}

	if info, ok := in.Interface(targetTy); ok {
		member, err := b.cx.ResolveHierarchical(d.Name, e.Span(), hir.NodeID(info.Node))
		if err != nil {
			return b.error()
		}
		def, err := b.cx.HIROf(member)
		if err != nil {
			return b.error()
		}
		// a modport is a view, not a storage location
		if hir.IsModportName(def) {
			return b.build(ty, value.payload())
		}
		return b.build(ty, Lvalue{Kind: LvalueIntfSignal, Value: value, Member: member})
	}

	field, _, err := b.cx.ResolveFieldAccess(e.ID(), b.env)
	if err != nil {
		return b.error()
	}
	return b.build(ty, Lvalue{Kind: LvalueMember, Value: value, Field: field})
}

func lowerConcat(b *builder, e *hir.Expr, d hir.ConcatData, ty types.TypeID) *Lvalue {
	in := b.types()
	parts := make([]*Lvalue, 0, len(d.Parts))
	var width uint64
	failed := false
	for _, id := range d.Parts {
		part := b.l.Lvalue(id, b.env)
		if part.IsError() {
			failed = true
			continue
		}
		if !in.CoalescesToScalar(part.Type) {
			panic(b.fault(part.Span, "type `%s` does not coalesce to a scalar", in.Format(part.Type)))
		}
		w, _ := in.BitSize(part.Type)
		width += uint64(w)
		parts = append(parts, part)
	}
	if failed {
		return b.error()
	}

	final := b.cx.SelfDeterminedType(e.ID(), b.env)
	if in.IsError(final) {
		return b.error()
	}
	w, err := safecast.Conv[uint32](width)
	if err != nil {
		panic(b.fault(e.Span(), "concatenation width overflow: %v", err))
	}
	concatTy := in.SimpleBitVector(in.DomainOf(final), types.Unsigned, w)
	concat := b.build(concatTy, Lvalue{Kind: LvalueConcat, Parts: parts})
	if d.Repeat == hir.NoNodeID {
		return concat
	}

	count, err := b.cx.ConstantIntValueOf(d.Repeat, b.env)
	if err != nil {
		return b.error()
	}
	n, err := safecast.Conv[uint32](count)
	if err != nil || n == 0 {
		panic(b.fault(e.Span(), "replication count %d survived type checking", count))
	}
	return b.build(final, Lvalue{Kind: LvalueRepeat, Count: n, Value: concat})
}

// lowerCast applies chain to value, one step at a time.
func lowerCast(b *builder, value *Lvalue, chain typeck.CastType) *Lvalue {
	if value.IsError() {
		return value
	}
	in := b.types()
	if chain.IsError(in) {
		return b.error()
	}
	b.assertType(value.Type, chain.Init, value.Span, "lvalue type does not match the initial type of its cast")
	if len(chain.Casts) > 0 {
		b.trace("lower_cast", func() string { return chain.Format(in) })
	}

	for _, step := range chain.Casts {
		switch step.Op {
		case typeck.CastPackSBV:
			if !in.IsSimpleBitVector(step.To) {
				panic(b.fault(value.Span, "PackSBV target `%s` is not a simple bit vector", in.Format(step.To)))
			}
			value = packSimpleBitVector(b, value)
		case typeck.CastPickModport:
			value = b.build(step.To, value.payload())
		default:
			panic(b.fault(value.Span, "lvalue lowering of cast to `%s` not supported: %s", in.Format(step.To), step.Op))
		}
		if value.Type != step.To {
			b.trace("cast_mismatch", func() string {
				return fmt.Sprintf("%s should have produced `%s`, got `%s`", step.Op, in.Format(step.To), in.Format(value.Type))
			})
		}
		b.assertType(value.Type, step.To, value.Span, fmt.Sprintf("cast %s produced a different type", step.Op))
	}

	b.assertType(value.Type, chain.Ty, value.Span, "lvalue type does not match the final type of its cast")
	return value
}
