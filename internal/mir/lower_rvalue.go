package mir

import (
	"fmt"

	"fortio.org/safecast"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/typeck"
	"svir/internal/types"
)

func lowerRvalue(b *builder) *Rvalue {
	node, err := b.cx.HIROf(b.expr)
	if err != nil {
		return b.errorR()
	}
	e, ok := node.(*hir.Expr)
	if !ok {
		panic(b.fault(b.span, "no rvalue for %s", node.Desc()))
	}
	cast, err := b.cx.CastType(b.expr, b.env)
	if err != nil {
		return b.errorR()
	}

	rv := lowerRvalueExpr(b, e, cast.Init)
	if rv.IsError() {
		return rv
	}
	b.assertType(rv.Type, cast.Init, e.Span(), "rvalue lowering produced a type other than the initial type of its cast")
	return lowerRvalueCast(b, rv, cast)
}

func lowerRvalueExpr(b *builder, e *hir.Expr, ty types.TypeID) *Rvalue {
	if b.types().IsError(ty) {
		return b.errorR()
	}
	switch e.Kind {
	case hir.ExprIntLit:
		return b.constR(ty, payload[hir.IntLitData](b, e).Value)
	case hir.ExprIdent, hir.ExprScope:
		return readName(b, e, ty)
	case hir.ExprIndex:
		return readIndex(b, payload[hir.IndexData](b, e), ty)
	case hir.ExprField:
		return readField(b, e, payload[hir.FieldData](b, e), ty)
	case hir.ExprConcat:
		return readConcat(b, e, payload[hir.ConcatData](b, e), ty)
	case hir.ExprBinary:
		d := payload[hir.BinaryData](b, e)
		lhs := b.l.Rvalue(d.LHS, b.env)
		rhs := b.l.Rvalue(d.RHS, b.env)
		if lhs.IsError() || rhs.IsError() {
			return b.errorR()
		}
		return b.buildR(ty, Rvalue{Kind: RvalueBinary, BinaryOp: d.Op, Args: []*Rvalue{lhs, rhs}})
	case hir.ExprUnary:
		d := payload[hir.UnaryData](b, e)
		arg := b.l.Rvalue(d.Operand, b.env)
		if arg.IsError() {
			return b.errorR()
		}
		return b.buildR(ty, Rvalue{Kind: RvalueUnary, UnaryOp: d.Op, Args: []*Rvalue{arg}})
	case hir.ExprCall:
		b.report(diag.MirNoValue, fmt.Sprintf("%s has no value", e.Desc()))
		return b.errorR()
	default:
		panic(b.fault(e.Span(), "unknown expression kind %s", e.Kind))
	}
}

func readName(b *builder, e *hir.Expr, ty types.TypeID) *Rvalue {
	binding, err := b.cx.ResolveNode(e.ID(), b.env)
	if err != nil {
		return b.errorR()
	}
	decl, err := b.cx.HIROf(binding)
	if err != nil {
		return b.errorR()
	}
	switch d := decl.(type) {
	case *hir.ParamDecl:
		v, err := b.cx.ConstantIntValueOf(e.ID(), b.env)
		if err != nil {
			return b.errorR()
		}
		return b.constR(ty, v)
	case *hir.GenvarDecl:
		return b.buildR(ty, Rvalue{Kind: RvalueGenvar, Decl: d.ID()})
	case *hir.VarDecl:
		return b.buildR(ty, Rvalue{Kind: RvalueVar, Decl: d.ID()})
	case *hir.PortDecl:
		if isInterface(b.types(), ty) {
			return b.buildR(ty, Rvalue{Kind: RvalueIntf, Decl: d.ID()})
		}
		return b.buildR(ty, Rvalue{Kind: RvaluePort, Decl: d.ID()})
	case *hir.InstDecl:
		if isInterface(b.types(), ty) {
			return b.buildR(ty, Rvalue{Kind: RvalueIntf, Decl: d.ID()})
		}
	}
	b.report(diag.MirNoValue, fmt.Sprintf("%s has no value", decl.Desc()))
	return b.errorR()
}

func readIndex(b *builder, d hir.IndexData, ty types.TypeID) *Rvalue {
	base, length := computeIndexing(b, d.Mode)
	if base.IsError() {
		return b.errorR()
	}
	target := b.l.Rvalue(d.Target, b.env)
	if target.IsError() {
		return b.errorR()
	}
	dim, ok := b.types().OutermostDim(target.Type)
	if !ok {
		panic(b.fault(target.Span, "cannot index into `%s`", b.types().Format(target.Type)))
	}
	base = adjustIndexing(b.with(base.Origin), base, dim)
	return b.buildR(ty, Rvalue{Kind: RvalueIndex, Value: target, Base: base, Length: length})
}

func readField(b *builder, e *hir.Expr, d hir.FieldData, ty types.TypeID) *Rvalue {
	in := b.types()
	targetTy := b.cx.SelfDeterminedType(d.Target, b.env)
	value := b.l.Rvalue(d.Target, b.env)
	if value.IsError() {
		return b.errorR()
	}
	if info, ok := in.Interface(targetTy); ok {
		member, err := b.cx.ResolveHierarchical(d.Name, e.Span(), hir.NodeID(info.Node))
		if err != nil {
			return b.errorR()
		}
		def, err := b.cx.HIROf(member)
		if err != nil {
			return b.errorR()
		}
		if hir.IsModportName(def) {
			return b.buildR(ty, value.payload())
		}
		return b.buildR(ty, Rvalue{Kind: RvalueIntfSignal, Value: value, Member: member})
	}
	field, _, err := b.cx.ResolveFieldAccess(e.ID(), b.env)
	if err != nil {
		return b.errorR()
	}
	return b.buildR(ty, Rvalue{Kind: RvalueMember, Value: value, Field: field})
}

func readConcat(b *builder, e *hir.Expr, d hir.ConcatData, ty types.TypeID) *Rvalue {
	in := b.types()
	args := make([]*Rvalue, 0, len(d.Parts))
	var width uint64
	failed := false
	for _, id := range d.Parts {
		arg := b.l.Rvalue(id, b.env)
		if arg.IsError() {
			failed = true
			continue
		}
		if !in.CoalescesToScalar(arg.Type) {
			panic(b.fault(arg.Span, "type `%s` does not coalesce to a scalar", in.Format(arg.Type)))
		}
		w, _ := in.BitSize(arg.Type)
		width += uint64(w)
		args = append(args, arg)
	}
	if failed {
		return b.errorR()
	}
	w, err := safecast.Conv[uint32](width)
	if err != nil {
		panic(b.fault(e.Span(), "concatenation width overflow: %v", err))
	}
	final := b.cx.SelfDeterminedType(e.ID(), b.env)
	concat := b.buildR(in.SimpleBitVector(in.DomainOf(final), types.Unsigned, w), Rvalue{Kind: RvalueConcat, Args: args})
	if d.Repeat == hir.NoNodeID {
		return concat
	}
	count, err := b.cx.ConstantIntValueOf(d.Repeat, b.env)
	if err != nil {
		return b.errorR()
	}
	n, err := safecast.Conv[uint32](count)
	if err != nil || n == 0 {
		panic(b.fault(e.Span(), "replication count %d survived type checking", count))
	}
	return b.buildR(ty, Rvalue{Kind: RvalueRepeat, Count: n, Value: concat})
}

// lowerRvalueCast applies chain to a value. Values have no storage, so
// width-preserving steps are transmutes, except domain steps which change
// X/Z bits and get their own node.
func lowerRvalueCast(b *builder, value *Rvalue, chain typeck.CastType) *Rvalue {
	if value.IsError() {
		return value
	}
	in := b.types()
	if chain.IsError(in) {
		return b.errorR()
	}
	b.assertType(value.Type, chain.Init, value.Span, "rvalue type does not match the initial type of its cast")
	for _, step := range chain.Casts {
		switch step.Op {
		case typeck.CastPackSBV, typeck.CastSign, typeck.CastDomain:
			from, _ := in.BitSize(value.Type)
			to, _ := in.BitSize(step.To)
			if from != to {
				panic(b.fault(value.Span, "%s changes width from %d to %d", step.Op, from, to))
			}
			kind := RvalueTransmute
			if step.Op == typeck.CastDomain {
				kind = RvalueDomain
			}
			value = b.buildR(step.To, Rvalue{Kind: kind, Value: value})
		case typeck.CastRange:
			value = b.buildR(step.To, Rvalue{Kind: RvalueResize, Value: value})
		case typeck.CastPickModport:
			value = b.buildR(step.To, value.payload())
		default:
			panic(b.fault(value.Span, "rvalue lowering of cast to `%s` not supported: %s", in.Format(step.To), step.Op))
		}
	}
	b.assertType(value.Type, chain.Ty, value.Span, "rvalue type does not match the final type of its cast")
	return value
}
