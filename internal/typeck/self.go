package typeck

import (
	"fmt"

	"fortio.org/safecast"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/source"
	"svir/internal/types"
)

// Database is what the type checker needs from the session. Methods taking
// an env are memoised by the implementation; SelfDeterminedType is expected
// to call back into SelfDetermined.
type Database interface {
	Store() *hir.Store
	Types() *types.Interner
	Reporter() diag.Reporter
	ResolveNode(id hir.NodeID, env hir.ParamEnv) (hir.NodeID, error)
	ResolveFieldAccess(id hir.NodeID, env hir.ParamEnv) (int, types.TypeID, error)
	ResolveHierarchical(name string, span source.Span, scope hir.NodeID) (hir.NodeID, error)
	SelfDeterminedType(id hir.NodeID, env hir.ParamEnv) types.TypeID
	ConstantIntValueOf(id hir.NodeID, env hir.ParamEnv) (int64, error)
}

// DeclType is the type a declaration has when named in an expression.
func DeclType(in *types.Interner, n hir.Node) types.TypeID {
	b := in.Builtins()
	or := func(ty, def types.TypeID) types.TypeID {
		if ty == types.NoTypeID {
			return def
		}
		return ty
	}
	switch d := n.(type) {
	case *hir.VarDecl:
		return or(d.Type, b.Error)
	case *hir.PortDecl:
		return or(d.Type, b.Error)
	case *hir.InstDecl:
		return or(d.Type, b.Void)
	case *hir.ParamDecl:
		return or(d.Type, b.Int)
	case *hir.GenvarDecl:
		return b.Int
	case *hir.FuncDecl:
		return or(d.Result, b.Void)
	default:
		return b.Void
	}
}

// SelfDetermined computes the type of id from its operands alone.
func SelfDetermined(db Database, id hir.NodeID, env hir.ParamEnv) types.TypeID {
	in := db.Types()
	b := in.Builtins()
	e, ok := db.Store().Expr(id)
	if !ok {
		if n, ok := db.Store().Node(id); ok {
			return DeclType(in, n)
		}
		return b.Error
	}

	switch d := e.Data.(type) {
	case hir.IdentData, hir.ScopeData, hir.CallData:
		decl, err := db.ResolveNode(id, env)
		if err != nil {
			return b.Error
		}
		n, ok := db.Store().Node(decl)
		if !ok {
			return b.Error
		}
		return DeclType(in, n)

	case hir.IntLitData:
		return b.Int

	case hir.IndexData:
		return indexType(db, e, d, env)

	case hir.FieldData:
		target := db.SelfDeterminedType(d.Target, env)
		if in.IsError(target) {
			return b.Error
		}
		if info, ok := in.Interface(target); ok {
			member, err := db.ResolveHierarchical(d.Name, e.Span(), hir.NodeID(info.Node))
			if err != nil {
				return b.Error
			}
			n, _ := db.Store().Node(member)
			if hir.IsModportName(n) {
				return in.ModportView(target, in.Strings.Intern(d.Name))
			}
			return DeclType(in, n)
		}
		_, ty, err := db.ResolveFieldAccess(id, env)
		if err != nil {
			return b.Error
		}
		return ty

	case hir.ConcatData:
		return concatType(db, e, d, env)

	case hir.BinaryData:
		lhs := db.SelfDeterminedType(d.LHS, env)
		rhs := db.SelfDeterminedType(d.RHS, env)
		return arithType(in, lhs, rhs)

	case hir.UnaryData:
		return db.SelfDeterminedType(d.Operand, env)

	default:
		return b.Error
	}
}

func indexType(db Database, e *hir.Expr, d hir.IndexData, env hir.ParamEnv) types.TypeID {
	in := db.Types()
	target := db.SelfDeterminedType(d.Target, env)
	if in.IsError(target) {
		return in.Builtins().Error
	}
	if _, ok := in.OutermostDim(target); !ok {
		tt, _ := in.Lookup(target)
		if tt.Kind != types.KindIntAtom {
			diag.ReportError(db.Reporter(), diag.SemaNotIndexable, e.Span(),
				fmt.Sprintf("cannot index into a value of type `%s`", in.Format(target))).Emit()
			return in.Builtins().Error
		}
		// integer atoms are indexed through their bit vector form
		target = in.SimpleBitVectorOf(target)
	}
	if d.Mode.Kind == hir.IndexOne {
		elem, _ := in.PopDim(target)
		return elem
	}
	n, ok := SelectWidth(db, e, d.Mode, env)
	if !ok {
		return in.Builtins().Error
	}
	return in.Slice(target, n)
}

// SelectWidth evaluates the number of elements a part-select covers.
func SelectWidth(db Database, e *hir.Expr, mode hir.IndexMode, env hir.ParamEnv) (uint32, bool) {
	var width int64
	switch mode.Kind {
	case hir.IndexOne:
		return 1, true
	case hir.IndexRange:
		a, errA := db.ConstantIntValueOf(mode.A, env)
		b, errB := db.ConstantIntValueOf(mode.B, env)
		if errA != nil || errB != nil {
			return 0, false
		}
		width = max(a, b) - min(a, b) + 1
	case hir.IndexUp, hir.IndexDown:
		w, err := db.ConstantIntValueOf(mode.B, env)
		if err != nil {
			return 0, false
		}
		width = w
	}
	n, err := safecast.Conv[uint32](width)
	if err != nil || n == 0 {
		diag.ReportError(db.Reporter(), diag.SemaNotIndexable, e.Span(),
			fmt.Sprintf("part-select width %d is not positive", width)).Emit()
		return 0, false
	}
	return n, true
}

func concatType(db Database, e *hir.Expr, d hir.ConcatData, env hir.ParamEnv) types.TypeID {
	in := db.Types()
	b := in.Builtins()
	domain := types.TwoValued
	var width uint64
	failed := false
	for _, part := range d.Parts {
		pt := db.SelfDeterminedType(part, env)
		if in.IsError(pt) {
			failed = true
			continue
		}
		w, ok := in.BitSize(pt)
		if !ok || w == 0 {
			span := e.Span()
			if pe, ok := db.Store().Expr(part); ok {
				span = pe.Span()
			}
			msg := fmt.Sprintf("a value of type `%s` cannot be concatenated", in.Format(pt))
			if ok {
				msg = fmt.Sprintf("a value of type `%s` has no bits and cannot be concatenated", in.Format(pt))
			}
			diag.ReportError(db.Reporter(), diag.SemaConcatNotPacked, span, msg).Emit()
			failed = true
			continue
		}
		width += uint64(w)
		if in.DomainOf(pt) == types.FourValued {
			domain = types.FourValued
		}
	}
	if failed || width == 0 {
		return b.Error
	}
	if d.Repeat != hir.NoNodeID {
		count, err := db.ConstantIntValueOf(d.Repeat, env)
		if err != nil {
			return b.Error
		}
		if count <= 0 {
			diag.ReportError(db.Reporter(), diag.SemaNegativeRepeat, e.Span(),
				fmt.Sprintf("replication count must be positive, got %d", count)).Emit()
			return b.Error
		}
		width *= uint64(count)
	}
	w, err := safecast.Conv[uint32](width)
	if err != nil {
		panic(fmt.Errorf("typeck: concatenation width overflow: %w", err))
	}
	return in.SimpleBitVector(domain, types.Unsigned, w)
}

func arithType(in *types.Interner, lhs, rhs types.TypeID) types.TypeID {
	if in.IsError(lhs) || in.IsError(rhs) {
		return in.Builtins().Error
	}
	if lhs == rhs {
		return lhs
	}
	lw, ok1 := in.BitSize(lhs)
	rw, ok2 := in.BitSize(rhs)
	if !ok1 || !ok2 {
		return in.Builtins().Error
	}
	domain := types.TwoValued
	if in.DomainOf(lhs) == types.FourValued || in.DomainOf(rhs) == types.FourValued {
		domain = types.FourValued
	}
	sign := types.Unsigned
	if in.SignOf(lhs) == types.Signed && in.SignOf(rhs) == types.Signed {
		sign = types.Signed
	}
	return in.SimpleBitVector(domain, sign, max(lw, rw))
}

// CastChain computes the default chain for id from the context its parent
// puts it in: concatenation operands and indexed integer atoms are packed to
// their simple bit vector, everything else is used as is.
func CastChain(db Database, id hir.NodeID, env hir.ParamEnv) CastType {
	in := db.Types()
	self := db.SelfDeterminedType(id, env)
	if in.IsError(self) {
		return ErrorChain(in)
	}
	chain := Identity(self)
	parent, ok := db.Store().Expr(db.Store().Parent(id))
	if !ok {
		return chain
	}
	switch d := parent.Data.(type) {
	case hir.ConcatData:
		if d.Repeat != id && !in.IsSimpleBitVector(self) {
			return chain.Then(CastPackSBV, in.SimpleBitVectorOf(self))
		}
	case hir.IndexData:
		if tt, _ := in.Lookup(self); d.Target == id && tt.Kind == types.KindIntAtom {
			return chain.Then(CastPackSBV, in.SimpleBitVectorOf(self))
		}
	case hir.BinaryData, hir.UnaryData:
		// operands are evaluated at the width of the operator
		want := db.SelfDeterminedType(parent.ID(), env)
		if c, err := Convert(in, self, want, false); err == nil {
			return c
		}
	}
	return chain
}
