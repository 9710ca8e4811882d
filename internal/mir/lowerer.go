package mir

import (
	"fmt"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/query"
	"svir/internal/source"
	"svir/internal/trace"
	"svir/internal/typeck"
	"svir/internal/types"
)

// Context is everything MIR construction consumes from earlier phases.
// Query methods return an error when upstream resolution failed; that error
// has already been reported and only turns the result into an Error node.
type Context interface {
	HIROf(id hir.NodeID) (hir.Node, error)
	CastType(id hir.NodeID, env hir.ParamEnv) (typeck.CastType, error)
	ResolveNode(id hir.NodeID, env hir.ParamEnv) (hir.NodeID, error)
	ResolveFieldAccess(id hir.NodeID, env hir.ParamEnv) (int, types.TypeID, error)
	ResolveHierarchical(name string, span source.Span, scope hir.NodeID) (hir.NodeID, error)
	SelfDeterminedType(id hir.NodeID, env hir.ParamEnv) types.TypeID
	ConstantIntValueOf(id hir.NodeID, env hir.ParamEnv) (int64, error)
	Span(id hir.NodeID) source.Span
	Types() *types.Interner
	Reporter() diag.Reporter
}

// Lowerer hosts the mir_lvalue and mir_rvalue queries of a session.
type Lowerer struct {
	cx      Context
	arena   *Arena
	tracer  trace.Tracer
	lvalues *query.Table[*Lvalue]
	rvalues *query.Table[*Rvalue]
}

// NewLowerer creates a lowerer building into arena. tracer may be nil.
func NewLowerer(cx Context, arena *Arena, tracer trace.Tracer) *Lowerer {
	if arena == nil {
		arena = NewArena()
	}
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Lowerer{
		cx:      cx,
		arena:   arena,
		tracer:  tracer,
		lvalues: query.NewTable[*Lvalue]("mir_lvalue"),
		rvalues: query.NewTable[*Rvalue]("mir_rvalue"),
	}
}

// Arena returns the node store.
func (l *Lowerer) Arena() *Arena { return l.arena }

// Stats returns the counters of both query tables.
func (l *Lowerer) Stats() []query.Stats {
	return []query.Stats{l.lvalues.Stats(), l.rvalues.Stats()}
}

// Lvalue lowers expression id as an assignment target under env. It never
// returns nil; failures yield an Error node after reporting a diagnostic.
// Broken invariants panic with *InternalFault.
func (l *Lowerer) Lvalue(id hir.NodeID, env hir.ParamEnv) *Lvalue {
	return l.lvalues.Get(query.Key{Node: id, Env: env}, func() *Lvalue {
		span := trace.Begin(l.tracer, trace.ScopeQuery, "mir_lvalue", 0)
		span.WithExtra("node", fmt.Sprint(id)).WithExtra("env", fmt.Sprint(env))
		lv := lowerLvalue(l.builder(id, env))
		span.End(lv.Kind.String())
		return lv
	})
}

// Rvalue lowers expression id as a value under env.
func (l *Lowerer) Rvalue(id hir.NodeID, env hir.ParamEnv) *Rvalue {
	return l.rvalues.Get(query.Key{Node: id, Env: env}, func() *Rvalue {
		span := trace.Begin(l.tracer, trace.ScopeQuery, "mir_rvalue", 0)
		span.WithExtra("node", fmt.Sprint(id)).WithExtra("env", fmt.Sprint(env))
		rv := lowerRvalue(l.builder(id, env))
		span.End(rv.Kind.String())
		return rv
	})
}

func (l *Lowerer) builder(id hir.NodeID, env hir.ParamEnv) *builder {
	return &builder{l: l, cx: l.cx, span: l.cx.Span(id), expr: id, env: env}
}

// builder constructs the nodes of one query. Every node it builds carries the
// builder's origin, env and span.
type builder struct {
	l    *Lowerer
	cx   Context
	span source.Span
	expr hir.NodeID
	env  hir.ParamEnv
}

// with returns a builder for another node under the same env.
func (b *builder) with(expr hir.NodeID) *builder {
	return &builder{l: b.l, cx: b.cx, span: b.cx.Span(expr), expr: expr, env: b.env}
}

func (b *builder) types() *types.Interner { return b.cx.Types() }

func (b *builder) build(ty types.TypeID, shape Lvalue) *Lvalue {
	shape.Origin = b.expr
	shape.Env = b.env
	shape.Span = b.span
	shape.Type = ty
	return b.l.arena.AllocLvalue(shape)
}

func (b *builder) error() *Lvalue {
	return b.build(b.types().Builtins().Error, Lvalue{Kind: LvalueError})
}

func (b *builder) buildR(ty types.TypeID, shape Rvalue) *Rvalue {
	shape.Origin = b.expr
	shape.Env = b.env
	shape.Span = b.span
	shape.Type = ty
	return b.l.arena.AllocRvalue(shape)
}

func (b *builder) errorR() *Rvalue {
	return b.buildR(b.types().Builtins().Error, Rvalue{Kind: RvalueError})
}

func (b *builder) constR(ty types.TypeID, v int64) *Rvalue {
	return b.buildR(ty, Rvalue{Kind: RvalueConst, Const: v})
}

// report emits a user diagnostic at the builder's span.
func (b *builder) report(code diag.Code, msg string) {
	diag.ReportError(b.cx.Reporter(), code, b.span, msg).Emit()
}

// fault describes a broken invariant at span; callers panic with it.
func (b *builder) fault(span source.Span, format string, args ...any) *InternalFault {
	return &InternalFault{Span: span, Node: b.expr, Msg: fmt.Sprintf(format, args...)}
}

// assertType panics unless actual is identical to expected.
func (b *builder) assertType(actual, expected types.TypeID, span source.Span, msg string) {
	if actual == expected {
		return
	}
	in := b.types()
	panic(&InternalFault{
		Span:     span,
		Node:     b.expr,
		Msg:      msg,
		Expected: in.Format(expected),
		Actual:   in.Format(actual),
	})
}

// trace emits a node-level point under the current query.
func (b *builder) trace(name string, detail func() string) {
	trace.Point(b.l.tracer, trace.ScopeNode, name, 0, detail)
}
