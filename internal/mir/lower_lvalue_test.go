package mir_test

import (
	"strings"
	"testing"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/mir"
	"svir/internal/typeck"
	"svir/internal/types"
)

func TestLowerIdentifier(t *testing.T) {
	f := newFixture()
	x := f.variable("x", f.vec(types.FourValued, 7, 0))
	id := f.ident("x")

	lv := f.lvalue(t, id)
	if lv.Kind != mir.LvalueVar || lv.Decl != x.ID() {
		t.Fatalf("got %s decl=%d, want Var decl=%d", lv.Kind, lv.Decl, x.ID())
	}
	if got := f.types.Format(lv.Type); got != "logic [7:0]" {
		t.Fatalf("type = %s", got)
	}
	chain, _ := f.db.CastType(id, hir.RootEnv)
	if len(chain.Casts) != 0 {
		t.Fatalf("identifier carries casts: %s", chain.Format(f.types))
	}
	if lv.Origin != id || lv.Env != hir.RootEnv {
		t.Fatalf("origin/env = %d/%d", lv.Origin, lv.Env)
	}
	f.mustValid(t, lv)
	f.noDiagnostics(t)
}

func TestLowerNameKinds(t *testing.T) {
	f := newFixture()
	f.variable("w", f.types.Builtins().Logic)
	f.declare("g", f.store.AddGenvar("g", f.span()))
	f.declare("o", f.store.AddPort("o", hir.PortOutput, f.vec(types.FourValued, 3, 0), f.span()))
	intf, _ := f.bus()
	f.declare("u_bus", f.store.AddInst("u_bus", intf.ID(), intf.Type, f.span()))

	tests := []struct {
		name string
		want mir.LvalueKind
	}{
		{"w", mir.LvalueVar},
		{"g", mir.LvalueGenvar},
		{"o", mir.LvaluePort},
		{"p", mir.LvalueIntf},
		{"u_bus", mir.LvalueIntf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lv := f.lvalue(t, f.ident(tt.name))
			if lv.Kind != tt.want {
				t.Fatalf("kind = %s, want %s", lv.Kind, tt.want)
			}
		})
	}
	f.noDiagnostics(t)
}

func TestLowerNameNotAssignable(t *testing.T) {
	tests := []struct {
		name    string
		declare func(f *fixture)
		msg     string
	}{
		{
			name: "parameter",
			declare: func(f *fixture) {
				f.declare("W", f.store.AddParam("W", types.NoTypeID, 4, false, f.span()))
			},
			msg: "parameter `W` cannot be used as the target of an assignment",
		},
		{
			name: "module instance",
			declare: func(f *fixture) {
				m := f.store.AddModule("child", f.span())
				f.declare("W", f.store.AddInst("W", m.ID(), types.NoTypeID, f.span()))
			},
			msg: "instance `W` cannot be used as the target of an assignment",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.declare(f)
			lv := f.lvalue(t, f.ident("W"))
			if !lv.IsError() || !f.types.IsError(lv.Type) {
				t.Fatalf("got %s, want Error", lv.Kind)
			}
			items := f.bag.Items()
			if len(items) != 1 || items[0].Code != diag.MirNotAssignTarget || items[0].Message != tt.msg {
				t.Fatalf("diagnostics = %+v", items)
			}
		})
	}
}

func TestLowerBitSelect(t *testing.T) {
	f := newFixture()
	f.variable("x", f.vec(types.FourValued, 7, 0))
	id := f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexOne, A: f.lit(3)}, "x[3]")

	lv := f.lvalue(t, id)
	if lv.Kind != mir.LvalueIndex {
		t.Fatalf("kind = %s", lv.Kind)
	}
	if !lv.Base.IsConst() || lv.Base.Const != 3 || lv.Length != 1 {
		t.Fatalf("base=%+v len=%d, want const 3 len 1", lv.Base, lv.Length)
	}
	if w := f.width(t, lv.Type); w != 1 {
		t.Fatalf("width = %d", w)
	}
	if lv.Value.Kind != mir.LvalueVar {
		t.Fatalf("target kind = %s", lv.Value.Kind)
	}
	f.mustValid(t, lv)
	f.noDiagnostics(t)
}

func TestLowerPartSelectRebases(t *testing.T) {
	f := newFixture()
	f.variable("x", f.vec(types.FourValued, 4, 1))
	id := f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexRange, A: f.lit(2), B: f.lit(1)}, "x[2:1]")

	lv := f.lvalue(t, id)
	if lv.Kind != mir.LvalueIndex || lv.Length != 2 {
		t.Fatalf("got %s len=%d", lv.Kind, lv.Length)
	}
	// Base is zero-relative (k - lo): lowest selected index 1 sits at the
	// declared low bound 1. The part-select walkthrough for this case lists
	// base 1, which is the unadjusted index; adjustIndexing rebases it.
	if !lv.Base.IsConst() || lv.Base.Const != 0 {
		t.Fatalf("adjusted base = %+v, want const 0", lv.Base)
	}
	if got := f.types.Format(lv.Type); got != "logic [1:0]" {
		t.Fatalf("type = %s", got)
	}
	f.mustValid(t, lv)
}

func TestIndexOffsetIsRelativeToLowBound(t *testing.T) {
	tests := []struct {
		hi, lo int32
		k      int64
	}{
		{7, 0, 3},
		{4, 1, 1},
		{4, 1, 4},
		{0, 7, 5},
		{10, 3, 3},
		{-2, -5, -4},
	}
	for _, tt := range tests {
		f := newFixture()
		f.variable("x", f.vec(types.TwoValued, tt.hi, tt.lo))
		lv := f.lvalue(t, f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexOne, A: f.lit(tt.k)}, "x[k]"))
		want := tt.k - int64(min(tt.hi, tt.lo))
		if !lv.Base.IsConst() || lv.Base.Const != want {
			t.Errorf("[%d:%d] element %d: base %+v, want %d", tt.hi, tt.lo, tt.k, lv.Base, want)
		}
	}
}

func TestLowerIndexedPartSelects(t *testing.T) {
	f := newFixture()
	f.variable("x", f.vec(types.FourValued, 15, 8))
	f.variable("i", f.types.Builtins().Int)

	up := f.lvalue(t, f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexUp, A: f.lit(10), B: f.lit(4)}, "x[10+:4]"))
	if !up.Base.IsConst() || up.Base.Const != 2 || up.Length != 4 {
		t.Fatalf("x[10+:4]: base %+v len %d", up.Base, up.Length)
	}
	down := f.lvalue(t, f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexDown, A: f.lit(13), B: f.lit(4)}, "x[13-:4]"))
	if !down.Base.IsConst() || down.Base.Const != 2 || down.Length != 4 {
		t.Fatalf("x[13-:4]: base %+v len %d", down.Base, down.Length)
	}

	// a variable base stays symbolic: (i - 3) - 8
	dyn := f.lvalue(t, f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexDown, A: f.ident("i"), B: f.lit(4)}, "x[i-:4]"))
	if dyn.Base.Kind != mir.RvalueBinary || dyn.Base.BinaryOp != hir.BinarySub || dyn.Base.Args[1].Const != 8 {
		t.Fatalf("rebase = %+v", dyn.Base)
	}
	inner := dyn.Base.Args[0]
	if inner.Kind != mir.RvalueBinary || inner.Args[0].Kind != mir.RvalueVar || inner.Args[1].Const != 3 {
		t.Fatalf("down offset = %+v", inner)
	}
	for _, lv := range []*mir.Lvalue{up, down, dyn} {
		f.mustValid(t, lv)
	}
	f.noDiagnostics(t)
}

func TestLowerIntAtomIndexPacksFirst(t *testing.T) {
	f := newFixture()
	f.variable("n", f.types.Builtins().Int)
	lv := f.lvalue(t, f.index(f.ident("n"), hir.IndexMode{Kind: hir.IndexOne, A: f.lit(5)}, "n[5]"))

	if lv.Kind != mir.LvalueIndex || lv.Value.Kind != mir.LvalueTransmute {
		t.Fatalf("got %s over %s", lv.Kind, lv.Value.Kind)
	}
	if got := f.types.Format(lv.Value.Type); got != "bit signed [31:0]" {
		t.Fatalf("packed target = %s", got)
	}
	if got := f.types.Format(lv.Type); got != "bit" {
		t.Fatalf("type = %s", got)
	}
	f.mustValid(t, lv)
}

func TestLowerStructMember(t *testing.T) {
	f := newFixture()
	f.variable("s", f.pair())
	lv := f.lvalue(t, f.field(f.ident("s"), "b", "s.b"))
	if lv.Kind != mir.LvalueMember || lv.Field != 1 || lv.Value.Kind != mir.LvalueVar {
		t.Fatalf("got %s field=%d", lv.Kind, lv.Field)
	}
	if got := f.types.Format(lv.Type); got != "logic [1:0]" {
		t.Fatalf("type = %s", got)
	}
	f.mustValid(t, lv)
	f.noDiagnostics(t)
}

func TestLowerInterfaceAccess(t *testing.T) {
	f := newFixture()
	intf, port := f.bus()

	sig := f.lvalue(t, f.field(f.ident("p"), "data", "p.data"))
	if sig.Kind != mir.LvalueIntfSignal || sig.Value.Kind != mir.LvalueIntf || sig.Value.Decl != port.ID() {
		t.Fatalf("p.data: %s over %s", sig.Kind, sig.Value.Kind)
	}
	if member, _ := f.store.LookupMember(intf.ID(), "data"); sig.Member != member {
		t.Fatalf("member = %d, want %d", sig.Member, member)
	}

	// modports do not add an addressing layer
	mp := f.lvalue(t, f.field(f.ident("p"), "master", "p.master"))
	if mp.Kind != mir.LvalueIntf || mp.Decl != port.ID() {
		t.Fatalf("p.master: %s decl=%d", mp.Kind, mp.Decl)
	}
	if got := f.types.Format(mp.Type); got != "interface bus.master" {
		t.Fatalf("p.master type = %s", got)
	}
	f.noDiagnostics(t)
}

func TestPickModportRelabels(t *testing.T) {
	f := newFixture()
	intf, port := f.bus()
	id := f.ident("p")
	view := f.types.ModportView(intf.Type, f.types.Strings.Intern("master"))
	if err := f.db.Expect(id, hir.RootEnv, view, true); err != nil {
		t.Fatal(err)
	}
	lv := f.lvalue(t, id)
	if lv.Kind != mir.LvalueIntf || lv.Decl != port.ID() || lv.Type != view {
		t.Fatalf("got %s decl=%d type=%s", lv.Kind, lv.Decl, f.types.Format(lv.Type))
	}
}

func TestLowerConcat(t *testing.T) {
	f := newFixture()
	f.variable("a", f.vec(types.FourValued, 3, 0))
	f.variable("b", f.vec(types.FourValued, 1, 0))
	a, b := f.ident("a"), f.ident("b")
	lv := f.lvalue(t, f.concat(hir.NoNodeID, "{a, b}", a, b))

	if lv.Kind != mir.LvalueConcat || len(lv.Parts) != 2 {
		t.Fatalf("got %s with %d parts", lv.Kind, len(lv.Parts))
	}
	if w := f.width(t, lv.Type); w != 6 {
		t.Fatalf("width = %d", w)
	}
	if lv.Parts[0].Origin != a || lv.Parts[1].Origin != b {
		t.Fatalf("parts are not in source order")
	}
	f.mustValid(t, lv)
	f.noDiagnostics(t)
}

func TestLowerConcatPacksOperands(t *testing.T) {
	f := newFixture()
	f.variable("s", f.pair())
	f.variable("n", f.types.Builtins().Byte)
	lv := f.lvalue(t, f.concat(hir.NoNodeID, "{s, n}", f.ident("s"), f.ident("n")))

	if lv.Kind != mir.LvalueConcat {
		t.Fatalf("kind = %s", lv.Kind)
	}
	if k := lv.Parts[0].Kind; k != mir.LvalueConcat {
		t.Fatalf("struct operand packs to %s", k)
	}
	if k := lv.Parts[1].Kind; k != mir.LvalueTransmute {
		t.Fatalf("byte operand packs to %s", k)
	}
	if w := f.width(t, lv.Type); w != 14 {
		t.Fatalf("width = %d", w)
	}
	f.mustValid(t, lv)
}

func TestLowerConcatRejectsEmptyStruct(t *testing.T) {
	f := newFixture()
	strs := f.types.Strings
	empty := f.types.RegisterStruct(strs.Intern("empty"), f.span(), false)
	f.types.SetStructMembers(empty, nil)
	f.variable("a", f.vec(types.FourValued, 3, 0))
	f.variable("e", empty)

	lv := f.lvalue(t, f.concat(hir.NoNodeID, "{a, e}", f.ident("a"), f.ident("e")))
	if !lv.IsError() {
		t.Fatalf("kind = %s", lv.Kind)
	}
	items := f.bag.Items()
	if len(items) != 1 || items[0].Code != diag.SemaConcatNotPacked {
		t.Fatalf("diagnostics = %+v", items)
	}
}

func TestLowerReplication(t *testing.T) {
	f := newFixture()
	f.variable("a", f.vec(types.TwoValued, 1, 0))
	w := f.store.AddParam("N", types.NoTypeID, 3, false, f.span())
	f.declare("N", w)
	id := f.concat(f.ident("N"), "{N{a}}", f.ident("a"))

	lv := f.lvalue(t, id)
	if lv.Kind != mir.LvalueRepeat || lv.Count != 3 || lv.Value.Kind != mir.LvalueConcat {
		t.Fatalf("got %s x%d", lv.Kind, lv.Count)
	}
	if got := f.types.Format(lv.Type); got != "bit [5:0]" {
		t.Fatalf("type = %s", got)
	}
	env := f.db.NewEnv(map[hir.NodeID]int64{w.ID(): 5})
	wide := f.low.Lvalue(id, env)
	if wide.Count != 5 || f.width(t, wide.Type) != 10 {
		t.Fatalf("env-bound replication: x%d %s", wide.Count, f.types.Format(wide.Type))
	}
	f.mustValid(t, lv)
	f.mustValid(t, wide)
}

func TestCallIsNotAssignable(t *testing.T) {
	f := newFixture()
	f.declare("f", f.store.AddFunc("f", types.NoTypeID, f.span()))
	call := f.store.AddExpr(hir.ExprCall, hir.CallData{Callee: "f"}, "f()", f.span())

	lv := f.lvalue(t, call)
	if !lv.IsError() {
		t.Fatalf("kind = %s, want Error", lv.Kind)
	}
	items := f.bag.Items()
	if len(items) != 1 || items[0].Code != diag.MirNotAssignable {
		t.Fatalf("diagnostics = %+v", items)
	}
	if !strings.HasSuffix(items[0].Message, "cannot be assigned to") {
		t.Fatalf("message = %q", items[0].Message)
	}
}

func TestNonAssignableShapes(t *testing.T) {
	f := newFixture()
	f.variable("a", f.vec(types.TwoValued, 3, 0))
	tests := []struct {
		name string
		id   hir.NodeID
	}{
		{"literal", f.lit(7)},
		{"binary", f.store.AddExpr(hir.ExprBinary, hir.BinaryData{Op: hir.BinaryAdd, LHS: f.ident("a"), RHS: f.lit(1)}, "a + 1", f.span())},
		{"unary", f.store.AddExpr(hir.ExprUnary, hir.UnaryData{Op: hir.UnaryNeg, Operand: f.ident("a")}, "-a", f.span())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.bag.Len()
			if lv := f.lvalue(t, tt.id); !lv.IsError() {
				t.Fatalf("kind = %s", lv.Kind)
			}
			if f.bag.Len() != before+1 {
				t.Fatalf("expected exactly one new diagnostic")
			}
		})
	}
}

func TestErrorIsAbsorbing(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *fixture) hir.NodeID
	}{
		{"index target", func(f *fixture) hir.NodeID {
			return f.index(f.ident("ghost"), hir.IndexMode{Kind: hir.IndexOne, A: f.lit(0)}, "ghost[0]")
		}},
		{"index base", func(f *fixture) hir.NodeID {
			return f.index(f.ident("a"), hir.IndexMode{Kind: hir.IndexOne, A: f.ident("ghost")}, "a[ghost]")
		}},
		{"member", func(f *fixture) hir.NodeID {
			return f.field(f.ident("ghost"), "a", "ghost.a")
		}},
		{"concat operand", func(f *fixture) hir.NodeID {
			return f.concat(hir.NoNodeID, "{a, ghost}", f.ident("a"), f.ident("ghost"))
		}},
		{"nested", func(f *fixture) hir.NodeID {
			inner := f.index(f.ident("ghost"), hir.IndexMode{Kind: hir.IndexOne, A: f.lit(0)}, "ghost[0]")
			return f.concat(hir.NoNodeID, "{a, ghost[0]}", f.ident("a"), inner)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.variable("a", f.vec(types.TwoValued, 3, 0))
			lv := f.lvalue(t, tt.build(f))
			if !lv.IsError() {
				t.Fatalf("kind = %s, want Error", lv.Kind)
			}
			items := f.bag.Items()
			if len(items) != 1 || items[0].Code != diag.SemaUnresolvedName {
				t.Fatalf("want only the root cause, got %+v", items)
			}
		})
	}
}

func TestMemoisedPerEnv(t *testing.T) {
	f := newFixture()
	f.variable("x", f.vec(types.TwoValued, 7, 0))
	k := f.store.AddParam("K", types.NoTypeID, 1, false, f.span())
	f.declare("K", k)
	id := f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexOne, A: f.ident("K")}, "x[K]")
	env := f.db.NewEnv(map[hir.NodeID]int64{k.ID(): 6})

	root := f.low.Lvalue(id, hir.RootEnv)
	again := f.low.Lvalue(id, hir.RootEnv)
	bound := f.low.Lvalue(id, env)
	if root != again {
		t.Fatalf("same key must hit the cache")
	}
	if root == bound || root.Base.Const != 1 || bound.Base.Const != 6 {
		t.Fatalf("envs share results: root=%d bound=%d", root.Base.Const, bound.Base.Const)
	}
	if bound.Env != env {
		t.Fatalf("node env = %d, want %d", bound.Env, env)
	}
}

func TestLoweringIsDeterministic(t *testing.T) {
	build := func() (*fixture, hir.NodeID) {
		f := newFixture()
		f.variable("s", f.pair())
		id := f.ident("s")
		if err := f.db.Expect(id, hir.RootEnv, f.types.SimpleBitVector(types.FourValued, types.Unsigned, 6), true); err != nil {
			t.Fatal(err)
		}
		return f, id
	}
	f1, id1 := build()
	f2, id2 := build()
	var d1, d2 strings.Builder
	if err := mir.DumpLvalue(&d1, f1.lvalue(t, id1), f1.types); err != nil {
		t.Fatal(err)
	}
	if err := mir.DumpLvalue(&d2, f2.lvalue(t, id2), f2.types); err != nil {
		t.Fatal(err)
	}
	if d1.String() != d2.String() {
		t.Fatalf("dumps differ:\n%s\n---\n%s", d1.String(), d2.String())
	}
}

func TestResultTypeMatchesCastChain(t *testing.T) {
	f := newFixture()
	f.variable("x", f.vec(types.FourValued, 7, 0))
	f.variable("s", f.pair())
	f.variable("n", f.types.Builtins().Integer)
	arr := f.types.Unpacked(f.vec(types.TwoValued, 3, 0), 0, 3)
	f.variable("m", arr)
	ids := []hir.NodeID{
		f.ident("x"),
		f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexRange, A: f.lit(5), B: f.lit(2)}, "x[5:2]"),
		f.field(f.ident("s"), "a", "s.a"),
		f.concat(hir.NoNodeID, "{s, n, m}", f.ident("s"), f.ident("n"), f.ident("m")),
		f.index(f.ident("m"), hir.IndexMode{Kind: hir.IndexOne, A: f.lit(2)}, "m[2]"),
	}
	for _, id := range ids {
		lv := f.lvalue(t, id)
		chain, err := f.db.CastType(id, hir.RootEnv)
		if err != nil {
			t.Fatal(err)
		}
		if lv.IsError() || lv.Type != chain.Ty {
			t.Errorf("node %d: got %s `%s`, chain ends at `%s`", id, lv.Kind, f.types.Format(lv.Type), f.types.Format(chain.Ty))
		}
		f.mustValid(t, lv)
	}
	f.noDiagnostics(t)
}

func TestUnsupportedCastFaults(t *testing.T) {
	f := newFixture()
	vec := f.vec(types.TwoValued, 7, 0)
	f.variable("x", vec)
	id := f.ident("x")
	signed := f.types.SimpleBitVector(types.TwoValued, types.Signed, 8)
	f.db.SetCast(id, hir.RootEnv, typeck.Identity(vec).Then(typeck.CastSign, signed))

	fault := expectFault(t, func() { f.low.Lvalue(id, hir.RootEnv) })
	if !strings.Contains(fault.Msg, "not supported: Sign") {
		t.Fatalf("fault = %v", fault)
	}
	if fault.Node != id {
		t.Fatalf("fault node = %d", fault.Node)
	}
}

func TestInitialTypeMismatchFaults(t *testing.T) {
	f := newFixture()
	f.variable("a", f.vec(types.TwoValued, 3, 0))
	f.variable("b", f.vec(types.TwoValued, 1, 0))
	id := f.concat(hir.NoNodeID, "{a, b}", f.ident("a"), f.ident("b"))
	f.db.SetCast(id, hir.RootEnv, typeck.Identity(f.vec(types.TwoValued, 3, 0)))

	fault := expectFault(t, func() { f.low.Lvalue(id, hir.RootEnv) })
	if fault.Expected != "bit [3:0]" || fault.Actual != "bit [5:0]" {
		t.Fatalf("fault = %v", fault)
	}
	if !strings.Contains(fault.Error(), "internal compiler error") {
		t.Fatalf("Error() = %q", fault.Error())
	}
}

func TestCastStepMismatchFaults(t *testing.T) {
	f := newFixture()
	vec := f.vec(types.TwoValued, 7, 0)
	f.variable("x", vec)
	id := f.ident("x")
	f.db.SetCast(id, hir.RootEnv, typeck.Identity(vec).Then(typeck.CastPackSBV, f.vec(types.TwoValued, 15, 0)))

	fault := expectFault(t, func() { f.low.Lvalue(id, hir.RootEnv) })
	if fault.Expected != "bit [15:0]" || fault.Actual != "bit [7:0]" {
		t.Fatalf("fault = %v", fault)
	}
}

func TestErrorChainYieldsError(t *testing.T) {
	f := newFixture()
	f.variable("x", f.vec(types.TwoValued, 7, 0))
	id := f.ident("x")
	f.db.SetCast(id, hir.RootEnv, typeck.ErrorChain(f.types))
	if lv := f.lvalue(t, id); !lv.IsError() {
		t.Fatalf("kind = %s", lv.Kind)
	}
	f.noDiagnostics(t)
}

func TestUnknownNodeYieldsError(t *testing.T) {
	f := newFixture()
	if lv := f.lvalue(t, hir.NodeID(999)); !lv.IsError() {
		t.Fatalf("kind = %s", lv.Kind)
	}
}
