package mir_test

import (
	"testing"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/mir"
	"svir/internal/sema"
	"svir/internal/source"
	"svir/internal/types"
)

type fixture struct {
	store *hir.Store
	types *types.Interner
	bag   *diag.Bag
	db    *sema.DB
	low   *mir.Lowerer
	pos   uint32
}

func newFixture() *fixture {
	f := &fixture{store: hir.NewStore(), types: types.NewInterner(nil), bag: diag.NewBag(100)}
	f.db = sema.New(f.store, f.types, diag.BagReporter{Bag: f.bag})
	f.low = mir.NewLowerer(f.db, nil, nil)
	return f
}

func (f *fixture) span() source.Span {
	f.pos += 2
	return source.Span{Start: f.pos, End: f.pos + 1}
}

func (f *fixture) declare(name string, n hir.Node) {
	if err := f.store.Declare(name, n.ID()); err != nil {
		panic(err)
	}
}

func (f *fixture) variable(name string, ty types.TypeID) *hir.VarDecl {
	v := f.store.AddVar(name, ty, false, f.span())
	f.declare(name, v)
	return v
}

func (f *fixture) vec(domain types.Domain, hi, lo int32) types.TypeID {
	return f.types.Packed(f.types.Intern(types.MakeScalar(domain, types.Unsigned)), hi, lo, types.Unsigned)
}

func (f *fixture) ident(name string) hir.NodeID {
	return f.store.Ident(name, f.span())
}

func (f *fixture) lit(v int64) hir.NodeID {
	return f.store.IntLit(v, f.span())
}

func (f *fixture) index(target hir.NodeID, mode hir.IndexMode, text string) hir.NodeID {
	return f.store.AddExpr(hir.ExprIndex, hir.IndexData{Target: target, Mode: mode}, text, f.span())
}

func (f *fixture) field(target hir.NodeID, name, text string) hir.NodeID {
	return f.store.AddExpr(hir.ExprField, hir.FieldData{Target: target, Name: name}, text, f.span())
}

func (f *fixture) concat(repeat hir.NodeID, text string, parts ...hir.NodeID) hir.NodeID {
	return f.store.AddExpr(hir.ExprConcat, hir.ConcatData{Repeat: repeat, Parts: parts}, text, f.span())
}

// pair declares `struct packed pair {a: logic [3:0]; b: logic [1:0]}`.
func (f *fixture) pair() types.TypeID {
	strs := f.types.Strings
	st := f.types.RegisterStruct(strs.Intern("pair"), source.Span{}, true)
	f.types.SetStructMembers(st, []types.StructMember{
		{Name: strs.Intern("a"), Type: f.vec(types.FourValued, 3, 0)},
		{Name: strs.Intern("b"), Type: f.vec(types.FourValued, 1, 0)},
	})
	return st
}

// bus declares interface `bus` with signal `data` and modport `master`, and a
// port `p` of that interface type.
func (f *fixture) bus() (*hir.InterfaceDecl, *hir.PortDecl) {
	strs := f.types.Strings
	intf := f.store.AddInterface("bus", types.NoTypeID, f.span())
	intf.Type = f.types.RegisterInterface(strs.Intern("bus"), intf.Span(), uint32(intf.ID()))
	data := f.store.AddVar("data", f.vec(types.FourValued, 7, 0), false, f.span())
	f.store.AddMember(intf, data.ID())
	f.store.AddMember(intf, f.store.AddModport("master", f.span()).ID())
	port := f.store.AddPort("p", hir.PortInout, intf.Type, f.span())
	f.declare("p", port)
	return intf, port
}

func (f *fixture) lvalue(t *testing.T, id hir.NodeID) *mir.Lvalue {
	t.Helper()
	lv := f.low.Lvalue(id, hir.RootEnv)
	if lv == nil {
		t.Fatalf("Lvalue returned nil")
	}
	return lv
}

func (f *fixture) mustValid(t *testing.T, lv *mir.Lvalue) {
	t.Helper()
	if err := mir.ValidateLvalue(lv, f.types); err != nil {
		t.Fatalf("invalid lvalue: %v", err)
	}
}

func (f *fixture) noDiagnostics(t *testing.T) {
	t.Helper()
	if f.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", f.bag.Items())
	}
}

func (f *fixture) width(t *testing.T, ty types.TypeID) uint32 {
	t.Helper()
	w, ok := f.types.BitSize(ty)
	if !ok {
		t.Fatalf("`%s` has no bit size", f.types.Format(ty))
	}
	return w
}

func expectFault(t *testing.T, fn func()) *mir.InternalFault {
	t.Helper()
	var fault *mir.InternalFault
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			f, ok := r.(*mir.InternalFault)
			if !ok {
				panic(r)
			}
			fault = f
		}()
		fn()
	}()
	if fault == nil {
		t.Fatalf("expected an internal fault")
	}
	return fault
}
