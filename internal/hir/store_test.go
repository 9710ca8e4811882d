package hir

import (
	"testing"

	"svir/internal/source"
	"svir/internal/types"
)

func TestStoreAssignsDenseIDs(t *testing.T) {
	s := NewStore()
	v := s.AddVar("x", types.NoTypeID, false, source.Span{})
	g := s.AddGenvar("i", source.Span{})
	if v.ID() != 1 || g.ID() != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", v.ID(), g.ID())
	}
	if _, ok := s.Node(NoNodeID); ok {
		t.Fatalf("NoNodeID must not resolve")
	}
	if _, ok := s.Node(99); ok {
		t.Fatalf("out of range id must not resolve")
	}
}

func TestAddExprRecordsParents(t *testing.T) {
	s := NewStore()
	a := s.Ident("a", source.Span{})
	b := s.Ident("b", source.Span{})
	cat := s.AddExpr(ExprConcat, ConcatData{Parts: []NodeID{a, b}}, "{a, b}", source.Span{})
	for _, id := range []NodeID{a, b} {
		if got := s.Parent(id); got != cat {
			t.Fatalf("Parent(%d) = %d, want %d", id, got, cat)
		}
	}
	if s.Parent(cat) != NoNodeID {
		t.Fatalf("root concat must have no parent")
	}
}

func TestDeclareAndLookup(t *testing.T) {
	s := NewStore()
	v := s.AddVar("x", types.NoTypeID, false, source.Span{})
	p := s.AddParam("W", types.NoTypeID, 8, false, source.Span{})
	if err := s.Declare("x", v.ID()); err != nil {
		t.Fatal(err)
	}
	if err := s.Declare("pkg::W", p.ID()); err != nil {
		t.Fatal(err)
	}
	if err := s.Declare("x", p.ID()); err == nil {
		t.Fatalf("expected duplicate declaration error")
	}
	if id, ok := s.Lookup("", "x"); !ok || id != v.ID() {
		t.Fatalf("Lookup(x) = %d, %v", id, ok)
	}
	if id, ok := s.Lookup("pkg", "W"); !ok || id != p.ID() {
		t.Fatalf("Lookup(pkg::W) = %d, %v", id, ok)
	}
	if _, ok := s.Lookup("", "W"); ok {
		t.Fatalf("unqualified W must not resolve")
	}
}

func TestLookupMember(t *testing.T) {
	s := NewStore()
	intf := s.AddInterface("bus", types.NoTypeID, source.Span{})
	sig := s.AddVar("data", types.NoTypeID, false, source.Span{})
	mp := s.AddModport("master", source.Span{})
	s.AddMember(intf, sig.ID())
	s.AddMember(intf, mp.ID())

	tests := []struct {
		name string
		want NodeID
		ok   bool
	}{
		{"data", sig.ID(), true},
		{"master", mp.ID(), true},
		{"nope", NoNodeID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.LookupMember(intf.ID(), tt.name)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("LookupMember(%s) = %d, %v", tt.name, got, ok)
			}
		})
	}
}

func TestExprDesc(t *testing.T) {
	s := NewStore()
	call := s.AddExpr(ExprCall, CallData{Callee: "f"}, "f()", source.Span{})
	e, _ := s.Expr(call)
	if got := e.Desc(); got != "function call `f()`" {
		t.Fatalf("Desc = %q", got)
	}
	p := s.AddPort("clk", PortInput, types.NoTypeID, source.Span{})
	if got := p.Desc(); got != "input port `clk`" {
		t.Fatalf("Desc = %q", got)
	}
}
