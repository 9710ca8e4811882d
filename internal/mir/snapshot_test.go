package mir_test

import (
	"bytes"
	"strings"
	"testing"

	"svir/internal/hir"
	"svir/internal/mir"
	"svir/internal/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	f := newFixture()
	f.variable("s", f.pair())
	lv := f.packed(t, "s")

	snap := mir.TakeSnapshot(lv, f.types)
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := mir.DecodeSnapshot(&buf)
	if err != nil {
		t.Fatal(err)
	}
	root := got.Nodes[got.Root]
	if root.Kind != "Concat" || root.Type != "logic [5:0]" || len(root.Parts) != 2 {
		t.Fatalf("root = %+v", root)
	}
	first := got.Nodes[root.Parts[0]]
	if first.Kind != "Transmute" || got.Nodes[first.Value].Kind != "Member" {
		t.Fatalf("first part = %+v", first)
	}
	// both members share the same Var node
	m0 := got.Nodes[first.Value]
	m1 := got.Nodes[got.Nodes[root.Parts[1]].Value]
	if m0.Value != m1.Value || got.Nodes[m0.Value].Kind != "Var" {
		t.Fatalf("shared target stored twice: %d vs %d", m0.Value, m1.Value)
	}
}

func TestDecodeSnapshotRejectsOtherSchema(t *testing.T) {
	var buf bytes.Buffer
	bad := &mir.Snapshot{Schema: mir.SnapshotSchema + 1, Nodes: []mir.SnapshotNode{{Kind: "Error"}}}
	if err := bad.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := mir.DecodeSnapshot(&buf); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestDumpLvalue(t *testing.T) {
	f := newFixture()
	f.variable("x", f.vec(types.FourValued, 7, 0))
	lv := f.lvalue(t, f.index(f.ident("x"), hir.IndexMode{Kind: hir.IndexOne, A: f.lit(3)}, "x[3]"))

	var sb strings.Builder
	if err := mir.DumpLvalue(&sb, lv, f.types); err != nil {
		t.Fatal(err)
	}
	want := "Index len=1 : logic\n" +
		"  Var decl=1 : logic [7:0]\n" +
		"  base Const 3 : int\n"
	if sb.String() != want {
		t.Fatalf("dump:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestValidateRejectsBrokenTrees(t *testing.T) {
	f := newFixture()
	in := f.types
	b := in.Builtins()
	v8 := f.vec(types.TwoValued, 7, 0)
	v4 := f.vec(types.TwoValued, 3, 0)
	leaf := &mir.Lvalue{Kind: mir.LvalueVar, Type: v4, Decl: 1}

	tests := []struct {
		name string
		lv   *mir.Lvalue
	}{
		{"error kind with real type", &mir.Lvalue{Kind: mir.LvalueError, Type: v8}},
		{"var with error type", &mir.Lvalue{Kind: mir.LvalueVar, Type: b.Error, Decl: 1}},
		{"var without decl", &mir.Lvalue{Kind: mir.LvalueVar, Type: v8}},
		{"concat width", &mir.Lvalue{Kind: mir.LvalueConcat, Type: v8, Parts: []*mir.Lvalue{leaf}}},
		{"transmute width", &mir.Lvalue{Kind: mir.LvalueTransmute, Type: v8, Value: leaf}},
		{"index without base", &mir.Lvalue{Kind: mir.LvalueIndex, Type: b.Bit, Value: leaf, Length: 1}},
		{"repeat of var", &mir.Lvalue{Kind: mir.LvalueRepeat, Type: v8, Value: leaf, Count: 2}},
		{"broken child", &mir.Lvalue{Kind: mir.LvalueTransmute, Type: v4,
			Value: &mir.Lvalue{Kind: mir.LvalueVar, Type: v4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := mir.ValidateLvalue(tt.lv, in); err == nil {
				t.Fatalf("expected a validation error")
			}
		})
	}
}
