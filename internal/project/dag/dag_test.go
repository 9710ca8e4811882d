package dag

import (
	"slices"
	"testing"

	"svir/internal/diag"
	"svir/internal/project"
	"svir/internal/source"
)

func idsToNames(idx DefIndex, ids []DefID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func def(name string, uses ...string) project.DefMeta {
	m := project.DefMeta{Name: name, Span: source.Span{File: 1, Start: uint32(len(name))}}
	for _, u := range uses {
		m.Uses = append(m.Uses, project.UseMeta{Name: u})
	}
	return m
}

func build(metas []project.DefMeta, r diag.Reporter) (DefIndex, Graph, []DefSlot, *Topo) {
	nodes := make([]DefNode, len(metas))
	for i, m := range metas {
		nodes[i] = DefNode{Meta: m, Reporter: r}
	}
	idx := BuildIndex(metas)
	g, slots := BuildGraph(idx, nodes)
	topo := ToposortKahn(g)
	ReportCycles(idx, slots, topo)
	PropagateBroken(g, slots, topo)
	return idx, g, slots, topo
}

func TestBuildIndexIncludesUses(t *testing.T) {
	idx := BuildIndex([]project.DefMeta{def("frame", "pair", "hdr"), def("hdr")})
	want := []string{"frame", "hdr", "pair"}
	if !slices.Equal(idx.IDToName, want) {
		t.Fatalf("names = %v, want %v", idx.IDToName, want)
	}
	for i, name := range want {
		if id, ok := idx.NameToID[name]; !ok || int(id) != i {
			t.Fatalf("NameToID[%q] = %v", name, id)
		}
	}
}

func TestToposortPutsDependenciesFirst(t *testing.T) {
	idx, _, slots, topo := build([]project.DefMeta{
		def("frame", "pair", "hdr"),
		def("pair"),
		def("hdr", "pair"),
		def("bus"),
	}, nil)
	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", idsToNames(idx, topo.Cycles))
	}
	if got, want := idsToNames(idx, topo.Order), []string{"bus", "pair", "hdr", "frame"}; !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if len(topo.Batches) != 3 {
		t.Fatalf("batches = %d", len(topo.Batches))
	}
	for _, s := range slots {
		if s.Broken {
			t.Fatalf("`%s` marked broken", s.Meta.Name)
		}
	}
}

func TestBuildGraphReportsUnknownAndDuplicate(t *testing.T) {
	bag := diag.NewBag(10)
	first := def("pair")
	second := def("pair")
	second.Span = source.Span{File: 2, Start: 1, End: 5}
	idx, _, slots, _ := build([]project.DefMeta{first, second, def("frame", "nosuch"), def("outer", "frame")}, diag.BagReporter{Bag: bag})

	got := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		got = append(got, d.Code)
	}
	if !slices.Equal(got, []diag.Code{diag.DesDuplicateDecl, diag.DesUnknownType}) {
		t.Fatalf("codes = %v", got)
	}
	dup := bag.Items()[0]
	if dup.Primary != second.Span || len(dup.Notes) != 1 || dup.Notes[0].Span != first.Span {
		t.Fatalf("duplicate diagnostic = %+v", dup)
	}
	for _, name := range []string{"pair", "frame", "outer"} {
		if !slots[int(idx.NameToID[name])].Broken {
			t.Fatalf("`%s` should be broken", name)
		}
	}
}

func TestCyclesAreReported(t *testing.T) {
	bag := diag.NewBag(10)
	idx, _, slots, topo := build([]project.DefMeta{
		def("a", "b"),
		def("b", "a"),
		def("self", "self"),
		def("user", "a"),
		def("ok"),
	}, diag.BagReporter{Bag: bag})

	if !topo.Cyclic {
		t.Fatal("expected a cycle")
	}
	// user depends on the cycle, so it never reaches indegree zero either
	if got, want := idsToNames(idx, topo.Cycles), []string{"a", "b", "self", "user"}; !slices.Equal(got, want) {
		t.Fatalf("cycles = %v, want %v", got, want)
	}
	if got := idsToNames(idx, topo.Order); !slices.Equal(got, []string{"ok"}) {
		t.Fatalf("order = %v", got)
	}
	if bag.Len() != 4 {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.DesTypeCycle {
			t.Fatalf("code = %v", d.Code)
		}
	}
	if slots[int(idx.NameToID["ok"])].Broken {
		t.Fatal("`ok` should not be broken")
	}
}
