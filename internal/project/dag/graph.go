package dag

import (
	"fmt"
	"slices"
	"strings"

	"svir/internal/diag"
	"svir/internal/project"
	"svir/internal/source"
)

// Graph рёбра идут от зависимости к зависящему определению,
// поэтому порядок Кана ставит зависимости первыми.
type Graph struct {
	Edges   [][]DefID // Edges[dep] = []users
	Indeg   []int     // число зависимостей (только присутствующих)
	Present []bool    // определение реально объявлено, а не только упомянуто
}

type DefNode struct {
	Meta     project.DefMeta
	Reporter diag.Reporter
}

type DefSlot struct {
	Meta     project.DefMeta
	Reporter diag.Reporter
	Present  bool
	Broken   bool // дубликат, неизвестная зависимость или цикл
}

func BuildGraph(idx DefIndex, nodes []DefNode) (Graph, []DefSlot) {
	count := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]DefID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
	}
	slots := make([]DefSlot, count)
	for i, name := range idx.IDToName {
		slots[i].Meta.Name = name
	}

	for _, node := range nodes {
		meta := node.Meta
		if meta.Name == "" {
			continue
		}
		id, ok := idx.NameToID[meta.Name]
		if !ok {
			// не должно происходить, индекс строится на тех же метаданных
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			if node.Reporter != nil {
				var notes []diag.Note
				if slot.Meta.Span != (source.Span{}) {
					notes = append(notes, diag.Note{Span: slot.Meta.Span, Msg: fmt.Sprintf("previous declaration of `%s`", meta.Name)})
				}
				node.Reporter.Report(diag.DesDuplicateDecl, diag.SevError, meta.Span,
					fmt.Sprintf("type `%s` is declared more than once", meta.Name), notes)
			}
			slot.Broken = true
			continue
		}
		slot.Meta = meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for user := range slots {
		slot := &slots[user]
		if !slot.Present {
			continue
		}
		seen := make(map[DefID]struct{}, len(slot.Meta.Uses))
		for _, use := range slot.Meta.Uses {
			dep, ok := idx.NameToID[use.Name]
			if !ok || !g.Present[int(dep)] {
				slot.report(diag.DesUnknownType, use.Span,
					fmt.Sprintf("type `%s` refers to unknown type `%s`", slot.Meta.Name, use.Name))
				slot.Broken = true
				continue
			}
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			g.Edges[int(dep)] = append(g.Edges[int(dep)], DefID(user)) // #nosec G115 -- index of slots
			g.Indeg[user]++
		}
	}
	for i := range g.Edges {
		slices.Sort(g.Edges[i])
	}
	return g, slots
}

func (s *DefSlot) report(code diag.Code, sp source.Span, msg string) {
	if s.Reporter != nil {
		s.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

// ReportCycles отмечает участников цикла сломанными и сообщает о каждом.
func ReportCycles(idx DefIndex, slots []DefSlot, topo *Topo) {
	if !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	summary := strings.Join(names, " -> ")

	for _, id := range topo.Cycles {
		slot := &slots[int(id)]
		slot.Broken = true
		slot.report(diag.DesTypeCycle, slot.Meta.Span,
			fmt.Sprintf("type `%s` participates in a definition cycle: %s", slot.Meta.Name, summary))
	}
}

// PropagateBroken marks every definition that depends on a broken one.
// Зависимые определения не получают своей диагностики: причина уже сообщена.
func PropagateBroken(g Graph, slots []DefSlot, topo *Topo) {
	for _, id := range topo.Order {
		if !slots[int(id)].Broken {
			continue
		}
		for _, user := range g.Edges[int(id)] {
			slots[int(user)].Broken = true
		}
	}
}
