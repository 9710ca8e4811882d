package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []DefID   // зависимости раньше зависящих
	Batches [][]DefID // волны независимых определений
	Cyclic  bool
	Cycles  []DefID // узлы, оставшиеся в цикле
}

func ToposortKahn(g Graph) *Topo {
	count := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{Order: make([]DefID, 0, count)}

	active := 0
	current := make([]DefID, 0, count)
	for i := range count {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, mustID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		var next []DefID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				if !g.Present[int(to)] {
					continue
				}
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := range count {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, mustID(i))
			}
		}
	}
	return topo
}

func mustID(i int) DefID {
	id, err := safecast.Conv[DefID](i)
	if err != nil {
		panic(fmt.Errorf("definition id overflow: %w", err))
	}
	return id
}
