// Package dag orders named type definitions so that every definition comes
// after the ones it refers to, and reports reference cycles.
package dag

import (
	"sort"

	"svir/internal/project"
)

type DefID uint32

type DefIndex struct {
	NameToID map[string]DefID
	IDToName []string
}

// собрать уникальные имена (включая упомянутые), sort.Strings, раздать ID по порядку
func BuildIndex(metas []project.DefMeta) DefIndex {
	uniq := make(map[string]struct{}, len(metas))
	for _, meta := range metas {
		if meta.Name != "" {
			uniq[meta.Name] = struct{}{}
		}
		for _, use := range meta.Uses {
			if use.Name != "" {
				uniq[use.Name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]DefID, len(names))
	for i, name := range names {
		nameToID[name] = DefID(i) // #nosec G115 -- bounded by number of definitions
	}
	return DefIndex{NameToID: nameToID, IDToName: names}
}
