package shader

import (
	"sort"

	"github.com/rs/zerolog/log"

	"matport/pkg/matlist"
	"matport/pkg/umat"
)

// A Cache holds one decision per material name for the rest of the run.
// Read-only after BuildCache returns.
type Cache struct {
	decisions map[string]Decision
}

func (c *Cache) Lookup(name string) (Decision, bool) {
	decision, ok := c.decisions[name]
	return decision, ok
}

func (c *Cache) Len() int {
	return len(c.decisions)
}

// Override replaces the cached family for a material, keeping the explicit
// basis. Used for caller-supplied family pins before mapping begins.
func (c *Cache) Override(name string, family Family) {
	c.decisions[name] = Decision{Family: family, Basis: BasisExplicit}
}

// BuildCache classifies every known material once. For each grouped prefab
// the LOD-0 material's decision is recorded under every material name any
// LOD references; lower-detail variants inherit it no matter what their own
// signatures would say. Materials referenced by no prefab, or belonging to
// a prefab whose LOD-0 material record is unavailable, are classified on
// their own and returned as the unmatched set.
func BuildCache(records map[string]*umat.Record, prefabs []matlist.PrefabMaterials) (*Cache, []string) {
	cache := &Cache{decisions: make(map[string]Decision)}

	for _, prefab := range prefabs {
		lod0 := prefab.LOD0Material()
		record, ok := records[lod0]
		if lod0 == "" || !ok {
			continue
		}

		decision := Classify(record)
		for _, name := range prefab.MaterialNames() {
			cache.decisions[name] = decision
		}

		log.Debug().
			Str("prefab", prefab.Name).
			Str("material", lod0).
			Str("family", string(decision.Family)).
			Str("basis", string(decision.Basis)).
			Msg("prefab classified from its LOD-0 material")
	}

	unmatched := make([]string, 0)
	for name, record := range records {
		if _, ok := cache.decisions[name]; ok {
			continue
		}
		cache.decisions[name] = Classify(record)
		unmatched = append(unmatched, name)
	}
	sort.Strings(unmatched)

	return cache, unmatched
}
