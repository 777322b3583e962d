package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matport/pkg/matlist"
	"matport/pkg/umat"
)

func record(name string, build func(r *umat.Record)) *umat.Record {
	r := &umat.Record{
		Name:     name,
		Textures: make([]umat.TextureSlot, 0),
		Scalars:  make(map[string]float64),
		Colors:   make(map[string]umat.Color),
	}
	if build != nil {
		build(r)
	}
	return r
}

func withTexture(r *umat.Record, slot string) {
	r.Textures = append(r.Textures, umat.TextureSlot{Name: slot})
}

func TestClassifyExplicitReference(t *testing.T) {
	r := record("Puddle", func(r *umat.Record) {
		r.Shader = "Toon/Water"
		// A vegetation-looking signature must lose to the explicit
		// reference.
		r.Scalars["_WindDirection"] = 1
	})

	decision := Classify(r)
	assert.Equal(t, Water, decision.Family)
	assert.Equal(t, BasisExplicit, decision.Basis)
}

func TestClassifySignature(t *testing.T) {
	r := record("Mystery", func(r *umat.Record) {
		r.Scalars["_WindStrength"] = 0.5
	})

	decision := Classify(r)
	assert.Equal(t, Vegetation, decision.Family)
	assert.Equal(t, BasisSignature, decision.Basis)
}

// A signature tie between vegetation and water resolves by the declared
// priority order, whatever order the properties arrived in.
func TestClassifyPriorityTie(t *testing.T) {
	r := record("Mystery", func(r *umat.Record) {
		withTexture(r, "_WaveGradient")
		r.Scalars["_WindDirection"] = 1
	})

	decision := Classify(r)
	assert.Equal(t, Vegetation, decision.Family)
	assert.Equal(t, BasisSignature, decision.Basis)
}

// The most specific signature wins before priority is consulted.
func TestClassifySpecificityBeatsPriority(t *testing.T) {
	r := record("Mystery", func(r *umat.Record) {
		withTexture(r, "_WaveGradient")
		r.Scalars["_WaveSpeed"] = 2
		r.Scalars["_WindDirection"] = 1
	})

	decision := Classify(r)
	assert.Equal(t, Water, decision.Family)
}

func TestClassifyNameHeuristic(t *testing.T) {
	decision := Classify(record("Big_Glass_Pane", nil))
	assert.Equal(t, Crystal, decision.Family)
	assert.Equal(t, BasisName, decision.Basis)
}

func TestClassifyDefault(t *testing.T) {
	decision := Classify(record("Concrete_A", func(r *umat.Record) {
		r.Scalars["_Metallic"] = 0.2
	}))
	assert.Equal(t, Opaque, decision.Family)
	assert.Equal(t, BasisDefault, decision.Basis)
}

// Every LOD of a prefab inherits the LOD-0 material's family, even when a
// lower LOD's own signature disagrees.
func TestBuildCacheLODInheritance(t *testing.T) {
	records := map[string]*umat.Record{
		"Leaf_High": record("Leaf_High", func(r *umat.Record) {
			r.Scalars["_WindDirection"] = 1
		}),
		"Leaf_Low": record("Leaf_Low", func(r *umat.Record) {
			withTexture(r, "_WaveGradient")
		}),
	}

	prefabs := []matlist.PrefabMaterials{{
		Name: "Tree_01",
		Meshes: []matlist.Mesh{
			{Name: "Tree_01_LOD0", LOD: 0, Slots: []matlist.SlotAssignment{{Slot: 0, Material: "Leaf_High"}}},
			{Name: "Tree_01_LOD1", LOD: 1, Slots: []matlist.SlotAssignment{{Slot: 0, Material: "Leaf_Low"}}},
		},
	}}

	cache, unmatched := BuildCache(records, prefabs)
	assert.Empty(t, unmatched)

	high, ok := cache.Lookup("Leaf_High")
	require.True(t, ok)
	assert.Equal(t, Vegetation, high.Family)

	low, ok := cache.Lookup("Leaf_Low")
	require.True(t, ok)
	assert.Equal(t, Vegetation, low.Family)
}

func TestBuildCacheUnmatched(t *testing.T) {
	records := map[string]*umat.Record{
		"Stray": record("Stray", func(r *umat.Record) {
			withTexture(r, "_CloudNoise")
		}),
	}

	cache, unmatched := BuildCache(records, nil)
	assert.Equal(t, []string{"Stray"}, unmatched)

	decision, ok := cache.Lookup("Stray")
	require.True(t, ok)
	assert.Equal(t, Clouds, decision.Family)
}

// A prefab whose LOD-0 material record never parsed falls back to
// independent classification for every LOD.
func TestBuildCacheMissingLOD0Record(t *testing.T) {
	records := map[string]*umat.Record{
		"Leaf_Low": record("Leaf_Low", func(r *umat.Record) {
			withTexture(r, "_WaveGradient")
		}),
	}

	prefabs := []matlist.PrefabMaterials{{
		Name: "Tree_01",
		Meshes: []matlist.Mesh{
			{Name: "Tree_01_LOD0", LOD: 0, Slots: []matlist.SlotAssignment{{Slot: 0, Material: "Leaf_High"}}},
			{Name: "Tree_01_LOD1", LOD: 1, Slots: []matlist.SlotAssignment{{Slot: 0, Material: "Leaf_Low"}}},
		},
	}}

	cache, unmatched := BuildCache(records, prefabs)
	assert.Equal(t, []string{"Leaf_Low"}, unmatched)

	low, ok := cache.Lookup("Leaf_Low")
	require.True(t, ok)
	assert.Equal(t, Water, low.Family)
}

func TestOverride(t *testing.T) {
	cache, _ := BuildCache(map[string]*umat.Record{
		"Thing": record("Thing", nil),
	}, nil)

	cache.Override("Thing", Skydome)
	decision, ok := cache.Lookup("Thing")
	require.True(t, ok)
	assert.Equal(t, Skydome, decision.Family)
	assert.Equal(t, BasisExplicit, decision.Basis)
}
