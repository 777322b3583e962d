package matlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matport/pkg/diag"
)

const rockManifest = `# generated material list
prefab: Rock_Large_LOD0
  mesh: Rock_Large_LOD0
    0: Rock_Moss
    1: Rock_Base
prefab: Rock_Large_LOD1
  mesh: Rock_Large_LOD1
    0: Rock_Moss

this line is garbage
prefab: Lantern
  mesh: Lantern_Frame
    0: Lantern_Metal
    1:
`

func TestParse(t *testing.T) {
	sink := diag.NewSink()
	prefabs := Parse(strings.NewReader(rockManifest), "rocks.txt", sink)

	require.Len(t, prefabs, 3)

	rock0 := prefabs[0]
	assert.Equal(t, "Rock_Large_LOD0", rock0.Name)
	require.Len(t, rock0.Meshes, 1)
	assert.Equal(t, 0, rock0.Meshes[0].LOD)
	require.Len(t, rock0.Meshes[0].Slots, 2)
	assert.Equal(t, "Rock_Moss", rock0.Meshes[0].Slots[0].Material)
	assert.Equal(t, "Rock_Base", rock0.Meshes[0].Slots[1].Material)

	assert.Equal(t, 1, prefabs[1].Meshes[0].LOD)

	// No LOD suffix means LOD 0; an empty assignment keeps its slot.
	lantern := prefabs[2]
	assert.Equal(t, 0, lantern.Meshes[0].LOD)
	require.Len(t, lantern.Meshes[0].Slots, 2)
	assert.Equal(t, "", lantern.Meshes[0].Slots[1].Material)

	// Only the garbage line is reported.
	assert.Equal(t, 1, sink.Count(diag.ManifestParse))
}

func TestParseEmptyManifest(t *testing.T) {
	sink := diag.NewSink()
	prefabs := Parse(strings.NewReader("# nothing here\n\n"), "empty.txt", sink)
	assert.Empty(t, prefabs)
	assert.Empty(t, sink.All())
}

func TestSplitLOD(t *testing.T) {
	for input, expected := range map[string]struct {
		base string
		lod  int
	}{
		"Rock_Large_LOD0": {"Rock_Large", 0},
		"Rock_Large_LOD2": {"Rock_Large", 2},
		"Rock_Large.lod1": {"Rock_Large", 1},
		"Rock_Large_lod_3": {"Rock_Large", 3},
		"Rock_Large":      {"Rock_Large", 0},
		"Lodge":           {"Lodge", 0},
	} {
		base, lod := SplitLOD(input)
		assert.Equal(t, expected.base, base, input)
		assert.Equal(t, expected.lod, lod, input)
	}
}

func TestGroup(t *testing.T) {
	sink := diag.NewSink()
	prefabs := Parse(strings.NewReader(rockManifest), "rocks.txt", sink)

	grouped := Group(prefabs)
	require.Len(t, grouped, 2)

	rock := grouped[0]
	assert.Equal(t, "Rock_Large", rock.Name)
	require.Len(t, rock.Meshes, 2)
	assert.Equal(t, 0, rock.Meshes[0].LOD)
	assert.Equal(t, 1, rock.Meshes[1].LOD)

	assert.Equal(t, []string{"Rock_Moss", "Rock_Base"}, rock.MaterialNames())
	assert.Equal(t, "Rock_Moss", rock.LOD0Material())

	assert.Equal(t, "Lantern", grouped[1].Name)
}

func TestGroupAcrossManifests(t *testing.T) {
	sink := diag.NewSink()
	first := Parse(strings.NewReader(`prefab: Tree_01_LOD0
  mesh: Tree_01_LOD0
    0: Leaf_Bark_01
`), "a.txt", sink)
	second := Parse(strings.NewReader(`prefab: Tree_01_LOD1
  mesh: Tree_01_LOD1
    0: Leaf_Bark_01_Low
`), "b.txt", sink)

	grouped := Group(first, second)
	require.Len(t, grouped, 1)
	assert.Equal(t, "Tree_01", grouped[0].Name)
	assert.Equal(t, []string{"Leaf_Bark_01", "Leaf_Bark_01_Low"}, grouped[0].MaterialNames())
}
