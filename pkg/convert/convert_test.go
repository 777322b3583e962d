package convert

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matport/pkg/config"
	"matport/pkg/diag"
	"matport/pkg/matlist"
	"matport/pkg/shader"
)

const leafMaterial = `Material:
  m_Name: Leaf_Bark_01
  m_Shader: {fileID: 4800000, guid: eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee, type: 3}
  m_SavedProperties:
    m_TexEnvs:
    - Albedo:
        m_Texture: {fileID: 2800000, guid: texleaf, type: 3}
        m_Scale: {x: 1, y: 1}
        m_Offset: {x: 0, y: 0}
    - Normal:
        m_Texture: {fileID: 2800000, guid: texmissing, type: 3}
        m_Scale: {x: 1, y: 1}
        m_Offset: {x: 0, y: 0}
    m_Floats:
    - _WindDirection: 0.25
`

const rockMaterial = `Material:
  m_Name: Rock_Moss
  m_SavedProperties:
    m_Floats:
    - _Metallic: 0.3
`

// No m_Name; must fail in isolation.
const brokenMaterial = `Material:
  m_SavedProperties:
    m_Floats:
    - _Metallic: 0.3
`

func writeBundle(t *testing.T) string {
	var buf bytes.Buffer
	zipped := gzip.NewWriter(&buf)
	archive := tar.NewWriter(zipped)

	write := func(name string, data string) {
		err := archive.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		})
		require.NoError(t, err)
		_, err = archive.Write([]byte(data))
		require.NoError(t, err)
	}

	write("mat1/pathname", "Assets/Materials/Leaf_Bark_01.mat\n")
	write("mat1/asset", leafMaterial)
	write("mat2/pathname", "Assets/Materials/Rock_Moss.mat\n")
	write("mat2/asset", rockMaterial)
	write("mat3/pathname", "Assets/Materials/Broken.mat\n")
	write("mat3/asset", brokenMaterial)
	write("texleaf/pathname", "Assets/Textures/leaf_albedo.png\n")
	write("texleaf/asset", "png bytes")
	write("model1/pathname", "Assets/Models/Tree.fbx\n")
	write("model1/asset", "fbx bytes")

	require.NoError(t, archive.Close())
	require.NoError(t, zipped.Close())

	path := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func writeManifest(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "materials.txt")
	require.NoError(t, os.WriteFile(path, []byte(`prefab: Tree_01_LOD0
  mesh: Tree_01_LOD0
    0: Leaf_Bark_01
prefab: Tree_01_LOD1
  mesh: Tree_01_LOD1
    0: Leaf_Bark_01
`), 0644))
	return path
}

func TestRun(t *testing.T) {
	cfg, err := config.Process(nil)
	require.NoError(t, err)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Manifests = []string{writeManifest(t)}
	cfg.Workers = 2

	result, err := Run(cfg, writeBundle(t))
	require.NoError(t, err)

	// One corrupt record among three leaves two materials and one parse
	// diagnostic, not a failed run.
	require.Len(t, result.Materials, 2)
	parseFailures := 0
	for _, diagnostic := range result.Diagnostics {
		if diagnostic.Kind == diag.MaterialParse {
			parseFailures++
		}
	}
	assert.Equal(t, 1, parseFailures)

	leaf := result.Materials[0]
	assert.Equal(t, "Leaf_Bark_01", leaf.Name)
	assert.Equal(t, shader.Vegetation, leaf.Family)
	assert.Equal(t, shader.BasisSignature, leaf.Basis)

	rock := result.Materials[1]
	assert.Equal(t, "Rock_Moss", rock.Name)
	assert.Equal(t, shader.Opaque, rock.Family)
	assert.Equal(t, []string{"Rock_Moss"}, result.Unmatched)

	// The serialized leaf references the vegetation shader and both
	// texture slots, resolved and missing alike.
	text := result.Serialized["Leaf_Bark_01"]
	assert.Contains(t, text, "res://shaders/vegetation.gdshader")
	assert.Contains(t, text, `path="res://textures/leaf_albedo.png"`)
	assert.Contains(t, text, `path="res://missing/normal_tex.png"`)
	assert.Contains(t, text, "shader_parameter/albedo_tex")
	assert.Contains(t, text, "shader_parameter/normal_tex")
	assert.Contains(t, text, "shader_parameter/wind_direction = 0.250000")

	assert.Contains(t, result.RequiredTextures, "leaf_albedo.png")
	assert.Contains(t, result.RequiredTextures, "normal_tex")

	// Outputs on disk.
	for _, path := range []string{
		filepath.Join("materials", "Leaf_Bark_01.tres"),
		filepath.Join("materials", "Rock_Moss.tres"),
		filepath.Join("textures", "leaf_albedo.png"),
		filepath.Join("models", "Tree.fbx"),
		"mappings.cbor",
		"mappings.json",
	} {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, path))
		assert.NoError(t, err, path)
	}

	// Serializing the same run twice yields the same bytes.
	again, err := Run(cfg, writeBundle(t))
	require.NoError(t, err)
	assert.Equal(t, result.Serialized["Leaf_Bark_01"], again.Serialized["Leaf_Bark_01"])

	// The mapping index round-trips with slot order and LOD grouping
	// intact.
	encoded, err := os.ReadFile(filepath.Join(cfg.OutputDir, "mappings.cbor"))
	require.NoError(t, err)

	var prefabs []matlist.PrefabMaterials
	require.NoError(t, cbor.Unmarshal(encoded, &prefabs))
	require.Len(t, prefabs, 1)
	assert.Equal(t, "Tree_01", prefabs[0].Name)
	require.Len(t, prefabs[0].Meshes, 2)
	assert.Equal(t, 0, prefabs[0].Meshes[0].LOD)
	assert.Equal(t, "Leaf_Bark_01", prefabs[0].Meshes[0].Slots[0].Material)

	assert.Equal(t, 2, result.Stats.MaterialsParsed)
	assert.Equal(t, 1, result.Stats.ParseFailures)
	assert.Equal(t, 2, result.Stats.Mapped)
	assert.Equal(t, 1, result.Stats.TexturesCopied)
	assert.GreaterOrEqual(t, result.Stats.MissingTextures, 1)
}

func TestRunFamilyOverride(t *testing.T) {
	cfg, err := config.Process(nil)
	require.NoError(t, err)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.FamilyOverrides = map[string]string{"Leaf_Bark_01": "crystal"}

	result, err := Run(cfg, writeBundle(t))
	require.NoError(t, err)

	for _, material := range result.Materials {
		if material.Name == "Leaf_Bark_01" {
			assert.Equal(t, shader.Crystal, material.Family)
		}
	}
}

func TestRunMissingBundle(t *testing.T) {
	cfg, err := config.Process(nil)
	require.NoError(t, err)
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")

	_, err = Run(cfg, filepath.Join(t.TempDir(), "nope.tar.gz"))
	require.Error(t, err)
}
