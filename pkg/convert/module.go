package convert

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/repeale/fp-go/option"

	"matport/pkg/config"
	"matport/pkg/diag"
	"matport/pkg/mapper"
	"matport/pkg/matlist"
	"matport/pkg/shader"
	"matport/pkg/tres"
	"matport/pkg/umat"
	"matport/pkg/upack"
)

// A Result carries everything a run produced, alongside the diagnostics for
// whatever degraded. Only an unreadable bundle aborts a run; every other
// problem lands in Diagnostics with partial results intact.
type Result struct {
	Materials        []*mapper.Material
	Serialized       map[string]string
	Prefabs          []matlist.PrefabMaterials
	Unmatched        []string
	RequiredTextures []string
	Diagnostics      []diag.Diagnostic
	Stats            *Stats
}

// Run converts one bundle: extract, parse materials and manifests, build
// the classification cache, map and serialize every material, and write the
// outputs. The extracted temp files are released on every path.
func Run(cfg *config.Config, bundlePath string) (*Result, error) {
	sink := diag.NewSink()
	stats := NewStats()

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	index, err := upack.FromFile(bundlePath, sink)
	if err != nil {
		return nil, err
	}
	defer index.Close()

	// Material parsing and manifest parsing are independent of each other;
	// records run through the worker pool while manifests parse inline.
	records := parseRecords(index, workers, sink, stats)
	prefabs := parseManifests(cfg.Manifests, sink)

	// Cache build is the barrier: LOD inheritance needs every record and
	// every prefab before the first mapping decision.
	cache, unmatched := shader.BuildCache(records, prefabs)
	for name, family := range cfg.FamilyOverrides {
		parsed, ok := shader.ParseFamily(family)
		if !ok {
			continue
		}
		cache.Override(name, parsed)
	}

	materials := mapMaterials(records, cache, index, workers, sink, stats)

	serialized := make(map[string]string, len(materials))
	for _, material := range materials {
		serialized[material.Name] = tres.Serialize(
			material, cfg.ShaderBasePath, cfg.TextureBasePath)
	}

	result := &Result{
		Materials:        materials,
		Serialized:       serialized,
		Prefabs:          prefabs,
		Unmatched:        unmatched,
		RequiredTextures: mapper.RequiredTextureNames(materials),
		Stats:            stats,
	}

	if err := writeOutputs(cfg, index, result, sink, stats); err != nil {
		result.Diagnostics = sink.All()
		return result, err
	}

	result.Diagnostics = sink.All()
	return result, nil
}

func parseManifests(paths []string, sink *diag.Sink) []matlist.PrefabMaterials {
	lists := make([][]matlist.PrefabMaterials, 0, len(paths))
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			sink.Report(diag.ManifestParse, path, "could not open manifest: %v", err)
			continue
		}
		lists = append(lists, matlist.Parse(file, filepath.Base(path), sink))
		file.Close()
	}
	return matlist.Group(lists...)
}

// materialIds picks the retained content entries that look like material
// records, by declared extension.
func materialIds(index *upack.Index) []string {
	ids := make([]string, 0)
	for _, id := range index.ContentIds() {
		path := index.Pathname(id)
		if opt.IsNone(path) {
			continue
		}
		if strings.ToLower(filepath.Ext(path.Value)) == ".mat" {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortedMaterialNames(records map[string]*umat.Record) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decisionFor(cache *shader.Cache, name string) opt.Option[shader.Decision] {
	if decision, ok := cache.Lookup(name); ok {
		return opt.Some(decision)
	}
	return opt.None[shader.Decision]()
}
