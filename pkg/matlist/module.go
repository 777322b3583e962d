package matlist

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"matport/pkg/diag"
)

// A SlotAssignment binds one material slot of a mesh to a material name.
// The name may be empty when the source left the slot unassigned.
type SlotAssignment struct {
	Slot     int    `json:"slot"`
	Material string `json:"material,omitempty"`
}

type Mesh struct {
	Name  string           `json:"name"`
	LOD   int              `json:"lod"`
	Slots []SlotAssignment `json:"slots"`
}

// PrefabMaterials is one prefab's mesh/material topology. After grouping,
// Name carries the LOD-stripped prefab name and Meshes holds every LOD
// variant in manifest order.
type PrefabMaterials struct {
	Name   string `json:"name"`
	Meshes []Mesh `json:"meshes"`
}

// MaterialNames returns every material name referenced by any LOD, in mesh
// and slot order, without duplicates.
func (p *PrefabMaterials) MaterialNames() []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, mesh := range p.Meshes {
		for _, slot := range mesh.Slots {
			if slot.Material == "" {
				continue
			}
			if _, ok := seen[slot.Material]; ok {
				continue
			}
			seen[slot.Material] = struct{}{}
			names = append(names, slot.Material)
		}
	}
	return names
}

// LOD0Material returns the first assigned material of the prefab's
// highest-detail meshes, or empty when no LOD-0 mesh carries one.
func (p *PrefabMaterials) LOD0Material() string {
	for _, mesh := range p.Meshes {
		if mesh.LOD != 0 {
			continue
		}
		for _, slot := range mesh.Slots {
			if slot.Material != "" {
				return slot.Material
			}
		}
	}
	return ""
}

var lodSuffix = regexp.MustCompile(`(?i)[_.]lod[_]?(\d+)$`)

// SplitLOD strips a recognized LOD suffix from a name, returning the base
// name and the LOD index (0 when no suffix is present).
func SplitLOD(name string) (string, int) {
	match := lodSuffix.FindStringSubmatch(name)
	if match == nil {
		return name, 0
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return name, 0
	}
	return name[:len(name)-len(match[0])], index
}

var slotLine = regexp.MustCompile(`^(\d+)\s*:\s*(.*)$`)

// Parse reads one manifest. Lines declare a prefab context, then a mesh
// context (LOD index from the mesh name suffix), then slot assignments under
// that mesh. Blank lines and #/; comments are ignored; anything else
// unparseable is skipped with a debug note. Zero prefabs is a valid result.
func Parse(r io.Reader, source string, sink *diag.Sink) []PrefabMaterials {
	prefabs := make([]PrefabMaterials, 0)

	var prefab *PrefabMaterials
	var mesh *Mesh

	flushMesh := func() {
		if prefab != nil && mesh != nil {
			prefab.Meshes = append(prefab.Meshes, *mesh)
		}
		mesh = nil
	}
	flushPrefab := func() {
		flushMesh()
		if prefab != nil {
			prefabs = append(prefabs, *prefab)
		}
		prefab = nil
	}

	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())

		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, ";") {
			continue
		}

		if name, ok := markerValue(text, "prefab"); ok {
			flushPrefab()
			prefab = &PrefabMaterials{Name: name, Meshes: make([]Mesh, 0)}
			continue
		}

		if name, ok := markerValue(text, "mesh"); ok {
			if prefab == nil {
				log.Debug().Str("source", source).Int("line", number).
					Msg("mesh outside a prefab, skipping")
				continue
			}
			flushMesh()
			_, lod := SplitLOD(name)
			mesh = &Mesh{Name: name, LOD: lod, Slots: make([]SlotAssignment, 0)}
			continue
		}

		if match := slotLine.FindStringSubmatch(text); match != nil {
			if mesh == nil {
				log.Debug().Str("source", source).Int("line", number).
					Msg("slot assignment outside a mesh, skipping")
				continue
			}
			index, _ := strconv.Atoi(match[1])
			mesh.Slots = append(mesh.Slots, SlotAssignment{
				Slot:     index,
				Material: strings.TrimSpace(match[2]),
			})
			continue
		}

		sink.Report(diag.ManifestParse, source,
			"line %d not recognized: %q", number, text)
	}

	flushPrefab()
	return prefabs
}

func markerValue(text string, marker string) (string, bool) {
	rest, ok := strings.CutPrefix(text, marker)
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	rest, ok = strings.CutPrefix(rest, ":")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// Group merges parsed manifests, gathering LOD variants of the same prefab
// under the LOD-stripped prefab name. Mesh order inside a group follows
// manifest order, LOD-0 entries first.
func Group(lists ...[]PrefabMaterials) []PrefabMaterials {
	order := make([]string, 0)
	grouped := make(map[string]*PrefabMaterials)

	for _, list := range lists {
		for _, prefab := range list {
			base, _ := SplitLOD(prefab.Name)

			target, ok := grouped[base]
			if !ok {
				target = &PrefabMaterials{Name: base, Meshes: make([]Mesh, 0)}
				grouped[base] = target
				order = append(order, base)
			}
			target.Meshes = append(target.Meshes, prefab.Meshes...)
		}
	}

	out := make([]PrefabMaterials, 0, len(order))
	for _, base := range order {
		prefab := grouped[base]
		stableSortByLOD(prefab.Meshes)
		out = append(out, *prefab)
	}
	return out
}

func stableSortByLOD(meshes []Mesh) {
	// Insertion sort keeps manifest order among meshes of the same LOD.
	for i := 1; i < len(meshes); i++ {
		for j := i; j > 0 && meshes[j].LOD < meshes[j-1].LOD; j-- {
			meshes[j], meshes[j-1] = meshes[j-1], meshes[j]
		}
	}
}
