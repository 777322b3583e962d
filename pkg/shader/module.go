package shader

import (
	"strings"

	"matport/pkg/umat"
)

// A Family is one of the closed set of target rendering strategies a
// material can map to.
type Family string

const (
	Vegetation Family = "vegetation"
	Water      Family = "water"
	Crystal    Family = "crystal"
	Clouds     Family = "clouds"
	Particles  Family = "particles"
	Skydome    Family = "skydome"
	Opaque     Family = "opaque"
)

// Basis records how a classification was reached. Diagnostic only; mapping
// logic never branches on it.
type Basis string

const (
	BasisExplicit  Basis = "explicit-reference"
	BasisSignature Basis = "signature-match"
	BasisName      Basis = "name-heuristic"
	BasisDefault   Basis = "default"
)

type Decision struct {
	Family Family
	Basis  Basis
}

// Tie-break order among simultaneously matching signatures. Inferred from
// reference output; keep it a single table so a confirmed deviation is a
// one-line change.
var familyPriority = []Family{
	Vegetation,
	Water,
	Crystal,
	Clouds,
	Particles,
	Skydome,
	Opaque,
}

// ParseFamily resolves a family name from configuration input.
func ParseFamily(name string) (Family, bool) {
	for _, family := range familyPriority {
		if string(family) == strings.ToLower(name) {
			return family, true
		}
	}
	return "", false
}

// shaderFamilies maps resolved well-known shader names to their family.
var shaderFamilies = map[string]Family{
	"Standard":                  Opaque,
	"Standard (Specular setup)": Opaque,
	"Unlit/Texture":             Opaque,
	"Unlit/Transparent":         Opaque,
	"Toon/Vegetation":           Vegetation,
	"Toon/Water":                Water,
	"Toon/Crystal":              Crystal,
	"Toon/Clouds":               Clouds,
	"Toon/Particles":            Particles,
	"Toon/Skydome":              Skydome,
	"Toon/Opaque":               Opaque,
}

// A signature lists the property and texture-slot names diagnostic of one
// family. A single present key satisfies the signature; the count of
// present keys is its specificity.
type signature struct {
	textures []string
	scalars  []string
	colors   []string
}

var signatures = map[Family]signature{
	Vegetation: {
		textures: []string{"_LeafTex"},
		scalars:  []string{"_WindDirection", "_WindStrength"},
	},
	Water: {
		textures: []string{"_WaveGradient", "_FoamTex"},
		scalars:  []string{"_WaveSpeed"},
	},
	Crystal: {
		textures: []string{"_CrystalRamp"},
		scalars:  []string{"_RefractionIndex", "_Refraction"},
	},
	Clouds: {
		textures: []string{"_CloudNoise"},
		scalars:  []string{"_CloudDensity"},
	},
	Particles: {
		textures: []string{"_ParticleTex"},
		scalars:  []string{"_EmissionRate"},
	},
	Skydome: {
		textures: []string{"_SkyGradient"},
		scalars:  []string{"_HorizonBlend"},
	},
}

func (s signature) score(record *umat.Record) int {
	count := 0
	for _, name := range s.textures {
		if record.HasTexture(name) {
			count++
		}
	}
	for _, name := range s.scalars {
		if _, ok := record.Scalars[name]; ok {
			count++
		}
	}
	for _, name := range s.colors {
		if _, ok := record.Colors[name]; ok {
			count++
		}
	}
	return count
}

// Name heuristics, checked in family priority order.
var nameHints = []struct {
	family     Family
	substrings []string
}{
	{Vegetation, []string{"leaf", "tree", "grass", "bush", "flower"}},
	{Water, []string{"water", "ocean", "river", "lake"}},
	{Crystal, []string{"crystal", "gem", "glass", "ice"}},
	{Clouds, []string{"cloud"}},
	{Particles, []string{"particle", "fx_"}},
	{Skydome, []string{"sky"}},
}

// Classify decides the target family for one material. Pure function of the
// record's resolved shader name, properties and material name. Reaching the
// default family is an expected outcome, not an error.
func Classify(record *umat.Record) Decision {
	if family, ok := shaderFamilies[record.Shader]; ok {
		return Decision{Family: family, Basis: BasisExplicit}
	}

	best := Opaque
	bestScore := 0
	for _, family := range familyPriority {
		sig, ok := signatures[family]
		if !ok {
			continue
		}
		// Strict comparison keeps the priority order as the tie-break.
		if score := sig.score(record); score > bestScore {
			best = family
			bestScore = score
		}
	}
	if bestScore > 0 {
		return Decision{Family: best, Basis: BasisSignature}
	}

	name := strings.ToLower(record.Name)
	for _, hint := range nameHints {
		for _, sub := range hint.substrings {
			if strings.Contains(name, sub) {
				return Decision{Family: hint.family, Basis: BasisName}
			}
		}
	}

	return Decision{Family: Opaque, Basis: BasisDefault}
}
