package mapper

import (
	"fmt"
	"math"
	"sort"

	"github.com/repeale/fp-go/option"

	"matport/pkg/diag"
	"matport/pkg/shader"
	"matport/pkg/umat"
)

// A MappingError means a material carried nothing mappable at all: no
// textures, scalars or colors, and an unresolved shader reference. The
// caller skips the material and reports it.
type MappingError struct {
	Name string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("material %s has nothing to map", e.Name)
}

// A Texture is one resolved target slot. Missing marks an identifier absent
// from the bundle index; the slot is kept so the required-texture set stays
// stable whether or not the file exists yet.
type Texture struct {
	Slot     string
	Filename string
	Missing  bool
}

type ValueKind int

const (
	FloatValue ValueKind = iota
	ColorValue
	VectorValue
)

type UniformValue struct {
	Kind   ValueKind
	Float  float64
	Color  umat.Color
	Vector [2]float64
}

type Uniform struct {
	Name  string
	Value UniformValue
}

// A Material is the normalized, target-ready form of one source material.
// Texture and uniform order is the family table's declared order and is
// what the serializer emits.
type Material struct {
	Name     string
	Family   shader.Family
	Basis    shader.Basis
	Shader   string
	Textures []Texture
	Uniforms []Uniform
}

// A TextureResolver resolves a texture identifier to its original filename.
// *upack.Index satisfies it.
type TextureResolver interface {
	TextureName(id string) opt.Option[string]
}

// Map rewrites one material into the target family's property set. The
// effective family comes from the override when the cache supplied one,
// otherwise from a fresh classification. Properties without a table entry
// for the family are dropped; unresolved texture identifiers become
// explicit missing markers, never silent omissions.
func Map(record *umat.Record, override opt.Option[shader.Decision], resolver TextureResolver, sink *diag.Sink) (*Material, error) {
	if record.Empty() && record.Shader == "" {
		return nil, &MappingError{Name: record.Name}
	}

	decision := shader.Classify(record)
	if opt.IsSome(override) {
		decision = override.Value
	}

	table := tables[decision.Family]

	mapped := &Material{
		Name:     record.Name,
		Family:   decision.Family,
		Basis:    decision.Basis,
		Shader:   table.shaderFile,
		Textures: make([]Texture, 0),
		Uniforms: make([]Uniform, 0),
	}

	assigned := make(map[string]struct{})
	for _, mapping := range table.textures {
		slot := record.Texture(mapping.source)
		if opt.IsNone(slot) {
			continue
		}
		// Two sources can feed one target; the first present entry wins.
		if _, ok := assigned[mapping.target]; ok {
			continue
		}
		assigned[mapping.target] = struct{}{}

		texture := Texture{Slot: mapping.target}
		name := resolver.TextureName(slot.Value.Ref.ID)
		if opt.IsSome(name) {
			texture.Filename = name.Value
		} else {
			texture.Missing = true
			sink.Report(diag.Unresolved, record.Name,
				"texture %s (%s) not present in bundle", mapping.source, slot.Value.Ref.ID)
		}
		mapped.Textures = append(mapped.Textures, texture)
	}

	if uv := record.Texture(table.uvSource); opt.IsSome(uv) {
		ref := uv.Value.Ref
		if ref.Scale != [2]float64{1, 1} || ref.Offset != [2]float64{0, 0} {
			mapped.Uniforms = append(mapped.Uniforms,
				Uniform{Name: "uv_scale", Value: UniformValue{Kind: VectorValue, Vector: ref.Scale}},
				Uniform{Name: "uv_offset", Value: UniformValue{Kind: VectorValue, Vector: ref.Offset}},
			)
		}
	}

	for _, mapping := range table.scalars {
		value, ok := record.Scalars[mapping.source]
		if !ok {
			continue
		}
		scale := mapping.scale
		if scale == 0 {
			scale = 1
		}
		mapped.Uniforms = append(mapped.Uniforms, Uniform{
			Name:  mapping.target,
			Value: UniformValue{Kind: FloatValue, Float: value * scale},
		})
	}

	for _, mapping := range table.colors {
		value, ok := record.Colors[mapping.source]
		if !ok {
			continue
		}
		if mapping.toLinear {
			value = srgbToLinear(value)
		}
		mapped.Uniforms = append(mapped.Uniforms, Uniform{
			Name:  mapping.target,
			Value: UniformValue{Kind: ColorValue, Color: value},
		})
	}

	return mapped, nil
}

// srgbToLinear converts the color channels, leaving alpha untouched.
func srgbToLinear(c umat.Color) umat.Color {
	out := c
	for i := 0; i < 3; i++ {
		v := c[i]
		if v <= 0.04045 {
			out[i] = v / 12.92
		} else {
			out[i] = math.Pow((v+0.055)/1.055, 2.4)
		}
	}
	return out
}

// RequiredTextureNames gathers the full required-texture set across mapped
// materials: resolved filenames, plus the slot name for every missing
// texture so callers see the complete set before files exist.
func RequiredTextureNames(materials []*Material) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, material := range materials {
		for _, texture := range material.Textures {
			name := texture.Filename
			if texture.Missing {
				name = texture.Slot
			}
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
