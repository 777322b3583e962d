package umat

import (
	"fmt"

	"github.com/repeale/fp-go/option"
)

// A ParseError means one material record could not be decoded. The caller
// skips the record and continues with the rest of the batch.
type ParseError struct {
	Subject string
	Msg     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse material %s: %s", e.Subject, e.Msg)
}

// A TextureRef is one texture assignment on a source material: the opaque
// identifier of the texture entry plus its 2D tiling.
type TextureRef struct {
	ID     string
	Scale  [2]float64
	Offset [2]float64
}

type TextureSlot struct {
	Name string
	Ref  TextureRef
}

// RGBA, each channel nominally in [0, 1].
type Color [4]float64

// A Record is one source material, immutable once built. Shader is the
// resolved well-known shader name, or empty when the reference is missing or
// unknown; classification then falls back to heuristics.
type Record struct {
	Name     string
	ShaderID string
	Shader   string
	Textures []TextureSlot
	Scalars  map[string]float64
	Colors   map[string]Color
}

func (r *Record) Texture(name string) opt.Option[TextureSlot] {
	for _, slot := range r.Textures {
		if slot.Name == name {
			return opt.Some(slot)
		}
	}
	return opt.None[TextureSlot]()
}

func (r *Record) HasTexture(name string) bool {
	return opt.IsSome(r.Texture(name))
}

// Empty reports whether the record carries nothing mappable.
func (r *Record) Empty() bool {
	return len(r.Textures) == 0 && len(r.Scalars) == 0 && len(r.Colors) == 0
}

// Channels outside [0, 1] by more than this get clamped; smaller excursions
// pass through untouched.
const colorEpsilon = 1e-3

func clampChannel(v float64) float64 {
	if v < -colorEpsilon {
		return 0
	}
	if v > 1+colorEpsilon {
		return 1
	}
	return v
}

// Parse decodes one material record. subject identifies the record in
// errors, usually its bundle identifier.
func Parse(data []byte, subject string) (*Record, error) {
	root := parseDialect(data)

	body := root
	if material := root.get("Material"); material != nil && material.kind == mappingNode {
		body = material
	}
	if body == nil || body.kind != mappingNode {
		return nil, &ParseError{Subject: subject, Msg: "no material body"}
	}

	name := body.get("m_Name").str()
	if name == "" {
		name = body.get("name").str()
	}
	if name == "" {
		return nil, &ParseError{Subject: subject, Msg: "record has no name"}
	}

	record := &Record{
		Name:     name,
		Textures: make([]TextureSlot, 0),
		Scalars:  make(map[string]float64),
		Colors:   make(map[string]Color),
	}

	shader := body.get("m_Shader")
	if shader == nil {
		shader = body.get("shader")
	}
	if shader != nil && shader.kind == mappingNode {
		id := shader.get("guid").str()
		if id == "" {
			id = shader.get("id").str()
		}
		record.ShaderID = id
		if known, ok := KnownShaders[id]; ok {
			record.Shader = known
		}
	}

	properties := body.get("m_SavedProperties")
	if properties == nil || properties.kind != mappingNode {
		properties = body
	}

	for _, section := range []string{"m_TexEnvs", "m_Floats", "m_Colors"} {
		collectProperties(record, properties.get(section))
	}

	return record, nil
}

// collectProperties walks one properties section. The section name is not
// trusted: each property lands in the texture, scalar, or color bucket
// according to the shape of its value.
func collectProperties(record *Record, section *node) {
	if section == nil {
		return
	}

	switch section.kind {
	case sequenceNode:
		// Each item is a single-pair mapping.
		for _, item := range section.items {
			if item.kind != mappingNode {
				continue
			}
			for _, e := range item.entries {
				addProperty(record, e.key, e.value)
			}
		}
	case mappingNode:
		for _, e := range section.entries {
			addProperty(record, e.key, e.value)
		}
	}
}

func addProperty(record *Record, name string, value *node) {
	if name == "" || value == nil {
		return
	}

	if value.kind == scalarNode {
		if f, ok := value.float(); ok {
			record.Scalars[name] = f
		}
		return
	}

	if value.kind != mappingNode {
		return
	}

	if texture := value.get("m_Texture"); texture != nil {
		setTexture(record, name, value, texture)
		return
	}
	if texture := value.get("texture"); texture != nil {
		setTexture(record, name, value, texture)
		return
	}

	if color, ok := colorValue(value); ok {
		record.Colors[name] = color
		return
	}
}

func setTexture(record *Record, name string, value *node, texture *node) {
	ref := TextureRef{
		ID:     texture.get("guid").str(),
		Scale:  [2]float64{1, 1},
		Offset: [2]float64{0, 0},
	}

	if scale, ok := vec2Value(value.get("m_Scale")); ok {
		ref.Scale = scale
	}
	if offset, ok := vec2Value(value.get("m_Offset")); ok {
		ref.Offset = offset
	}

	slot := TextureSlot{Name: name, Ref: ref}
	for i := range record.Textures {
		if record.Textures[i].Name == name {
			record.Textures[i] = slot
			return
		}
	}
	record.Textures = append(record.Textures, slot)
}

func colorValue(value *node) (Color, bool) {
	channels := [4]float64{}
	for i, key := range []string{"r", "g", "b", "a"} {
		f, ok := value.get(key).float()
		if !ok {
			return Color{}, false
		}
		channels[i] = clampChannel(f)
	}
	return Color(channels), true
}

func vec2Value(value *node) ([2]float64, bool) {
	if value == nil || value.kind != mappingNode {
		return [2]float64{}, false
	}
	x, okX := value.get("x").float()
	y, okY := value.get("y").float()
	if !okX || !okY {
		return [2]float64{}, false
	}
	return [2]float64{x, y}, true
}
