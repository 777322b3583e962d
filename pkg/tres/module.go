package tres

import (
	"fmt"
	"strconv"
	"strings"

	"matport/pkg/mapper"
)

// Serialize renders a mapped material as a text resource. The output is
// deterministic: uniforms appear in the material's declared order, floats
// are formatted with fixed precision, and for the same inputs the bytes are
// identical on every call.
//
// A missing texture still serializes, with a sentinel path; substituting
// the real file is the caller's job.
func Serialize(material *mapper.Material, shaderBase string, textureBase string) string {
	var out strings.Builder

	loadSteps := 1 + len(material.Textures)
	fmt.Fprintf(&out, "[gd_resource type=\"ShaderMaterial\" load_steps=%d format=3]\n\n", loadSteps+1)

	fmt.Fprintf(&out, "[ext_resource type=\"Shader\" path=\"%s\" id=\"1\"]\n",
		joinPath(shaderBase, material.Shader))

	for i, texture := range material.Textures {
		path := MissingTexturePath(texture.Slot)
		if !texture.Missing {
			path = joinPath(textureBase, texture.Filename)
		}
		fmt.Fprintf(&out, "[ext_resource type=\"Texture2D\" path=\"%s\" id=\"%d\"]\n", path, i+2)
	}

	out.WriteString("\n[resource]\n")
	fmt.Fprintf(&out, "resource_name = \"%s\"\n", material.Name)
	out.WriteString("shader = ExtResource(\"1\")\n")

	for i, texture := range material.Textures {
		fmt.Fprintf(&out, "shader_parameter/%s = ExtResource(\"%d\")\n", texture.Slot, i+2)
	}

	for _, uniform := range material.Uniforms {
		fmt.Fprintf(&out, "shader_parameter/%s = %s\n", uniform.Name, formatValue(uniform.Value))
	}

	return out.String()
}

// MissingTexturePath is the sentinel embedded for unresolved textures.
func MissingTexturePath(slot string) string {
	return fmt.Sprintf("res://missing/%s.png", slot)
}

func joinPath(base string, name string) string {
	return strings.TrimSuffix(base, "/") + "/" + name
}

func formatValue(value mapper.UniformValue) string {
	switch value.Kind {
	case mapper.ColorValue:
		return fmt.Sprintf("Color(%s, %s, %s, %s)",
			formatFloat(value.Color[0]),
			formatFloat(value.Color[1]),
			formatFloat(value.Color[2]),
			formatFloat(value.Color[3]))
	case mapper.VectorValue:
		return fmt.Sprintf("Vector2(%s, %s)",
			formatFloat(value.Vector[0]),
			formatFloat(value.Vector[1]))
	default:
		return formatFloat(value.Float)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
