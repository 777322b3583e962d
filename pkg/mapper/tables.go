package mapper

import (
	"matport/pkg/shader"
)

// Static per-family mapping tables. Each source property maps to at most
// one target uniform; rescale factors and color-space conversion are
// declared here, never computed in mapping code. Table order is the emit
// order of the serialized resource.

type textureMapping struct {
	source string
	target string
}

type scalarMapping struct {
	source string
	target string
	// Multiplier applied to the source value; 0 means 1.
	scale float64
}

type colorMapping struct {
	source   string
	target   string
	toLinear bool
}

type familyTable struct {
	shaderFile string

	// Source slot whose 2D tiling becomes the uv_scale/uv_offset vectors.
	uvSource string

	textures []textureMapping
	scalars  []scalarMapping
	colors   []colorMapping
}

var tables = map[shader.Family]familyTable{
	shader.Vegetation: {
		shaderFile: "vegetation.gdshader",
		uvSource:   "_MainTex",
		textures: []textureMapping{
			{source: "_MainTex", target: "albedo_tex"},
			{source: "Albedo", target: "albedo_tex"},
			{source: "_LeafTex", target: "albedo_tex"},
			{source: "_BumpMap", target: "normal_tex"},
			{source: "Normal", target: "normal_tex"},
		},
		scalars: []scalarMapping{
			{source: "_WindStrength", target: "wind_strength"},
			{source: "_WindDirection", target: "wind_direction"},
			{source: "_WindSpeed", target: "wind_speed"},
			{source: "_Cutoff", target: "alpha_scissor"},
		},
		colors: []colorMapping{
			{source: "_Color", target: "tint", toLinear: true},
			{source: "_TipColor", target: "tip_tint", toLinear: true},
		},
	},
	shader.Water: {
		shaderFile: "water.gdshader",
		uvSource:   "_MainTex",
		textures: []textureMapping{
			{source: "_MainTex", target: "surface_tex"},
			{source: "Albedo", target: "surface_tex"},
			{source: "_WaveGradient", target: "wave_gradient"},
			{source: "_FoamTex", target: "foam_tex"},
			{source: "_BumpMap", target: "normal_tex"},
			{source: "Normal", target: "normal_tex"},
		},
		scalars: []scalarMapping{
			{source: "_WaveSpeed", target: "wave_speed"},
			{source: "_WaveHeight", target: "wave_height"},
			{source: "_Transparency", target: "transparency"},
		},
		colors: []colorMapping{
			{source: "_Color", target: "shallow_color", toLinear: true},
			{source: "_DeepColor", target: "deep_color", toLinear: true},
		},
	},
	shader.Crystal: {
		shaderFile: "crystal.gdshader",
		uvSource:   "_MainTex",
		textures: []textureMapping{
			{source: "_MainTex", target: "albedo_tex"},
			{source: "Albedo", target: "albedo_tex"},
			{source: "_CrystalRamp", target: "ramp_tex"},
			{source: "_BumpMap", target: "normal_tex"},
			{source: "Normal", target: "normal_tex"},
		},
		scalars: []scalarMapping{
			{source: "_RefractionIndex", target: "refraction_index"},
			{source: "_Refraction", target: "refraction_strength"},
			{source: "_Glossiness", target: "gloss"},
		},
		colors: []colorMapping{
			{source: "_Color", target: "tint", toLinear: true},
			{source: "_EmissionColor", target: "emission", toLinear: true},
		},
	},
	shader.Clouds: {
		shaderFile: "clouds.gdshader",
		uvSource:   "_CloudNoise",
		textures: []textureMapping{
			{source: "_CloudNoise", target: "noise_tex"},
			{source: "_MainTex", target: "shape_tex"},
		},
		scalars: []scalarMapping{
			{source: "_CloudDensity", target: "density"},
			{source: "_DriftSpeed", target: "drift_speed"},
		},
		colors: []colorMapping{
			{source: "_Color", target: "cloud_color", toLinear: true},
		},
	},
	shader.Particles: {
		shaderFile: "particles.gdshader",
		uvSource:   "_ParticleTex",
		textures: []textureMapping{
			{source: "_ParticleTex", target: "particle_tex"},
			{source: "_MainTex", target: "particle_tex"},
		},
		scalars: []scalarMapping{
			{source: "_EmissionRate", target: "emission_rate"},
			{source: "_Lifetime", target: "lifetime"},
		},
		colors: []colorMapping{
			{source: "_Color", target: "tint", toLinear: true},
			{source: "_EmissionColor", target: "emission", toLinear: true},
		},
	},
	shader.Skydome: {
		shaderFile: "skydome.gdshader",
		uvSource:   "_SkyGradient",
		textures: []textureMapping{
			{source: "_SkyGradient", target: "gradient_tex"},
			{source: "_MainTex", target: "panorama_tex"},
		},
		scalars: []scalarMapping{
			{source: "_HorizonBlend", target: "horizon_blend"},
			{source: "_Rotation", target: "rotation", scale: 0.017453292519943295},
		},
		colors: []colorMapping{
			{source: "_Color", target: "sky_tint", toLinear: true},
			{source: "_HorizonColor", target: "horizon_tint", toLinear: true},
		},
	},
	shader.Opaque: {
		shaderFile: "opaque.gdshader",
		uvSource:   "_MainTex",
		textures: []textureMapping{
			{source: "_MainTex", target: "albedo_tex"},
			{source: "Albedo", target: "albedo_tex"},
			{source: "_BumpMap", target: "normal_tex"},
			{source: "Normal", target: "normal_tex"},
			{source: "_MetallicGlossMap", target: "metallic_tex"},
			{source: "_OcclusionMap", target: "occlusion_tex"},
		},
		scalars: []scalarMapping{
			{source: "_Metallic", target: "metallic"},
			{source: "_Glossiness", target: "smoothness"},
			{source: "_Cutoff", target: "alpha_scissor"},
		},
		colors: []colorMapping{
			{source: "_Color", target: "tint", toLinear: true},
			{source: "_EmissionColor", target: "emission", toLinear: true},
		},
	},
}

// ShaderFile returns the family's shader filename, used when building the
// resource's shader reference path.
func ShaderFile(family shader.Family) string {
	if table, ok := tables[family]; ok {
		return table.shaderFile
	}
	return tables[shader.Opaque].shaderFile
}
