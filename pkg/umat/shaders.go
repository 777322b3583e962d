package umat

// KnownShaders maps well-known source shader identifiers to their shader
// names. Identifiers outside this table stay unresolved; the classifier
// then works from the record's own properties and name.
var KnownShaders = map[string]string{
	// Stock surface shaders.
	"0000000000000000f000000000000000": "Standard",
	"dfd2f27ac8649a87db688a35f7b4d766": "Standard (Specular setup)",
	"933532a4fcc9baf4fa0491de14d08ed7": "Unlit/Texture",
	"650dd9526735d5b46b79224bc6e94025": "Unlit/Transparent",

	// Vendor shader pack shipped with the source assets.
	"8a2b3c11904e9f040b2b423cd2f4c2f1": "Toon/Vegetation",
	"3d5a2c0e51d29b94f9a0b6c5dd84f0aa": "Toon/Water",
	"9b671e2c8804d3a4dbe5c0e11f2a7c88": "Toon/Crystal",
	"51c9208ab3054274a9f1e3b80273cd16": "Toon/Clouds",
	"e00e1aa3c2b5d9647a32f6d08b15c97e": "Toon/Particles",
	"72bd40c8f1aa39a41a6c0b7de8d413f5": "Toon/Skydome",
	"1f4e29d07ab86c543b1da8026f9f5e33": "Toon/Opaque",
}
