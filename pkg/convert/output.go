package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"

	"matport/pkg/config"
	"matport/pkg/diag"
	"matport/pkg/upack"
)

// writeOutputs materializes a run: resource files, copied textures and
// models, and the mesh-to-material mapping index.
func writeOutputs(cfg *config.Config, index *upack.Index, result *Result, sink *diag.Sink, stats *Stats) error {
	materialDir := filepath.Join(cfg.OutputDir, "materials")
	if err := os.MkdirAll(materialDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	for _, material := range result.Materials {
		target := filepath.Join(materialDir, sanitizeName(material.Name)+".tres")
		text := result.Serialized[material.Name]
		if err := os.WriteFile(target, []byte(text), 0644); err != nil {
			return fmt.Errorf("could not write %s: %w", target, err)
		}
	}

	produced := make(map[string]struct{})
	if cfg.CopyTextures {
		if err := copyTextures(cfg, index, produced, sink, stats); err != nil {
			return err
		}
	}

	for _, name := range result.RequiredTextures {
		if _, ok := produced[name]; ok {
			continue
		}
		stats.MissingTextures++
		sink.Report(diag.Output, name, "required texture was not produced")
	}

	if cfg.CopyModels {
		if err := copyModels(cfg, index, stats); err != nil {
			return err
		}
	}

	return writeMappingIndex(cfg, result)
}

func copyTextures(cfg *config.Config, index *upack.Index, produced map[string]struct{}, sink *diag.Sink, stats *Stats) error {
	textureDir := filepath.Join(cfg.OutputDir, "textures")
	if err := os.MkdirAll(textureDir, 0755); err != nil {
		return fmt.Errorf("could not create texture directory: %w", err)
	}

	for _, id := range index.TextureIds() {
		source := index.TexturePath(id)
		name := index.TextureName(id)
		if opt.IsNone(source) || opt.IsNone(name) {
			continue
		}

		data, err := os.ReadFile(source.Value)
		if err != nil {
			sink.Report(diag.Output, id, "could not read extracted texture: %v", err)
			continue
		}

		target := filepath.Join(textureDir, name.Value)
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("could not write %s: %w", target, err)
		}

		produced[name.Value] = struct{}{}
		stats.TexturesCopied++
	}

	return nil
}

func copyModels(cfg *config.Config, index *upack.Index, stats *Stats) error {
	ids := index.ModelIds()
	if len(ids) == 0 {
		return nil
	}

	modelDir := filepath.Join(cfg.OutputDir, "models")
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return fmt.Errorf("could not create model directory: %w", err)
	}

	for _, id := range ids {
		path := index.Pathname(id)
		data, ok := index.Content(id)
		if opt.IsNone(path) || !ok {
			continue
		}

		target := filepath.Join(modelDir, filepath.Base(path.Value))
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("could not write %s: %w", target, err)
		}
		stats.ModelsCopied++
	}

	return nil
}

// writeMappingIndex serializes the grouped prefab topology for the scene
// conversion step: cbor for the downstream consumer, json for inspection.
// Slot order and LOD grouping are preserved as parsed.
func writeMappingIndex(cfg *config.Config, result *Result) error {
	encoded, err := cbor.Marshal(result.Prefabs)
	if err != nil {
		return fmt.Errorf("could not encode mapping index: %w", err)
	}

	target := filepath.Join(cfg.OutputDir, "mappings.cbor")
	if err := os.WriteFile(target, encoded, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", target, err)
	}

	readable, err := json.MarshalIndent(result.Prefabs, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode mapping index: %w", err)
	}

	target = filepath.Join(cfg.OutputDir, "mappings.json")
	if err := os.WriteFile(target, readable, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", target, err)
	}

	log.Debug().
		Int("prefabs", len(result.Prefabs)).
		Msg("mapping index written")

	return nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
