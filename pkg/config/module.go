package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"matport/pkg/shader"
)

//go:embed default.yaml
var DEFAULT []byte

type Config struct {
	OutputDir       string            `yaml:"output_dir"`
	ShaderBasePath  string            `yaml:"shader_base_path"`
	TextureBasePath string            `yaml:"texture_base_path"`
	Workers         int               `yaml:"workers"`
	CopyTextures    bool              `yaml:"copy_textures"`
	CopyModels      bool              `yaml:"copy_models"`
	Manifests       []string          `yaml:"manifests"`
	FamilyOverrides map[string]string `yaml:"family_overrides"`
}

// Process reads the provided configuration files in order, overlaying each
// onto the embedded default configuration.
func Process(configPaths []string) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(DEFAULT, &config); err != nil {
		return nil, fmt.Errorf("invalid default config: %w", err)
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}

	for name, family := range c.FamilyOverrides {
		if _, ok := shader.ParseFamily(family); !ok {
			return fmt.Errorf("family override for %s names unknown family %q", name, family)
		}
	}

	return nil
}
