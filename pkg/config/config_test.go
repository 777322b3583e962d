package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	// Default config
	cfg, err := Process([]string{})
	require.NoError(t, err)
	require.Equal(t, "out", cfg.OutputDir)
	require.True(t, cfg.CopyTextures)

	dir := t.TempDir()

	// Single overlay
	{
		yaml := filepath.Join(dir, "config.yaml")
		err = os.WriteFile(yaml, []byte(`
output_dir: converted
workers: 4
`), 0644)
		require.NoError(t, err)

		cfg, err = Process([]string{yaml})
		require.NoError(t, err)
		require.Equal(t, "converted", cfg.OutputDir)
		require.Equal(t, 4, cfg.Workers)
		// Untouched keys keep their defaults.
		require.Equal(t, "res://shaders", cfg.ShaderBasePath)
	}

	// Later files win
	{
		yaml1 := filepath.Join(dir, "config1.yaml")
		err = os.WriteFile(yaml1, []byte(`
output_dir: first
`), 0644)
		require.NoError(t, err)

		yaml2 := filepath.Join(dir, "config2.yaml")
		err = os.WriteFile(yaml2, []byte(`
output_dir: second
family_overrides:
  Rock_Moss: opaque
`), 0644)
		require.NoError(t, err)

		cfg, err = Process([]string{yaml1, yaml2})
		require.NoError(t, err)
		require.Equal(t, "second", cfg.OutputDir)
		require.Equal(t, "opaque", cfg.FamilyOverrides["Rock_Moss"])
	}

	// Invalid family override
	{
		yaml := filepath.Join(dir, "bad.yaml")
		err = os.WriteFile(yaml, []byte(`
family_overrides:
  Rock_Moss: lava
`), 0644)
		require.NoError(t, err)

		_, err = Process([]string{yaml})
		require.Error(t, err)
	}
}
