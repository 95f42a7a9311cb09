package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysOnDefaults(t *testing.T) {
	dir := t.TempDir()
	yml := `
sourceRoot: ./engine
extensions: [".cc", ".hh"]
concurrency: 8
retryBackoffBase: 500ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chronicle.yml"), []byte(yml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "./engine", cfg.SourceRoot)
	assert.Equal(t, []string{".cc", ".hh"}, cfg.Extensions)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoffBase)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().MaxClusterSize, cfg.MaxClusterSize)
	assert.Equal(t, Default().Model, cfg.Model)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"extension without dot", `extensions: ["cpp"]`},
		{"zero concurrency", `concurrency: -1`},
		{"tiny cluster", `maxClusterSize: 1`},
		{"no retry attempts", `retryAttempts: -3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "chronicle.yml"), []byte(tt.yml), 0o644))
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chronicle.yml"), []byte("extensions: [unclosed"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}
