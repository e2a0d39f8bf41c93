package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/justel/pkg/hierarchy"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.GreaterOrEqual(t, cfg.Batch.Workers, 1)
	assert.Equal(t, 30*time.Second, cfg.Batch.DocumentTimeout)
	assert.Equal(t, "*.md", cfg.Batch.InputGlob)
	assert.True(t, cfg.Batch.ContinueOnFailure)
	assert.Equal(t, hierarchy.SourceAuto, cfg.TreeSource())
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Batch.InputGlob, cfg.Batch.InputGlob)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "justel.yaml")
	content := `
batch:
  workers: 3
  document_timeout: 5s
  output_dir: out
output:
  pretty: false
  tree_source: toc
vocabulary:
  dir: vocab
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, 5*time.Second, cfg.Batch.DocumentTimeout)
	assert.Equal(t, "out", cfg.Batch.OutputDir)
	assert.Equal(t, "*.md", cfg.Batch.InputGlob, "unset keys keep their defaults")
	assert.False(t, cfg.Output.Pretty)
	assert.Equal(t, hierarchy.SourceTOC, cfg.TreeSource())
	assert.Equal(t, "vocab", cfg.Vocabulary.Dir)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvWorkers, "7")
	t.Setenv(EnvDocumentTimeout, "2m")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvVocabularyDir, "/etc/justel/vocab")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Batch.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Batch.DocumentTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/etc/justel/vocab", cfg.Vocabulary.Dir)
}

func TestLoadRejectsBadEnvironment(t *testing.T) {
	t.Setenv(EnvWorkers, "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"zero timeout", func(c *Config) { c.Batch.DocumentTimeout = 0 }},
		{"bad tree source", func(c *Config) { c.Output.TreeSource = "sidebar" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}
