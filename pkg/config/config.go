// Package config loads the settings of the justel command: batch sizing,
// output shape, vocabulary location and logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/justel/pkg/hierarchy"
)

// Environment variables that override file settings.
const (
	EnvWorkers         = "JUSTEL_WORKERS"
	EnvDocumentTimeout = "JUSTEL_DOCUMENT_TIMEOUT"
	EnvLogLevel        = "JUSTEL_LOG_LEVEL"
	EnvLogFormat       = "JUSTEL_LOG_FORMAT"
	EnvVocabularyDir   = "JUSTEL_VOCABULARY_DIR"
)

// Config is the full configuration.
type Config struct {
	Batch      BatchConfig      `yaml:"batch"`
	Output     OutputConfig     `yaml:"output"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Log        LogConfig        `yaml:"log"`
}

// BatchConfig sizes the document worker pool.
type BatchConfig struct {
	Workers         int           `yaml:"workers"`
	DocumentTimeout time.Duration `yaml:"document_timeout"`
	InputGlob       string        `yaml:"input_glob"`
	OutputDir       string        `yaml:"output_dir"`
	// ContinueOnFailure is reported in run summaries. Parsing always moves
	// on to the next document after a failure.
	ContinueOnFailure bool `yaml:"continue_on_failure"`
}

// OutputConfig shapes the written records.
type OutputConfig struct {
	Pretty     bool   `yaml:"pretty"`
	TreeSource string `yaml:"tree_source"`
}

// VocabularyConfig points at extra region and document type spellings.
type VocabularyConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Batch: BatchConfig{
			Workers:           runtime.NumCPU(),
			DocumentTimeout:   30 * time.Second,
			InputGlob:         "*.md",
			OutputDir:         "output",
			ContinueOnFailure: true,
		},
		Output: OutputConfig{
			Pretty:     true,
			TreeSource: string(hierarchy.SourceAuto),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path or a missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvironment() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Batch.Workers = n
	}
	if v := os.Getenv(EnvDocumentTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDocumentTimeout, err)
		}
		c.Batch.DocumentTimeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvVocabularyDir); v != "" {
		c.Vocabulary.Dir = v
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.DocumentTimeout <= 0 {
		return fmt.Errorf("batch.document_timeout must be positive, got %s", c.Batch.DocumentTimeout)
	}
	if _, err := hierarchy.ParseSource(c.Output.TreeSource); err != nil {
		return fmt.Errorf("output.tree_source: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// TreeSource returns the validated tree source.
func (c *Config) TreeSource() hierarchy.Source {
	source, err := hierarchy.ParseSource(c.Output.TreeSource)
	if err != nil {
		return hierarchy.SourceAuto
	}
	return source
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", level)
	}
}

// NewLogger builds the logger described by the log settings, writing to
// stderr.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.Log.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
