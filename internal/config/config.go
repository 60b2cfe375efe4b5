// Package config loads dpack configuration.
//
// Configuration comes from a single YAML file named by the --config flag or,
// failing that, the DPACK_CONFIG environment variable. There is no other
// discovery: with neither set, defaults apply.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meigma/dpack/internal/digest"
)

// EnvVar names the environment variable selecting the config file.
const EnvVar = "DPACK_CONFIG"

// Chunk size bounds, in bytes.
const (
	DefaultChunkSize = 64 * 1024
	MinChunkSize     = 512
	MaxChunkSize     = 16 << 20
)

// Config is the complete dpack configuration.
type Config struct {
	Log LogConfig `yaml:"log"`

	// Digest names the content digest used to find duplicate candidates.
	Digest string `yaml:"digest"`

	// ChunkSize is the buffer size for content copies and comparisons.
	ChunkSize int `yaml:"chunk_size"`
}

// LogConfig configures the stderr logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:       LogConfig{Level: "info", Format: "text"},
		Digest:    digest.Default,
		ChunkSize: DefaultChunkSize,
	}
}

// Load reads the file at path, or the file named by DPACK_CONFIG when path is
// empty. Values absent from the file keep their defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if _, err := digest.ByName(c.Digest); err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk_size: %d outside [%d, %d]", c.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds a logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch l.Format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", l.Format)
	}
}
