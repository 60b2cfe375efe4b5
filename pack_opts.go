package dpack

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"

	contentdigest "github.com/meigma/dpack/internal/digest"
)

// DefaultChunkSize is the buffer size used for content copies and
// comparisons when none is set.
const DefaultChunkSize = 64 * 1024

// Digester computes the 64-bit content digest used to find duplicate
// candidates. Equal digests are always confirmed byte for byte.
type Digester = contentdigest.Digester

// packConfig holds configuration for Pack.
type packConfig struct {
	logger    *slog.Logger
	digester  Digester
	chunkSize int
	fs        billy.Filesystem
	progress  ProgressFunc
}

// PackOption configures Pack.
type PackOption func(*packConfig)

// PackWithLogger sets the logger for per-entry progress and skipped entries.
// By default nothing is logged.
func PackWithLogger(logger *slog.Logger) PackOption {
	return func(cfg *packConfig) {
		cfg.logger = logger
	}
}

// PackWithDigester replaces the default XXH64 content digest.
func PackWithDigester(d Digester) PackOption {
	return func(cfg *packConfig) {
		cfg.digester = d
	}
}

// PackWithChunkSize sets the buffer size for content copies and duplicate
// comparisons. Non-positive values use DefaultChunkSize.
func PackWithChunkSize(n int) PackOption {
	return func(cfg *packConfig) {
		cfg.chunkSize = n
	}
}

// PackWithFilesystem packs from, and writes the archive to, fs instead of the
// host filesystem. Paths are then interpreted by fs as given.
func PackWithFilesystem(fs billy.Filesystem) PackOption {
	return func(cfg *packConfig) {
		cfg.fs = fs
	}
}

// PackWithProgress sets a callback invoked after every stored entry.
func PackWithProgress(fn ProgressFunc) PackOption {
	return func(cfg *packConfig) {
		cfg.progress = fn
	}
}

func newPackConfig(opts []PackOption) packConfig {
	var cfg packConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkSize <= 0 {
		cfg.chunkSize = DefaultChunkSize
	}
	if cfg.digester == nil {
		cfg.digester = contentdigest.XXH64()
	}
	return cfg
}
