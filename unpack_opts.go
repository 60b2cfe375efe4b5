package dpack

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
)

// unpackConfig holds configuration for Unpack and List.
type unpackConfig struct {
	logger    *slog.Logger
	chunkSize int
	fs        billy.Filesystem
	progress  ProgressFunc
}

// UnpackOption configures Unpack and List.
type UnpackOption func(*unpackConfig)

// UnpackWithLogger sets the logger for per-entry progress.
func UnpackWithLogger(logger *slog.Logger) UnpackOption {
	return func(cfg *unpackConfig) {
		cfg.logger = logger
	}
}

// UnpackWithChunkSize sets the archive read buffer size. Non-positive values
// use DefaultChunkSize.
func UnpackWithChunkSize(n int) UnpackOption {
	return func(cfg *unpackConfig) {
		cfg.chunkSize = n
	}
}

// UnpackWithFilesystem reads the archive from, and restores the tree to, fs
// instead of the host filesystem.
func UnpackWithFilesystem(fs billy.Filesystem) UnpackOption {
	return func(cfg *unpackConfig) {
		cfg.fs = fs
	}
}

// UnpackWithProgress sets a callback invoked after every restored entry.
// List does not report progress.
func UnpackWithProgress(fn ProgressFunc) UnpackOption {
	return func(cfg *unpackConfig) {
		cfg.progress = fn
	}
}

func newUnpackConfig(opts []UnpackOption) unpackConfig {
	var cfg unpackConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkSize <= 0 {
		cfg.chunkSize = DefaultChunkSize
	}
	return cfg
}
