package dpack

import (
	"context"
	"fmt"
	"io"

	"github.com/meigma/dpack/internal/streamio"
)

// List decodes the archive at archivePath without restoring anything and
// returns its records in archive order. It validates the archive exactly as
// Unpack does.
func List(ctx context.Context, archivePath string, opts ...UnpackOption) ([]Record, error) {
	cfg := newUnpackConfig(opts)
	bfs, err := resolveFS(cfg.fs, &archivePath)
	if err != nil {
		return nil, err
	}

	f, err := bfs.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	r, err := streamio.NewReader(f, cfg.chunkSize)
	if err != nil {
		return nil, err
	}

	var records []Record
	err = scan(ctx, r, func(rec Record, _ io.Reader) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
