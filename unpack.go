package dpack

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/meigma/dpack/internal/fsys"
	"github.com/meigma/dpack/internal/streamio"
)

// Unpack restores the archive at archivePath below outputRoot, creating
// outputRoot and its parents if needed. Existing files with the same names
// are overwritten.
//
// Nothing is written outside outputRoot: a directory, file or link whose
// path passes through a symlink below outputRoot, or a file that would be
// written through one, fails with ErrEscapesRoot.
//
// Unpack stops at the first malformed record or I/O failure and returns it.
// Entries restored before the failure are left in place, and the returned
// Stats describe them.
func Unpack(ctx context.Context, archivePath, outputRoot string, opts ...UnpackOption) (*Stats, error) {
	cfg := newUnpackConfig(opts)
	bfs, err := resolveFS(cfg.fs, &archivePath, &outputRoot)
	if err != nil {
		return nil, err
	}

	u := &unpacker{
		cfg:   cfg,
		fs:    bfs,
		guard: fsys.NewGuard(bfs, outputRoot),
		buf:   make([]byte, cfg.chunkSize),
		stats: &Stats{},
	}
	u.log().Info("unpacking archive", "archive", archivePath, "output", outputRoot)

	f, err := bfs.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	r, err := streamio.NewReader(f, cfg.chunkSize)
	if err != nil {
		return nil, err
	}
	if err := bfs.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	if err := scan(ctx, r, u.visit); err != nil {
		return u.stats, err
	}
	u.log().Info("archive unpacked",
		"entries", u.stats.Entries,
		"duplicates", u.stats.Duplicates,
		"bytes", u.stats.Bytes)
	return u.stats, nil
}

// unpacker holds state for one Unpack call.
type unpacker struct {
	cfg   unpackConfig
	fs    billy.Filesystem
	guard *fsys.Guard
	buf   []byte
	stats *Stats
}

// log returns the logger, falling back to a discard logger if nil.
func (u *unpacker) log() *slog.Logger {
	if u.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.cfg.logger
}

func (u *unpacker) visit(rec Record, content io.Reader) error {
	switch rec.Type {
	case TypeLeaveDirectory:
		return nil
	case TypeDirectory:
		if _, err := u.guard.Dir(rec.Path); err != nil {
			return err
		}
	case TypeRegular, TypeDuplicate:
		target, err := u.guard.File(rec.Path)
		if err != nil {
			return err
		}
		if err := u.writeFile(target, content); err != nil {
			return err
		}
		u.stats.Bytes += uint64(rec.Size) //nolint:gosec // content lengths are never negative
	case TypeSymlink:
		target, err := u.guard.Path(rec.Path)
		if err != nil {
			return err
		}
		if err := fsys.Symlink(u.fs, rec.Target, target); err != nil {
			return fmt.Errorf("create symlink %s: %w", rec.Path, err)
		}
	}

	u.stats.count(rec.Type)
	u.log().Info("unpacked entry", "path", rec.Path, "type", rec.Type.String())
	report(u.cfg.progress, StageUnpacking, rec.Path, u.stats)
	return nil
}

func (u *unpacker) writeFile(path string, content io.Reader) error {
	f, err := u.fs.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.CopyBuffer(f, content, u.buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
