package dpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/dpack/internal/dedup"
	"github.com/meigma/dpack/internal/entry"
	"github.com/meigma/dpack/internal/fsys"
	"github.com/meigma/dpack/internal/streamio"
)

// Pack archives the tree below sourceRoot into a new file at archivePath,
// replacing any existing file.
//
// The tree is walked depth first with siblings in name order. Symlinks are
// stored with their literal targets and never followed. Regular files whose
// content equals a file already stored are written as duplicate records
// pointing back at the first copy.
//
// An entry that fails is rolled back and packing continues; the failures are
// listed in Stats.Failed. Pack itself fails only when the source root cannot
// be walked, the archive cannot be written or rewound, or ctx is canceled.
// If archivePath lies inside sourceRoot it is left out of the archive.
func Pack(ctx context.Context, sourceRoot, archivePath string, opts ...PackOption) (*Stats, error) {
	cfg := newPackConfig(opts)
	bfs, err := resolveFS(cfg.fs, &sourceRoot, &archivePath)
	if err != nil {
		return nil, err
	}

	p := &packer{
		cfg:     cfg,
		fs:      bfs,
		archive: archivePath,
		index:   dedup.New(openFunc(bfs), cfg.chunkSize),
		buf:     make([]byte, cfg.chunkSize),
		stats:   &Stats{},
	}
	p.log().Info("packing archive", "source", sourceRoot, "archive", archivePath)

	f, err := bfs.OpenFile(archivePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	p.w, err = streamio.NewWriter(f, cfg.chunkSize)
	if err != nil {
		return nil, err
	}

	report(cfg.progress, StageWalking, "", p.stats)
	walkErr := fsys.Walk(bfs, sourceRoot, p.visit(ctx))
	if err := p.w.Finish(); err != nil {
		return nil, errors.Join(walkErr, err)
	}
	if walkErr != nil {
		return nil, walkErr
	}

	report(cfg.progress, StageVerifying, "", p.stats)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}
	p.stats.Digest, err = digest.FromReader(f)
	if err != nil {
		return nil, fmt.Errorf("digest archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	p.log().Info("archive packed",
		"entries", p.stats.Entries,
		"duplicates", p.stats.Duplicates,
		"bytes", p.stats.Bytes,
		"failed", len(p.stats.Failed),
		"digest", p.stats.Digest.String())
	return p.stats, nil
}

// packer holds state for one Pack call.
type packer struct {
	cfg     packConfig
	fs      billy.Filesystem
	archive string
	w       *streamio.Writer
	index   *dedup.Index
	buf     []byte
	scratch []byte
	stats   *Stats

	// depth is the number of directories currently entered in the archive.
	depth int
}

// log returns the logger, falling back to a discard logger if nil.
func (p *packer) log() *slog.Logger {
	if p.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.cfg.logger
}

func openFunc(bfs billy.Filesystem) dedup.OpenFunc {
	return func(path string) (io.ReadCloser, error) {
		return bfs.Open(path)
	}
}

func (p *packer) visit(ctx context.Context) fsys.WalkFunc {
	return func(n fsys.Node, walkErr error) error {
		if walkErr != nil {
			// The directory itself is stored; only its children are lost.
			p.fail(n, fmt.Errorf("read directory: %w", walkErr))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.Path == p.archive {
			p.log().Debug("skipped archive file", "path", n.Rel)
			return nil
		}
		if err := p.leaveTo(n.Depth); err != nil {
			return err
		}

		t := entry.TypeOf(n.Info.Mode())
		stored, err := p.writeEntry(n, t)
		if err != nil {
			if rbErr := p.w.Rollback(); rbErr != nil {
				return rbErr
			}
			p.fail(n, err)
			if t == entry.TypeDirectory {
				return fsys.SkipDir
			}
			return nil
		}

		p.stats.count(stored)
		p.log().Info("packed entry", "path", n.Rel, "type", stored.String())
		report(p.cfg.progress, StagePacking, n.Rel, p.stats)
		return nil
	}
}

func (p *packer) fail(n fsys.Node, err error) {
	p.log().Warn("skipped entry", "path", n.Rel, "error", err)
	p.stats.Failed = append(p.stats.Failed, FailedEntry{Path: n.Rel, Err: err})
}

// leaveTo closes directories until depth is reached. The records are
// committed on their own so a failing entry cannot roll them back.
func (p *packer) leaveTo(depth int) error {
	if depth >= p.depth {
		return nil
	}
	p.scratch = entry.AppendLeaveDirectory(p.scratch[:0], p.depth-depth)
	if _, err := p.w.Write(p.scratch); err != nil {
		return fmt.Errorf("write leave-directory record: %w", err)
	}
	if err := p.w.Commit(); err != nil {
		return fmt.Errorf("write leave-directory record: %w", err)
	}
	p.depth = depth
	return nil
}

// writeEntry writes and commits the record for n, returning the type stored.
func (p *packer) writeEntry(n fsys.Node, t entry.Type) (entry.Type, error) {
	switch t {
	case entry.TypeDirectory:
		if err := p.writeHeader(t, n.Name); err != nil {
			return t, err
		}
		if err := p.w.Commit(); err != nil {
			return t, err
		}
		p.depth++
		return t, nil
	case entry.TypeSymlink:
		return t, p.writeSymlink(n)
	case entry.TypeRegular:
		return p.writeRegular(n)
	default:
		return t, fmt.Errorf("%w: %s", entry.ErrUnsupportedType, t)
	}
}

func (p *packer) writeHeader(t entry.Type, name string) error {
	var err error
	p.scratch, err = entry.AppendHeader(p.scratch[:0], t, name)
	if err != nil {
		return err
	}
	_, err = p.w.Write(p.scratch)
	return err
}

func (p *packer) writeSymlink(n fsys.Node) error {
	target, err := p.fs.Readlink(n.Path)
	if err != nil {
		return err
	}
	hdr, err := entry.AppendHeader(p.scratch[:0], entry.TypeSymlink, n.Name)
	if err != nil {
		return err
	}
	p.scratch, err = entry.AppendTarget(hdr, target)
	if err != nil {
		return err
	}
	if _, err := p.w.Write(p.scratch); err != nil {
		return err
	}
	return p.w.Commit()
}

func (p *packer) writeRegular(n fsys.Node) (entry.Type, error) {
	size := n.Info.Size()
	if err := entry.CheckName(n.Name); err != nil {
		return entry.TypeRegular, err
	}
	if err := entry.CheckContentLen(size); err != nil {
		return entry.TypeRegular, err
	}

	sum, err := p.sum(n.Path)
	if err != nil {
		return entry.TypeRegular, err
	}
	original, err := p.index.Lookup(n.Path, sum)
	if err != nil {
		return entry.TypeRegular, err
	}
	if original > 0 {
		if err := p.writeHeader(entry.TypeDuplicate, n.Name); err != nil {
			return entry.TypeDuplicate, err
		}
		p.scratch, err = entry.AppendDuplicate(p.scratch[:0], original)
		if err != nil {
			return entry.TypeDuplicate, err
		}
		if _, err := p.w.Write(p.scratch); err != nil {
			return entry.TypeDuplicate, err
		}
		return entry.TypeDuplicate, p.w.Commit()
	}

	if err := p.writeHeader(entry.TypeRegular, n.Name); err != nil {
		return entry.TypeRegular, err
	}
	// The content offset is the position of the length field.
	contentOffset := p.w.Offset()
	p.scratch, err = entry.AppendContentLen(p.scratch[:0], size)
	if err != nil {
		return entry.TypeRegular, err
	}
	if _, err := p.w.Write(p.scratch); err != nil {
		return entry.TypeRegular, err
	}
	if err := p.copyContent(n.Path, size); err != nil {
		return entry.TypeRegular, err
	}
	if err := p.w.Commit(); err != nil {
		return entry.TypeRegular, err
	}
	p.stats.Bytes += uint64(size) //nolint:gosec // checked by CheckContentLen
	return entry.TypeRegular, p.index.Record(n.Path, sum, contentOffset)
}

func (p *packer) sum(path string) (uint64, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	sum, err := p.cfg.digester.Sum64(f)
	if err != nil {
		return 0, fmt.Errorf("digest %s: %w", path, err)
	}
	return sum, nil
}

// copyContent streams exactly size bytes of the file at path into the
// archive. A file that no longer has that size fails the entry.
func (p *packer) copyContent(path string, size int64) error {
	f, err := p.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := io.CopyBuffer(p.w, io.LimitReader(f, size+1), p.buf)
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("%s changed during packing: expected %d bytes, read %d", path, size, n)
	}
	return nil
}
