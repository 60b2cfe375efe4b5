package dpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/meigma/dpack/internal/entry"
	"github.com/meigma/dpack/internal/sizing"
	"github.com/meigma/dpack/internal/streamio"
)

// visitFunc receives each decoded record. For regular and duplicate records
// content yields exactly rec.Size bytes; it need not be drained.
type visitFunc func(rec Record, content io.Reader) error

// scan decodes the archive behind r record by record, tracking the directory
// stack, and stops at the first malformed record or visit error.
func scan(ctx context.Context, r *streamio.Reader, visit visitFunc) error {
	dec := entry.NewDecoder(r)
	var dirs []string
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		rec := Record{Type: h.Type, Offset: h.Offset, Depth: len(dirs)}
		if h.Type != entry.TypeLeaveDirectory {
			rec.Path = path.Join(path.Join(dirs...), h.Name)
		}

		switch h.Type {
		case entry.TypeLeaveDirectory:
			rec.Decrease, err = dec.DepthDecrease()
			if err != nil {
				return err
			}
			if rec.Decrease > len(dirs) {
				return &entry.FormatError{
					Offset: h.Offset,
					Reason: fmt.Sprintf("depth decrease %d leaves the archive root at depth %d", rec.Decrease, len(dirs)),
				}
			}
			if err := visit(rec, nil); err != nil {
				return err
			}
			dirs = dirs[:len(dirs)-rec.Decrease]

		case entry.TypeDirectory:
			if err := visit(rec, nil); err != nil {
				return err
			}
			dirs = append(dirs, h.Name)

		case entry.TypeSymlink:
			rec.Target, err = dec.Target()
			if err != nil {
				return err
			}
			if err := visit(rec, nil); err != nil {
				return err
			}

		case entry.TypeRegular:
			if err := scanContent(r, dec, &rec, r.Size(), visit); err != nil {
				return err
			}

		case entry.TypeDuplicate:
			if err := scanDuplicate(r, dec, &rec, visit); err != nil {
				return err
			}
		}
	}
}

// scanContent reads a length field at the current offset and hands the
// content region that follows to visit. The region must end at or before
// limit. On return r is positioned just past the region.
func scanContent(r *streamio.Reader, dec *entry.Decoder, rec *Record, limit int64, visit visitFunc) error {
	lenOffset := r.Offset()
	size, err := dec.ContentLen()
	if err != nil {
		return err
	}
	start := r.Offset()
	if !sizing.Fits(start, size, limit) {
		return &entry.FormatError{
			Offset: lenOffset,
			Reason: fmt.Sprintf("content of %d bytes runs past offset %d", size, limit),
		}
	}
	rec.Size = size
	if err := visit(*rec, &contentReader{r: r, left: size, offset: start}); err != nil {
		return err
	}
	return r.Seek(start + size)
}

// scanDuplicate replays the content a duplicate record refers to and then
// restores the read position.
func scanDuplicate(r *streamio.Reader, dec *entry.Decoder, rec *Record, visit visitFunc) error {
	src, err := dec.DuplicateOffset()
	if err != nil {
		return err
	}
	if src < entry.MinContentOffset || src >= rec.Offset {
		return &entry.FormatError{
			Offset: rec.Offset,
			Reason: fmt.Sprintf("duplicate offset %d does not refer to earlier content", src),
		}
	}
	rec.Source = src
	resume := r.Offset()
	if err := r.Seek(src); err != nil {
		return err
	}
	// The original content must lie entirely before this record.
	if err := scanContent(r, dec, rec, rec.Offset, visit); err != nil {
		return err
	}
	return r.Seek(resume)
}

// contentReader yields a content region and reports a short archive as a
// format error.
type contentReader struct {
	r      io.Reader
	left   int64
	offset int64
}

func (c *contentReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	c.offset += int64(n)
	if errors.Is(err, io.EOF) && c.left > 0 {
		return n, &entry.FormatError{Offset: c.offset, Reason: "unexpected end of archive reading content"}
	}
	if c.left == 0 && errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}
