package streamio

import (
	"bufio"
	"fmt"
	"io"
)

// WriteFile is the archive file as seen by Writer.
type WriteFile interface {
	io.Writer
	io.Seeker
	Truncate(size int64) error
}

// Writer tracks the logical offset of an archive being written and groups
// writes into entries that are either committed or rolled back.
type Writer struct {
	f    WriteFile
	bw   *bufio.Writer
	pos  int64
	mark int64
}

// NewWriter returns a writer appending at the current offset of f.
func NewWriter(f WriteFile, bufSize int) (*Writer, error) {
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locate archive cursor: %w", err)
	}
	return &Writer{f: f, bw: bufio.NewWriterSize(f, bufSize), pos: pos, mark: pos}, nil
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.bw.Write(p)
	w.pos += int64(n)
	return n, err
}

// Offset returns the logical offset of the next byte written.
func (w *Writer) Offset() int64 {
	return w.pos
}

// Committed returns the offset at the end of the last committed entry.
func (w *Writer) Committed() int64 {
	return w.mark
}

// Commit flushes the current entry to the file and makes it permanent.
func (w *Writer) Commit() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	w.mark = w.pos
	return nil
}

// Rollback discards everything written since the last commit. Bytes the
// buffer already spilled to the file stay there until they are overwritten
// or cut off by Finish.
func (w *Writer) Rollback() error {
	w.bw.Reset(w.f)
	if _, err := w.f.Seek(w.mark, io.SeekStart); err != nil {
		return fmt.Errorf("rewind archive to offset %d: %w", w.mark, err)
	}
	w.pos = w.mark
	return nil
}

// Finish rolls back any uncommitted entry and truncates the file to the end
// of the last committed one.
func (w *Writer) Finish() error {
	if w.pos != w.mark || w.bw.Buffered() > 0 {
		if err := w.Rollback(); err != nil {
			return err
		}
	}
	if err := w.f.Truncate(w.mark); err != nil {
		return fmt.Errorf("truncate archive to offset %d: %w", w.mark, err)
	}
	return nil
}
