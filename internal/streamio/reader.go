package streamio

import (
	"bufio"
	"fmt"
	"io"
)

// Reader tracks the logical offset of an archive being read.
type Reader struct {
	f    io.ReadSeeker
	br   *bufio.Reader
	pos  int64
	size int64
}

// NewReader returns a reader positioned at the start of f.
func NewReader(f io.ReadSeeker, bufSize int) (*Reader, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measure archive: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind archive: %w", err)
	}
	return &Reader{f: f, br: bufio.NewReaderSize(f, bufSize), size: size}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.br.Read(p)
	r.pos += int64(n)
	return n, err
}

// Offset returns the logical offset of the next byte Read returns.
func (r *Reader) Offset() int64 {
	return r.pos
}

// Size returns the archive size measured when the reader was created.
func (r *Reader) Size() int64 {
	return r.size
}

// Seek moves the cursor to the absolute offset off.
func (r *Reader) Seek(off int64) error {
	if off == r.pos {
		return nil
	}
	// Short forward moves stay inside the buffer.
	if d := off - r.pos; d > 0 && d <= int64(r.br.Buffered()) {
		n, err := r.br.Discard(int(d))
		r.pos += int64(n)
		return err
	}
	if _, err := r.f.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek archive to offset %d: %w", off, err)
	}
	r.br.Reset(r.f)
	r.pos = off
	return nil
}
