package testutil

import (
	"errors"
	"io"
	"os"
)

var errReadOnly = errors.New("read-only file")

// seekPos resolves a Seek request against the current position and size.
func seekPos(pos, size, offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += pos
	case io.SeekEnd:
		offset += size
	default:
		return 0, os.ErrInvalid
	}
	if offset < 0 {
		return 0, os.ErrInvalid
	}
	return offset, nil
}

// zeroFile reads as size zero bytes without storing any of them.
type zeroFile struct {
	name string
	size int64
	pos  int64
}

func (z *zeroFile) Name() string { return z.name }

func (z *zeroFile) Read(p []byte) (int, error) {
	n, err := z.ReadAt(p, z.pos)
	z.pos += int64(n)
	return n, err
}

func (z *zeroFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= z.size {
		return 0, io.EOF
	}
	n := int(min(int64(len(p)), z.size-off))
	clear(p[:n])
	return n, nil
}

func (z *zeroFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := seekPos(z.pos, z.size, offset, whence)
	if err != nil {
		return 0, err
	}
	z.pos = pos
	return pos, nil
}

func (z *zeroFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (z *zeroFile) Truncate(int64) error      { return errReadOnly }
func (z *zeroFile) Close() error              { return nil }
func (z *zeroFile) Lock() error               { return nil }
func (z *zeroFile) Unlock() error             { return nil }

// SinkFile is a writable file that tracks its size but keeps only the first
// bytes written to it. Everything past the kept head reads back as zeros.
type SinkFile struct {
	name string
	keep int64
	head []byte
	size int64
	pos  int64
}

// NewSinkFile returns an empty sink keeping at most keep bytes.
func NewSinkFile(name string, keep int) *SinkFile {
	return &SinkFile{name: name, keep: int64(keep)}
}

// Head returns the kept bytes.
func (s *SinkFile) Head() []byte { return s.head }

// Size returns the logical file size.
func (s *SinkFile) Size() int64 { return s.size }

func (s *SinkFile) Name() string { return s.name }

func (s *SinkFile) Write(p []byte) (int, error) {
	if s.pos < s.keep {
		n := min(int64(len(p)), s.keep-s.pos)
		if end := s.pos + n; end > int64(len(s.head)) {
			s.head = append(s.head, make([]byte, end-int64(len(s.head)))...)
		}
		copy(s.head[s.pos:], p[:n])
	}
	s.pos += int64(len(p))
	s.size = max(s.size, s.pos)
	return len(p), nil
}

func (s *SinkFile) Read(p []byte) (int, error) {
	n, err := s.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

func (s *SinkFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= s.size {
		return 0, io.EOF
	}
	n := int(min(int64(len(p)), s.size-off))
	clear(p[:n])
	if off < int64(len(s.head)) {
		copy(p[:n], s.head[off:])
	}
	return n, nil
}

func (s *SinkFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := seekPos(s.pos, s.size, offset, whence)
	if err != nil {
		return 0, err
	}
	s.pos = pos
	return pos, nil
}

func (s *SinkFile) Truncate(size int64) error {
	if size < 0 {
		return os.ErrInvalid
	}
	if size < int64(len(s.head)) {
		s.head = s.head[:size]
	}
	s.size = size
	return nil
}

func (s *SinkFile) Close() error  { return nil }
func (s *SinkFile) Lock() error   { return nil }
func (s *SinkFile) Unlock() error { return nil }
