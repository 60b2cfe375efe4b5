// Package dedup finds regular files whose content is already stored in the
// archive being written.
package dedup

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/dpack/internal/entry"
)

// DefaultChunkSize is the comparison buffer size used when none is given.
const DefaultChunkSize = 64 * 1024

// OpenFunc opens a source file for reading.
type OpenFunc func(path string) (io.ReadCloser, error)

// Candidate is a stored original sharing a digest with later files.
type Candidate struct {
	Path string

	// Offset is the archive offset of the original's content_len field.
	Offset int64
}

// Index maps content digests to the originals stored under them. A digest
// only narrows the search; Lookup confirms every candidate byte for byte
// before reporting a match.
type Index struct {
	open       OpenFunc
	candidates map[uint64][]Candidate
	bufA, bufB []byte
	count      int
}

// New returns an empty index that reads files through open.
func New(open OpenFunc, chunkSize int) *Index {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Index{
		open:       open,
		candidates: make(map[uint64][]Candidate),
		bufA:       make([]byte, chunkSize),
		bufB:       make([]byte, chunkSize),
	}
}

// Len returns the number of recorded originals.
func (x *Index) Len() int {
	return x.count
}

// Candidates returns the originals recorded under sum.
func (x *Index) Candidates(sum uint64) []Candidate {
	return x.candidates[sum]
}

// Lookup returns the content offset of the first recorded original whose
// bytes equal the file at path, or 0 when there is none. An original that
// can no longer be read is treated as different; a failure reading path
// itself is returned.
func (x *Index) Lookup(path string, sum uint64) (int64, error) {
	for _, c := range x.candidates[sum] {
		same, err := x.identical(path, c.Path)
		if err != nil {
			var cerr *candidateError
			if errors.As(err, &cerr) {
				continue
			}
			return 0, err
		}
		if same {
			return c.Offset, nil
		}
	}
	return 0, nil
}

// Record registers path as the stored original for sum. It must only be
// called once the original's entry is committed to the archive.
func (x *Index) Record(path string, sum uint64, offset int64) error {
	if offset < entry.MinContentOffset {
		return fmt.Errorf("record %s: invalid content offset %d", path, offset)
	}
	x.candidates[sum] = append(x.candidates[sum], Candidate{Path: path, Offset: offset})
	x.count++
	return nil
}

type candidateError struct {
	err error
}

func (e *candidateError) Error() string { return e.err.Error() }
func (e *candidateError) Unwrap() error { return e.err }

func (x *Index) identical(path, original string) (bool, error) {
	a, err := x.open(path)
	if err != nil {
		return false, err
	}
	defer a.Close()

	b, err := x.open(original)
	if err != nil {
		return false, &candidateError{err: err}
	}
	defer b.Close()

	return compare(a, b, x.bufA, x.bufB)
}

// Identical reports whether a and b yield the same bytes, reading both in
// chunks of len(bufA). bufA and bufB must have the same length.
func Identical(a, b io.Reader, bufA, bufB []byte) (bool, error) {
	return compare(a, b, bufA, bufB)
}

func compare(a, b io.Reader, bufA, bufB []byte) (bool, error) {
	for {
		na, errA := io.ReadFull(a, bufA)
		if errA != nil && !isEnd(errA) {
			return false, errA
		}
		nb, errB := io.ReadFull(b, bufB)
		if errB != nil && !isEnd(errB) {
			return false, &candidateError{err: errB}
		}
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA != nil || errB != nil {
			return isEnd(errA) && isEnd(errB), nil
		}
	}
}

func isEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
