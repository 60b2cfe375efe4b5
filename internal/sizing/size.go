// Package sizing provides overflow-safe size arithmetic for archive offsets.
package sizing

import (
	"errors"
	"math"
)

// ErrOverflow indicates an offset or size left the representable range.
var ErrOverflow = errors.New("size overflow")

// ToInt64 converts a uint64 to int64, returning ErrOverflow if it doesn't fit.
func ToInt64(size uint64) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, ErrOverflow
	}
	return int64(size), nil
}

// AddInt64 adds two non-negative int64 values, returning ErrOverflow if the
// sum does not fit or either operand is negative.
func AddInt64(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Fits reports whether the region [off, off+n) lies inside [0, size).
func Fits(off, n, size int64) bool {
	end, err := AddInt64(off, n)
	return err == nil && end <= size
}
