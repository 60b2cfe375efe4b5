package entry

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every error caused by malformed or truncated
	// archive content.
	ErrFormat = errors.New("archive format error")

	// ErrLimit is matched by every error caused by a name, target or content
	// length that does not fit its length field.
	ErrLimit = errors.New("length limit exceeded")

	// ErrUnsupportedType is returned when a node type cannot be stored.
	ErrUnsupportedType = errors.New("unsupported entry type")
)

// FormatError describes malformed archive content.
type FormatError struct {
	// Offset is the archive offset at which the problem was detected, or -1
	// when unknown.
	Offset int64
	Reason string
}

func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%v: %s", ErrFormat, e.Reason)
	}
	return fmt.Sprintf("%v at offset %d: %s", ErrFormat, e.Offset, e.Reason)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErrorf(offset int64, format string, args ...any) error {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// LimitError describes a length that does not fit its length field.
type LimitError struct {
	// Field names the length that overflowed ("name", "target", "content").
	Field string
	Len   uint64
	Max   uint64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v: %s length %d exceeds %d", ErrLimit, e.Field, e.Len, e.Max)
}

// Is reports whether target is ErrLimit.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimit
}
