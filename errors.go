package dpack

import (
	"github.com/meigma/dpack/internal/entry"
	"github.com/meigma/dpack/internal/fsys"
)

// Errors re-exported from internal packages.
var (
	// ErrFormat is matched by every error caused by malformed or truncated
	// archive content.
	ErrFormat = entry.ErrFormat

	// ErrLimit is matched when a name, symlink target or file content is too
	// long for its length field.
	ErrLimit = entry.ErrLimit

	// ErrUnsupportedType is returned for nodes that cannot be archived, such
	// as devices, FIFOs and sockets.
	ErrUnsupportedType = entry.ErrUnsupportedType

	// ErrNotDirectory is returned when the pack source is not a directory, or
	// when Unpack finds a non-directory where it needs one.
	ErrNotDirectory = fsys.ErrNotDirectory

	// ErrEscapesRoot is returned when Unpack would write through a symlink.
	ErrEscapesRoot = fsys.ErrEscapesRoot
)

type (
	// FormatError describes malformed archive content and the offset at
	// which it was found. It matches ErrFormat.
	FormatError = entry.FormatError

	// LimitError describes a length that does not fit its length field. It
	// matches ErrLimit.
	LimitError = entry.LimitError
)
