package dpack

import (
	"github.com/opencontainers/go-digest"

	"github.com/meigma/dpack/internal/entry"
)

// EntryType is the type tag of an archive record.
type EntryType = entry.Type

// Record types stored in archives.
const (
	TypeRegular        = entry.TypeRegular
	TypeDuplicate      = entry.TypeDuplicate
	TypeDirectory      = entry.TypeDirectory
	TypeLeaveDirectory = entry.TypeLeaveDirectory
	TypeSymlink        = entry.TypeSymlink
)

// Stats summarizes a Pack or Unpack call.
type Stats struct {
	// Entries is the number of directory, regular, duplicate and symlink
	// records written or read. Leave-directory records are not counted.
	Entries int

	Regular     int
	Duplicates  int
	Directories int
	Symlinks    int

	// Bytes is the file content stored by Pack, or written to disk by
	// Unpack. Unpack counts duplicate content every time it is materialized.
	Bytes uint64

	// Failed lists the entries Pack skipped. Always empty for Unpack.
	Failed []FailedEntry

	// Digest is the SHA-256 digest of the finished archive. Set by Pack.
	Digest digest.Digest
}

// FailedEntry is a source node Pack could not store.
type FailedEntry struct {
	// Path is slash-separated and relative to the source root.
	Path string
	Err  error
}

// Record describes one archive record as decoded by List.
type Record struct {
	Type EntryType

	// Path is the slash-separated path relative to the archive root. Empty
	// for leave-directory records.
	Path string

	// Depth is the nesting level of the record; entries directly below the
	// root are at depth 0.
	Depth int

	// Offset is the archive offset of the record's type byte.
	Offset int64

	// Size is the content length of a regular or duplicate record.
	Size int64

	// Source is the content offset a duplicate record refers to.
	Source int64

	// Target is the literal target of a symlink record.
	Target string

	// Decrease is the number of levels a leave-directory record pops.
	Decrease int
}

func (s *Stats) count(t EntryType) {
	s.Entries++
	switch t {
	case TypeRegular:
		s.Regular++
	case TypeDuplicate:
		s.Duplicates++
	case TypeDirectory:
		s.Directories++
	case TypeSymlink:
		s.Symlinks++
	}
}
