package entry

import (
	"io/fs"
	"strconv"
)

// Type is the one-byte tag that starts every record.
type Type uint8

// Record and node types. Only Regular, Duplicate, Directory, LeaveDirectory
// and Symlink are ever stored; the rest classify filesystem nodes that the
// writer rejects.
const (
	TypeUnknown        Type = 0
	TypeRegular        Type = 1
	TypeDuplicate      Type = 2
	TypeDirectory      Type = 3
	TypeLeaveDirectory Type = 4
	TypeSymlink        Type = 5
	TypeBlock          Type = 6
	TypeCharacter      Type = 7
	TypeFIFO           Type = 8
	TypeSocket         Type = 9
)

// String returns the string representation of the type.
func (t Type) String() string {
	switch t {
	case TypeUnknown:
		return "unknown"
	case TypeRegular:
		return "regular"
	case TypeDuplicate:
		return "duplicate"
	case TypeDirectory:
		return "directory"
	case TypeLeaveDirectory:
		return "leave-directory"
	case TypeSymlink:
		return "symlink"
	case TypeBlock:
		return "block"
	case TypeCharacter:
		return "character"
	case TypeFIFO:
		return "fifo"
	case TypeSocket:
		return "socket"
	default:
		return "invalid(" + strconv.Itoa(int(t)) + ")"
	}
}

// Stored reports whether records of this type may appear in an archive.
func (t Type) Stored() bool {
	switch t {
	case TypeRegular, TypeDuplicate, TypeDirectory, TypeLeaveDirectory, TypeSymlink:
		return true
	default:
		return false
	}
}

// TypeOf classifies a node by its own mode bits. A symlink is classified as
// a symlink regardless of what it points to.
func TypeOf(mode fs.FileMode) Type {
	switch {
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	case mode.IsDir():
		return TypeDirectory
	case mode.IsRegular():
		return TypeRegular
	case mode&fs.ModeDevice != 0 && mode&fs.ModeCharDevice != 0:
		return TypeCharacter
	case mode&fs.ModeDevice != 0:
		return TypeBlock
	case mode&fs.ModeNamedPipe != 0:
		return TypeFIFO
	case mode&fs.ModeSocket != 0:
		return TypeSocket
	default:
		return TypeUnknown
	}
}
