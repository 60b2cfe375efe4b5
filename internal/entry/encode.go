package entry

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Field limits and fixed record sizes.
const (
	MaxNameLen       = math.MaxUint16
	MaxTargetLen     = math.MaxUint16
	MaxContentLen    = math.MaxUint32
	MaxDepthDecrease = math.MaxUint16

	// HeaderOverhead is the size of a header without its name bytes.
	HeaderOverhead = 1 + 2

	// ContentLenSize is the size of a regular record's length field.
	ContentLenSize = 4

	// DuplicateSize is the size of a duplicate record's payload.
	DuplicateSize = 8

	// LeaveDirectorySize is the full size of a leave-directory record.
	LeaveDirectorySize = 1 + 2

	// MinContentOffset is the smallest offset a content_len field can have:
	// it is preceded by at least a type byte, a name length and one name byte.
	MinContentOffset = HeaderOverhead + 1
)

// HeaderSize returns the encoded size of a header carrying name.
func HeaderSize(name string) int64 {
	return int64(HeaderOverhead + len(name))
}

// CheckName validates name against the header limits.
func CheckName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrFormat)
	}
	if len(name) > MaxNameLen {
		return &LimitError{Field: "name", Len: uint64(len(name)), Max: MaxNameLen}
	}
	return nil
}

// CheckContentLen validates a regular file size against the u32 length field.
func CheckContentLen(size int64) error {
	if size < 0 {
		return fmt.Errorf("negative content length %d", size)
	}
	if uint64(size) > MaxContentLen {
		return &LimitError{Field: "content", Len: uint64(size), Max: MaxContentLen}
	}
	return nil
}

// AppendHeader appends a header for a record of type t. LeaveDirectory has
// no header; use AppendLeaveDirectory.
func AppendHeader(dst []byte, t Type, name string) ([]byte, error) {
	if t == TypeLeaveDirectory || !t.Stored() {
		return dst, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if err := CheckName(name); err != nil {
		return dst, err
	}
	dst = append(dst, byte(t))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(name))) //nolint:gosec // checked by CheckName
	return append(dst, name...), nil
}

// AppendContentLen appends a regular record's length field.
func AppendContentLen(dst []byte, size int64) ([]byte, error) {
	if err := CheckContentLen(size); err != nil {
		return dst, err
	}
	return binary.LittleEndian.AppendUint32(dst, uint32(size)), nil //nolint:gosec // checked above
}

// AppendDuplicate appends a duplicate record's payload.
func AppendDuplicate(dst []byte, contentOffset int64) ([]byte, error) {
	if contentOffset < MinContentOffset {
		return dst, fmt.Errorf("invalid duplicate offset %d", contentOffset)
	}
	return binary.LittleEndian.AppendUint64(dst, uint64(contentOffset)), nil
}

// AppendTarget appends a symlink record's length-prefixed literal target.
func AppendTarget(dst []byte, target string) ([]byte, error) {
	if len(target) > MaxTargetLen {
		return dst, &LimitError{Field: "target", Len: uint64(len(target)), Max: MaxTargetLen}
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(target))) //nolint:gosec // checked above
	return append(dst, target...), nil
}

// AppendLeaveDirectory appends the records that pop decrease levels. A
// decrease wider than the u16 field is split over several records; zero
// appends nothing.
func AppendLeaveDirectory(dst []byte, decrease int) []byte {
	for decrease > 0 {
		n := min(decrease, MaxDepthDecrease)
		dst = append(dst, byte(TypeLeaveDirectory))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(n)) //nolint:gosec // bounded by MaxDepthDecrease
		decrease -= n
	}
	return dst
}
