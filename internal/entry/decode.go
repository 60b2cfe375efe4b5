package entry

import (
	"encoding/binary"
	"errors"
	"io"
	"strings"

	"github.com/meigma/dpack/internal/sizing"
)

// Source is the stream a Decoder reads from. Offset reports the position of
// the next byte Read will return.
type Source interface {
	io.Reader
	Offset() int64
}

// Header is a decoded record header.
type Header struct {
	Type Type

	// Name is empty for LeaveDirectory.
	Name string

	// Offset is the archive offset of the record's type byte.
	Offset int64
}

// Decoder reads records field by field. The caller drives the payload reads
// according to the header type.
type Decoder struct {
	src     Source
	scratch [8]byte
}

// NewDecoder returns a decoder reading from src.
func NewDecoder(src Source) *Decoder {
	return &Decoder{src: src}
}

// Next reads the next record header. It returns io.EOF, unwrapped, only when
// the stream ends exactly at a record boundary.
func (d *Decoder) Next() (Header, error) {
	off := d.src.Offset()
	n, err := io.ReadFull(d.src, d.scratch[:1])
	if n == 0 && errors.Is(err, io.EOF) {
		return Header{}, io.EOF
	}
	if err != nil {
		return Header{}, d.readErr(off, "type", err)
	}
	h := Header{Type: Type(d.scratch[0]), Offset: off}
	if !h.Type.Stored() {
		return Header{}, formatErrorf(off, "unsupported entry type %s", h.Type)
	}
	if h.Type == TypeLeaveDirectory {
		return h, nil
	}
	name, err := d.string16("name")
	if err != nil {
		return Header{}, err
	}
	if name == "" {
		return Header{}, formatErrorf(off, "empty name")
	}
	if !ValidName(name) {
		return Header{}, formatErrorf(off, "invalid name %q", name)
	}
	h.Name = name
	return h, nil
}

// DepthDecrease reads a leave-directory payload. Zero is rejected.
func (d *Decoder) DepthDecrease() (int, error) {
	off := d.src.Offset()
	v, err := d.uint16("depth decrease")
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, formatErrorf(off, "zero depth decrease")
	}
	return int(v), nil
}

// ContentLen reads a regular record's length field.
func (d *Decoder) ContentLen() (int64, error) {
	off := d.src.Offset()
	if _, err := io.ReadFull(d.src, d.scratch[:4]); err != nil {
		return 0, d.readErr(off, "content length", err)
	}
	return int64(binary.LittleEndian.Uint32(d.scratch[:4])), nil
}

// DuplicateOffset reads a duplicate record's payload.
func (d *Decoder) DuplicateOffset() (int64, error) {
	off := d.src.Offset()
	if _, err := io.ReadFull(d.src, d.scratch[:8]); err != nil {
		return 0, d.readErr(off, "duplicate offset", err)
	}
	raw := binary.LittleEndian.Uint64(d.scratch[:8])
	v, err := sizing.ToInt64(raw)
	if err != nil {
		return 0, formatErrorf(off, "duplicate offset %d out of range", raw)
	}
	return v, nil
}

// Target reads a symlink record's literal target.
func (d *Decoder) Target() (string, error) {
	return d.string16("symlink target")
}

func (d *Decoder) uint16(field string) (uint16, error) {
	off := d.src.Offset()
	if _, err := io.ReadFull(d.src, d.scratch[:2]); err != nil {
		return 0, d.readErr(off, field, err)
	}
	return binary.LittleEndian.Uint16(d.scratch[:2]), nil
}

func (d *Decoder) string16(field string) (string, error) {
	n, err := d.uint16(field + " length")
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	off := d.src.Offset()
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.src, buf); err != nil {
		return "", d.readErr(off, field, err)
	}
	return string(buf), nil
}

// readErr maps short reads to format errors and passes other failures through.
func (d *Decoder) readErr(off int64, field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return formatErrorf(off, "unexpected end of archive reading %s", field)
	}
	return err
}

// ValidName reports whether name is a single, non-special path element.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\x00")
}
