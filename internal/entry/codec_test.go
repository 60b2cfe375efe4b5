package entry

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type byteSource struct {
	*bytes.Reader
}

func (s byteSource) Offset() int64 {
	return s.Size() - int64(s.Len())
}

func newDecoder(data []byte) *Decoder {
	return NewDecoder(byteSource{bytes.NewReader(data)})
}

func TestAppendHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		typ   Type
		entry string
		want  []byte
	}{
		{"directory", TypeDirectory, "a", []byte{3, 1, 0, 'a'}},
		{"regular", TypeRegular, "f.txt", []byte{1, 5, 0, 'f', '.', 't', 'x', 't'}},
		{"duplicate", TypeDuplicate, "g", []byte{2, 1, 0, 'g'}},
		{"symlink", TypeSymlink, "b", []byte{5, 1, 0, 'b'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := AppendHeader(nil, tt.typ, tt.entry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(len(got)), HeaderSize(tt.entry))
		})
	}
}

func TestAppendHeaderRejects(t *testing.T) {
	t.Parallel()

	_, err := AppendHeader(nil, TypeLeaveDirectory, "x")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = AppendHeader(nil, TypeFIFO, "x")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = AppendHeader(nil, TypeRegular, "")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestNameLimit(t *testing.T) {
	t.Parallel()

	longest := strings.Repeat("n", MaxNameLen)
	got, err := AppendHeader(nil, TypeRegular, longest)
	require.NoError(t, err)
	assert.Len(t, got, HeaderOverhead+MaxNameLen)
	assert.Equal(t, []byte{1, 0xff, 0xff}, got[:3])

	_, err = AppendHeader(nil, TypeRegular, longest+"n")
	require.ErrorIs(t, err, ErrLimit)
	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "name", limitErr.Field)
	assert.Equal(t, uint64(MaxNameLen+1), limitErr.Len)
}

func TestContentLenLimit(t *testing.T) {
	t.Parallel()

	got, err := AppendContentLen(nil, MaxContentLen)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, got)

	_, err = AppendContentLen(nil, MaxContentLen+1)
	assert.ErrorIs(t, err, ErrLimit)

	_, err = AppendContentLen(nil, -1)
	assert.Error(t, err)
}

func TestTargetLimit(t *testing.T) {
	t.Parallel()

	got, err := AppendTarget(nil, "a/f.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 'a', '/', 'f', '.', 't', 'x', 't'}, got)

	_, err = AppendTarget(nil, strings.Repeat("t", MaxTargetLen))
	require.NoError(t, err)

	_, err = AppendTarget(nil, strings.Repeat("t", MaxTargetLen+1))
	assert.ErrorIs(t, err, ErrLimit)
}

func TestAppendDuplicate(t *testing.T) {
	t.Parallel()

	got, err := AppendDuplicate(nil, 12)
	require.NoError(t, err)
	assert.Equal(t, []byte{12, 0, 0, 0, 0, 0, 0, 0}, got)

	_, err = AppendDuplicate(nil, 0)
	assert.Error(t, err)
}

func TestAppendLeaveDirectory(t *testing.T) {
	t.Parallel()

	assert.Empty(t, AppendLeaveDirectory(nil, 0))
	assert.Equal(t, []byte{4, 3, 0}, AppendLeaveDirectory(nil, 3))
	assert.Equal(t, []byte{4, 0xff, 0xff}, AppendLeaveDirectory(nil, MaxDepthDecrease))
	assert.Equal(t, []byte{4, 0xff, 0xff, 4, 2, 0}, AppendLeaveDirectory(nil, MaxDepthDecrease+2))
}

func TestTypeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode fs.FileMode
		want Type
	}{
		{0o644, TypeRegular},
		{fs.ModeDir | 0o755, TypeDirectory},
		{fs.ModeSymlink | 0o777, TypeSymlink},
		{fs.ModeSymlink | fs.ModeDir, TypeSymlink},
		{fs.ModeDevice, TypeBlock},
		{fs.ModeDevice | fs.ModeCharDevice, TypeCharacter},
		{fs.ModeNamedPipe, TypeFIFO},
		{fs.ModeSocket, TypeSocket},
		{fs.ModeIrregular, TypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.mode), "mode %v", tt.mode)
	}
}

func TestDecodeRecords(t *testing.T) {
	t.Parallel()

	var data []byte
	data, _ = AppendHeader(data, TypeDirectory, "a")
	data, _ = AppendHeader(data, TypeRegular, "f.txt")
	data, _ = AppendContentLen(data, 2)
	data = append(data, "hi"...)
	data, _ = AppendHeader(data, TypeDuplicate, "g.txt")
	data, _ = AppendDuplicate(data, 12)
	data = AppendLeaveDirectory(data, 1)
	data, _ = AppendHeader(data, TypeSymlink, "b")
	data, _ = AppendTarget(data, "a/f.txt")

	d := newDecoder(data)

	h, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, Header{Type: TypeDirectory, Name: "a", Offset: 0}, h)

	h, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, Header{Type: TypeRegular, Name: "f.txt", Offset: 4}, h)
	n, err := d.ContentLen()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	content := make([]byte, n)
	_, err = io.ReadFull(d.src, content)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(content))

	h, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeDuplicate, h.Type)
	off, err := d.DuplicateOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(12), off)

	h, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, Header{Type: TypeLeaveDirectory, Offset: 34}, h)
	dec, err := d.DepthDecrease()
	require.NoError(t, err)
	assert.Equal(t, 1, dec)

	h, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", h.Name)
	target, err := d.Target()
	require.NoError(t, err)
	assert.Equal(t, "a/f.txt", target)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		read func(d *Decoder) error
	}{
		{"unknown type", []byte{9, 1, 0, 'x'}, nextErr},
		{"zero type", []byte{0}, nextErr},
		{"empty name", []byte{1, 0, 0}, nextErr},
		{"dot name", []byte{3, 1, 0, '.'}, nextErr},
		{"dotdot name", []byte{3, 2, 0, '.', '.'}, nextErr},
		{"slash in name", []byte{1, 3, 0, 'a', '/', 'b'}, nextErr},
		{"short name length", []byte{1, 1}, nextErr},
		{"short name", []byte{1, 4, 0, 'a', 'b'}, nextErr},
		{"zero depth decrease", []byte{4, 0, 0}, func(d *Decoder) error {
			if _, err := d.Next(); err != nil {
				return err
			}
			_, err := d.DepthDecrease()
			return err
		}},
		{"short depth decrease", []byte{4, 1}, func(d *Decoder) error {
			if _, err := d.Next(); err != nil {
				return err
			}
			_, err := d.DepthDecrease()
			return err
		}},
		{"short content length", []byte{1, 1, 0, 'f', 2, 0}, func(d *Decoder) error {
			if _, err := d.Next(); err != nil {
				return err
			}
			_, err := d.ContentLen()
			return err
		}},
		{"short duplicate offset", []byte{2, 1, 0, 'f', 2, 0, 0}, func(d *Decoder) error {
			if _, err := d.Next(); err != nil {
				return err
			}
			_, err := d.DuplicateOffset()
			return err
		}},
		{"short target", []byte{5, 1, 0, 'l', 3, 0, 'a'}, func(d *Decoder) error {
			if _, err := d.Next(); err != nil {
				return err
			}
			_, err := d.Target()
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.read(newDecoder(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
			var formatErr *FormatError
			assert.True(t, errors.As(err, &formatErr))
		})
	}
}

func nextErr(d *Decoder) error {
	_, err := d.Next()
	return err
}

func TestDecodeEmptyStream(t *testing.T) {
	t.Parallel()

	_, err := newDecoder(nil).Next()
	assert.Equal(t, io.EOF, err)
}

func TestFormatErrorMessage(t *testing.T) {
	t.Parallel()

	err := &FormatError{Offset: 7, Reason: "zero depth decrease"}
	assert.Equal(t, "archive format error at offset 7: zero depth decrease", err.Error())

	err = &FormatError{Offset: -1, Reason: "bad"}
	assert.Equal(t, "archive format error: bad", err.Error())
}
