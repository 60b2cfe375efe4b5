package streamio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func contents(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(data)
}

func TestWriterCommitAndRollback(t *testing.T) {
	t.Parallel()

	f := tempFile(t)
	w, err := NewWriter(f, 16)
	require.NoError(t, err)

	_, err = w.Write([]byte("first"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.Equal(t, int64(5), w.Committed())

	_, err = w.Write([]byte("discarded"))
	require.NoError(t, err)
	assert.Equal(t, int64(14), w.Offset())
	require.NoError(t, w.Rollback())
	assert.Equal(t, int64(5), w.Offset())

	_, err = w.Write([]byte("+second"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	require.NoError(t, w.Finish())

	assert.Equal(t, "first+second", contents(t, f))
}

func TestWriterRollbackAfterSpill(t *testing.T) {
	t.Parallel()

	f := tempFile(t)
	w, err := NewWriter(f, 16)
	require.NoError(t, err)

	_, err = w.Write([]byte("keep"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	// Larger than the buffer, so part of it reaches the file.
	_, err = w.Write([]byte("this entry is much longer than sixteen bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Rollback())
	require.NoError(t, w.Finish())

	assert.Equal(t, "keep", contents(t, f))
}

func TestWriterFinishDropsUncommitted(t *testing.T) {
	t.Parallel()

	f := tempFile(t)
	w, err := NewWriter(f, 4)
	require.NoError(t, err)

	_, err = w.Write([]byte("ab"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	_, err = w.Write([]byte("cdefgh"))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	assert.Equal(t, "ab", contents(t, f))
}

func TestReaderSeekAndRestore(t *testing.T) {
	t.Parallel()

	f := tempFile(t)
	_, err := f.WriteString("0123456789abcdef")
	require.NoError(t, err)

	r, err := NewReader(f, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(16), r.Size())

	buf := make([]byte, 6)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "012345", string(buf))
	assert.Equal(t, int64(6), r.Offset())

	resume := r.Offset()
	require.NoError(t, r.Seek(2))
	_, err = io.ReadFull(r, buf[:3])
	require.NoError(t, err)
	assert.Equal(t, "234", string(buf[:3]))

	require.NoError(t, r.Seek(resume))
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "6789ab", string(buf))

	require.NoError(t, r.Seek(13))
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "def", string(rest))
	assert.Equal(t, int64(16), r.Offset())
}

func TestReaderForwardSeekWithinBuffer(t *testing.T) {
	t.Parallel()

	f := tempFile(t)
	_, err := f.WriteString("abcdefgh")
	require.NoError(t, err)

	r, err := NewReader(f, 16)
	require.NoError(t, err)

	one := make([]byte, 1)
	_, err = io.ReadFull(r, one)
	require.NoError(t, err)
	require.NoError(t, r.Seek(5))
	_, err = io.ReadFull(r, one)
	require.NoError(t, err)
	assert.Equal(t, "f", string(one))
}
