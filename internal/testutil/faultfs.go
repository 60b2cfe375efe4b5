package testutil

import (
	"io/fs"
	"os"

	"github.com/go-git/go-billy/v5"
)

// FaultFS wraps a filesystem and injects failures keyed by full path.
type FaultFS struct {
	billy.Filesystem

	// OpenErr makes Open fail for the listed paths.
	OpenErr map[string]error

	// Sizes overrides the size reported by ReadDir and Lstat without
	// touching the content actually stored.
	Sizes map[string]int64

	// Zeros makes Open return that many zero bytes for the listed paths,
	// with ReadDir and Lstat reporting the same size.
	Zeros map[string]int64

	// Sinks serves OpenFile for the listed paths.
	Sinks map[string]*SinkFile
}

// Open implements billy.Filesystem.
func (f *FaultFS) Open(filename string) (billy.File, error) {
	if err, ok := f.OpenErr[filename]; ok {
		return nil, &os.PathError{Op: "open", Path: filename, Err: err}
	}
	if size, ok := f.Zeros[filename]; ok {
		return &zeroFile{name: filename, size: size}, nil
	}
	return f.Filesystem.Open(filename)
}

// OpenFile implements billy.Filesystem.
func (f *FaultFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if s, ok := f.Sinks[filename]; ok {
		if flag&os.O_TRUNC != 0 {
			s.head, s.size, s.pos = nil, 0, 0
		}
		return s, nil
	}
	return f.Filesystem.OpenFile(filename, flag, perm)
}

func (f *FaultFS) size(filename string) (int64, bool) {
	if size, ok := f.Sizes[filename]; ok {
		return size, true
	}
	size, ok := f.Zeros[filename]
	return size, ok
}

// ReadDir implements billy.Filesystem.
func (f *FaultFS) ReadDir(path string) ([]os.FileInfo, error) {
	infos, err := f.Filesystem.ReadDir(path)
	if err != nil {
		return nil, err
	}
	for i, info := range infos {
		if size, ok := f.size(f.Join(path, info.Name())); ok {
			infos[i] = sizedInfo{FileInfo: info, size: size}
		}
	}
	return infos, nil
}

// Lstat implements billy.Filesystem.
func (f *FaultFS) Lstat(filename string) (os.FileInfo, error) {
	info, err := f.Filesystem.Lstat(filename)
	if err != nil {
		return nil, err
	}
	if size, ok := f.size(filename); ok {
		return sizedInfo{FileInfo: info, size: size}, nil
	}
	return info, nil
}

type sizedInfo struct {
	fs.FileInfo
	size int64
}

func (s sizedInfo) Size() int64 { return s.size }
