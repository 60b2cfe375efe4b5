// Package fsys adapts go-billy filesystems to the operations the archive
// engine needs: a depth-reporting tree walk and symlink creation with a
// directory-symlink fallback.
package fsys

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// ErrNotDirectory is returned when a walk root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Local is the host filesystem rooted at "/". Paths given to it are
// absolute POSIX host paths; Windows volume paths are not mapped.
type Local struct {
	billy.Filesystem
}

// NewLocal returns the host filesystem.
func NewLocal() *Local {
	return &Local{Filesystem: osfs.New("/")}
}

// Symlink creates link pointing at target exactly as given. The embedded
// chroot would clean absolute targets.
func (l *Local) Symlink(target, link string) error {
	return os.Symlink(target, link)
}

// Readlink returns the literal target of link.
func (l *Local) Readlink(link string) (string, error) {
	return os.Readlink(link)
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() billy.Filesystem {
	return memfs.New()
}

type dirSymlinker interface {
	DirSymlink(target, link string) error
}

// Symlink creates link pointing at the literal target. When the plain
// symlink fails and the filesystem supports directory symlinks, it retries
// as a directory symlink before reporting the original failure.
func Symlink(fsys billy.Filesystem, target, link string) error {
	err := fsys.Symlink(target, link)
	if err == nil {
		return nil
	}
	ds, ok := fsys.(dirSymlinker)
	if !ok {
		return err
	}
	if dirErr := ds.DirSymlink(target, link); dirErr != nil {
		return fmt.Errorf("%w (directory symlink: %v)", err, dirErr)
	}
	return nil
}
