package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// ErrEscapesRoot is returned when a path below a guarded root passes
// through a symlink.
var ErrEscapesRoot = errors.New("path escapes root through a symlink")

// Guard confines writes to the tree below root. Every directory between the
// root and a written node must be a real directory, and regular files are
// never written through a symlink. Directories already verified are cached.
type Guard struct {
	fs   billy.Filesystem
	root string
	dirs map[string]struct{}
}

// NewGuard returns a guard for root on fsys. root itself may be a symlink.
func NewGuard(fsys billy.Filesystem, root string) *Guard {
	return &Guard{fs: fsys, root: root, dirs: make(map[string]struct{})}
}

// Path returns the filesystem path of the slash-separated rel after checking
// its parents. Use it for nodes that must not already exist.
func (g *Guard) Path(rel string) (string, error) {
	if err := g.parents(rel); err != nil {
		return "", err
	}
	return g.join(rel), nil
}

// File returns the path for a regular file rel. An existing file is
// allowed; an existing symlink is not.
func (g *Guard) File(rel string) (string, error) {
	p, err := g.Path(rel)
	if err != nil {
		return "", err
	}
	info, err := g.fs.Lstat(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return p, nil
	case err != nil:
		return "", err
	case info.Mode()&fs.ModeSymlink != 0:
		return "", fmt.Errorf("%s: %w", rel, ErrEscapesRoot)
	}
	return p, nil
}

// Dir creates the directory rel unless it already exists as a real
// directory, and returns its path.
func (g *Guard) Dir(rel string) (string, error) {
	p, err := g.Path(rel)
	if err != nil {
		return "", err
	}
	if _, err := g.fs.Lstat(p); errors.Is(err, os.ErrNotExist) {
		if err := g.fs.MkdirAll(p, 0o755); err != nil {
			return "", err
		}
	}
	if err := g.verify(rel); err != nil {
		return "", err
	}
	return p, nil
}

func (g *Guard) parents(rel string) error {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return nil
	}
	if _, ok := g.dirs[dir]; ok {
		return nil
	}
	if err := g.parents(dir); err != nil {
		return err
	}
	return g.verify(dir)
}

func (g *Guard) verify(rel string) error {
	info, err := g.fs.Lstat(g.join(rel))
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return fmt.Errorf("%s: %w", rel, ErrEscapesRoot)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", rel, ErrNotDirectory)
	}
	g.dirs[rel] = struct{}{}
	return nil
}

func (g *Guard) join(rel string) string {
	return g.fs.Join(g.root, filepath.FromSlash(rel))
}
