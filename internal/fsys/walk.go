package fsys

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
)

// SkipDir returned from a WalkFunc for a directory node prevents the walk
// from descending into it. Siblings are still visited.
var SkipDir = fs.SkipDir

// Node is one filesystem node met during a walk.
type Node struct {
	// Path is the node's path on the walked filesystem.
	Path string

	// Rel is the slash-separated path relative to the walk root.
	Rel string

	Name string

	// Depth is the nesting level below the root; children of the root are
	// at depth 0.
	Depth int

	// Info describes the node itself; symlinks are not followed.
	Info fs.FileInfo
}

// WalkFunc is called once per node with a nil error, in pre-order. If reading
// a directory's children fails it is called a second time for that
// directory with the error; returning nil continues with the siblings.
type WalkFunc func(n Node, err error) error

type frame struct {
	dir      string
	rel      string
	depth    int
	children []os.FileInfo
	next     int
}

// Walk visits every node below root in depth-first pre-order, siblings
// sorted by name. The root itself is not visited and symlinked directories
// are not entered.
func Walk(fsys billy.Filesystem, root string, fn WalkFunc) error {
	info, err := fsys.Lstat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}
	children, err := readDir(fsys, root)
	if err != nil {
		return err
	}

	stack := []frame{{dir: root, children: children}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.children[top.next]
		top.next++

		name := filepath.Base(child.Name())
		n := Node{
			Path:  fsys.Join(top.dir, name),
			Rel:   path.Join(top.rel, name),
			Name:  name,
			Depth: top.depth,
			Info:  child,
		}
		if err := fn(n, nil); err != nil {
			if err == SkipDir { //nolint:errorlint // sentinel returned directly by callers
				continue
			}
			return err
		}
		if !child.IsDir() || child.Mode()&fs.ModeSymlink != 0 {
			continue
		}

		grandchildren, err := readDir(fsys, n.Path)
		if err != nil {
			if err := fn(n, err); err != nil && err != SkipDir { //nolint:errorlint // see above
				return err
			}
			continue
		}
		stack = append(stack, frame{dir: n.Path, rel: n.Rel, depth: n.Depth + 1, children: grandchildren})
	}
	return nil
}

func readDir(fsys billy.Filesystem, dir string) ([]os.FileInfo, error) {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}
