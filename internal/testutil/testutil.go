// Package testutil provides tree fixtures and fault-injecting filesystems for
// tests.
package testutil

import (
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/meigma/dpack/internal/digest"
	"github.com/meigma/dpack/internal/fsys"
)

// Tree describes a directory tree fixture. Paths are slash-separated and
// relative to the fixture root; parents are created as needed.
type Tree struct {
	Dirs     []string
	Files    map[string]string
	Symlinks map[string]string
}

// Build creates tree below root on the given filesystem.
func Build(t testing.TB, bfs billy.Filesystem, root string, tree Tree) {
	t.Helper()
	require.NoError(t, bfs.MkdirAll(root, 0o755))
	for _, dir := range tree.Dirs {
		require.NoError(t, bfs.MkdirAll(bfs.Join(root, dir), 0o755))
	}
	for _, name := range sortedKeys(tree.Files) {
		p := bfs.Join(root, name)
		require.NoError(t, bfs.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, util.WriteFile(bfs, p, []byte(tree.Files[name]), 0o644))
	}
	for _, name := range sortedKeys(tree.Symlinks) {
		p := bfs.Join(root, name)
		require.NoError(t, bfs.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, bfs.Symlink(tree.Symlinks[name], p))
	}
}

// Snapshot returns every node below root keyed by its relative path. Values
// are "dir", "file:" plus the content, or "link:" plus the literal target.
func Snapshot(t testing.TB, bfs billy.Filesystem, root string) map[string]string {
	t.Helper()
	got := make(map[string]string)
	err := fsys.Walk(bfs, root, func(n fsys.Node, err error) error {
		if err != nil {
			return err
		}
		switch mode := n.Info.Mode(); {
		case mode&fs.ModeSymlink != 0:
			target, err := bfs.Readlink(n.Path)
			if err != nil {
				return err
			}
			got[n.Rel] = "link:" + target
		case mode.IsDir():
			got[n.Rel] = "dir"
		default:
			data, err := util.ReadFile(bfs, n.Path)
			if err != nil {
				return err
			}
			got[n.Rel] = "file:" + string(data)
		}
		return nil
	})
	require.NoError(t, err)
	return got
}

// Expect returns the Snapshot a faithful round trip of tree produces.
func Expect(tree Tree) map[string]string {
	want := make(map[string]string)
	addParents := func(rel string) {
		for p := dirOf(rel); p != ""; p = dirOf(p) {
			want[p] = "dir"
		}
	}
	for _, dir := range tree.Dirs {
		want[dir] = "dir"
		addParents(dir)
	}
	for name, content := range tree.Files {
		want[name] = "file:" + content
		addParents(name)
	}
	for name, target := range tree.Symlinks {
		want[name] = "link:" + target
		addParents(name)
	}
	return want
}

// ConstDigester reports sum for every input after draining it, forcing all
// files into a single digest bucket.
func ConstDigester(sum uint64) digest.Digester {
	return digest.Func(func(r io.Reader) (uint64, error) {
		_, err := io.Copy(io.Discard, r)
		return sum, err
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dirOf(rel string) string {
	d := path.Dir(rel)
	if d == "." {
		return ""
	}
	return d
}
