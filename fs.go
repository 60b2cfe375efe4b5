package dpack

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"github.com/meigma/dpack/internal/fsys"
)

// resolveFS returns bfs with the given paths cleaned by it. When bfs is nil
// the host filesystem is used and the paths are made absolute first.
func resolveFS(bfs billy.Filesystem, paths ...*string) (billy.Filesystem, error) {
	if bfs == nil {
		bfs = fsys.NewLocal()
		for _, p := range paths {
			abs, err := filepath.Abs(*p)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", *p, err)
			}
			*p = abs
		}
	}
	for _, p := range paths {
		*p = bfs.Join(*p)
	}
	return bfs, nil
}
