// Package fs provides file system adapters that expand source specifications.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker yields regular files below a directory in lexical order.
type Walker struct {
	skipDirs map[string]bool
}

// NewWalker creates a Walker that skips version control directories.
func NewWalker() *Walker {
	return &Walker{skipDirs: map[string]bool{".git": true, ".jj": true, ".hg": true}}
}

// WalkFiles yields every file below root. Yielded paths include root as a prefix.
// Unreadable entries are skipped.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && w.skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
