package fs

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PathResolver = (*Resolver)(nil)

// Resolver implements ports.PathResolver. Search specs match their pattern
// against the file name of every file below the search root.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// Expand resolves specs into root-relative paths, keeping the first occurrence of each.
func (r *Resolver) Expand(root string, specs []domain.SourceSpec) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, spec := range specs {
		if !spec.IsSearch() {
			add(spec.Path)
			continue
		}

		re, err := compile(spec.Pattern)
		if err != nil {
			return nil, err
		}
		dir := join(root, spec.Path)
		if _, err := os.Stat(dir); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceNotFound.Error()), "path", spec.Path)
		}

		for path := range r.walker.WalkFiles(dir) {
			if !re.MatchString(filepath.Base(path)) {
				continue
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			add(rel)
		}
	}

	return out, nil
}

// Check reports every literal path and search root that does not exist, and every invalid pattern.
func (r *Resolver) Check(root string, specs []domain.SourceSpec) error {
	var errs []error
	for _, spec := range specs {
		if spec.IsSearch() {
			if _, err := compile(spec.Pattern); err != nil {
				errs = append(errs, err)
			}
		}
		if _, err := os.Stat(join(root, spec.Path)); err != nil {
			errs = append(errs, zerr.With(domain.ErrSourceNotFound, "path", spec.Path))
		}
	}
	return errors.Join(errs...)
}

// compile anchors pattern at the start of the file name only.
func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPattern.Error()), "pattern", pattern)
	}
	return re, nil
}

func join(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
