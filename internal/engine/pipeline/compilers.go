package pipeline

import (
	"context"
	"sync"

	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
)

type lookup struct {
	path string
	err  error
}

// Compilers memoizes compiler and archiver discovery for one run.
// Failed lookups are memoized too, so every target reports the same error.
type Compilers struct {
	finder  ports.CompilerFinder
	project *domain.Project

	mu        sync.Mutex
	compilers map[string]lookup
	archiver  *lookup
}

// NewCompilers creates a Compilers for project.
func NewCompilers(finder ports.CompilerFinder, project *domain.Project) *Compilers {
	return &Compilers{
		finder:    finder,
		project:   project,
		compilers: make(map[string]lookup),
	}
}

// Compiler returns the compiler binary of lang.
func (c *Compilers) Compiler(ctx context.Context, lang domain.LanguageConfig) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res, ok := c.compilers[lang.Name]; ok {
		return res.path, res.err
	}
	path, err := c.finder.Find(ctx, c.project, lang)
	c.compilers[lang.Name] = lookup{path: path, err: err}
	return path, err
}

// Archiver returns the binary that creates static libraries.
func (c *Compilers) Archiver(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.archiver == nil {
		path, err := c.finder.Archiver(ctx, c.project)
		c.archiver = &lookup{path: path, err: err}
	}
	return c.archiver.path, c.archiver.err
}
