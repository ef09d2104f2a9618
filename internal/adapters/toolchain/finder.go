// Package toolchain locates compilers and archivers for the languages a project uses.
package toolchain

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CompilerFinder = (*Finder)(nil)

// archiverEnvVar names the variable that overrides the archiver.
const archiverEnvVar = "AR"

var archiverCandidates = []string{"ar", "llvm-ar"}

// Finder implements ports.CompilerFinder.
//
// A compiler is chosen from, in order: the project's compiler override, the
// language's environment variable (process environment first, then the project's
// .env file), and the language's candidate list searched on PATH.
type Finder struct {
	lookPath func(string) (string, error)
	getenv   func(string) string
}

// NewFinder creates a Finder that searches the process PATH.
func NewFinder() *Finder {
	return &Finder{lookPath: exec.LookPath, getenv: os.Getenv}
}

// Find returns the compiler binary for lang.
func (f *Finder) Find(_ context.Context, project *domain.Project, lang domain.LanguageConfig) (string, error) {
	if override, ok := compilerOverride(project, lang.Name); ok {
		path, err := f.resolve(project, override)
		if err != nil {
			return "", zerr.With(zerr.With(domain.ErrCompilerOverrideMissing, "language", lang.Name), "path", override)
		}
		return path, nil
	}

	if lang.EnvVar != "" {
		path, err := f.fromEnv(project, lang.EnvVar)
		if err != nil || path != "" {
			return path, err
		}
	}

	for _, candidate := range lang.Candidates {
		if path, err := f.lookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", zerr.With(domain.ErrNoSuitableCompiler, "language", lang.Name)
}

// Archiver returns the binary used to create static libraries.
func (f *Finder) Archiver(_ context.Context, project *domain.Project) (string, error) {
	path, err := f.fromEnv(project, archiverEnvVar)
	if err != nil || path != "" {
		return path, err
	}

	for _, candidate := range archiverCandidates {
		if path, err := f.lookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", domain.ErrNoArchiver
}

// fromEnv returns the executable named by the environment variable key, or ""
// when the variable is unset, unusable, or environment overrides are disabled.
func (f *Finder) fromEnv(project *domain.Project, key string) (string, error) {
	if project.Overrides.IgnoreEnvCompiler {
		return "", nil
	}
	value, err := f.env(project, key)
	if err != nil || value == "" {
		return "", err
	}
	path, err := f.resolve(project, value)
	if err != nil {
		return "", nil
	}
	return path, nil
}

// env reads key from the process environment, falling back to the project's .env file.
func (f *Finder) env(project *domain.Project, key string) (string, error) {
	if v := f.getenv(key); v != "" {
		return strings.TrimSpace(v), nil
	}

	values, err := godotenv.Read(project.Abs(domain.EnvFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", zerr.With(zerr.Wrap(err, "failed to read env file"), "path", project.Abs(domain.EnvFileName))
	}
	return strings.TrimSpace(values[key]), nil
}

// resolve turns a configured compiler into an executable path. Values containing a
// path separator are taken relative to the project; bare names are searched on PATH.
func (f *Finder) resolve(project *domain.Project, value string) (string, error) {
	if !strings.ContainsRune(value, filepath.Separator) {
		return f.lookPath(value)
	}

	path := value
	if !filepath.IsAbs(path) {
		path = project.Abs(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return "", os.ErrPermission
	}
	return path, nil
}

func compilerOverride(project *domain.Project, lang string) (string, bool) {
	for key, path := range project.Overrides.Compilers {
		if domain.NormalizeLanguage(key) == lang && path != "" {
			return path, true
		}
	}
	return "", false
}
