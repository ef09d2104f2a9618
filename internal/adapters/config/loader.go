// Package config provides the build file loader for zen.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML build file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds build.zen in dir or the nearest parent and parses it.
func (l *Loader) Load(dir string) (*domain.Project, error) {
	configPath, err := findConfiguration(dir)
	if err != nil {
		return nil, err
	}

	buildfile, err := readBuildfile(configPath)
	if err != nil {
		return nil, err
	}

	project, err := l.toProject(buildfile)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	project.Dir = filepath.Dir(configPath)
	project.ConfigPath = domain.ConfigFileName
	return project, nil
}

func findConfiguration(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "cwd", cwd)
	}

	currentDir := abs
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func readBuildfile(path string) (*Buildfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var buildfile Buildfile
	if err := decoder.Decode(&buildfile); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "build file is empty"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}
	return &buildfile, nil
}

func (l *Loader) toProject(b *Buildfile) (*domain.Project, error) {
	var errs []error
	fail := func(field, msg string) {
		errs = append(errs, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, msg), "field", field))
	}

	if b.Project.Name == "" {
		fail("project.name", "project name is required")
	}

	project := &domain.Project{
		Name:      b.Project.Name,
		Version:   b.Project.Version,
		Languages: b.Project.Languages,
		Overrides: domain.Overrides{
			Compilers:         b.Overrides.Compiler,
			Languages:         make(map[string]domain.LanguageConfig, len(b.Overrides.Languages)),
			IgnoreEnvCompiler: b.Overrides.IgnoreEnvCompiler,
		},
		Global: domain.Global{
			Flags:   flags(b.Global.Flags),
			Defines: defines(b.Global.Defines),
		},
	}

	for i, lang := range b.Overrides.Languages {
		if lang.Name == "" {
			fail(fmt.Sprintf("overrides.languages[%d].name", i), "language override requires a name")
			continue
		}
		project.Overrides.Languages[lang.Name] = lang.toDomain()
	}

	for i, dto := range b.Targets {
		field := fmt.Sprintf("targets[%d]", i)
		if dto.Name != "" {
			field = fmt.Sprintf("targets[%s]", dto.Name)
		}

		target, err := l.toTarget(dto, b.Project.Languages, field)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		project.Targets = append(project.Targets, target)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return project, nil
}

func (l *Loader) toTarget(dto TargetDTO, languages []string, field string) (*domain.Target, error) {
	invalidField := func(suffix, msg string) error {
		return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, msg), "field", field+suffix)
	}

	if dto.Name == "" {
		return nil, invalidField(".name", "target name is required")
	}

	targetType := domain.TargetType(dto.Type)
	switch targetType {
	case "":
		targetType = domain.TargetExecutable
	case domain.TargetExecutable, domain.TargetLibrary, domain.TargetShell:
	default:
		return nil, zerr.With(invalidField(".type", "unknown target type"), "type", dto.Type)
	}

	language := dto.Language
	if language == "" && targetType != domain.TargetShell {
		if len(languages) != 1 {
			return nil, invalidField(".language", "target language is required")
		}
		language = languages[0]
	}

	if dto.Static && targetType != domain.TargetLibrary {
		l.warn(fmt.Sprintf("target %s: static only applies to libraries", dto.Name))
	}
	if dto.Static && targetType == domain.TargetLibrary && len(dto.LinkFlags) > 0 {
		l.warn(fmt.Sprintf("target %s: link_flags are ignored for static libraries", dto.Name))
	}
	if targetType == domain.TargetShell && len(dto.Sources) > 0 {
		l.warn(fmt.Sprintf("target %s: sources are ignored for shell targets", dto.Name))
	}

	target := &domain.Target{
		Name:         dto.Name,
		Language:     language,
		Type:         targetType,
		Static:       dto.Static,
		Sources:      sources(dto.Sources),
		Watching:     sources(dto.Watching),
		Flags:        flags(dto.Flags),
		LinkFlags:    linkFlags(dto.LinkFlags),
		Defines:      defines(dto.Defines),
		Prebuild:     dto.Prebuild,
		Postbuild:    dto.Postbuild,
		Dependencies: dto.Dependencies,
	}
	return target, nil
}

func (l *Loader) warn(msg string) {
	if l.Logger != nil {
		l.Logger.Warn(msg)
	}
}

func (lang LanguageDTO) toDomain() domain.LanguageConfig {
	return domain.LanguageConfig{
		Name:                domain.NormalizeLanguage(lang.Name),
		DefinePattern:       lang.DefinePattern,
		IncludePattern:      lang.IncludePattern,
		LinkPattern:         lang.LinkPattern.File,
		LinkDirPattern:      lang.LinkPattern.Dir,
		Standard:            lang.Standard,
		StdPattern:          lang.StdPattern,
		SourceExtensions:    lang.Extensions.Source,
		HeaderExtensions:    lang.Extensions.Header,
		DefaultCompileFlags: lang.DefaultCompileFlags,
		DefaultLinkFlags:    lang.DefaultLinkFlags,
		Candidates:          lang.Compilers,
		EnvVar:              lang.EnvVar,
	}
}

func sources(in []SourceDTO) []domain.SourceSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.SourceSpec, len(in))
	for i, s := range in {
		out[i] = s.SourceSpec
	}
	return out
}

func flags(in []FlagDTO) []domain.Flag {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Flag, len(in))
	for i, f := range in {
		out[i] = f.Flag
	}
	return out
}

func linkFlags(in []LinkFlagDTO) []domain.LinkFlag {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.LinkFlag, len(in))
	for i, f := range in {
		out[i] = f.LinkFlag
	}
	return out
}

func defines(in []DefineDTO) []domain.Define {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Define, len(in))
	for i, d := range in {
		out[i] = d.Define
	}
	return out
}
