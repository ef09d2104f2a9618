package config

import (
	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Buildfile represents the structure of the build.zen configuration file.
type Buildfile struct {
	Project   ProjectDTO   `yaml:"project"`
	Overrides OverridesDTO `yaml:"overrides"`
	Global    GlobalDTO    `yaml:"global"`
	Targets   []TargetDTO  `yaml:"targets"`
}

// ProjectDTO holds the project metadata section.
type ProjectDTO struct {
	Name      string   `yaml:"name"`
	Version   string   `yaml:"version"`
	Languages []string `yaml:"languages"`
}

// OverridesDTO holds toolchain and language overrides.
type OverridesDTO struct {
	Compiler          map[string]string `yaml:"compiler"`
	Languages         []LanguageDTO     `yaml:"languages"`
	IgnoreEnvCompiler bool              `yaml:"ignore_env_compiler"`
}

// LanguageDTO is a per-project language configuration.
type LanguageDTO struct {
	Name                string         `yaml:"name"`
	DefinePattern       string         `yaml:"define_pattern"`
	IncludePattern      string         `yaml:"include_pattern"`
	LinkPattern         LinkPatternDTO `yaml:"link_pattern"`
	Standard            string         `yaml:"standard"`
	StdPattern          string         `yaml:"std_pattern"`
	Extensions          ExtensionsDTO  `yaml:"extensions"`
	DefaultCompileFlags []string       `yaml:"default_compile_flags"`
	DefaultLinkFlags    []string       `yaml:"default_link_flags"`
	Compilers           []string       `yaml:"compilers"`
	EnvVar              string         `yaml:"env"`
}

// LinkPatternDTO accepts either a library pattern string or a {file, dir} mapping.
type LinkPatternDTO struct {
	File string `yaml:"file"`
	Dir  string `yaml:"dir"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *LinkPatternDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.File = node.Value
		return nil
	}
	type plain LinkPatternDTO
	return node.Decode((*plain)(l))
}

// ExtensionsDTO lists the source and header file extensions of a language.
type ExtensionsDTO struct {
	Source []string `yaml:"source"`
	Header []string `yaml:"header"`
}

// GlobalDTO holds the flags and defines targets can inherit.
type GlobalDTO struct {
	Flags   []FlagDTO   `yaml:"flags"`
	Defines []DefineDTO `yaml:"defines"`
}

// TargetDTO represents a target definition in the configuration.
type TargetDTO struct {
	Name         string        `yaml:"name"`
	Language     string        `yaml:"language"`
	Type         string        `yaml:"type"`
	Static       bool          `yaml:"static"`
	Dependencies []string      `yaml:"dependencies"`
	Sources      []SourceDTO   `yaml:"sources"`
	Watching     []SourceDTO   `yaml:"watching"`
	Flags        []FlagDTO     `yaml:"flags"`
	LinkFlags    []LinkFlagDTO `yaml:"link_flags"`
	Defines      []DefineDTO   `yaml:"defines"`
	Prebuild     []string      `yaml:"prebuild"`
	Postbuild    []string      `yaml:"postbuild"`
}

// SourceDTO is a literal path or a {path, regex} recursive search.
type SourceDTO struct {
	domain.SourceSpec
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *SourceDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Path = node.Value
		return nil
	}

	var search struct {
		Path  string `yaml:"path"`
		Regex string `yaml:"regex"`
	}
	if err := node.Decode(&search); err != nil {
		return err
	}
	if search.Path == "" || search.Regex == "" {
		return invalid(node, "source search requires path and regex")
	}
	s.Path, s.Pattern = search.Path, search.Regex
	return nil
}

// FlagDTO is a literal flag, the "inherit" sentinel, or {kind: include_dir, value}.
type FlagDTO struct {
	domain.Flag
}

const inheritSentinel = "inherit"

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *FlagDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value == inheritSentinel {
			f.Flag = domain.InheritFlag()
		} else {
			f.Flag = domain.LiteralFlag(node.Value)
		}
		return nil
	}

	var entry struct {
		Kind  string `yaml:"kind"`
		Value string `yaml:"value"`
	}
	if err := node.Decode(&entry); err != nil {
		return err
	}
	switch entry.Kind {
	case "include_dir":
		f.Flag = domain.IncludeDirFlag(entry.Value)
	case inheritSentinel:
		f.Flag = domain.InheritFlag()
	default:
		return zerr.With(invalid(node, "unknown flag kind"), "kind", entry.Kind)
	}
	return nil
}

// LinkFlagDTO is a literal link flag or {kind: lib, target}.
type LinkFlagDTO struct {
	domain.LinkFlag
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *LinkFlagDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.LinkFlag = domain.LiteralLinkFlag(node.Value)
		return nil
	}

	var entry struct {
		Kind   string `yaml:"kind"`
		Target string `yaml:"target"`
	}
	if err := node.Decode(&entry); err != nil {
		return err
	}
	if entry.Kind != "lib" {
		return zerr.With(invalid(node, "unknown link flag kind"), "kind", entry.Kind)
	}
	if entry.Target == "" {
		return invalid(node, "lib link flag requires target")
	}
	l.LinkFlag = domain.LibRef(entry.Target)
	return nil
}

// DefineDTO is either {symbol, value, as_type} or
// {symbol, command, strip_whitespace, ignore_fail, use_stderr}.
type DefineDTO struct {
	domain.Define
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DefineDTO) UnmarshalYAML(node *yaml.Node) error {
	var entry struct {
		Symbol          string    `yaml:"symbol"`
		Value           yaml.Node `yaml:"value"`
		AsType          string    `yaml:"as_type"`
		Command         string    `yaml:"command"`
		StripWhitespace bool      `yaml:"strip_whitespace"`
		IgnoreFail      bool      `yaml:"ignore_fail"`
		UseStderr       string    `yaml:"use_stderr"`
	}
	if err := node.Decode(&entry); err != nil {
		return err
	}
	if entry.Symbol == "" {
		return invalid(node, "define requires symbol")
	}

	switch {
	case entry.Value.Kind != 0 && entry.Command != "":
		return zerr.With(invalid(node, "define has both value and command"), "symbol", entry.Symbol)
	case entry.Value.Kind != 0:
		if entry.Value.Kind != yaml.ScalarNode {
			return zerr.With(invalid(node, "define value must be a scalar"), "symbol", entry.Symbol)
		}
		asType := domain.ValueType(entry.AsType)
		switch asType {
		case "", domain.ValueString, domain.ValueInt, domain.ValueBool:
		default:
			return zerr.With(invalid(node, "unknown as_type"), "as_type", entry.AsType)
		}
		d.Define = domain.Define{
			Kind:   domain.DefineLiteral,
			Symbol: entry.Symbol,
			Value:  entry.Value.Value,
			AsType: asType,
		}
	case entry.Command != "":
		mode := domain.StderrMode(entry.UseStderr)
		switch mode {
		case "":
			mode = domain.StderrNo
		case domain.StderrNo, domain.StderrYes, domain.StderrOnFail:
		default:
			return zerr.With(invalid(node, "unknown use_stderr"), "use_stderr", entry.UseStderr)
		}
		d.Define = domain.Define{
			Kind:            domain.DefineCommand,
			Symbol:          entry.Symbol,
			Command:         entry.Command,
			StripWhitespace: entry.StripWhitespace,
			IgnoreFail:      entry.IgnoreFail,
			UseStderr:       mode,
		}
	default:
		return zerr.With(invalid(node, "define requires value or command"), "symbol", entry.Symbol)
	}
	return nil
}

func invalid(node *yaml.Node, msg string) error {
	return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, msg), "line", node.Line)
}
