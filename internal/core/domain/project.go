package domain

import "path/filepath"

// Overrides holds project-level replacements for toolchain discovery and language defaults.
type Overrides struct {
	// Compilers maps a language key to an explicit compiler binary path.
	Compilers map[string]string
	// Languages maps a language key to a partial configuration merged over the built-in defaults.
	Languages map[string]LanguageConfig
	// IgnoreEnvCompiler disables the CC/CXX environment variables during discovery.
	IgnoreEnvCompiler bool
}

// Global holds flags and defines that targets can pull in with inherit.
type Global struct {
	Flags   []Flag
	Defines []Define
}

// Project is the parsed, immutable build description.
type Project struct {
	Name      string
	Version   string
	Languages []string
	Overrides Overrides
	Global    Global
	Targets   []*Target

	// Dir is the directory containing the build file. Relative paths resolve against it.
	Dir string
	// ConfigPath is the build file itself, watched for staleness like any other input.
	ConfigPath string
}

// Target returns the target with the given name.
func (p *Project) Target(name string) (*Target, bool) {
	for _, t := range p.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Abs resolves a project-relative path against the project directory.
func (p *Project) Abs(path string) string {
	if filepath.IsAbs(path) || p.Dir == "" {
		return path
	}
	return filepath.Join(p.Dir, path)
}
