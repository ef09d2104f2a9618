package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zen/internal/core/domain"
)

func TestObjectPath(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{source: "main.c", want: filepath.Join("build", "app", "main_c.o")},
		{source: "src/main.c", want: filepath.Join("build", "app", "src_main_c.o")},
		{source: "./src/util/io.cpp", want: filepath.Join("build", "app", "src_util_io_cpp.o")},
		{source: "lib/main.c", want: filepath.Join("build", "app", "lib_main_c.o")},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ObjectPath("build", "app", tt.source))
		})
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name   string
		target *domain.Target
		want   string
	}{
		{
			name:   "executable",
			target: &domain.Target{Name: "app", Type: domain.TargetExecutable},
			want:   filepath.Join("build", "app", "app"),
		},
		{
			name:   "static library",
			target: &domain.Target{Name: "core", Type: domain.TargetLibrary, Static: true},
			want:   filepath.Join("build", "core", "libcore.a"),
		},
		{
			name:   "shell",
			target: &domain.Target{Name: "gen", Type: domain.TargetShell},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ArtifactPath("build", tt.target))
		})
	}
}

func TestLibraryExtension(t *testing.T) {
	assert.Equal(t, ".a", domain.LibraryExtension(true, "darwin"))
	assert.Equal(t, ".a", domain.LibraryExtension(true, "linux"))
	assert.Equal(t, ".dylib", domain.LibraryExtension(false, "darwin"))
	assert.Equal(t, ".so", domain.LibraryExtension(false, "linux"))
}

func TestResolveLanguage(t *testing.T) {
	t.Run("builtin", func(t *testing.T) {
		cfg, err := domain.ResolveLanguage("cxx", nil)
		require.NoError(t, err)
		assert.Equal(t, "-I{}", cfg.IncludePattern)
		assert.Equal(t, "CXX", cfg.EnvVar)
		assert.Equal(t, []string{"c++", "g++", "clang++"}, cfg.Candidates)
	})

	t.Run("alias", func(t *testing.T) {
		cfg, err := domain.ResolveLanguage("C++", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.LangCXX, cfg.Name)
	})

	t.Run("override merges over builtin", func(t *testing.T) {
		cfg, err := domain.ResolveLanguage("CC", map[string]domain.LanguageConfig{
			"cc": {IncludePattern: "-isystem{}", Standard: "c11"},
		})
		require.NoError(t, err)
		assert.Equal(t, "-isystem{}", cfg.IncludePattern)
		assert.Equal(t, "-D{}={*}", cfg.DefinePattern)
		assert.Equal(t, "c11", cfg.Standard)
	})

	t.Run("unknown without override", func(t *testing.T) {
		_, err := domain.ResolveLanguage("fortran", nil)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnknownLanguage.Error())
	})

	t.Run("unknown with override", func(t *testing.T) {
		cfg, err := domain.ResolveLanguage("zig", map[string]domain.LanguageConfig{
			"ZIG": {IncludePattern: "-I{}"},
		})
		require.NoError(t, err)
		assert.Equal(t, "ZIG", cfg.Name)
	})
}

func TestExpand(t *testing.T) {
	assert.Equal(t, "-Iinclude", domain.Expand("-I{}", "include"))
	assert.Equal(t, "-lm", domain.Expand("-l", "m"))
	assert.Equal(t, "-DDEBUG=1", domain.ExpandDefine("-D{}={*}", "DEBUG", "1"))
}

func TestState(t *testing.T) {
	assert.True(t, domain.StateDone.IsTerminal())
	assert.True(t, domain.StateSkippedNoSources.IsTerminal())
	assert.False(t, domain.StateLinking.IsTerminal())
	assert.True(t, domain.StateSkippedNoChange.IsSkipped())

	var s domain.Summary
	s.Add(domain.Outcome{State: domain.StateDone})
	s.Add(domain.Outcome{State: domain.StateSkippedNoChange})
	s.Add(domain.Outcome{State: domain.StateFailed})
	assert.Equal(t, domain.Summary{Built: 1, Skipped: 1, Failed: 1}, s)
}
