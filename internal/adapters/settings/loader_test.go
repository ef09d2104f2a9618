package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zen/internal/adapters/settings"
	"go.trai.ch/zen/internal/core/domain"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("zen", pflag.ContinueOnError)
	fs.IntP("jobs", "j", 0, "")
	fs.BoolP("verbose", "v", false, "")
	fs.BoolP("force", "f", false, "")
	fs.String("log-format", "", "")
	return fs
}

func writeSettings(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), domain.FilePerm)
	require.NoError(t, err)
}

func TestLoader_Defaults(t *testing.T) {
	loader := settings.NewLoaderWithCPU(6)

	s, err := loader.Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{
		Jobs:      6,
		BuildDir:  domain.DefaultBuildDir,
		CacheFile: domain.DefaultCacheFile,
		LogFormat: settings.LogFormatPretty,
	}, s)
}

func TestLoader_Precedence(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, ".zen.yaml", "jobs: 3\nverbose: true\nbuild_dir: out\n")

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, domain.DirPerm))

	t.Run("file from parent", func(t *testing.T) {
		s, err := settings.NewLoaderWithCPU(8).Load(sub, newFlags())
		require.NoError(t, err)
		assert.Equal(t, 3, s.Jobs)
		assert.True(t, s.Verbose)
		assert.Equal(t, "out", s.BuildDir)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("ZEN_JOBS", "5")
		t.Setenv("ZEN_BUILD_DIR", "env-out")

		s, err := settings.NewLoaderWithCPU(8).Load(sub, newFlags())
		require.NoError(t, err)
		assert.Equal(t, 5, s.Jobs)
		assert.Equal(t, "env-out", s.BuildDir)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("ZEN_JOBS", "5")

		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"-j", "2", "--force"}))

		s, err := settings.NewLoaderWithCPU(8).Load(sub, flags)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Jobs)
		assert.True(t, s.Force)
	})

	t.Run("unset flag keeps lower layers", func(t *testing.T) {
		s, err := settings.NewLoaderWithCPU(8).Load(sub, newFlags())
		require.NoError(t, err)
		assert.Equal(t, 3, s.Jobs)
	})
}

func TestLoader_TOML(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, ".zen.toml", "log_format = \"JSON\"\ncache_file = \".cache\"\n")

	s, err := settings.NewLoaderWithCPU(1).Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, settings.LogFormatJSON, s.LogFormat)
	assert.Equal(t, ".cache", s.CacheFile)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("jobs below one", func(t *testing.T) {
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--jobs", "0"}))

		_, err := settings.NewLoaderWithCPU(4).Load(t.TempDir(), flags)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrInvalidJobs.Error())
	})

	t.Run("unknown log format", func(t *testing.T) {
		t.Setenv("ZEN_LOG_FORMAT", "xml")

		_, err := settings.NewLoaderWithCPU(4).Load(t.TempDir(), nil)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrInvalidLogFormat.Error())
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		writeSettings(t, dir, ".zen.json", "{not json")

		_, err := settings.NewLoaderWithCPU(4).Load(dir, nil)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrSettingsReadFailed.Error())
	})
}

func TestFindSettingsFile(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, settings.FindSettingsFile(dir))

	writeSettings(t, dir, ".zen.yml", "jobs: 1\n")
	assert.Equal(t, filepath.Join(dir, ".zen.yml"), settings.FindSettingsFile(dir))
}
