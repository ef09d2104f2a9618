// Package settings resolves tool settings from flags, environment, settings files and defaults.
package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zerr"
)

// Setting keys.
const (
	KeyJobs      = "jobs"
	KeyVerbose   = "verbose"
	KeyForce     = "force"
	KeyBuildDir  = "build_dir"
	KeyCacheFile = "cache_file"
	KeyLogFormat = "log_format"
)

// Log formats.
const (
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

// EnvPrefix is the prefix of environment variables read as settings.
const EnvPrefix = "ZEN"

var settingsExtensions = []string{"yaml", "yml", "json", "toml"}

// flagNames maps setting keys to the command line flags bound to them.
var flagNames = map[string]string{
	KeyJobs:      "jobs",
	KeyVerbose:   "verbose",
	KeyForce:     "force",
	KeyBuildDir:  "build-dir",
	KeyCacheFile: "cache-file",
	KeyLogFormat: "log-format",
}

// Loader implements ports.SettingsLoader on top of viper.
type Loader struct {
	numCPU func() int
}

// NewLoader creates a new settings loader.
func NewLoader() *Loader {
	return &Loader{numCPU: runtime.NumCPU}
}

// Load resolves the settings for the project rooted at dir.
func (l *Loader) Load(dir string, flags *pflag.FlagSet) (domain.Settings, error) {
	v := viper.New()
	l.setupDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := FindSettingsFile(dir); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return domain.Settings{}, zerr.With(zerr.Wrap(err, domain.ErrSettingsReadFailed.Error()), "path", path)
		}
	}

	if err := bindFlags(v, flags); err != nil {
		return domain.Settings{}, err
	}

	s := domain.Settings{
		Jobs:      v.GetInt(KeyJobs),
		Verbose:   v.GetBool(KeyVerbose),
		Force:     v.GetBool(KeyForce),
		BuildDir:  v.GetString(KeyBuildDir),
		CacheFile: v.GetString(KeyCacheFile),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),
	}
	return s, validate(s)
}

func (l *Loader) setupDefaults(v *viper.Viper) {
	v.SetDefault(KeyJobs, l.numCPU())
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyForce, false)
	v.SetDefault(KeyBuildDir, domain.DefaultBuildDir)
	v.SetDefault(KeyCacheFile, domain.DefaultCacheFile)
	v.SetDefault(KeyLogFormat, LogFormatPretty)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for key, name := range flagNames {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to bind flag"), "flag", name)
		}
	}
	return nil
}

func validate(s domain.Settings) error {
	if s.Jobs < 1 {
		return zerr.With(domain.ErrInvalidJobs, "jobs", s.Jobs)
	}
	switch s.LogFormat {
	case LogFormatPretty, LogFormatJSON:
	default:
		return zerr.With(domain.ErrInvalidLogFormat, "log_format", s.LogFormat)
	}
	return nil
}

// FindSettingsFile returns the nearest .zen.{yaml,yml,json,toml} in dir or its parents,
// or an empty string.
func FindSettingsFile(dir string) string {
	currentDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		for _, ext := range settingsExtensions {
			candidate := filepath.Join(currentDir, domain.SettingsFileName+"."+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}
