package domain

const (
	// ConfigFileName is the name of the project build file.
	ConfigFileName = "build.zen"

	// DefaultBuildDir is the default root for build outputs.
	DefaultBuildDir = "build"

	// DefaultCacheFile is the default name of the staleness ledger.
	DefaultCacheFile = ".zencache"

	// SettingsFileName is the base name of the tool settings file (.zen.yaml, .zen.toml, ...).
	SettingsFileName = ".zen"

	// EnvFileName is the dotenv file consulted for toolchain overrides.
	EnvFileName = ".env"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)
