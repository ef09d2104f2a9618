package domain

// Settings are the tool options that are not part of the build file.
type Settings struct {
	// Jobs bounds concurrent targets and concurrent external processes.
	Jobs int
	// Verbose logs every command line before it runs.
	Verbose bool
	// Force rebuilds every target regardless of staleness.
	Force bool
	// BuildDir is the project-relative root for build outputs.
	BuildDir string
	// CacheFile is the project-relative path of the staleness ledger.
	CacheFile string
	// LogFormat selects "pretty" or "json" log output.
	LogFormat string
}
