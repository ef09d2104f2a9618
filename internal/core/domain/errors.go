package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetAlreadyExists is returned when two targets share the same name.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrUnknownDependency is returned when a target depends on a name no target declares.
	ErrUnknownDependency = zerr.New("unknown dependency")

	// ErrCircularDependency is returned when the target dependency graph contains a cycle.
	ErrCircularDependency = zerr.New("circular dependency")

	// ErrTargetNotFound is returned when a requested target is not declared in the project.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrAlreadyInherited is returned when a flag list contains more than one inherit entry.
	ErrAlreadyInherited = zerr.New("global flags already inherited")

	// ErrInheritInGlobal is returned when the global flag list itself uses inherit.
	ErrInheritInGlobal = zerr.New("global flags cannot inherit")

	// ErrUnknownLinkTarget is returned when a lib link flag references an undeclared target.
	ErrUnknownLinkTarget = zerr.New("link flag references unknown target")

	// ErrLinkTargetNotLibrary is returned when a lib link flag references a target that is not a library.
	ErrLinkTargetNotLibrary = zerr.New("link flag references a target that is not a library")

	// ErrUnknownLanguage is returned when no language configuration exists for a language.
	ErrUnknownLanguage = zerr.New("unknown language")

	// ErrLanguageNotDeclared is returned when a target uses a language missing from project.languages.
	ErrLanguageNotDeclared = zerr.New("language not declared by project")

	// ErrDefineCoercion is returned when a define value cannot be coerced to its declared type.
	ErrDefineCoercion = zerr.New("failed to coerce define value")

	// ErrDefineCommandFailed is returned when a define command exits non-zero.
	ErrDefineCommandFailed = zerr.New("define command failed")

	// ErrInvalidPattern is returned when a source search pattern is not a valid regular expression.
	ErrInvalidPattern = zerr.New("invalid source pattern")

	// ErrSourceNotFound is returned when a declared source or watch path does not exist.
	ErrSourceNotFound = zerr.New("source not found")

	// ErrConfigSanity is returned when the project configuration fails sanity checks.
	ErrConfigSanity = zerr.New("configuration sanity check failed")

	// ErrConfigNotFound is returned when the build file cannot be found.
	ErrConfigNotFound = zerr.New("could not find build.zen")

	// ErrConfigReadFailed is returned when the build file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the build file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the build file is structurally invalid.
	ErrConfigInvalid = zerr.New("invalid config file")

	// ErrSettingsReadFailed is returned when the tool settings file cannot be read.
	ErrSettingsReadFailed = zerr.New("failed to read settings file")

	// ErrInvalidJobs is returned when the configured job count is below one.
	ErrInvalidJobs = zerr.New("jobs must be at least 1")

	// ErrInvalidLogFormat is returned when the log format is neither pretty nor json.
	ErrInvalidLogFormat = zerr.New("unknown log format")

	// ErrNoSuitableCompiler is returned when no compiler binary can be found for a language.
	ErrNoSuitableCompiler = zerr.New("no suitable compiler found")

	// ErrNoArchiver is returned when no archiver binary can be found for static libraries.
	ErrNoArchiver = zerr.New("no archiver found")

	// ErrCompilerOverrideMissing is returned when an overridden compiler path does not exist.
	ErrCompilerOverrideMissing = zerr.New("compiler override does not exist")

	// ErrCompileFailed is returned when the compiler exits non-zero for a source file.
	ErrCompileFailed = zerr.New("compilation failed")

	// ErrLinkFailed is returned when the linker or archiver exits non-zero.
	ErrLinkFailed = zerr.New("linking failed")

	// ErrHookFailed is returned when a prebuild or postbuild command exits non-zero.
	ErrHookFailed = zerr.New("build hook failed")

	// ErrBuildDirCreateFailed is returned when a build output directory cannot be created.
	ErrBuildDirCreateFailed = zerr.New("failed to create build directory")

	// ErrBuildExecutionFailed is returned when the build aborts because of a fatal failure.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrLedgerReadFailed is returned when the staleness ledger cannot be read.
	ErrLedgerReadFailed = zerr.New("failed to read staleness ledger")

	// ErrLedgerParse is returned when a staleness ledger line is malformed.
	ErrLedgerParse = zerr.New("malformed staleness ledger line")

	// ErrLedgerWriteFailed is returned when the staleness ledger cannot be written.
	ErrLedgerWriteFailed = zerr.New("failed to write staleness ledger")

	// ErrStatFailed is returned when a file's modification time cannot be read.
	ErrStatFailed = zerr.New("failed to stat file")

	// ErrCleanFailed is returned when build outputs cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean build outputs")
)
