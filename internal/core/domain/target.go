package domain

// TargetType selects how a target is built.
type TargetType string

const (
	// TargetExecutable compiles sources and links them into an executable.
	TargetExecutable TargetType = "executable"
	// TargetLibrary compiles sources and archives or links them into a library.
	TargetLibrary TargetType = "library"
	// TargetShell runs only its prebuild commands.
	TargetShell TargetType = "shell"
)

// SourceSpec is either a literal path or a recursive search rooted at Path.
// When Pattern is empty, Path names a single file.
type SourceSpec struct {
	Path    string
	Pattern string
}

// IsSearch reports whether the spec describes a recursive search.
func (s SourceSpec) IsSearch() bool {
	return s.Pattern != ""
}

// FlagKind tags the variants of a compile flag entry.
type FlagKind uint8

const (
	// FlagLiteral is a flag passed through verbatim.
	FlagLiteral FlagKind = iota
	// FlagInherit expands to the project's global flags and defines.
	FlagInherit
	// FlagIncludeDir expands through the language include pattern.
	FlagIncludeDir
)

// Flag is a single entry of a compile flag list.
type Flag struct {
	Kind  FlagKind
	Value string
}

// LiteralFlag returns a verbatim flag.
func LiteralFlag(v string) Flag { return Flag{Kind: FlagLiteral, Value: v} }

// InheritFlag returns the inherit sentinel.
func InheritFlag() Flag { return Flag{Kind: FlagInherit} }

// IncludeDirFlag returns an include directory flag.
func IncludeDirFlag(dir string) Flag { return Flag{Kind: FlagIncludeDir, Value: dir} }

// LinkFlagKind tags the variants of a link flag entry.
type LinkFlagKind uint8

const (
	// LinkLiteral is a link flag passed through verbatim.
	LinkLiteral LinkFlagKind = iota
	// LinkLib references the artifact of another target.
	LinkLib
)

// LinkFlag is a single entry of a link flag list.
// For LinkLib, Value holds the referenced target name.
type LinkFlag struct {
	Kind  LinkFlagKind
	Value string
}

// LiteralLinkFlag returns a verbatim link flag.
func LiteralLinkFlag(v string) LinkFlag { return LinkFlag{Kind: LinkLiteral, Value: v} }

// LibRef returns a link flag referencing another target's library.
func LibRef(target string) LinkFlag { return LinkFlag{Kind: LinkLib, Value: target} }

// DefineKind tags the variants of a preprocessor define.
type DefineKind uint8

const (
	// DefineLiteral carries its value inline.
	DefineLiteral DefineKind = iota
	// DefineCommand takes its value from a shell command's output.
	DefineCommand
)

// ValueType is the coercion applied to a literal define value.
type ValueType string

const (
	// ValueString keeps the value as written.
	ValueString ValueType = "string"
	// ValueInt requires the value to parse as an integer.
	ValueInt ValueType = "int"
	// ValueBool renders the value as 1 or 0.
	ValueBool ValueType = "bool"
)

// StderrMode controls whether a define command's stderr becomes its value.
type StderrMode string

const (
	// StderrNo always uses stdout.
	StderrNo StderrMode = "no"
	// StderrYes always uses stderr.
	StderrYes StderrMode = "yes"
	// StderrOnFail uses stderr when the command failed and the failure is ignored.
	StderrOnFail StderrMode = "fail"
)

// Define is a preprocessor symbol definition.
type Define struct {
	Kind   DefineKind
	Symbol string

	// Literal variant.
	Value  string
	AsType ValueType

	// Command variant.
	Command         string
	StripWhitespace bool
	IgnoreFail      bool
	UseStderr       StderrMode
}

// Target is a single declared build unit. Targets are immutable for the duration of a run.
type Target struct {
	Name         string
	Language     string
	Type         TargetType
	Static       bool
	Sources      []SourceSpec
	Watching     []SourceSpec
	Flags        []Flag
	LinkFlags    []LinkFlag
	Defines      []Define
	Prebuild     []string
	Postbuild    []string
	Dependencies []string
}

// IsCompiled reports whether the target goes through compile and link.
func (t *Target) IsCompiled() bool {
	return t.Type != TargetShell
}
