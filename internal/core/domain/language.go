package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// LanguageConfig holds the argument templates and conventions of a compiled language.
// Templates use "{}" for the primary value; DefinePattern additionally uses "{*}" for the value.
type LanguageConfig struct {
	Name                string
	DefinePattern       string
	IncludePattern      string
	LinkPattern         string
	LinkDirPattern      string
	Standard            string
	StdPattern          string
	SourceExtensions    []string
	HeaderExtensions    []string
	DefaultCompileFlags []string
	DefaultLinkFlags    []string

	// Candidates are compiler binaries searched on PATH, in order.
	Candidates []string
	// EnvVar names the environment variable that overrides the compiler, if any.
	EnvVar string
}

// Language keys of the built-in table.
const (
	LangC      = "CC"
	LangCXX    = "CXX"
	LangObjC   = "OBJC"
	LangObjCXX = "OBJCXX"
)

const (
	cFamilyDefinePattern  = "-D{}={*}"
	cFamilyIncludePattern = "-I{}"
	cFamilyLinkPattern    = "-l{}"
	cFamilyLinkDirPattern = "-L{}"
	cFamilyStdPattern     = "-std={}"
)

var languageAliases = map[string]string{
	"C":           LangC,
	"C++":         LangCXX,
	"CPP":         LangCXX,
	"OBJECTIVE-C": LangObjC,
}

func builtinLanguages() map[string]LanguageConfig {
	cFamily := func(name string, src, hdr, candidates []string, env string, link []string) LanguageConfig {
		return LanguageConfig{
			Name:             name,
			DefinePattern:    cFamilyDefinePattern,
			IncludePattern:   cFamilyIncludePattern,
			LinkPattern:      cFamilyLinkPattern,
			LinkDirPattern:   cFamilyLinkDirPattern,
			StdPattern:       cFamilyStdPattern,
			SourceExtensions: src,
			HeaderExtensions: hdr,
			DefaultLinkFlags: link,
			Candidates:       candidates,
			EnvVar:           env,
		}
	}

	cc := []string{"cc", "gcc", "clang"}
	cxx := []string{"c++", "g++", "clang++"}

	return map[string]LanguageConfig{
		LangC:      cFamily(LangC, []string{".c"}, []string{".h"}, cc, "CC", nil),
		LangCXX:    cFamily(LangCXX, []string{".cpp", ".cc", ".cxx"}, []string{".hpp", ".hh", ".hxx"}, cxx, "CXX", nil),
		LangObjC:   cFamily(LangObjC, []string{".m"}, []string{".h"}, []string{"clang", "gcc", "cc"}, "", []string{"-lobjc"}),
		LangObjCXX: cFamily(LangObjCXX, []string{".mm"}, []string{".hh", ".hpp"}, []string{"clang++", "g++", "c++"}, "", []string{"-lobjc"}),
	}
}

// NormalizeLanguage maps a declared language name to its table key.
func NormalizeLanguage(lang string) string {
	key := strings.ToUpper(strings.TrimSpace(lang))
	if alias, ok := languageAliases[key]; ok {
		return alias
	}
	return key
}

// ResolveLanguage returns the effective configuration of a language: the built-in
// default, if any, with the project override merged over it field by field.
func ResolveLanguage(lang string, overrides map[string]LanguageConfig) (LanguageConfig, error) {
	key := NormalizeLanguage(lang)
	base, known := builtinLanguages()[key]

	var override LanguageConfig
	var overridden bool
	for name, cfg := range overrides {
		if NormalizeLanguage(name) == key {
			override, overridden = cfg, true
			break
		}
	}

	if !known && !overridden {
		return LanguageConfig{}, zerr.With(ErrUnknownLanguage, "language", lang)
	}
	if !overridden {
		return base, nil
	}

	base.Name = key
	return mergeLanguage(base, override), nil
}

// BuiltinLanguageKeys lists the languages with built-in defaults, sorted.
func BuiltinLanguageKeys() []string {
	return slices.Sorted(maps.Keys(builtinLanguages()))
}

func mergeLanguage(base, o LanguageConfig) LanguageConfig {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	list := func(dst *[]string, v []string) {
		if v != nil {
			*dst = slices.Clone(v)
		}
	}

	str(&base.DefinePattern, o.DefinePattern)
	str(&base.IncludePattern, o.IncludePattern)
	str(&base.LinkPattern, o.LinkPattern)
	str(&base.LinkDirPattern, o.LinkDirPattern)
	str(&base.Standard, o.Standard)
	str(&base.StdPattern, o.StdPattern)
	str(&base.EnvVar, o.EnvVar)
	list(&base.SourceExtensions, o.SourceExtensions)
	list(&base.HeaderExtensions, o.HeaderExtensions)
	list(&base.DefaultCompileFlags, o.DefaultCompileFlags)
	list(&base.DefaultLinkFlags, o.DefaultLinkFlags)
	list(&base.Candidates, o.Candidates)
	return base
}

// Expand substitutes value into the "{}" placeholder of a template.
// A template without a placeholder has the value appended.
func Expand(pattern, value string) string {
	if !strings.Contains(pattern, "{}") {
		return pattern + value
	}
	return strings.Replace(pattern, "{}", value, 1)
}

// ExpandDefine renders a define through a define pattern: "{}" is the symbol and "{*}" the value.
func ExpandDefine(pattern, symbol, value string) string {
	out := strings.Replace(pattern, "{}", symbol, 1)
	return strings.ReplaceAll(out, "{*}", value)
}
