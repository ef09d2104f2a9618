package domain

import (
	"path/filepath"
	"runtime"
	"strings"
)

// TargetBuildDir returns the directory holding a target's objects and artifact.
func TargetBuildDir(buildRoot, target string) string {
	return filepath.Join(buildRoot, target)
}

// ObjectPath returns the object file for a source. Path separators and dots of the
// source path are folded into underscores so sources from different directories never collide:
// "src/main.c" becomes "<build>/<target>/src_main_c.o".
func ObjectPath(buildRoot, target, source string) string {
	clean := filepath.ToSlash(filepath.Clean(source))
	clean = strings.TrimPrefix(clean, "./")
	folded := strings.NewReplacer("/", "_", ".", "_").Replace(clean)
	return filepath.Join(TargetBuildDir(buildRoot, target), folded+".o")
}

// ArtifactPath returns the final artifact of a target, or "" for shell targets.
func ArtifactPath(buildRoot string, t *Target) string {
	return artifactPathFor(buildRoot, t, runtime.GOOS)
}

func artifactPathFor(buildRoot string, t *Target, goos string) string {
	dir := TargetBuildDir(buildRoot, t.Name)
	switch t.Type {
	case TargetShell:
		return ""
	case TargetLibrary:
		return filepath.Join(dir, "lib"+t.Name+LibraryExtension(t.Static, goos))
	default:
		return filepath.Join(dir, t.Name)
	}
}

// LibraryExtension returns the file extension of a library artifact.
// Static archives are always ".a"; shared libraries follow the platform.
func LibraryExtension(static bool, goos string) string {
	switch {
	case static:
		return ".a"
	case goos == "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}
