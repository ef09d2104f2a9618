package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zen/internal/adapters/fs"
	"go.trai.ch/zen/internal/core/domain"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	}
}

func TestResolver_Expand(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"main.c",
		"src/a.c",
		"src/b.cpp",
		"src/nested/c.c",
		"src/notes.txt",
		"src/.git/objects.c",
		"vendor/v.c",
	)

	r := fs.NewResolver(fs.NewWalker())

	tests := []struct {
		name  string
		specs []domain.SourceSpec
		want  []string
	}{
		{
			name:  "literal paths as written",
			specs: []domain.SourceSpec{{Path: "main.c"}, {Path: "./vendor/v.c"}},
			want:  []string{"main.c", filepath.Join("vendor", "v.c")},
		},
		{
			name:  "recursive search matches file names",
			specs: []domain.SourceSpec{{Path: "src", Pattern: `.*\.c$`}},
			want:  []string{filepath.Join("src", "a.c"), filepath.Join("src", "nested", "c.c")},
		},
		{
			name:  "pattern is anchored at the start",
			specs: []domain.SourceSpec{{Path: "src", Pattern: `a\.c|b`}},
			want:  []string{filepath.Join("src", "a.c"), filepath.Join("src", "b.cpp")},
		},
		{
			name:  "pattern may match a prefix",
			specs: []domain.SourceSpec{{Path: "src", Pattern: `.*\.c`}},
			want: []string{
				filepath.Join("src", "a.c"),
				filepath.Join("src", "b.cpp"),
				filepath.Join("src", "nested", "c.c"),
			},
		},
		{
			name:  "pattern must match from the first character",
			specs: []domain.SourceSpec{{Path: "src", Pattern: `\.c$`}},
			want:  nil,
		},
		{
			name: "duplicates keep first occurrence",
			specs: []domain.SourceSpec{
				{Path: "src/nested/c.c"},
				{Path: "src", Pattern: `.*\.(c|cpp)`},
			},
			want: []string{
				filepath.Join("src", "nested", "c.c"),
				filepath.Join("src", "a.c"),
				filepath.Join("src", "b.cpp"),
			},
		},
		{
			name:  "no matches",
			specs: []domain.SourceSpec{{Path: "src", Pattern: `.*\.m`}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Expand(root, tt.specs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Expand_IsRestartable(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "src/a.c")
	r := fs.NewResolver(fs.NewWalker())
	specs := []domain.SourceSpec{{Path: "src", Pattern: `.*\.c`}}

	first, err := r.Expand(root, specs)
	require.NoError(t, err)
	writeFiles(t, root, "src/b.c")
	second, err := r.Expand(root, specs)
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
}

func TestResolver_Expand_Errors(t *testing.T) {
	root := t.TempDir()
	r := fs.NewResolver(fs.NewWalker())

	_, err := r.Expand(root, []domain.SourceSpec{{Path: ".", Pattern: `(`}})
	assert.ErrorContains(t, err, domain.ErrInvalidPattern.Error())

	_, err = r.Expand(root, []domain.SourceSpec{{Path: "missing", Pattern: `.*`}})
	assert.ErrorContains(t, err, domain.ErrSourceNotFound.Error())
}

func TestResolver_Check_CollectsAll(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "main.c")
	r := fs.NewResolver(fs.NewWalker())

	err := r.Check(root, []domain.SourceSpec{
		{Path: "main.c"},
		{Path: "missing.c"},
		{Path: "gone", Pattern: `.*`},
		{Path: ".", Pattern: `[`},
	})
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.Len(t, joined.Unwrap(), 3)

	assert.NoError(t, r.Check(root, []domain.SourceSpec{{Path: "main.c"}, {Path: ".", Pattern: `.*\.c`}}))
}

func TestWalker_SkipsVCS(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.c", "a/z.c", ".git/HEAD", ".jj/x")

	got := slices.Collect(fs.NewWalker().WalkFiles(root))
	for i, p := range got {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		got[i] = rel
	}
	assert.Equal(t, []string{filepath.Join("a", "z.c"), "b.c"}, got)
}

func TestWalker_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.c", "b.c", "c.c")

	var seen int
	for range fs.NewWalker().WalkFiles(root) {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}
