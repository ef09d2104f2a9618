package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zen/cmd/zen/commands"
	"go.trai.ch/zen/internal/app"
	"go.trai.ch/zen/internal/build"
)

type call struct {
	method  string
	targets []string
	opts    app.Options
	clean   app.CleanOptions
}

type mockApp struct {
	calls []call
	err   error
}

func (m *mockApp) Build(_ context.Context, targets []string, opts app.Options) error {
	m.calls = append(m.calls, call{method: "build", targets: targets, opts: opts})
	return m.err
}

func (m *mockApp) Plan(_ context.Context, targets []string, opts app.Options) error {
	m.calls = append(m.calls, call{method: "plan", targets: targets, opts: opts})
	return m.err
}

func (m *mockApp) Clean(_ context.Context, opts app.Options, clean app.CleanOptions) error {
	m.calls = append(m.calls, call{method: "clean", opts: opts, clean: clean})
	return m.err
}

func (m *mockApp) Watch(_ context.Context, targets []string, opts app.Options) error {
	m.calls = append(m.calls, call{method: "watch", targets: targets, opts: opts})
	return m.err
}

func execute(t *testing.T, mock *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires targets and shared flags", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "build", "app", "lib", "-C", "/src/project", "-j", "3", "--force", "-o", "plain")
		require.NoError(t, err)

		require.Len(t, mock.calls, 1)
		got := mock.calls[0]
		assert.Equal(t, "build", got.method)
		assert.Equal(t, []string{"app", "lib"}, got.targets)
		assert.Equal(t, "/src/project", got.opts.Dir)
		assert.Equal(t, "plain", got.opts.OutputMode)

		require.NotNil(t, got.opts.Flags)
		jobs, err := got.opts.Flags.GetInt("jobs")
		require.NoError(t, err)
		assert.Equal(t, 3, jobs)
		assert.True(t, got.opts.Flags.Changed("force"))
		assert.False(t, got.opts.Flags.Changed("verbose"))
	})

	t.Run("builds everything without arguments", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "build")
		require.NoError(t, err)
		require.Len(t, mock.calls, 1)
		assert.Empty(t, mock.calls[0].targets)
		assert.Equal(t, "auto", mock.calls[0].opts.OutputMode)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		mock := &mockApp{err: errors.New("simulated error")}
		_, err := execute(t, mock, "build", "app")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Plan(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "plan", "app", "--dir", "sub")
	require.NoError(t, err)
	require.Len(t, mock.calls, 1)
	assert.Equal(t, "plan", mock.calls[0].method)
	assert.Equal(t, []string{"app"}, mock.calls[0].targets)
	assert.Equal(t, "sub", mock.calls[0].opts.Dir)
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{name: "default", args: []string{"clean"}, want: app.CleanOptions{}},
		{name: "keep cache", args: []string{"clean", "--keep-cache"}, want: app.CleanOptions{KeepCache: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockApp{}
			_, err := execute(t, mock, tt.args...)
			require.NoError(t, err)
			require.Len(t, mock.calls, 1)
			assert.Equal(t, tt.want, mock.calls[0].clean)
		})
	}

	t.Run("rejects arguments", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "clean", "app")
		require.Error(t, err)
		assert.Empty(t, mock.calls)
	})
}

func TestCommands_Watch(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "watch", "app", "-v")
	require.NoError(t, err)
	require.Len(t, mock.calls, 1)
	assert.Equal(t, "watch", mock.calls[0].method)
	assert.Equal(t, []string{"app"}, mock.calls[0].targets)
	assert.True(t, mock.calls[0].opts.Flags.Changed("verbose"))
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "zen version "+build.Version)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
}

func TestCommands_VerboseShorthand(t *testing.T) {
	mock := &mockApp{}
	out, err := execute(t, mock, "build", "-v")
	require.NoError(t, err)
	assert.NotContains(t, out, build.Version)

	require.Len(t, mock.calls, 1)
	verbose, err := mock.calls[0].opts.Flags.GetBool("verbose")
	require.NoError(t, err)
	assert.True(t, verbose)
}

func TestCommands_UnknownCommand(t *testing.T) {
	_, err := execute(t, &mockApp{}, "deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
