package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zen/internal/core/ports/mocks"
	"go.trai.ch/zen/internal/engine/flags"
	"go.trai.ch/zen/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/semaphore"
)

type pipelineMocks struct {
	executor *mocks.MockExecutor
	paths    *mocks.MockPathResolver
	cache    *mocks.MockStalenessCache
	finder   *mocks.MockCompilerFinder
	logger   *mocks.MockLogger
	span     *mocks.MockSpan
	output   *spanOutput
}

// spanOutput collects everything written to spans.
type spanOutput struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (o *spanOutput) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Write(p)
}

func (o *spanOutput) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

func setupPipeline(
	t *testing.T,
	settings domain.Settings,
	targets ...*domain.Target,
) (*pipeline.Pipeline, *domain.Project, pipelineMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := pipelineMocks{
		executor: mocks.NewMockExecutor(ctrl),
		paths:    mocks.NewMockPathResolver(ctrl),
		cache:    mocks.NewMockStalenessCache(ctrl),
		finder:   mocks.NewMockCompilerFinder(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		span:     mocks.NewMockSpan(ctrl),
		output:   new(spanOutput),
	}

	m.span.EXPECT().End().AnyTimes()
	m.span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	m.span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	m.span.EXPECT().Write(gomock.Any()).DoAndReturn(m.output.Write).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, m.span
		},
	).AnyTimes()

	if settings.BuildDir == "" {
		settings.BuildDir = "build"
	}
	if settings.Jobs == 0 {
		settings.Jobs = 2
	}

	project := &domain.Project{
		Name:       "demo",
		Languages:  []string{"CC"},
		Targets:    targets,
		Dir:        t.TempDir(),
		ConfigPath: domain.ConfigFileName,
	}

	p := pipeline.New(project, settings, pipeline.Deps{
		Executor:  m.executor,
		Paths:     m.paths,
		Cache:     m.cache,
		Tracer:    tracer,
		Logger:    m.logger,
		Flags:     flags.NewResolver(m.executor),
		Compilers: pipeline.NewCompilers(m.finder, project),
		Slots:     semaphore.NewWeighted(int64(settings.Jobs)),
	})
	return p, project, m
}

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func cmd(dir, name string, args ...string) *domain.Command {
	return &domain.Command{Name: name, Args: args, Dir: dir}
}

func hook(dir, line string) *domain.Command {
	return &domain.Command{Name: "sh", Args: []string{"-c", line}, Dir: dir}
}

func executable() *domain.Target {
	return &domain.Target{
		Name:      "app",
		Language:  "CC",
		Type:      domain.TargetExecutable,
		Sources:   []domain.SourceSpec{{Path: "main.c"}},
		Watching:  []domain.SourceSpec{{Path: "include/app.h"}},
		Flags:     []domain.Flag{domain.LiteralFlag("-O2")},
		LinkFlags: []domain.LinkFlag{domain.LiteralLinkFlag("-lm")},
	}
}

func succeed(_ context.Context, _ *domain.Command, _, _ io.Writer) error { return nil }

func TestBuild_NoSources(t *testing.T) {
	app := executable()
	p, project, m := setupPipeline(t, domain.Settings{}, app)
	m.paths.EXPECT().Expand(project.Dir, app.Sources).Return(nil, nil)
	m.logger.EXPECT().Warn("target app: sources matched no files")

	out := p.Build(context.Background(), app, domain.Upstream{})
	assert.Equal(t, domain.Outcome{Target: "app", State: domain.StateSkippedNoSources}, out)
}

func TestBuild_UpToDate(t *testing.T) {
	app := executable()
	p, project, m := setupPipeline(t, domain.Settings{}, app)
	touch(t, project.Dir, "build/app/app")

	m.paths.EXPECT().Expand(project.Dir, app.Sources).Return([]string{"main.c"}, nil)
	m.paths.EXPECT().Expand(project.Dir, app.Watching).Return([]string{"include/app.h"}, nil)
	m.cache.EXPECT().IsStale("build/app/main_c.o", "main.c").Return(false)
	m.cache.EXPECT().IsWatchedStale("include/app.h").Return(false)
	m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)

	out := p.Build(context.Background(), app, domain.Upstream{})
	assert.Equal(t, domain.StateSkippedNoChange, out.State)
	assert.False(t, out.Rebuilt)
	assert.NoError(t, out.Err)
}

func TestBuild_Executable(t *testing.T) {
	app := executable()
	app.Sources = []domain.SourceSpec{{Path: "src", Pattern: `.*\.c$`}}
	app.Prebuild = []string{"gen {build_dir} {target_name} {target_language}"}
	app.Postbuild = []string{"strip {outfile}"}

	p, project, m := setupPipeline(t, domain.Settings{}, app)
	dir := project.Dir

	m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"src/main.c", "src/util.c"}, nil)
	m.paths.EXPECT().Expand(dir, app.Watching).Return([]string{"include/app.h"}, nil)
	m.cache.EXPECT().IsStale("build/app/src_main_c.o", "src/main.c").Return(true)
	m.cache.EXPECT().IsStale("build/app/src_util_c.o", "src/util.c").Return(false)
	m.cache.EXPECT().IsWatchedStale(gomock.Any()).Return(false).Times(2)
	m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)

	gomock.InOrder(
		m.executor.EXPECT().Execute(gomock.Any(), hook(dir, "gen build/app/ app CC"), gomock.Any(), gomock.Any()).
			DoAndReturn(succeed),
		m.executor.EXPECT().Execute(gomock.Any(),
			cmd(dir, "cc", "-c", "-O2", "-o", "build/app/src_main_c.o", "src/main.c"),
			gomock.Any(), gomock.Any()).
			DoAndReturn(succeed),
		m.executor.EXPECT().Execute(gomock.Any(),
			cmd(dir, "cc", "-O2", "-o", "build/app/app", "build/app/src_main_c.o", "build/app/src_util_c.o", "-lm"),
			gomock.Any(), gomock.Any()).
			DoAndReturn(succeed),
		m.executor.EXPECT().Execute(gomock.Any(), hook(dir, "strip build/app/app"), gomock.Any(), gomock.Any()).
			DoAndReturn(succeed),
	)
	m.cache.EXPECT().Observe("include/app.h")
	m.cache.EXPECT().Observe(domain.ConfigFileName)

	out := p.Build(context.Background(), app, domain.Upstream{})
	require.NoError(t, out.Err)
	assert.Equal(t, domain.StateDone, out.State)
	assert.True(t, out.Rebuilt)
	assert.DirExists(t, filepath.Join(dir, "build", "app"))
}

func TestBuild_ForceRecompilesEverySource(t *testing.T) {
	app := executable()
	app.Watching = nil
	p, project, m := setupPipeline(t, domain.Settings{Force: true}, app)
	dir := project.Dir
	touch(t, dir, "build/app/app")

	m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"main.c", "util.c"}, nil)
	m.paths.EXPECT().Expand(dir, app.Watching).Return(nil, nil)
	m.cache.EXPECT().IsStale(gomock.Any(), gomock.Any()).Return(false).Times(2)
	m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
	m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)

	m.executor.EXPECT().Execute(gomock.Any(), cmd(dir, "cc", "-c", "-O2", "-o", "build/app/main_c.o", "main.c"),
		gomock.Any(), gomock.Any()).DoAndReturn(succeed)
	m.executor.EXPECT().Execute(gomock.Any(), cmd(dir, "cc", "-c", "-O2", "-o", "build/app/util_c.o", "util.c"),
		gomock.Any(), gomock.Any()).DoAndReturn(succeed)
	m.executor.EXPECT().Execute(gomock.Any(),
		cmd(dir, "cc", "-O2", "-o", "build/app/app", "build/app/main_c.o", "build/app/util_c.o", "-lm"),
		gomock.Any(), gomock.Any()).DoAndReturn(succeed)
	m.cache.EXPECT().Observe(domain.ConfigFileName)

	out := p.Build(context.Background(), app, domain.Upstream{})
	require.NoError(t, out.Err)
	assert.Equal(t, domain.StateDone, out.State)
}

func TestBuild_DependencyRebuiltRelinksOnly(t *testing.T) {
	core := &domain.Target{Name: "core", Type: domain.TargetLibrary, Static: true}
	app := executable()
	app.Watching = nil
	app.Dependencies = []string{"core"}

	p, project, m := setupPipeline(t, domain.Settings{}, core, app)
	dir := project.Dir
	touch(t, dir, "build/app/app")

	m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"main.c"}, nil)
	m.paths.EXPECT().Expand(dir, app.Watching).Return(nil, nil)
	m.cache.EXPECT().IsStale("build/app/main_c.o", "main.c").Return(false)
	m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
	m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)
	m.executor.EXPECT().Execute(gomock.Any(),
		cmd(dir, "cc", "-O2", "-o", "build/app/app", "build/app/main_c.o", "-lm"),
		gomock.Any(), gomock.Any()).DoAndReturn(succeed)
	m.cache.EXPECT().Observe(domain.ConfigFileName)

	out := p.Build(context.Background(), app, domain.Upstream{Rebuilt: true, Dependencies: []*domain.Target{core}})
	require.NoError(t, out.Err)
	assert.True(t, out.Rebuilt)
}

func TestBuild_DependencyArtifactNewer(t *testing.T) {
	core := &domain.Target{Name: "core", Type: domain.TargetLibrary, Static: true}
	app := executable()
	app.Watching = nil

	p, project, m := setupPipeline(t, domain.Settings{}, core, app)
	dir := project.Dir
	touch(t, dir, "build/app/app")

	m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"main.c"}, nil)
	m.paths.EXPECT().Expand(dir, app.Watching).Return(nil, nil)
	m.cache.EXPECT().IsStale("build/app/main_c.o", "main.c").Return(false)
	m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
	m.cache.EXPECT().IsStale("build/app/app", "build/core/libcore.a").Return(true)
	m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(succeed)
	m.cache.EXPECT().Observe(domain.ConfigFileName)

	out := p.Build(context.Background(), app, domain.Upstream{Dependencies: []*domain.Target{core}})
	require.NoError(t, out.Err)
	assert.Equal(t, domain.StateDone, out.State)
}

func TestBuild_Libraries(t *testing.T) {
	tests := []struct {
		name   string
		static bool
		setup  func(m pipelineMocks, dir string)
	}{
		{
			name:   "static",
			static: true,
			setup: func(m pipelineMocks, dir string) {
				m.finder.EXPECT().Archiver(gomock.Any(), gomock.Any()).Return("ar", nil)
				m.executor.EXPECT().Execute(gomock.Any(),
					cmd(dir, "ar", "rcs", "build/core/libcore.a", "build/core/core_c.o"),
					gomock.Any(), gomock.Any()).DoAndReturn(succeed)
			},
		},
		{
			name: "shared",
			setup: func(m pipelineMocks, dir string) {
				m.executor.EXPECT().Execute(gomock.Any(),
					cmd(dir, "cc", "-shared", "-fPIC", "-o", domain.ArtifactPath("build", &domain.Target{
						Name: "core", Type: domain.TargetLibrary,
					}), "build/core/core_c.o"),
					gomock.Any(), gomock.Any()).DoAndReturn(succeed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := &domain.Target{
				Name:     "core",
				Language: "CC",
				Type:     domain.TargetLibrary,
				Static:   tt.static,
				Sources:  []domain.SourceSpec{{Path: "core.c"}},
				Flags:    []domain.Flag{domain.LiteralFlag("-fPIC")},
			}
			p, project, m := setupPipeline(t, domain.Settings{}, core)
			dir := project.Dir

			m.paths.EXPECT().Expand(dir, core.Sources).Return([]string{"core.c"}, nil)
			m.paths.EXPECT().Expand(dir, core.Watching).Return(nil, nil)
			m.cache.EXPECT().IsStale("build/core/core_c.o", "core.c").Return(true)
			m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
			m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)
			m.executor.EXPECT().Execute(gomock.Any(),
				cmd(dir, "cc", "-c", "-fPIC", "-o", "build/core/core_c.o", "core.c"),
				gomock.Any(), gomock.Any()).DoAndReturn(succeed)
			tt.setup(m, dir)
			m.cache.EXPECT().Observe(domain.ConfigFileName)

			out := p.Build(context.Background(), core, domain.Upstream{})
			require.NoError(t, out.Err)
			assert.Equal(t, domain.StateDone, out.State)
		})
	}
}

func TestBuild_CompileFailureIsFatal(t *testing.T) {
	app := executable()
	p, project, m := setupPipeline(t, domain.Settings{}, app)
	dir := project.Dir

	m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"main.c"}, nil)
	m.paths.EXPECT().Expand(dir, app.Watching).Return([]string{"include/app.h"}, nil)
	m.cache.EXPECT().IsStale(gomock.Any(), gomock.Any()).Return(true)
	m.cache.EXPECT().IsWatchedStale(gomock.Any()).Return(false).Times(2)
	m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.Command, _, stderr io.Writer) error {
			_, _ = io.WriteString(stderr, "main.c:1: error: expected ';'\n")
			return zerr.With(errors.New("exit status 1"), "exit_code", 1)
		})
	m.cache.EXPECT().Pin("include/app.h")
	m.cache.EXPECT().Pin(domain.ConfigFileName)

	out := p.Build(context.Background(), app, domain.Upstream{})
	assert.Equal(t, domain.StateFailed, out.State)
	assert.True(t, out.Fatal)
	require.Error(t, out.Err)
	assert.ErrorContains(t, out.Err, domain.ErrCompileFailed.Error())

	var zErr *zerr.Error
	require.True(t, errors.As(out.Err, &zErr))
	meta := zErr.Metadata()
	assert.Equal(t, "app", meta["target"])
	assert.Equal(t, "main.c", meta["source"])
	assert.Contains(t, m.output.String(), "main.c:1: error: expected ';'")
}

func TestBuild_LinkFailureIsFatal(t *testing.T) {
	app := executable()
	app.Watching = nil
	p, project, m := setupPipeline(t, domain.Settings{}, app)
	dir := project.Dir

	m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"main.c"}, nil)
	m.paths.EXPECT().Expand(dir, app.Watching).Return(nil, nil)
	m.cache.EXPECT().IsStale(gomock.Any(), gomock.Any()).Return(false)
	m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
	m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.Command, _, stderr io.Writer) error {
			_, _ = io.WriteString(stderr, "ld: undefined reference to `main'\n")
			return errors.New("exit status 1")
		})
	m.cache.EXPECT().Pin(domain.ConfigFileName)

	out := p.Build(context.Background(), app, domain.Upstream{})
	assert.True(t, out.Fatal)
	assert.ErrorContains(t, out.Err, domain.ErrLinkFailed.Error())
	assert.Contains(t, m.output.String(), "ld: undefined reference to `main'")
}

func TestBuild_HookFailuresAreNotFatal(t *testing.T) {
	t.Run("prebuild stops the target before compiling", func(t *testing.T) {
		app := executable()
		app.Watching = nil
		app.Prebuild = []string{"false", "never"}
		p, project, m := setupPipeline(t, domain.Settings{}, app)
		dir := project.Dir

		m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"main.c"}, nil)
		m.paths.EXPECT().Expand(dir, app.Watching).Return(nil, nil)
		m.cache.EXPECT().IsStale(gomock.Any(), gomock.Any()).Return(true)
		m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
		m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)
		m.executor.EXPECT().Execute(gomock.Any(), hook(dir, "false"), gomock.Any(), gomock.Any()).
			Return(errors.New("exit status 1"))
		m.cache.EXPECT().Pin(domain.ConfigFileName)

		out := p.Build(context.Background(), app, domain.Upstream{})
		assert.Equal(t, domain.StateFailed, out.State)
		assert.False(t, out.Fatal)
		assert.False(t, out.Rebuilt)
		assert.ErrorContains(t, out.Err, domain.ErrHookFailed.Error())

		var zErr *zerr.Error
		require.True(t, errors.As(out.Err, &zErr))
		assert.Equal(t, string(domain.StatePrebuild), zErr.Metadata()["phase"])
	})

	t.Run("postbuild keeps the artifact", func(t *testing.T) {
		app := executable()
		app.Watching = nil
		app.Postbuild = []string{"install {outfile}"}
		p, project, m := setupPipeline(t, domain.Settings{}, app)
		dir := project.Dir

		m.paths.EXPECT().Expand(dir, app.Sources).Return([]string{"main.c"}, nil)
		m.paths.EXPECT().Expand(dir, app.Watching).Return(nil, nil)
		m.cache.EXPECT().IsStale(gomock.Any(), gomock.Any()).Return(true)
		m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
		m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).Return("cc", nil)
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(succeed).Times(2)
		m.executor.EXPECT().Execute(gomock.Any(), hook(dir, "install build/app/app"), gomock.Any(), gomock.Any()).
			Return(errors.New("exit status 2"))
		m.cache.EXPECT().Pin(domain.ConfigFileName)

		out := p.Build(context.Background(), app, domain.Upstream{})
		assert.Equal(t, domain.StateFailed, out.State)
		assert.False(t, out.Fatal)
		assert.True(t, out.Rebuilt)
	})
}

func TestBuild_ShellTarget(t *testing.T) {
	gen := &domain.Target{
		Name:     "gen",
		Type:     domain.TargetShell,
		Prebuild: []string{"mkdir -p {build_dir}", "touch {build_dir}{target_name}.h", "after"},
	}
	p, project, m := setupPipeline(t, domain.Settings{}, gen)
	dir := project.Dir

	gomock.InOrder(
		m.executor.EXPECT().Execute(gomock.Any(), hook(dir, "mkdir -p build/gen/"), gomock.Any(), gomock.Any()).
			DoAndReturn(succeed),
		m.executor.EXPECT().Execute(gomock.Any(), hook(dir, "touch build/gen/gen.h"), gomock.Any(), gomock.Any()).
			Return(errors.New("exit status 1")),
	)

	out := p.Build(context.Background(), gen, domain.Upstream{})
	assert.Equal(t, domain.StateFailed, out.State)
	assert.False(t, out.Fatal)
	assert.ErrorContains(t, out.Err, domain.ErrHookFailed.Error())
}

func TestBuild_CancelInterruptsRunningProcess(t *testing.T) {
	gen := &domain.Target{Name: "gen", Type: domain.TargetShell, Prebuild: []string{"sleep 60"}}
	p, project, m := setupPipeline(t, domain.Settings{}, gen)

	started := make(chan struct{})
	m.executor.EXPECT().Execute(gomock.Any(), hook(project.Dir, "sleep 60"), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *domain.Command, _, _ io.Writer) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	out := p.Build(ctx, gen, domain.Upstream{})
	assert.Equal(t, domain.StateFailed, out.State)
	assert.ErrorContains(t, out.Err, context.Canceled.Error())
}

func TestBuild_VerboseLogsCommands(t *testing.T) {
	gen := &domain.Target{Name: "gen", Type: domain.TargetShell, Prebuild: []string{"echo hi"}}
	p, project, m := setupPipeline(t, domain.Settings{Verbose: true}, gen)

	m.logger.EXPECT().Info("sh -c echo hi")
	m.executor.EXPECT().Execute(gomock.Any(), hook(project.Dir, "echo hi"), gomock.Any(), gomock.Any()).
		DoAndReturn(succeed)

	out := p.Build(context.Background(), gen, domain.Upstream{})
	assert.Equal(t, domain.StateDone, out.State)
}

func TestBuild_MissingCompilerIsFatal(t *testing.T) {
	app := executable()
	app.Watching = nil
	p, project, m := setupPipeline(t, domain.Settings{}, app)

	m.paths.EXPECT().Expand(project.Dir, app.Sources).Return([]string{"main.c"}, nil)
	m.paths.EXPECT().Expand(project.Dir, app.Watching).Return(nil, nil)
	m.cache.EXPECT().IsStale(gomock.Any(), gomock.Any()).Return(true)
	m.cache.EXPECT().IsWatchedStale(domain.ConfigFileName).Return(false)
	m.finder.EXPECT().Find(gomock.Any(), project, gomock.Any()).
		Return("", zerr.With(domain.ErrNoSuitableCompiler, "language", "CC"))

	out := p.Build(context.Background(), app, domain.Upstream{})
	assert.True(t, out.Fatal)
	assert.ErrorContains(t, out.Err, domain.ErrNoSuitableCompiler.Error())
}
