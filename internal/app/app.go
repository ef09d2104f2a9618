// Package app implements the application layer for zen.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.trai.ch/zen/internal/adapters/detector"
	"go.trai.ch/zen/internal/adapters/linear"
	"go.trai.ch/zen/internal/adapters/settings"
	"go.trai.ch/zen/internal/adapters/telemetry"
	"go.trai.ch/zen/internal/adapters/watcher"
	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zen/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader   ports.ConfigLoader
	settingsLoader ports.SettingsLoader
	orchestrator   *orchestrator.Orchestrator
	watcher        ports.Watcher
	logger         ports.Logger

	stdout   io.Writer
	stderr   io.Writer
	debounce time.Duration
}

// New creates a new App instance.
func New(
	configLoader ports.ConfigLoader,
	settingsLoader ports.SettingsLoader,
	orch *orchestrator.Orchestrator,
	fileWatcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader:   configLoader,
		settingsLoader: settingsLoader,
		orchestrator:   orch,
		watcher:        fileWatcher,
		logger:         log,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		debounce:       watcher.DefaultDebounceWindow,
	}
}

// WithOutput redirects process output and progress lines.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithDebounce sets the quiet period watch mode waits for before rebuilding.
func (a *App) WithDebounce(window time.Duration) *App {
	a.debounce = window
	return a
}

// Options select the project and the settings of a command.
type Options struct {
	// Dir is where the search for build.zen starts. Empty means the working directory.
	Dir string
	// Flags are the command line flags bound to settings. May be nil.
	Flags *pflag.FlagSet
	// OutputMode is one of "auto", "tty", "plain" or "ci".
	OutputMode string
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// KeepCache retains the staleness ledger.
	KeepCache bool
}

// jsonLogger is implemented by loggers that can switch to JSON output.
type jsonLogger interface {
	SetJSON(enable bool)
}

// Build builds the requested targets and their dependencies, or every target.
func (a *App) Build(ctx context.Context, targets []string, opts Options) error {
	project, cfg, err := a.load(opts)
	if err != nil {
		return err
	}

	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)
	return a.build(ctx, project, cfg, targets, mode)
}

// Plan prints the resolved build order without building anything.
func (a *App) Plan(_ context.Context, targets []string, opts Options) error {
	project, _, err := a.load(opts)
	if err != nil {
		return err
	}

	plan, err := a.orchestrator.Plan(project, targets)
	if err != nil {
		return err
	}
	return WritePlan(a.stdout, plan)
}

// WritePlan prints one target per line in build order, followed by its direct dependencies.
func WritePlan(w io.Writer, plan orchestrator.Plan) error {
	for i, name := range plan.Targets {
		line := fmt.Sprintf("%d. %s", i+1, name)
		if deps := plan.Dependencies[name]; len(deps) > 0 {
			line += " <- " + strings.Join(deps, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes the build directory and, unless kept, the staleness ledger.
func (a *App) Clean(_ context.Context, opts Options, clean CleanOptions) error {
	project, cfg, err := a.load(opts)
	if err != nil {
		return err
	}

	var errs error
	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(project.Abs(cfg.BuildDir), "build directory")
	if !clean.KeepCache {
		remove(project.Abs(cfg.CacheFile), "staleness ledger")
	}
	return errs
}

// Watch builds once and then rebuilds whenever a file under the project changes.
// Build failures are logged and watching continues. It returns when ctx is done.
func (a *App) Watch(ctx context.Context, targets []string, opts Options) error {
	project, cfg, err := a.load(opts)
	if err != nil {
		return err
	}
	mode := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)

	a.report(a.build(ctx, project, cfg, targets, mode))

	if err := a.watcher.Start(ctx, project.Dir); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A rebuild is already queued and will see these changes too.
		}
	})

	filter := newOutputFilter(project, cfg)
	go func() {
		for event := range a.watcher.Events() {
			if !filter.ignored(event.Path) {
				debouncer.Add(event.Path)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			a.logger.Info(fmt.Sprintf("%d file(s) changed, rebuilding", len(paths)))
			project, cfg, err := a.load(opts)
			if err != nil {
				a.logger.Error(err)
				continue
			}
			a.report(a.build(ctx, project, cfg, targets, mode))
		}
	}
}

// report logs a failed watch build. Fatal build failures were already shown by the renderer.
func (a *App) report(err error) {
	if err != nil && !errors.Is(err, domain.ErrBuildExecutionFailed) {
		a.logger.Error(err)
	}
}

func (a *App) load(opts Options) (*domain.Project, domain.Settings, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	cfg, err := a.settingsLoader.Load(dir, opts.Flags)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	if l, ok := a.logger.(jsonLogger); ok {
		l.SetJSON(cfg.LogFormat == settings.LogFormatJSON)
	}

	project, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return project, cfg, nil
}

func (a *App) build(
	ctx context.Context,
	project *domain.Project,
	cfg domain.Settings,
	targets []string,
	mode detector.OutputMode,
) error {
	renderer := linear.NewRenderer(a.stdout, a.stderr)
	tracer := telemetry.NewOTelTracer(renderer)
	defer func() {
		_ = tracer.Shutdown(context.WithoutCancel(ctx))
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		_, err := a.orchestrator.Build(ctx, orchestrator.Request{
			Project:     project,
			Settings:    cfg,
			Targets:     targets,
			Tracer:      tracer,
			Interactive: mode.Interactive(),
		})
		return err
	})

	return g.Wait()
}

// outputFilter recognises paths the build itself writes, so watch mode does not
// rebuild in response to its own outputs.
type outputFilter struct {
	buildDir string
	ledger   string
}

func newOutputFilter(project *domain.Project, cfg domain.Settings) outputFilter {
	return outputFilter{
		buildDir: filepath.Clean(project.Abs(cfg.BuildDir)),
		ledger:   filepath.Clean(project.Abs(cfg.CacheFile)),
	}
}

func (f outputFilter) ignored(path string) bool {
	path = filepath.Clean(path)
	if path == f.buildDir || strings.HasPrefix(path, f.buildDir+string(filepath.Separator)) {
		return true
	}
	// The ledger is replaced through temporary siblings named after it.
	return path == f.ledger ||
		(filepath.Dir(path) == filepath.Dir(f.ledger) && strings.HasPrefix(filepath.Base(path), filepath.Base(f.ledger)+"."))
}
