// Package pipeline drives a single target through prebuild, compile, link and postbuild.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zen/internal/engine/flags"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Span attributes set on the root span of a target.
const (
	AttrState   = "zen.state"
	AttrSkipped = "zen.skipped"
	AttrReason  = "zen.reason"
)

// Deps are the collaborators shared by every target of a run.
type Deps struct {
	Executor  ports.Executor
	Paths     ports.PathResolver
	Cache     ports.StalenessCache
	Tracer    ports.Tracer
	Logger    ports.Logger
	Flags     *flags.Resolver
	Compilers *Compilers
	// Slots bounds the external processes running at once.
	Slots *semaphore.Weighted
	// Interactive attaches hook processes to a pseudo-terminal.
	Interactive bool
}

// Pipeline builds the targets of one run.
type Pipeline struct {
	project  *domain.Project
	settings domain.Settings
	deps     Deps
}

// New creates a Pipeline for project.
func New(project *domain.Project, settings domain.Settings, deps Deps) *Pipeline {
	return &Pipeline{project: project, settings: settings, deps: deps}
}

// Build runs target through its states and reports where it ended.
//
// Compile and link failures are fatal. Hook failures mark the target failed
// without being fatal. Cancelling ctx interrupts running processes. A failed
// compile stops the target's remaining sources from starting but lets the
// compiles already running finish.
func (p *Pipeline) Build(ctx context.Context, target *domain.Target, up domain.Upstream) domain.Outcome {
	ctx, span := p.deps.Tracer.Start(ctx, target.Name)
	defer span.End()

	var out domain.Outcome
	if target.IsCompiled() {
		out = p.buildCompiled(ctx, span, target, up)
	} else {
		out = p.buildShell(ctx, span, target)
	}
	out.Target = target.Name

	span.SetAttribute(AttrState, string(out.State))
	if out.State.IsSkipped() {
		span.SetAttribute(AttrSkipped, true)
	}
	if out.Err != nil {
		span.RecordError(out.Err)
	}
	return out
}

func (p *Pipeline) buildShell(ctx context.Context, span ports.Span, t *domain.Target) domain.Outcome {
	span.SetAttribute(AttrState, string(domain.StatePrebuild))
	vars := p.placeholders(t, t.Language, "")
	if err := p.hooks(ctx, t, domain.StatePrebuild, t.Prebuild, vars); err != nil {
		return failed(err, false)
	}
	return domain.Outcome{State: domain.StateDone}
}

type plan struct {
	lang      domain.LanguageConfig
	compiler  string
	flags     flags.Resolved
	sources   []string
	objects   []string
	stale     []bool
	watched   []string
	artifact  string
	recompile bool
}

func (p *Pipeline) buildCompiled(
	ctx context.Context,
	span ports.Span,
	t *domain.Target,
	up domain.Upstream,
) domain.Outcome {
	pl, out, done := p.prepare(ctx, span, t, up)
	if done {
		return out
	}

	vars := p.placeholders(t, pl.lang.Name, "")
	buildDir := p.project.Abs(domain.TargetBuildDir(p.settings.BuildDir, t.Name))
	if err := os.MkdirAll(buildDir, domain.DirPerm); err != nil {
		return failed(zerr.With(zerr.Wrap(err, domain.ErrBuildDirCreateFailed.Error()), "path", buildDir), true)
	}

	span.SetAttribute(AttrState, string(domain.StatePrebuild))
	if err := p.hooks(ctx, t, domain.StatePrebuild, t.Prebuild, vars); err != nil {
		p.keep(pl.watched)
		return failed(err, false)
	}

	span.SetAttribute(AttrState, string(domain.StateCompiling))
	if err := p.compileAll(ctx, t, pl); err != nil {
		p.keep(pl.watched)
		return failed(err, true)
	}

	span.SetAttribute(AttrState, string(domain.StateLinking))
	if err := p.link(ctx, t, pl); err != nil {
		p.keep(pl.watched)
		return failed(err, true)
	}

	span.SetAttribute(AttrState, string(domain.StatePostbuild))
	vars = p.placeholders(t, pl.lang.Name, pl.artifact)
	if err := p.hooks(ctx, t, domain.StatePostbuild, t.Postbuild, vars); err != nil {
		p.keep(pl.watched)
		out := failed(err, false)
		out.Rebuilt = true
		return out
	}

	p.observe(pl.watched)
	return domain.Outcome{State: domain.StateDone, Rebuilt: true}
}

// prepare expands the target's paths, decides staleness and resolves what the
// build steps need. When done is true, out is the final outcome.
func (p *Pipeline) prepare(
	ctx context.Context,
	span ports.Span,
	t *domain.Target,
	up domain.Upstream,
) (pl plan, out domain.Outcome, done bool) {
	lang, err := domain.ResolveLanguage(t.Language, p.project.Overrides.Languages)
	if err != nil {
		return pl, failed(zerr.With(err, "target", t.Name), true), true
	}
	pl.lang = lang

	sources, err := p.deps.Paths.Expand(p.project.Dir, t.Sources)
	if err != nil {
		return pl, failed(zerr.With(err, "target", t.Name), true), true
	}
	if len(sources) == 0 {
		p.deps.Logger.Warn(fmt.Sprintf("target %s: sources matched no files", t.Name))
		return pl, domain.Outcome{State: domain.StateSkippedNoSources}, true
	}
	pl.sources = sources

	watched, err := p.deps.Paths.Expand(p.project.Dir, t.Watching)
	if err != nil {
		return pl, failed(zerr.With(err, "target", t.Name), true), true
	}
	pl.watched = watched

	pl.artifact = domain.ArtifactPath(p.settings.BuildDir, t)
	reason := p.staleness(t, up, &pl)
	if reason == "" {
		return pl, domain.Outcome{State: domain.StateSkippedNoChange}, true
	}
	span.SetAttribute(AttrReason, reason)

	pl.compiler, err = p.deps.Compilers.Compiler(ctx, lang)
	if err != nil {
		return pl, failed(zerr.With(err, "target", t.Name), true), true
	}

	pl.flags, err = p.deps.Flags.Resolve(ctx, p.project, t, lang, p.settings.BuildDir)
	if err != nil {
		return pl, failed(err, true), true
	}

	return pl, domain.Outcome{}, false
}

// staleness fills the object list of pl and returns why the target must be
// rebuilt, or "" when it is up to date. Every watched path is checked so that
// first observations are recorded.
func (p *Pipeline) staleness(t *domain.Target, up domain.Upstream, pl *plan) string {
	var reasons []string

	pl.objects = make([]string, len(pl.sources))
	pl.stale = make([]bool, len(pl.sources))
	for i, src := range pl.sources {
		pl.objects[i] = domain.ObjectPath(p.settings.BuildDir, t.Name, src)
		pl.stale[i] = p.deps.Cache.IsStale(pl.objects[i], src)
	}
	if slices.Contains(pl.stale, true) {
		reasons = append(reasons, "sources changed")
	}

	watchedStale := false
	for _, w := range pl.watched {
		if p.deps.Cache.IsWatchedStale(w) {
			watchedStale = true
		}
	}
	if watchedStale {
		reasons = append(reasons, "watched files changed")
	}

	if p.project.ConfigPath != "" && p.deps.Cache.IsWatchedStale(p.project.ConfigPath) {
		reasons = append(reasons, "build file changed")
		watchedStale = true
	}

	if _, err := os.Stat(p.project.Abs(pl.artifact)); err != nil {
		reasons = append(reasons, "artifact missing")
	}

	if up.Rebuilt {
		reasons = append(reasons, "dependency rebuilt")
	} else if p.dependencyNewer(pl.artifact, up.Dependencies) {
		reasons = append(reasons, "dependency newer")
	}

	if p.settings.Force {
		reasons = append(reasons, "forced")
	}

	pl.recompile = watchedStale || p.settings.Force
	return strings.Join(reasons, ", ")
}

func (p *Pipeline) dependencyNewer(artifact string, deps []*domain.Target) bool {
	for _, dep := range deps {
		if !dep.IsCompiled() {
			continue
		}
		depArtifact := domain.ArtifactPath(p.settings.BuildDir, dep)
		if p.deps.Cache.IsStale(artifact, depArtifact) {
			return true
		}
	}
	return false
}

func (p *Pipeline) compileAll(ctx context.Context, t *domain.Target, pl plan) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range pl.sources {
		if !pl.recompile && !pl.stale[i] {
			continue
		}
		obj := pl.objects[i]
		g.Go(func() error {
			return p.compile(ctx, gctx, t, pl, src, obj)
		})
	}
	return g.Wait()
}

func (p *Pipeline) compile(ctx, start context.Context, t *domain.Target, pl plan, source, object string) error {
	ctx, span := p.deps.Tracer.Start(ctx, "compile "+source)
	defer span.End()

	args := make([]string, 0, len(pl.flags.Compile)+4)
	args = append(args, "-c")
	args = append(args, pl.flags.Compile...)
	args = append(args, "-o", object, source)

	var diagnostics bytes.Buffer
	err := p.run(ctx, start, &domain.Command{Name: pl.compiler, Args: args, Dir: p.project.Dir}, span, &diagnostics)
	_, _ = diagnostics.WriteTo(span)
	if err != nil {
		err = zerr.With(stepError(err, domain.ErrCompileFailed, t), "source", source)
		span.RecordError(err)
		return err
	}
	return nil
}

func (p *Pipeline) link(ctx context.Context, t *domain.Target, pl plan) error {
	ctx, span := p.deps.Tracer.Start(ctx, "link "+filepath.Base(pl.artifact))
	defer span.End()

	cmd := &domain.Command{Dir: p.project.Dir}
	switch {
	case t.Type == domain.TargetLibrary && t.Static:
		archiver, err := p.deps.Compilers.Archiver(ctx)
		if err != nil {
			span.RecordError(err)
			return zerr.With(err, "target", t.Name)
		}
		// ar updates archives in place; start over so removed sources drop out.
		if err := os.Remove(p.project.Abs(pl.artifact)); err != nil && !errors.Is(err, os.ErrNotExist) {
			span.RecordError(err)
			return zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "target", t.Name)
		}
		cmd.Name = archiver
		cmd.Args = append([]string{"rcs", pl.artifact}, pl.objects...)
	case t.Type == domain.TargetLibrary:
		cmd.Name = pl.compiler
		cmd.Args = linkArgs([]string{"-shared"}, pl)
	default:
		cmd.Name = pl.compiler
		cmd.Args = linkArgs(nil, pl)
	}

	var diagnostics bytes.Buffer
	err := p.run(ctx, ctx, cmd, span, &diagnostics)
	_, _ = diagnostics.WriteTo(span)
	if err != nil {
		err = stepError(err, domain.ErrLinkFailed, t)
		span.RecordError(err)
		return err
	}
	return nil
}

func linkArgs(prefix []string, pl plan) []string {
	args := make([]string, 0, len(prefix)+len(pl.flags.Compile)+len(pl.objects)+len(pl.flags.Link)+2)
	args = append(args, prefix...)
	args = append(args, pl.flags.Compile...)
	args = append(args, "-o", pl.artifact)
	args = append(args, pl.objects...)
	return append(args, pl.flags.Link...)
}

func (p *Pipeline) hooks(
	ctx context.Context,
	t *domain.Target,
	phase domain.State,
	commands []string,
	vars *strings.Replacer,
) error {
	if len(commands) == 0 {
		return nil
	}

	ctx, span := p.deps.Tracer.Start(ctx, string(phase))
	defer span.End()

	for _, command := range commands {
		line := vars.Replace(command)
		cmd := &domain.Command{
			Name: "sh",
			Args: []string{"-c", line},
			Dir:  p.project.Dir,
			TTY:  p.deps.Interactive,
		}
		if err := p.run(ctx, ctx, cmd, span, span); err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrHookFailed.Error()), "target", t.Name)
			err = zerr.With(zerr.With(err, "phase", string(phase)), "command", line)
			span.RecordError(err)
			return err
		}
	}
	return nil
}

// run executes cmd once a process slot is free. start gates the launch and
// ctx is handed to the process.
func (p *Pipeline) run(ctx, start context.Context, cmd *domain.Command, stdout, stderr io.Writer) error {
	if err := p.deps.Slots.Acquire(start, 1); err != nil {
		return zerr.With(zerr.Wrap(err, "build cancelled"), "command", cmd.Name)
	}
	defer p.deps.Slots.Release(1)

	// Acquire may win a free slot even when start is already done.
	if err := start.Err(); err != nil {
		return zerr.With(zerr.Wrap(err, "build cancelled"), "command", cmd.Name)
	}

	if p.settings.Verbose {
		p.deps.Logger.Info(cmd.Line())
	}
	return p.deps.Executor.Execute(ctx, cmd, stdout, stderr)
}

func (p *Pipeline) placeholders(t *domain.Target, language, outfile string) *strings.Replacer {
	buildDir := filepath.ToSlash(domain.TargetBuildDir(p.settings.BuildDir, t.Name)) + "/"
	pairs := []string{
		"{build_dir}", buildDir,
		"{target_name}", t.Name,
		"{target_language}", language,
	}
	if outfile != "" {
		pairs = append(pairs, "{outfile}", filepath.ToSlash(outfile))
	}
	return strings.NewReplacer(pairs...)
}

func (p *Pipeline) observe(watched []string) {
	for _, path := range p.ledgerPaths(watched) {
		p.deps.Cache.Observe(path)
	}
}

// keep pins the watched paths of a failed target so the next run sees them stale again.
func (p *Pipeline) keep(watched []string) {
	for _, path := range p.ledgerPaths(watched) {
		p.deps.Cache.Pin(path)
	}
}

func (p *Pipeline) ledgerPaths(watched []string) []string {
	if p.project.ConfigPath == "" {
		return watched
	}
	return append(slices.Clone(watched), p.project.ConfigPath)
}

func stepError(err, sentinel error, t *domain.Target) error {
	return zerr.With(zerr.Wrap(err, sentinel.Error()), "target", t.Name)
}

func failed(err error, fatal bool) domain.Outcome {
	return domain.Outcome{State: domain.StateFailed, Fatal: fatal, Err: err}
}
