// Package orchestrator runs a build: sanity checks, graph resolution, the worker
// pool and the staleness ledger lifecycle.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zen/internal/engine/flags"
	"go.trai.ch/zen/internal/engine/pipeline"
	"go.trai.ch/zen/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Orchestrator builds projects.
type Orchestrator struct {
	executor ports.Executor
	paths    ports.PathResolver
	finder   ports.CompilerFinder
	ledger   ports.StalenessCacheLoader
	logger   ports.Logger
}

// New creates an Orchestrator.
func New(
	executor ports.Executor,
	paths ports.PathResolver,
	finder ports.CompilerFinder,
	ledger ports.StalenessCacheLoader,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		executor: executor,
		paths:    paths,
		finder:   finder,
		ledger:   ledger,
		logger:   logger,
	}
}

// Request describes a single build.
type Request struct {
	Project  *domain.Project
	Settings domain.Settings
	// Targets are the requested target names. Empty builds every target.
	Targets []string
	Tracer  ports.Tracer
	// Interactive runs hook commands in a pseudo-terminal.
	Interactive bool
}

// Report is the result of a build.
type Report struct {
	// Outcomes holds the targets that ran, in build order.
	Outcomes []domain.Outcome
	Summary  domain.Summary
}

// Plan is the resolved build order of a request.
type Plan struct {
	// Targets are the target names in build order.
	Targets []string
	// Dependencies maps every planned target to its direct dependencies.
	Dependencies map[string][]string
}

// Build runs the request. Non-fatal target failures are logged and do not fail
// the build; fatal ones are returned joined with ErrBuildExecutionFailed. The
// ledger is flushed exactly once, after the worker pool has drained. Paths
// watched by targets that did not run keep their recorded mtimes.
func (o *Orchestrator) Build(ctx context.Context, req Request) (Report, error) {
	project, settings := req.Project, req.Settings
	compilers := pipeline.NewCompilers(o.finder, project)

	if err := o.check(ctx, project, settings, compilers); err != nil {
		return Report{}, err
	}

	plan, graph, err := resolvePlan(project, req.Targets)
	if err != nil {
		return Report{}, err
	}
	req.Tracer.EmitPlan(ctx, plan.Targets, plan.Dependencies, req.Targets)

	cache, err := o.ledger.Load(project.Dir, settings.CacheFile)
	if err != nil {
		return Report{}, err
	}

	p := pipeline.New(project, settings, pipeline.Deps{
		Executor:    o.executor,
		Paths:       o.paths,
		Cache:       cache,
		Tracer:      req.Tracer,
		Logger:      o.logger,
		Flags:       flags.NewResolver(o.executor),
		Compilers:   compilers,
		Slots:       semaphore.NewWeighted(int64(max(settings.Jobs, 1))),
		Interactive: req.Interactive,
	})

	sched := scheduler.NewScheduler(p)
	outcomes, runErr := sched.Run(ctx, graph, plan.Targets, settings.Jobs)

	report := Report{Outcomes: outcomes}
	for _, out := range outcomes {
		report.Summary.Add(out)
		if out.State == domain.StateFailed && !out.Fatal && out.Err != nil {
			o.logger.Error(out.Err)
		}
	}

	o.pinUnbuilt(project, outcomes, cache)
	flushErr := cache.Flush()
	o.logger.Info(summaryLine(report.Summary))

	if runErr != nil {
		if pending := sched.NotStarted(); len(pending) > 0 {
			o.logger.Warn(fmt.Sprintf("not started after fatal failure: %s", strings.Join(pending, ", ")))
		}
		return report, errors.Join(domain.ErrBuildExecutionFailed, runErr, flushErr)
	}
	return report, flushErr
}

// Plan resolves the build order of the requested targets without building them.
func (o *Orchestrator) Plan(project *domain.Project, targets []string) (Plan, error) {
	plan, _, err := resolvePlan(project, targets)
	return plan, err
}

// Check runs the sanity checks of project.
func (o *Orchestrator) Check(ctx context.Context, project *domain.Project, settings domain.Settings) error {
	return o.check(ctx, project, settings, pipeline.NewCompilers(o.finder, project))
}

// check collects every sanity finding: languages resolve, declared languages have
// a compiler, declared paths exist, flag rules hold and the build dir is creatable.
func (o *Orchestrator) check(
	ctx context.Context,
	project *domain.Project,
	settings domain.Settings,
	compilers *pipeline.Compilers,
) error {
	var errs []error

	declared := make(map[string]bool, len(project.Languages))
	for _, name := range project.Languages {
		lang, err := domain.ResolveLanguage(name, project.Overrides.Languages)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		declared[lang.Name] = true
		if _, err := compilers.Compiler(ctx, lang); err != nil {
			errs = append(errs, err)
		}
	}

	for _, t := range project.Targets {
		if t.IsCompiled() {
			lang, err := domain.ResolveLanguage(t.Language, project.Overrides.Languages)
			switch {
			case err != nil:
				errs = append(errs, zerr.With(err, "target", t.Name))
			case len(declared) > 0 && !declared[lang.Name]:
				errs = append(errs, zerr.With(zerr.With(domain.ErrLanguageNotDeclared,
					"target", t.Name), "language", t.Language))
			}

			if err := o.paths.Check(project.Dir, t.Sources); err != nil {
				errs = append(errs, zerr.With(err, "target", t.Name))
			}
		}
		if err := o.paths.Check(project.Dir, t.Watching); err != nil {
			errs = append(errs, zerr.With(err, "target", t.Name))
		}
	}

	if err := flags.Check(project); err != nil {
		errs = append(errs, err)
	}

	buildDir := project.Abs(settings.BuildDir)
	if err := os.MkdirAll(buildDir, domain.DirPerm); err != nil {
		errs = append(errs, zerr.With(zerr.Wrap(err, domain.ErrBuildDirCreateFailed.Error()), "path", buildDir))
	}

	if len(errs) > 0 {
		return zerr.Wrap(errors.Join(errs...), domain.ErrConfigSanity.Error())
	}
	return nil
}

// pinUnbuilt pins the ledger paths of compiled targets that did not run, so a
// change seen by the targets that did run still reaches them on a later build.
func (o *Orchestrator) pinUnbuilt(project *domain.Project, outcomes []domain.Outcome, cache ports.StalenessCache) {
	ran := make(map[string]bool, len(outcomes))
	for _, out := range outcomes {
		ran[out.Target] = true
	}

	for _, t := range project.Targets {
		if !t.IsCompiled() || ran[t.Name] {
			continue
		}
		if project.ConfigPath != "" {
			cache.Pin(project.ConfigPath)
		}
		if len(t.Watching) == 0 {
			continue
		}
		watched, err := o.paths.Expand(project.Dir, t.Watching)
		if err != nil {
			o.logger.Warn(fmt.Sprintf("target %s: watched paths not kept: %v", t.Name, err))
			continue
		}
		for _, path := range watched {
			cache.Pin(path)
		}
	}
}

func resolvePlan(project *domain.Project, targets []string) (Plan, *domain.Graph, error) {
	_, graph, err := domain.Resolve(project.Targets)
	if err != nil {
		return Plan{}, nil, err
	}

	names := graph.Order()
	if len(targets) > 0 {
		names, err = graph.Closure(targets)
		if err != nil {
			return Plan{}, nil, err
		}
	}

	deps := make(map[string][]string, len(names))
	for _, name := range names {
		deps[name] = slices.Clone(graph.Dependencies(name))
	}
	return Plan{Targets: names, Dependencies: deps}, graph, nil
}

func summaryLine(s domain.Summary) string {
	return fmt.Sprintf("%d built, %d up to date, %d failed", s.Built, s.Skipped, s.Failed)
}
