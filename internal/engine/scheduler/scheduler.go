// Package scheduler dispatches the targets of a build to a bounded pool of workers.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.trai.ch/zen/internal/core/domain"
)

// TaskStatus represents the status of a target within a run.
type TaskStatus string

const (
	// StatusPending indicates the target is waiting for its dependencies.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the target is being built.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the target was built.
	StatusCompleted TaskStatus = "Completed"
	// StatusSkipped indicates the target was up to date or had no sources.
	StatusSkipped TaskStatus = "Skipped"
	// StatusFailed indicates a build step of the target failed.
	StatusFailed TaskStatus = "Failed"
)

// Runner builds a single target.
type Runner interface {
	Build(ctx context.Context, target *domain.Target, up domain.Upstream) domain.Outcome
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, target *domain.Target, up domain.Upstream) domain.Outcome

// Build calls f.
func (f RunnerFunc) Build(ctx context.Context, target *domain.Target, up domain.Upstream) domain.Outcome {
	return f(ctx, target, up)
}

// Scheduler manages the execution of targets in the dependency graph.
type Scheduler struct {
	runner Runner

	mu         sync.RWMutex
	order      []string
	taskStatus map[string]TaskStatus
}

// NewScheduler creates a new Scheduler that builds targets with runner.
func NewScheduler(runner Runner) *Scheduler {
	return &Scheduler{
		runner:     runner,
		taskStatus: make(map[string]TaskStatus),
	}
}

func (s *Scheduler) initTaskStatuses(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = slices.Clone(names)
	clear(s.taskStatus)
	for _, name := range names {
		s.taskStatus[name] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name string, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// NotStarted returns the targets of the last Run that were never dispatched, in build order.
func (s *Scheduler) NotStarted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, name := range s.order {
		if s.taskStatus[name] == StatusPending {
			out = append(out, name)
		}
	}
	return out
}

// Run builds the named targets with at most parallelism targets in flight.
// names must be in build order and closed under dependencies; graph must be validated.
//
// A target starts once every dependency reached a terminal state, whether it
// failed or not. A fatal outcome stops dispatching new targets. Targets already
// running are waited for and keep ctx, so only cancelling ctx interrupts them.
// Outcomes are returned in build order for the targets that ran, along with the
// joined fatal errors.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	names []string,
	parallelism int,
) ([]domain.Outcome, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	s.initTaskStatuses(names)

	dispatchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := s.newRunState(ctx, dispatchCtx, cancel, graph, names, parallelism)
	state.runExecutionLoop()

	if err := ctx.Err(); err != nil {
		state.errs = errors.Join(state.errs, err)
	}

	outcomes := make([]domain.Outcome, 0, len(state.outcomes))
	for _, name := range names {
		if out, ok := state.outcomes[name]; ok {
			outcomes = append(outcomes, out)
		}
	}
	return outcomes, state.errs
}

type schedulerRunState struct {
	graph       *domain.Graph
	inDegree    map[string]int
	position    map[string]int
	ready       []string
	active      int
	resultsCh   chan domain.Outcome
	outcomes    map[string]domain.Outcome
	errs        error
	runCtx      context.Context
	ctx         context.Context
	cancel      context.CancelFunc
	parallelism int
	s           *Scheduler
}

func (s *Scheduler) newRunState(
	runCtx context.Context,
	ctx context.Context,
	cancel context.CancelFunc,
	graph *domain.Graph,
	names []string,
	parallelism int,
) *schedulerRunState {
	inRun := make(map[string]bool, len(names))
	position := make(map[string]int, len(names))
	for i, name := range names {
		inRun[name] = true
		position[name] = i
	}

	inDegree := make(map[string]int, len(names))
	var ready []string
	for _, name := range names {
		degree := 0
		for _, dep := range graph.Dependencies(name) {
			if inRun[dep] {
				degree++
			}
		}
		inDegree[name] = degree
		if degree == 0 {
			ready = append(ready, name)
		}
	}

	return &schedulerRunState{
		graph:       graph,
		inDegree:    inDegree,
		position:    position,
		ready:       ready,
		resultsCh:   make(chan domain.Outcome, parallelism),
		outcomes:    make(map[string]domain.Outcome, len(names)),
		runCtx:      runCtx,
		ctx:         ctx,
		cancel:      cancel,
		parallelism: parallelism,
		s:           s,
	}
}

func (state *schedulerRunState) runExecutionLoop() {
	for {
		state.schedule()
		if state.active == 0 {
			return
		}
		state.handleResult(<-state.resultsCh)
	}
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]

		target, _ := state.graph.Target(name)
		up := state.upstream(name)

		state.active++
		state.s.updateStatus(name, StatusRunning)

		go func() {
			out := state.s.runner.Build(state.runCtx, target, up)
			out.Target = name
			state.resultsCh <- out
		}()
	}
}

func (state *schedulerRunState) upstream(name string) domain.Upstream {
	var up domain.Upstream
	for _, dep := range state.graph.Dependencies(name) {
		if t, ok := state.graph.Target(dep); ok {
			up.Dependencies = append(up.Dependencies, t)
		}
		if state.outcomes[dep].Rebuilt {
			up.Rebuilt = true
		}
	}
	return up
}

func (state *schedulerRunState) handleResult(out domain.Outcome) {
	state.active--
	state.outcomes[out.Target] = out

	switch {
	case out.State == domain.StateFailed:
		state.s.updateStatus(out.Target, StatusFailed)
	case out.State.IsSkipped():
		state.s.updateStatus(out.Target, StatusSkipped)
	default:
		state.s.updateStatus(out.Target, StatusCompleted)
	}

	if out.Fatal {
		state.errs = errors.Join(state.errs, out.Err)
		state.cancel()
	}

	released := false
	for _, dep := range state.graph.Dependents(out.Target) {
		if _, ok := state.inDegree[dep]; !ok {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
			released = true
		}
	}
	if released {
		slices.SortFunc(state.ready, func(a, b string) int {
			return state.position[a] - state.position[b]
		})
	}
}
