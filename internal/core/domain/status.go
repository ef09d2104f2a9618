package domain

// State is a step of the per-target build pipeline.
type State string

const (
	// StatePending means the target has not been dispatched yet.
	StatePending State = "pending"
	// StateSkippedNoChange means nothing the target depends on changed.
	StateSkippedNoChange State = "skipped (no change)"
	// StateSkippedNoSources means the target resolved to an empty source list.
	StateSkippedNoSources State = "skipped (no sources)"
	// StatePrebuild means prebuild commands are running.
	StatePrebuild State = "prebuild"
	// StateCompiling means sources are being compiled.
	StateCompiling State = "compiling"
	// StateLinking means objects are being linked or archived.
	StateLinking State = "linking"
	// StatePostbuild means postbuild commands are running.
	StatePostbuild State = "postbuild"
	// StateDone means the target was rebuilt successfully.
	StateDone State = "done"
	// StateFailed means a build step of the target failed.
	StateFailed State = "failed"
)

// IsTerminal reports whether no further transitions follow.
func (s State) IsTerminal() bool {
	switch s {
	case StateSkippedNoChange, StateSkippedNoSources, StateDone, StateFailed:
		return true
	default:
		return false
	}
}

// IsSkipped reports whether the target finished without rebuilding.
func (s State) IsSkipped() bool {
	return s == StateSkippedNoChange || s == StateSkippedNoSources
}

// Outcome is the result of running a target through the pipeline.
type Outcome struct {
	Target string
	State  State
	// Rebuilt is true when the final artifact was produced during this run.
	Rebuilt bool
	// Fatal marks failures that abort the whole run.
	Fatal bool
	Err   error
}

// Summary counts target outcomes of a run.
type Summary struct {
	Built   int
	Skipped int
	Failed  int
}

// Add records an outcome.
func (s *Summary) Add(o Outcome) {
	switch {
	case o.State == StateFailed:
		s.Failed++
	case o.State.IsSkipped():
		s.Skipped++
	default:
		s.Built++
	}
}

// Upstream describes the finished dependencies of a target at dispatch time.
type Upstream struct {
	// Rebuilt is true when any dependency produced a new artifact in this run.
	Rebuilt bool
	// Dependencies are the direct dependencies, in declaration order.
	Dependencies []*Target
}
