package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic,
// so the tracer's span stream can drive any presentation.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and prepare for shutdown.
	// It should flush any buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	// For synchronous renderers, this may return immediately.
	Wait() error

	// OnPlanEmit is called once the build order is known.
	// targets: all planned targets in build order
	// deps: dependency map (target -> list of dependencies)
	// requested: the targets named on the command line, empty for all
	OnPlanEmit(targets []string, deps map[string][]string, requested []string)

	// OnTaskStart is called when a target or build step begins.
	// spanID: unique identifier for this span
	// parentID: spanID of the parent task (empty if root)
	// name: target or step name
	// startTime: when the task started
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskLog is called when a span emits process output.
	// spanID: identifier for the span
	// data: raw log bytes (may contain partial lines or ANSI sequences)
	OnTaskLog(spanID string, data []byte)

	// OnTaskComplete is called when a span ends.
	// spanID: identifier for the span
	// endTime: when the span ended
	// err: nil if successful, error otherwise
	// skipped: true if the target was up to date
	OnTaskComplete(spanID string, endTime time.Time, err error, skipped bool)
}
