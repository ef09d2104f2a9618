// Package linear provides a synchronous, line-buffered renderer for build progress.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/zen/internal/ui/output"
	"go.trai.ch/zen/internal/ui/style"
)

// Renderer implements ports.Renderer with chronological, target-prefixed lines.
// Root spans are targets; nested spans are build steps reported under their target.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	spans   map[string]*spanState
	buffers map[string]*bytes.Buffer
}

type spanState struct {
	name      string
	target    string
	root      bool
	startTime time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithProfile overrides the color profile.
func WithProfile(profile termenv.Profile) Option {
	return func(r *Renderer) {
		r.output = termenv.NewOutput(r.stderr, termenv.WithProfile(profile), termenv.WithTTY(true))
	}
}

// NewRenderer creates a new Renderer. Nil writers default to os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer, opts ...Option) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	r := &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.NewWithProfile(stderr, output.ColorProfileANSI),
		spans:   make(map[string]*spanState),
		buffers: make(map[string]*bytes.Buffer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start is a no-op for the linear renderer.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}
	return nil
}

// Wait is a no-op for the linear renderer.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the planned targets in build order.
func (r *Renderer) OnPlanEmit(targets []string, _ map[string][]string, requested []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("Building %d target(s): %s", len(targets), strings.Join(targets, ", "))
	if len(requested) > 0 {
		line += fmt.Sprintf(" (requested: %s)", strings.Join(requested, ", "))
	}
	_, _ = fmt.Fprintln(r.stderr, r.output.String(line).Bold().String())
}

// OnTaskStart records a span and prints a start line.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &spanState{name: name, target: name, root: true, startTime: startTime}
	if parent, ok := r.spans[parentID]; ok {
		state.target = parent.target
		state.root = false
	}
	r.spans[spanID] = state
	r.buffers[spanID] = new(bytes.Buffer)

	prefix := r.output.String(fmt.Sprintf("[%s]", state.target)).Faint().String()
	if state.root {
		_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix, r.colored(style.Arrow+" started", style.Accent))
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix, r.output.String(name).Faint().String())
}

// OnTaskLog buffers output and prints complete lines with the target prefix.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			if len(line) > 0 {
				rest := new(bytes.Buffer)
				rest.Write(line)
				r.buffers[spanID] = rest
			}
			break
		}
		r.printLineLocked(state.target, line)
	}
}

// OnTaskComplete flushes the span's output and, for targets, prints the result.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error, skipped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)
	delete(r.spans, spanID)
	delete(r.buffers, spanID)

	if !state.root {
		return
	}

	prefix := fmt.Sprintf("[%s]", state.target)
	duration := endTime.Sub(state.startTime).Round(time.Millisecond)

	switch {
	case err != nil:
		_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix,
			r.colored(fmt.Sprintf("%s failed after %v: %v", style.Cross, duration, err), style.Red))
	case skipped:
		_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix,
			r.colored(style.Skip+" up to date", style.Slate))
	default:
		_, _ = fmt.Fprintf(r.stderr, "%s %s\n", prefix,
			r.colored(fmt.Sprintf("%s done in %v", style.Check, duration), style.Green))
	}
}

func (r *Renderer) colored(s string, color lipgloss.Color) string {
	return r.output.String(s).Foreground(termenv.RGBColor(string(color))).String()
}

// flushBufferLocked must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	state, ok := r.spans[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(state.target, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked must be called with r.mu held.
func (r *Renderer) printLineLocked(target string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", target, line)
}
