package telemetry_test

import (
	"context"
	"sync"
	"time"
)

type completion struct {
	spanID  string
	err     error
	skipped bool
}

// mockRenderer is a simple test double for ports.Renderer that keeps call order.
type mockRenderer struct {
	mu        sync.Mutex
	plans     [][]string
	starts    []string
	logs      map[string]string
	completes []completion
	events    []string
}

func newMockRenderer() *mockRenderer {
	return &mockRenderer{logs: make(map[string]string)}
}

func (m *mockRenderer) Start(_ context.Context) error { return nil }
func (m *mockRenderer) Stop() error                   { return nil }
func (m *mockRenderer) Wait() error                   { return nil }

func (m *mockRenderer) OnPlanEmit(targets []string, _ map[string][]string, _ []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, targets)
}

func (m *mockRenderer) OnTaskStart(_, _, name string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, name)
	m.events = append(m.events, "start:"+name)
}

func (m *mockRenderer) OnTaskLog(spanID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[spanID] += string(data)
	m.events = append(m.events, "log")
}

func (m *mockRenderer) OnTaskComplete(spanID string, _ time.Time, err error, skipped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completes = append(m.completes, completion{spanID: spanID, err: err, skipped: skipped})
	m.events = append(m.events, "complete")
}
