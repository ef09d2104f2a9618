// Package telemetry bridges build spans to OpenTelemetry and the progress renderer.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the default buffer size (4KB) if not specified.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the default flush interval (50ms) if not specified.
	DefaultTimeLimit = 50 * time.Millisecond
)

var errBatcherClosed = errors.New("log batcher is closed")

// LogBatcher buffers process output of one span until a size or time limit is reached.
// Timed flushes only emit complete lines; Close emits whatever is left.
type LogBatcher struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer *bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
	closed bool
}

// NewLogBatcher returns a running LogBatcher. Call Close to stop the background flusher.
func NewLogBatcher(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *LogBatcher {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	b := &LogBatcher{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		buffer:    new(bytes.Buffer),
		ticker:    time.NewTicker(timeLimit),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	go b.run()
	return b
}

// Write appends p to the buffer and flushes once the size limit is reached.
func (b *LogBatcher) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errBatcherClosed
	}

	n, err := b.buffer.Write(p)
	if err != nil {
		return n, err
	}

	if b.buffer.Len() >= b.sizeLimit {
		b.flushLocked(b.buffer.Len())
		b.ticker.Reset(b.timeLimit)
	}
	return n, nil
}

// Flush emits all complete lines currently buffered.
func (b *LogBatcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if i := bytes.LastIndexByte(b.buffer.Bytes(), '\n'); i >= 0 {
		b.flushLocked(i + 1)
	}
}

// Close stops the background flusher and emits the remaining buffer.
func (b *LogBatcher) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.stopCh)
	b.flushLocked(b.buffer.Len())
	b.mu.Unlock()

	<-b.doneCh
	return nil
}

func (b *LogBatcher) run() {
	defer close(b.doneCh)
	for {
		select {
		case <-b.ticker.C:
			b.Flush()
		case <-b.stopCh:
			b.ticker.Stop()
			return
		}
	}
}

// flushLocked must be called with mu held.
func (b *LogBatcher) flushLocked(n int) {
	if n == 0 {
		return
	}
	data := make([]byte, n)
	copy(data, b.buffer.Next(n))
	if b.onFlush != nil {
		b.onFlush(data)
	}
}
