// Package trace implements the Trace Writer (C3): a buffered, rate-limited,
// append-only JSONL writer with a reentrancy bypass flag. Every patch in
// internal/patch shares one *Writer instance; the writer is the sole owner
// of the file handle, the in-memory buffer, and the bypass flag.
package trace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentci/agentci/internal/model"
)

const (
	runDirMode    = 0o700
	traceFileMode = 0o600

	defaultBufferSize    = 64
	defaultFlushInterval = 250 * time.Millisecond
)

// Metrics is the snapshot returned by Writer.Metrics.
type Metrics struct {
	TotalEvents  int64 `json:"total_events"`
	TotalDropped int64 `json:"total_dropped"`
	BufferLength int   `json:"buffer_length"`
}

// Options configures a Writer.
type Options struct {
	BufferSize     int
	FlushInterval  time.Duration
	RateLimit      int // events/sec; 0 disables rate limiting
	RateBurst      int
}

// Writer is a buffered, rate-limited, append-only JSONL writer guarding a
// single trace file with a process-wide bypass flag.
type Writer struct {
	path string

	mu      sync.Mutex
	buf     []string
	file    *os.File
	writer  *bufio.Writer
	closed  bool

	bufferSize    int
	flushInterval time.Duration
	limiter       *rate.Limiter

	bypass atomic.Bool

	totalEvents  atomic.Int64
	totalDropped atomic.Int64

	timer *time.Timer
	done  chan struct{}
}

// New creates the run directory (mode 0700) and the trace file (mode 0600),
// then starts the background flush timer.
func New(path string, opts Options) (*Writer, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, runDirMode); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, traceFileMode)
	if err != nil {
		return nil, err
	}
	_ = os.Chmod(path, traceFileMode)

	w := &Writer{
		path:          path,
		file:          f,
		writer:        bufio.NewWriter(f),
		bufferSize:    opts.BufferSize,
		flushInterval: opts.FlushInterval,
		done:          make(chan struct{}),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = opts.RateLimit
		}
		w.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	w.timer = time.AfterFunc(w.flushInterval, w.timedFlush)
	return w, nil
}

func (w *Writer) timedFlush() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.flushLocked()
	w.mu.Unlock()
	w.timer.Reset(w.flushInterval)
}

// Write serializes event and appends it to the buffer. If a rate limit is
// configured and exhausted, the event is dropped (total_dropped increments)
// instead of being buffered. Write never returns an error: recording-path
// failures are fail-open by contract, surfaced only via Metrics.
func (w *Writer) Write(event model.TraceEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	if w.limiter != nil && !w.limiter.Allow() {
		w.totalDropped.Add(1)
		return
	}

	line, err := json.Marshal(event)
	if err != nil {
		w.totalDropped.Add(1)
		return
	}

	w.buf = append(w.buf, string(line))
	w.totalEvents.Add(1)
	if len(w.buf) >= w.bufferSize {
		w.flushLocked()
	}
}

// flushLocked performs the single underlying append-and-fsync operation
// under the bypass flag. Callers must hold w.mu.
func (w *Writer) flushLocked() {
	if len(w.buf) == 0 {
		return
	}
	w.bypass.Store(true)
	defer w.bypass.Store(false)

	for _, line := range w.buf {
		_, _ = w.writer.WriteString(line)
		_, _ = w.writer.WriteString("\n")
	}
	_ = w.writer.Flush()
	_ = w.file.Sync()
	w.buf = w.buf[:0]
}

// Flush forces a synchronous flush of any buffered events.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.flushLocked()
}

// Close stops the flush timer, performs a final flush, and closes the
// underlying file. Close is idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.timer.Stop()
	w.flushLocked()
	err := w.file.Close()
	w.mu.Unlock()
	close(w.done)
	return err
}

// Bypass reports the shared, writer-owned reentrancy flag. Patches call this
// read-only before emitting an effect; only the writer's own flush critical
// section ever sets it.
func (w *Writer) Bypass() bool {
	return w.bypass.Load()
}

// Metrics returns a point-in-time snapshot of event counters and current
// buffer depth.
func (w *Writer) Metrics() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Metrics{
		TotalEvents:  w.totalEvents.Load(),
		TotalDropped: w.totalDropped.Load(),
		BufferLength: len(w.buf),
	}
}
