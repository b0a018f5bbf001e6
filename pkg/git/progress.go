package git

import (
	"bytes"
	"context"
	"strings"
	"time"
)

// cancelPollInterval is how often a running operation polls its sink.
const cancelPollInterval = 50 * time.Millisecond

// ProgressSink receives task announcements from long-running operations and
// is polled for cancellation. Implementations must be safe for use from the
// goroutine running the operation.
type ProgressSink interface {
	// Task announces a sub-task. Percentages are not reported; the transfer
	// does not expose byte counts.
	Task(label string, cancellable bool)

	// IsCancelled reports whether the caller wants the operation aborted.
	IsCancelled() bool
}

type nopSink struct{}

func (nopSink) Task(string, bool) {}
func (nopSink) IsCancelled() bool { return false }

func sinkOrNop(sink ProgressSink) ProgressSink {
	if sink == nil {
		return nopSink{}
	}
	return sink
}

// watchCancel returns a context that is cancelled once the sink reports
// cancellation, and that carries the configured network timeout.
// The returned stop function must be called when the operation ends.
func (c *ClientImpl) watchCancel(ctx context.Context, sink ProgressSink) (context.Context, context.CancelFunc) {
	var cancelTimeout context.CancelFunc = func() {}
	if c.cfg.NetworkTimeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, c.cfg.NetworkTimeout)
	}
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cancelPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if sink.IsCancelled() {
					cancel()
					return
				}
			}
		}
	}()

	return ctx, func() {
		cancel()
		cancelTimeout()
	}
}

// checkpoint fails if the operation should stop now.
func checkpoint(ctx context.Context, sink ProgressSink, op, path string) error {
	if sink.IsCancelled() {
		e := newError(TransportFailed, op, path, context.Canceled)
		e.Cancelled = true
		return e
	}
	if e := cancelledError(ctx, op, path); e != nil {
		return e
	}
	return nil
}

// progressWriter turns go-git sideband output into sink task labels.
// Sideband lines are terminated by either '\r' or '\n'.
type progressWriter struct {
	sink    ProgressSink
	pending []byte
	last    string
}

func newProgressWriter(sink ProgressSink) *progressWriter {
	return &progressWriter{sink: sink}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexAny(w.pending, "\r\n")
		if i < 0 {
			break
		}
		w.emit(string(w.pending[:i]))
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func (w *progressWriter) emit(line string) {
	line = strings.TrimSpace(line)
	if line == "" || line == w.last {
		return
	}
	w.last = line
	w.sink.Task(line, true)
}
