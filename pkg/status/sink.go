package status

import (
	"context"
	"sync/atomic"
)

// Sink forwards an operation's sub-task announcements to the status channel
// in ctx and carries its cancel flag. It is safe for concurrent use.
type Sink struct {
	ctx        context.Context
	repository string
	operation  string
	cancelled  atomic.Bool
}

// NewSink returns a sink for one operation on the repository at path.
// The sink reports cancelled once Cancel is called or ctx ends.
func NewSink(ctx context.Context, path, operation string) *Sink {
	return &Sink{ctx: ctx, repository: path, operation: operation}
}

// Task sends a progress update for the sub-task label.
func (s *Sink) Task(label string, cancellable bool) {
	Send(s.ctx, NewUpdate(LevelProgress, label).
		WithRepository(s.repository).
		WithOperation(s.operation).
		WithCancellable(cancellable))
}

// Cancel asks the running operation to stop at its next checkpoint.
func (s *Sink) Cancel() {
	s.cancelled.Store(true)
}

// IsCancelled reports whether Cancel was called or the context ended.
func (s *Sink) IsCancelled() bool {
	return s.cancelled.Load() || s.ctx.Err() != nil
}
