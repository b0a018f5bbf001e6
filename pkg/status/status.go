package status

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultChannelSize is the default buffer size for the status channel
	DefaultChannelSize = 100

	// DefaultFlushTimeout is the default timeout for flushing remaining messages on shutdown
	DefaultFlushTimeout = 5 * time.Second
)

// Level represents the severity level of a status update
type Level string

const (
	// LevelInfo represents informational status updates
	LevelInfo Level = "info"

	// LevelProgress represents sub-task announcements from running operations
	LevelProgress Level = "progress"

	// LevelSuccess represents successful completion of operations
	LevelSuccess Level = "success"

	// LevelWarning represents warnings that don't prevent operation
	LevelWarning Level = "warning"

	// LevelError represents error conditions
	LevelError Level = "error"
)

// Update is a status message sent through the status channel
type Update struct {
	// Level is the severity level of this status update
	Level Level

	// Message is the status text. For progress updates it is the sub-task label.
	Message string

	// Repository is the local path of the repository being operated on
	Repository string

	// Operation is the running operation (e.g., "clone", "push", "fetch")
	Operation string

	// Cancellable reports whether the operation can still be cancelled at this stage
	Cancellable bool

	// Metadata contains optional additional structured data about the status
	Metadata map[string]any

	// Timestamp is when this status update was created
	Timestamp time.Time
}

// NewUpdate creates a new Update with the current timestamp
func NewUpdate(level Level, message string) Update {
	return Update{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithRepository sets the repository path on the status update
func (s Update) WithRepository(path string) Update {
	s.Repository = path
	return s
}

// WithOperation sets the operation name on the status update
func (s Update) WithOperation(operation string) Update {
	s.Operation = operation
	return s
}

// WithCancellable marks whether the operation can be cancelled
func (s Update) WithCancellable(cancellable bool) Update {
	s.Cancellable = cancellable
	return s
}

// WithMetadata adds metadata to the status update
func (s Update) WithMetadata(key string, value any) Update {
	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}
	s.Metadata[key] = value
	return s
}

// Send sends a status update through the channel stored in the context (if present)
// This function is non-blocking and will drop the message if the channel is full
func Send(ctx context.Context, update Update) {
	ch := getChannel(ctx)
	if ch == nil {
		return
	}

	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	select {
	case ch <- update:
	default:
		// Channel full - drop message
	}
}

// Handler is a function that processes status updates
// It is called for each update received on the channel
type Handler func(Update)

// CleanupFunc is called to close the status channel and wait for the handler to finish
// It should be deferred immediately after calling StartHandler
type CleanupFunc func()

// StartHandler creates a status channel, attaches it to the context, and starts a goroutine
// to process updates using the provided handler function.
//
// The cleanup function closes the channel and waits up to DefaultFlushTimeout
// for the handler to drain it.
//
// Example usage:
//
//	ctx, cleanup := status.StartHandler(ctx, func(update status.Update) {
//	    slog.Info("Status", "message", update.Message)
//	})
//	defer cleanup()
func StartHandler(ctx context.Context, handler Handler) (context.Context, CleanupFunc) {
	return StartHandlerWithOptions(ctx, handler, DefaultChannelSize, DefaultFlushTimeout)
}

// StartHandlerWithOptions is like StartHandler but allows customizing the channel size and flush timeout
func StartHandlerWithOptions(ctx context.Context, handler Handler, channelSize int, flushTimeout time.Duration) (context.Context, CleanupFunc) {
	ch := make(chan Update, channelSize)
	ctx = WithChannel(ctx, ch)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for update := range ch {
			handler(update)
		}
	}()

	cleanup := func() {
		close(ch)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(flushTimeout):
			// Timeout - some messages may be lost, but we don't block shutdown
		}
	}

	return ctx, cleanup
}
