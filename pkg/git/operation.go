package git

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/archicontribs/modelrepo/pkg/repository"
)

// fetchAllLimit bounds concurrent fetches across repositories.
const fetchAllLimit = 4

// OperationKind names an orchestrated action.
type OperationKind string

const (
	OpClone       OperationKind = "clone"
	OpCommit      OperationKind = "commit"
	OpPush        OperationKind = "push"
	OpFetch       OperationKind = "fetch"
	OpShowHistory OperationKind = "show-history"
)

// OperationRequest describes one orchestrated action.
type OperationRequest struct {
	Kind   OperationKind
	Handle repository.Handle

	// RemoteURL is the clone source. Only used by OpClone.
	RemoteURL string

	// Message, AuthorName and AuthorEmail are only used by OpCommit.
	Message     string
	AuthorName  string
	AuthorEmail string

	// Credentials override the vault when set.
	Credentials *Credentials
}

// OperationOutcome is the result of one OperationRequest.
type OperationOutcome struct {
	Kind OperationKind

	// Handle is the target re-classified after the operation.
	Handle repository.Handle

	Success bool

	// Message is a diagnostic detail for logs, not user-facing text.
	Message string
	Err     error

	// Commit is the new commit hash for OpCommit.
	Commit string

	// History is populated for OpShowHistory.
	History []CommitSummary
}

// Run executes req synchronously and reports its outcome.
func (c *ClientImpl) Run(ctx context.Context, req OperationRequest, sink ProgressSink) OperationOutcome {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("git.operation", string(req.Kind)),
		attribute.String("git.path", req.Handle.Path),
	)

	out := OperationOutcome{Kind: req.Kind}

	var err error
	switch req.Kind {
	case OpClone:
		err = c.Clone(ctx, req.Handle, req.RemoteURL, req.Credentials, sink)
	case OpCommit:
		out.Commit, err = c.Commit(ctx, req.Handle, req.Message, req.AuthorName, req.AuthorEmail)
	case OpPush:
		err = c.Push(ctx, req.Handle, req.Credentials, sink)
	case OpFetch:
		err = c.Fetch(ctx, req.Handle, req.Credentials, sink)
	case OpShowHistory:
		out.History, err = c.ListHistory(ctx, req.Handle)
	default:
		err = newError(Unknown, string(req.Kind), req.Handle.Path, errors.New("unsupported operation"))
	}

	out.Handle = c.reclassify(ctx, req.Handle)

	if err != nil {
		span.RecordError(err)
		out.Err = err
		out.Message = err.Error()
		slog.Debug("Operation failed", "operation", req.Kind, "path", req.Handle.Path, "error", err)
		return out
	}

	out.Success = true
	out.Message = string(req.Kind) + " completed"
	return out
}

// Submit runs req on its own goroutine. The returned channel delivers exactly
// one outcome and is then closed.
func (c *ClientImpl) Submit(ctx context.Context, req OperationRequest, sink ProgressSink) <-chan OperationOutcome {
	ch := make(chan OperationOutcome, 1)
	go func() {
		defer close(ch)
		ch <- c.Run(ctx, req, sink)
	}()
	return ch
}

// FetchAll fetches every handle with bounded concurrency. Outcomes are
// returned in the order of handles; a failure does not stop the others.
func (c *ClientImpl) FetchAll(ctx context.Context, handles []repository.Handle, sink ProgressSink) []OperationOutcome {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.FetchAll")
	defer span.End()

	span.SetAttributes(attribute.Int("git.repositories", len(handles)))

	outcomes := make([]OperationOutcome, len(handles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchAllLimit)
	for i, h := range handles {
		g.Go(func() error {
			outcomes[i] = c.Run(gctx, OperationRequest{Kind: OpFetch, Handle: h}, sink)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// reclassify resolves the handle again, keeping the old one if that fails.
func (c *ClientImpl) reclassify(ctx context.Context, h repository.Handle) repository.Handle {
	if h.Path == "" {
		return h
	}
	resolved, err := c.resolver.Resolve(ctx, h.Path)
	if err != nil {
		slog.Warn("Failed to re-classify repository", "path", h.Path, "error", err)
		return h
	}
	return resolved
}
