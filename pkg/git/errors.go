package git

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// ErrorKind classifies orchestrator failures. Callers render user messages
// from the kind; Detail is diagnostic only.
type ErrorKind int

const (
	// Unknown is any failure that fits no other kind.
	Unknown ErrorKind = iota
	// NotEmpty means the target directory already has entries.
	NotEmpty
	// AuthFailed means the remote rejected the credentials, or the credential
	// prompt was cancelled.
	AuthFailed
	// TransportFailed means the remote could not be reached or the operation
	// was cancelled or timed out.
	TransportFailed
	// NonFastForward means the remote has commits the local branch lacks.
	NonFastForward
	// NothingToCommit means the working tree is clean.
	NothingToCommit
	// Busy means another operation on the same repository is in flight.
	Busy
	// NotFound means a repository, revision or file does not exist.
	NotFound
	// IOFailure means a local filesystem operation failed.
	IOFailure
)

func (k ErrorKind) String() string {
	switch k {
	case NotEmpty:
		return "not empty"
	case AuthFailed:
		return "authentication failed"
	case TransportFailed:
		return "transport failed"
	case NonFastForward:
		return "non-fast-forward"
	case NothingToCommit:
		return "nothing to commit"
	case Busy:
		return "busy"
	case NotFound:
		return "not found"
	case IOFailure:
		return "i/o failure"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every orchestrator operation.
type Error struct {
	Kind ErrorKind

	// Op is the operation that failed, e.g. "clone".
	Op string

	// Path is the local repository path, if any.
	Path string

	// Detail is a diagnostic string for logs.
	Detail string

	// Timeout is set when a network operation hit its deadline.
	Timeout bool

	// Cancelled is set when the caller cancelled the operation.
	Cancelled bool

	Err error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrUnknown         = &Error{Kind: Unknown}
	ErrNotEmpty        = &Error{Kind: NotEmpty}
	ErrAuthFailed      = &Error{Kind: AuthFailed}
	ErrTransportFailed = &Error{Kind: TransportFailed}
	ErrNonFastForward  = &Error{Kind: NonFastForward}
	ErrNothingToCommit = &Error{Kind: NothingToCommit}
	ErrBusy            = &Error{Kind: Busy}
	ErrNotFound        = &Error{Kind: NotFound}
	ErrIOFailure       = &Error{Kind: IOFailure}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("git")
	if e.Op != "" {
		b.WriteString(" " + e.Op)
	}
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	b.WriteString(": " + e.Kind.String())
	switch {
	case e.Timeout:
		b.WriteString(" (timeout)")
	case e.Cancelled:
		b.WriteString(" (cancelled)")
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, op, path string, err error) *Error {
	e := &Error{Kind: kind, Op: op, Path: path, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// cancelledError reports why ctx ended, or nil if it has not.
func cancelledError(ctx context.Context, op, path string) *Error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	e := newError(TransportFailed, op, path, err)
	if errors.Is(err, context.DeadlineExceeded) {
		e.Timeout = true
	} else {
		e.Cancelled = true
	}
	return e
}

// classifyError maps a go-git or network failure onto the error taxonomy.
// ctx is the operation context; if it has ended, that takes precedence.
func classifyError(ctx context.Context, op, path string, err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	if e := cancelledError(ctx, op, path); e != nil {
		e.Err = err
		e.Detail = err.Error()
		return e
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e := newError(TransportFailed, op, path, err)
		e.Timeout = true
		return e
	case errors.Is(err, context.Canceled):
		e := newError(TransportFailed, op, path, err)
		e.Cancelled = true
		return e
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		strings.Contains(err.Error(), "unable to authenticate"):
		return newError(AuthFailed, op, path, err)
	case errors.Is(err, git.ErrNonFastForwardUpdate),
		strings.Contains(err.Error(), "non-fast-forward"):
		return newError(NonFastForward, op, path, err)
	case errors.Is(err, git.ErrRepositoryNotExists),
		errors.Is(err, git.ErrRemoteNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, plumbing.ErrObjectNotFound),
		errors.Is(err, object.ErrFileNotFound):
		return newError(NotFound, op, path, err)
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return newError(TransportFailed, op, path, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		e := newError(TransportFailed, op, path, err)
		e.Timeout = netErr.Timeout()
		return e
	}

	return newError(Unknown, op, path, err)
}
