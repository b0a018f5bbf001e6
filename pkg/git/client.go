package git

import (
	"context"

	"github.com/archicontribs/modelrepo/pkg/repository"
)

// Client defines the repository lifecycle operations for managed model repositories.
//
// Every operation on a given repository path is serialized: a call made while
// another is in flight for the same path fails immediately with ErrBusy.
// Operations on different paths are independent and may run concurrently.
type Client interface {
	// CreateLocalRepository initializes a repository at path with remoteURL
	// registered as "origin". Fails with ErrNotEmpty if path has entries.
	CreateLocalRepository(ctx context.Context, path, remoteURL string) (repository.Handle, error)

	// Clone clones remoteURL into h.Path. On failure or cancellation nothing
	// is left at h.Path. Fails with ErrNotEmpty if h.Path has entries.
	Clone(ctx context.Context, h repository.Handle, remoteURL string, creds *Credentials, sink ProgressSink) error

	// Fetch updates remote-tracking references from origin.
	Fetch(ctx context.Context, h repository.Handle, creds *Credentials, sink ProgressSink) error

	// Commit stages every change in the working tree and commits it on the
	// current branch. Fails with ErrNothingToCommit if the tree is clean.
	// Returns the new commit hash.
	Commit(ctx context.Context, h repository.Handle, message, authorName, authorEmail string) (string, error)

	// Push pushes local branches to origin. A diverged remote fails with
	// ErrNonFastForward; no merge is attempted.
	Push(ctx context.Context, h repository.Handle, creds *Credentials, sink ProgressSink) error

	// ListHistory returns commit summaries reachable from HEAD, most recent
	// first. Each call returns a fresh slice.
	ListHistory(ctx context.Context, h repository.Handle) ([]CommitSummary, error)

	// ReadFileAtRevision returns a file's content at revision without
	// touching the working tree. Fails with ErrNotFound.
	ReadFileAtRevision(ctx context.Context, h repository.Handle, relativePath, revision string) ([]byte, error)

	// Remove deletes stored credentials and the local clone.
	Remove(ctx context.Context, h repository.Handle) error

	// StoreCredentials persists credentials for the repository in the vault.
	StoreCredentials(ctx context.Context, h repository.Handle, creds Credentials) error

	// ForgetCredentials deletes the repository's stored credentials.
	ForgetCredentials(ctx context.Context, h repository.Handle) error

	// Busy reports whether an operation is in flight for path.
	Busy(path string) bool
}
