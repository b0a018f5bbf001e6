package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/archicontribs/modelrepo/pkg/repository"
	"github.com/archicontribs/modelrepo/pkg/vault"
)

const (
	tracerName = "modelrepo"
	remoteName = repository.RemoteName

	opInit        = "init"
	opClone       = "clone"
	opFetch       = "fetch"
	opCommit      = "commit"
	opPush        = "push"
	opHistory     = "history"
	opRead        = "read"
	opRemove      = "remove"
	opCredentials = "credentials"
)

// Options are the collaborators a ClientImpl works with.
type Options struct {
	// Resolver re-classifies repositories after operations.
	// Defaults to a resolver over the OS filesystem with no open models.
	Resolver *repository.Resolver

	// Vault supplies stored credentials. Nil disables the vault.
	Vault *vault.Vault

	// Prompter is asked for credentials when none are stored. Nil means
	// remote operations run anonymously when nothing else is available.
	Prompter Prompter
}

// ClientImpl implements Client using go-git.
//
// ClientImpl is safe for concurrent use. Operations on the same repository
// path are refused while one is in flight.
type ClientImpl struct {
	cfg      *Config
	resolver *repository.Resolver
	vault    *vault.Vault
	prompter Prompter
	locks    *pathLocks
}

// NewClient creates a client from the provided configuration.
func NewClient(cfg *Config, opts Options) (*ClientImpl, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = repository.NewResolver(nil, nil)
	}

	return &ClientImpl{
		cfg:      cfg,
		resolver: resolver,
		vault:    opts.Vault,
		prompter: opts.Prompter,
		locks:    newPathLocks(),
	}, nil
}

// Busy reports whether an operation is in flight for path.
func (c *ClientImpl) Busy(path string) bool {
	return c.locks.isHeld(repository.NewHandle(path).Path)
}

func (c *ClientImpl) lock(op, path string) (func(), error) {
	release, ok := c.locks.tryLock(path)
	if !ok {
		return nil, newError(Busy, op, path, nil)
	}
	return release, nil
}

// normalize recomputes the derived paths of a caller-supplied handle.
func normalize(h repository.Handle) repository.Handle {
	n := repository.NewHandle(h.Path)
	n.Kind = h.Kind
	n.RemoteURL = h.RemoteURL
	return n
}

// CreateLocalRepository initializes a repository at path with remoteURL as origin.
func (c *ClientImpl) CreateLocalRepository(ctx context.Context, path, remoteURL string) (repository.Handle, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.CreateLocalRepository")
	defer span.End()

	h := repository.NewHandle(path)
	span.SetAttributes(
		attribute.String("git.path", h.Path),
		attribute.String("git.url", remoteURL),
	)

	release, err := c.lock(opInit, h.Path)
	if err != nil {
		span.RecordError(err)
		return h, err
	}
	defer release()

	existed, hasEntries, err := inspectTarget(h.Path)
	if err != nil {
		err := newError(IOFailure, opInit, h.Path, err)
		span.RecordError(err)
		return h, err
	}
	if hasEntries {
		err := newError(NotEmpty, opInit, h.Path, nil)
		span.RecordError(err)
		return h, err
	}

	if err := os.MkdirAll(h.Path, 0750); err != nil {
		err := newError(IOFailure, opInit, h.Path, err)
		span.RecordError(err)
		return h, err
	}

	rollback := func() {
		target := h.Path
		if existed {
			target = h.GitDir
		}
		if err := os.RemoveAll(target); err != nil {
			slog.Warn("Failed to roll back repository creation", "path", target, "error", err)
		}
	}

	repo, err := git.PlainInitWithOptions(h.Path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(c.cfg.GetBranch()),
		},
	})
	if err != nil {
		rollback()
		err := newError(IOFailure, opInit, h.Path, err)
		span.RecordError(err)
		return h, err
	}

	if remoteURL != "" {
		_, err = repo.CreateRemote(&config.RemoteConfig{
			Name: remoteName,
			URLs: []string{remoteURL},
		})
		if err != nil {
			rollback()
			err := newError(IOFailure, opInit, h.Path, err)
			span.RecordError(err)
			return h, err
		}
	}

	slog.Info("Created local repository", "path", h.Path, "remote", remoteURL)

	return c.resolver.Resolve(ctx, h.Path)
}

// Clone clones remoteURL into h.Path via a sibling temporary directory that is
// renamed into place only once the clone is complete.
func (c *ClientImpl) Clone(ctx context.Context, h repository.Handle, remoteURL string, creds *Credentials, sink ProgressSink) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.Clone")
	defer span.End()

	h = normalize(h)
	sink = sinkOrNop(sink)
	span.SetAttributes(
		attribute.String("git.path", h.Path),
		attribute.String("git.url", remoteURL),
	)

	release, err := c.lock(opClone, h.Path)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer release()

	if err := checkpoint(ctx, sink, opClone, h.Path); err != nil {
		span.RecordError(err)
		return err
	}

	existed, hasEntries, err := inspectTarget(h.Path)
	if err != nil {
		err := newError(IOFailure, opClone, h.Path, err)
		span.RecordError(err)
		return err
	}
	if hasEntries {
		err := newError(NotEmpty, opClone, h.Path, nil)
		span.RecordError(err)
		return err
	}

	auth, err := c.resolveAuth(ctx, opClone, h.Path, "", remoteURL, creds)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("git.auth_source", auth.source.String()))

	parent := filepath.Dir(h.Path)
	if err := os.MkdirAll(parent, 0750); err != nil {
		err := newError(IOFailure, opClone, h.Path, err)
		span.RecordError(err)
		return err
	}

	tmpDir, err := os.MkdirTemp(parent, "."+filepath.Base(h.Path)+".clone-*")
	if err != nil {
		err := newError(IOFailure, opClone, h.Path, err)
		span.RecordError(err)
		return err
	}
	done := false
	defer func() {
		if done {
			return
		}
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Warn("Failed to remove partial clone", "path", tmpDir, "error", err)
		}
	}()

	opCtx, stop := c.watchCancel(ctx, sink)
	defer stop()

	sink.Task("clone "+remoteURL, true)

	_, err = git.PlainCloneContext(opCtx, tmpDir, false, &git.CloneOptions{
		URL:        remoteURL,
		Auth:       auth.method,
		RemoteName: remoteName,
		Progress:   newProgressWriter(sink),
	})
	if err != nil {
		err := classifyError(opCtx, opClone, h.Path, err)
		span.RecordError(err)
		return err
	}

	if err := checkpoint(opCtx, sink, opClone, h.Path); err != nil {
		span.RecordError(err)
		return err
	}

	sink.Task("finalize", false)

	if existed {
		if err := os.Remove(h.Path); err != nil {
			err := newError(IOFailure, opClone, h.Path, err)
			span.RecordError(err)
			return err
		}
	}
	if err := os.Rename(tmpDir, h.Path); err != nil {
		err := newError(IOFailure, opClone, h.Path, err)
		span.RecordError(err)
		return err
	}
	done = true

	c.rememberCredentials(ctx, h.GitDir, auth)

	slog.Info("Cloned repository", "path", h.Path, "remote", remoteURL)
	return nil
}

// Fetch updates remote-tracking references from origin.
func (c *ClientImpl) Fetch(ctx context.Context, h repository.Handle, creds *Credentials, sink ProgressSink) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.Fetch")
	defer span.End()

	h = normalize(h)
	sink = sinkOrNop(sink)
	span.SetAttributes(attribute.String("git.path", h.Path))

	release, err := c.lock(opFetch, h.Path)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer release()

	repo, remoteURL, err := c.openWithOrigin(ctx, opFetch, h.Path)
	if err != nil {
		span.RecordError(err)
		return err
	}

	auth, err := c.resolveAuth(ctx, opFetch, h.Path, h.GitDir, remoteURL, creds)
	if err != nil {
		span.RecordError(err)
		return err
	}

	opCtx, stop := c.watchCancel(ctx, sink)
	defer stop()

	if err := checkpoint(opCtx, sink, opFetch, h.Path); err != nil {
		span.RecordError(err)
		return err
	}

	sink.Task("fetch "+remoteName, true)

	err = repo.FetchContext(opCtx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       auth.method,
		Progress:   newProgressWriter(sink),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		err := classifyError(opCtx, opFetch, h.Path, err)
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Bool("git.up_to_date", errors.Is(err, git.NoErrAlreadyUpToDate)))

	c.rememberCredentials(ctx, h.GitDir, auth)
	return nil
}

// Commit stages all changes and commits them on the current branch.
func (c *ClientImpl) Commit(ctx context.Context, h repository.Handle, message, authorName, authorEmail string) (string, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.Commit")
	defer span.End()

	h = normalize(h)
	span.SetAttributes(
		attribute.String("git.path", h.Path),
		attribute.String("git.commit_message", message),
	)

	release, err := c.lock(opCommit, h.Path)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	defer release()

	repo, err := c.open(ctx, opCommit, h.Path)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		err := classifyError(ctx, opCommit, h.Path, err)
		span.RecordError(err)
		return "", err
	}

	status, err := worktree.Status()
	if err != nil {
		err := classifyError(ctx, opCommit, h.Path, err)
		span.RecordError(err)
		return "", err
	}

	if status.IsClean() {
		err := newError(NothingToCommit, opCommit, h.Path, nil)
		span.SetAttributes(attribute.Bool("git.no_changes", true))
		return "", err
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		err := classifyError(ctx, opCommit, h.Path, err)
		span.RecordError(err)
		return "", err
	}

	name, email := c.cfg.GetAuthor(authorName, authorEmail)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  name,
			Email: email,
			When:  time.Now(),
		},
	})
	if err != nil {
		err := classifyError(ctx, opCommit, h.Path, err)
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(attribute.String("git.commit", hash.String()))
	slog.Info("Committed changes", "path", h.Path, "commit", hash.String())
	return hash.String(), nil
}

// Push pushes local branches to origin.
func (c *ClientImpl) Push(ctx context.Context, h repository.Handle, creds *Credentials, sink ProgressSink) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.Push")
	defer span.End()

	h = normalize(h)
	sink = sinkOrNop(sink)
	span.SetAttributes(attribute.String("git.path", h.Path))

	release, err := c.lock(opPush, h.Path)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer release()

	repo, remoteURL, err := c.openWithOrigin(ctx, opPush, h.Path)
	if err != nil {
		span.RecordError(err)
		return err
	}

	auth, err := c.resolveAuth(ctx, opPush, h.Path, h.GitDir, remoteURL, creds)
	if err != nil {
		span.RecordError(err)
		return err
	}

	opCtx, stop := c.watchCancel(ctx, sink)
	defer stop()

	if err := checkpoint(opCtx, sink, opPush, h.Path); err != nil {
		span.RecordError(err)
		return err
	}

	sink.Task("push "+remoteName, true)

	err = repo.PushContext(opCtx, &git.PushOptions{
		RemoteName: remoteName,
		Auth:       auth.method,
		Progress:   newProgressWriter(sink),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		err := classifyError(opCtx, opPush, h.Path, err)
		span.RecordError(err)
		return err
	}

	c.rememberCredentials(ctx, h.GitDir, auth)

	slog.Info("Pushed repository", "path", h.Path, "remote", remoteURL)
	return nil
}

// Remove deletes stored credentials and the local clone.
func (c *ClientImpl) Remove(ctx context.Context, h repository.Handle) error {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "git.Remove")
	defer span.End()

	h = normalize(h)
	span.SetAttributes(attribute.String("git.path", h.Path))

	release, err := c.lock(opRemove, h.Path)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer release()

	if _, err := os.Stat(h.Path); err != nil {
		kind := IOFailure
		if os.IsNotExist(err) {
			kind = NotFound
		}
		err := newError(kind, opRemove, h.Path, err)
		span.RecordError(err)
		return err
	}

	if c.vault != nil {
		if err := c.vault.Delete(ctx, h.GitDir); err != nil {
			err := newError(IOFailure, opRemove, h.Path, err)
			span.RecordError(err)
			return err
		}
	}

	if err := os.RemoveAll(h.Path); err != nil {
		err := newError(IOFailure, opRemove, h.Path, err)
		span.RecordError(err)
		return err
	}

	slog.Info("Removed repository", "path", h.Path)
	return nil
}

// StoreCredentials persists credentials for the repository in the vault.
// Vault failures are returned unchanged so callers can match vault errors.
func (c *ClientImpl) StoreCredentials(ctx context.Context, h repository.Handle, creds Credentials) error {
	h = normalize(h)

	release, err := c.lock(opCredentials, h.Path)
	if err != nil {
		return err
	}
	defer release()

	if c.vault == nil {
		return newError(Unknown, opCredentials, h.Path, fmt.Errorf("no vault configured"))
	}
	if _, err := os.Stat(h.GitDir); err != nil {
		return newError(NotFound, opCredentials, h.Path, err)
	}
	return c.vault.Store(ctx, h.GitDir, creds)
}

// ForgetCredentials deletes the repository's stored credentials.
func (c *ClientImpl) ForgetCredentials(ctx context.Context, h repository.Handle) error {
	h = normalize(h)

	release, err := c.lock(opCredentials, h.Path)
	if err != nil {
		return err
	}
	defer release()

	if c.vault == nil {
		return nil
	}
	return c.vault.Delete(ctx, h.GitDir)
}

func (c *ClientImpl) open(ctx context.Context, op, path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, classifyError(ctx, op, path, err)
	}
	return repo, nil
}

func (c *ClientImpl) openWithOrigin(ctx context.Context, op, path string) (*git.Repository, string, error) {
	repo, err := c.open(ctx, op, path)
	if err != nil {
		return nil, "", err
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		return nil, "", newError(NotFound, op, path, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, "", newError(NotFound, op, path, fmt.Errorf("remote %s has no url", remoteName))
	}
	return repo, urls[0], nil
}

// inspectTarget reports whether path exists and whether it has entries.
// A non-directory counts as having entries.
func inspectTarget(path string) (exists, hasEntries bool, err error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	if !info.IsDir() {
		return true, true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return true, false, err
	}
	defer func() { _ = f.Close() }()

	names, err := f.Readdirnames(1)
	if err != nil && err != io.EOF {
		return true, false, err
	}
	return true, len(names) > 0, nil
}
