package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"

	"github.com/archicontribs/modelrepo/pkg/vault"
)

// Credentials is a username and password pair for a remote.
type Credentials = vault.Credentials

// ErrPromptCancelled is returned by a Prompter when the user declines to
// enter credentials.
var ErrPromptCancelled = errors.New("credential prompt cancelled")

// Prompter asks the user for credentials. label identifies the repository.
type Prompter interface {
	Prompt(ctx context.Context, label string) (Credentials, error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, label string) (Credentials, error)

// Prompt calls f.
func (f PromptFunc) Prompt(ctx context.Context, label string) (Credentials, error) {
	return f(ctx, label)
}

// credentialSource records where resolved credentials came from.
type credentialSource int

const (
	sourceNone credentialSource = iota
	sourceExplicit
	sourceVault
	sourcePrompt
)

func (s credentialSource) String() string {
	switch s {
	case sourceExplicit:
		return "explicit"
	case sourceVault:
		return "vault"
	case sourcePrompt:
		return "prompt"
	default:
		return "none"
	}
}

// resolvedAuth is the outcome of credential resolution for one remote operation.
type resolvedAuth struct {
	creds  Credentials
	source credentialSource
	method transport.AuthMethod
}

// needsAuth reports whether the remote's transport takes credentials.
func needsAuth(remoteURL string) bool {
	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return false
	}
	switch ep.Protocol {
	case "http", "https", "ssh":
		return true
	default:
		return false
	}
}

// resolveAuth picks credentials in order: explicit, vault (when gitDir is
// set), then the prompter. A cancelled prompt fails with AuthFailed before
// the remote is contacted. With no prompter the operation goes anonymous.
func (c *ClientImpl) resolveAuth(ctx context.Context, op, path, gitDir, remoteURL string, explicit *Credentials) (*resolvedAuth, error) {
	if !needsAuth(remoteURL) {
		return &resolvedAuth{}, nil
	}

	creds, source, err := c.lookupCredentials(ctx, op, path, gitDir, remoteURL, explicit)
	if err != nil {
		return nil, err
	}
	if source == sourceNone {
		return &resolvedAuth{}, nil
	}

	method, err := c.authMethod(remoteURL, creds)
	if err != nil {
		return nil, newError(AuthFailed, op, path, err)
	}
	return &resolvedAuth{creds: creds, source: source, method: method}, nil
}

func (c *ClientImpl) lookupCredentials(ctx context.Context, op, path, gitDir, remoteURL string, explicit *Credentials) (Credentials, credentialSource, error) {
	if explicit != nil && !explicit.IsZero() {
		return *explicit, sourceExplicit, nil
	}

	if gitDir != "" && c.vault != nil {
		creds, err := c.vault.Load(ctx, gitDir)
		switch {
		case err == nil:
			return creds, sourceVault, nil
		case errors.Is(err, vault.ErrNotFound):
		case errors.Is(err, vault.ErrDecryptFailed), errors.Is(err, vault.ErrKeyDerivationFailed):
			slog.Warn("Stored credentials unusable, falling back to prompt", "path", path, "error", err)
		default:
			slog.Warn("Failed to read stored credentials", "path", path, "error", err)
		}
	}

	if c.prompter == nil {
		return Credentials{}, sourceNone, nil
	}

	creds, err := c.prompter.Prompt(ctx, remoteURL)
	if err != nil {
		return Credentials{}, sourceNone, newError(AuthFailed, op, path, err)
	}
	return creds, sourcePrompt, nil
}

// authMethod builds the go-git auth method for the remote's transport.
func (c *ClientImpl) authMethod(remoteURL string, creds Credentials) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse remote url: %w", err)
	}

	switch ep.Protocol {
	case "http", "https":
		return &githttp.BasicAuth{
			Username: creds.Username,
			Password: creds.Password,
		}, nil
	case "ssh":
		user := creds.Username
		if user == "" {
			user = ep.User
		}
		auth := &gitssh.Password{
			User:     user,
			Password: creds.Password,
		}
		switch {
		case c.cfg.SSH.InsecureIgnoreHostKey:
			auth.HostKeyCallback = ssh.InsecureIgnoreHostKey()
		case c.cfg.SSH.KnownHostsFile != "":
			callback, err := gitssh.NewKnownHostsCallback(c.cfg.SSH.KnownHostsFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load known hosts: %w", err)
			}
			auth.HostKeyCallback = callback
		}
		return auth, nil
	default:
		return nil, nil
	}
}

// rememberCredentials persists credentials that were typed in or passed
// explicitly, if the configuration asks for it. Failure is logged only.
func (c *ClientImpl) rememberCredentials(ctx context.Context, gitDir string, auth *resolvedAuth) {
	if !c.cfg.StoreCredentials || c.vault == nil || auth == nil {
		return
	}
	if auth.source != sourceExplicit && auth.source != sourcePrompt {
		return
	}

	if err := c.vault.Store(ctx, gitDir, auth.creds); err != nil {
		slog.Warn("Failed to store credentials", "git_dir", gitDir, "error", err)
		return
	}
	slog.Debug("Stored credentials", "git_dir", gitDir, "source", auth.source.String())
}
