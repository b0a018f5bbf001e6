package repository

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const gitSuffix = ".git"

// RemoteURL returns the origin URL configured for the repository at path.
// ok is false when the path has no metadata or no origin remote.
func (r *Resolver) RemoteURL(ctx context.Context, path string) (remoteURL string, ok bool, err error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "repository.RemoteURL")
	defer span.End()

	configPath := filepath.Join(absPath(path), MetadataDirName, "config")
	span.SetAttributes(attribute.String("repository.config", configPath))

	f, err := r.fs.Open(configPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("%w: open %s: %w", ErrIOFailure, configPath, err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := gitconfig.ReadConfig(f)
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("%w: parse %s: %w", ErrIOFailure, configPath, err)
	}

	remote, exists := cfg.Remotes[RemoteName]
	if !exists || len(remote.URLs) == 0 {
		return "", false, nil
	}
	return remote.URLs[0], true, nil
}

// LocalFolderName derives the local folder name for a remote URL: the last path
// segment, lower-cased, without a trailing ".git". Scheme URLs (https://, ssh://,
// file://) and scp-like "user@host:path" forms are accepted.
func LocalFolderName(remoteURL string) (string, error) {
	p, err := remotePath(strings.TrimSpace(remoteURL))
	if err != nil {
		return "", err
	}

	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}

	name := strings.TrimSuffix(strings.ToLower(p), gitSuffix)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q has no path segment", ErrInvalidRemoteURL, remoteURL)
	}
	return name, nil
}

func remotePath(remoteURL string) (string, error) {
	if remoteURL == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidRemoteURL)
	}

	if strings.Contains(remoteURL, "://") {
		u, err := url.Parse(remoteURL)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidRemoteURL, err)
		}
		return u.Path, nil
	}

	// scp-like syntax: [user@]host:path
	if i := strings.Index(remoteURL, ":"); i > 0 && !strings.Contains(remoteURL[:i], "/") {
		return remoteURL[i+1:], nil
	}

	return "", fmt.Errorf("%w: %q has no scheme", ErrInvalidRemoteURL, remoteURL)
}
