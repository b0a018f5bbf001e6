package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/archicontribs/modelrepo/pkg/config"
	"github.com/archicontribs/modelrepo/pkg/git"
	"github.com/archicontribs/modelrepo/pkg/repository"
	"github.com/archicontribs/modelrepo/pkg/vault"
)

// app holds the collaborators every command works with.
type app struct {
	cfg      *config.AppConfig
	registry *repository.MemoryRegistry
	resolver *repository.Resolver
	vault    *vault.Vault
	client   *git.ClientImpl
}

// newApp loads the configuration and wires the resolver, vault and
// orchestrator from it.
func newApp(ctx context.Context) (*app, error) {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.ParseConfig(ctx, path)
	if err != nil {
		return nil, err
	}

	gitCfg, err := cfg.GitConfig()
	if err != nil {
		return nil, err
	}

	registry := repository.NewMemoryRegistry()
	resolver := repository.NewResolver(nil, registry)
	v := vault.New(cfg.VaultOptions())

	var prompter git.Prompter
	if !noPrompt && term.IsTerminal(int(os.Stdin.Fd())) {
		prompter = newTerminalPrompter(os.Stdin, os.Stderr)
	}

	client, err := git.NewClient(gitCfg, git.Options{
		Resolver: resolver,
		Vault:    v,
		Prompter: prompter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create git client: %w", err)
	}

	slog.Debug("Configuration loaded",
		"file", path,
		"repository_root", cfg.RepositoryRoot,
		"store_credentials", cfg.StoreCredentials,
		"interactive", prompter != nil,
	)

	return &app{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		vault:    v,
		client:   client,
	}, nil
}

// resolve classifies the repository at path, which may be relative to the
// working directory or the name of a folder under the repository root.
func (a *app) resolve(ctx context.Context, path string) (repository.Handle, error) {
	h, err := a.resolver.Resolve(ctx, path)
	if err != nil {
		return h, err
	}
	if h.Kind != repository.NotAPath {
		return h, nil
	}

	if filepath.IsAbs(path) {
		return h, nil
	}
	if alt, err := a.resolver.Resolve(ctx, filepath.Join(a.cfg.RepositoryRoot, path)); err == nil && alt.Kind.IsRepository() {
		return alt, nil
	}
	return h, nil
}

// requireRepository resolves path and fails unless it is a git repository.
func (a *app) requireRepository(ctx context.Context, path string) (repository.Handle, error) {
	h, err := a.resolve(ctx, path)
	if err != nil {
		return h, err
	}
	if !h.Kind.IsRepository() {
		return h, fmt.Errorf("%s is not a git repository (%s)", h.Path, h.Kind)
	}
	return h, nil
}
