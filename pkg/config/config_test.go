package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/archicontribs/modelrepo/pkg/vault"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestParseConfig(t *testing.T) {
	t.Setenv(EnvRepositoryRoot, "")

	path := writeConfig(t, `
repository_root: /srv/models
store_credentials: true
default_branch: trunk
network_timeout: 90s
author:
  name: Jane Modeler
  email: jane@example.com
ssh:
  known_hosts: /etc/ssh/ssh_known_hosts
vault:
  iterations: 200000
`)

	cfg, err := ParseConfig(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseConfig() unexpected error: %v", err)
	}

	if cfg.RepositoryRoot != "/srv/models" {
		t.Errorf("RepositoryRoot = %q, want %q", cfg.RepositoryRoot, "/srv/models")
	}
	if !cfg.StoreCredentials {
		t.Error("StoreCredentials = false, want true")
	}
	if cfg.Author.Name != "Jane Modeler" || cfg.Author.Email != "jane@example.com" {
		t.Errorf("Author = %+v, want Jane Modeler <jane@example.com>", cfg.Author)
	}
	if cfg.Vault.Iterations != 200000 {
		t.Errorf("Vault.Iterations = %d, want 200000", cfg.Vault.Iterations)
	}

	gitCfg, err := cfg.GitConfig()
	if err != nil {
		t.Fatalf("GitConfig() unexpected error: %v", err)
	}
	if gitCfg.NetworkTimeout != 90*time.Second {
		t.Errorf("GitConfig().NetworkTimeout = %v, want 90s", gitCfg.NetworkTimeout)
	}
	if gitCfg.GetBranch() != "trunk" {
		t.Errorf("GitConfig().GetBranch() = %q, want %q", gitCfg.GetBranch(), "trunk")
	}
	if gitCfg.SSH.KnownHostsFile != "/etc/ssh/ssh_known_hosts" {
		t.Errorf("GitConfig().SSH.KnownHostsFile = %q", gitCfg.SSH.KnownHostsFile)
	}
	if err := gitCfg.Validate(); err != nil {
		t.Errorf("GitConfig().Validate() unexpected error: %v", err)
	}

	if got := cfg.VaultOptions().Iterations; got != 200000 {
		t.Errorf("VaultOptions().Iterations = %d, want 200000", got)
	}
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	t.Setenv(EnvRepositoryRoot, "")

	cfg, err := ParseConfig(context.Background(), writeConfig(t, "store_credentials: true\n"))
	if err != nil {
		t.Fatalf("ParseConfig() unexpected error: %v", err)
	}

	def := Default()
	if cfg.RepositoryRoot != def.RepositoryRoot {
		t.Errorf("RepositoryRoot = %q, want default %q", cfg.RepositoryRoot, def.RepositoryRoot)
	}
	if cfg.NetworkTimeout != defaultNetworkTimeout {
		t.Errorf("NetworkTimeout = %q, want %q", cfg.NetworkTimeout, defaultNetworkTimeout)
	}
	if cfg.Vault.Iterations != vault.DefaultIterations {
		t.Errorf("Vault.Iterations = %d, want %d", cfg.Vault.Iterations, vault.DefaultIterations)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "repository_root: /srv/models\n")
	t.Setenv(EnvRepositoryRoot, "/data/models")

	cfg, err := ParseConfig(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseConfig() unexpected error: %v", err)
	}
	if cfg.RepositoryRoot != "/data/models" {
		t.Errorf("RepositoryRoot = %q, want %q", cfg.RepositoryRoot, "/data/models")
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	t.Setenv(EnvRepositoryRoot, "")

	missing := filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := ParseConfig(context.Background(), missing); err == nil {
		t.Error("ParseConfig() expected error for missing explicit file, got nil")
	}

	t.Setenv(EnvConfigPath, missing)
	cfg, err := ParseConfig(context.Background(), DefaultPath())
	if err != nil {
		t.Fatalf("ParseConfig() at default location unexpected error: %v", err)
	}
	if cfg.RepositoryRoot != Default().RepositoryRoot {
		t.Errorf("RepositoryRoot = %q, want default", cfg.RepositoryRoot)
	}
}

func TestParseConfigErrors(t *testing.T) {
	t.Setenv(EnvRepositoryRoot, "")

	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "malformed yaml",
			content:     "repository_root: [unterminated\n",
			errContains: "failed to parse config file",
		},
		{
			name:        "bad timeout",
			content:     "network_timeout: soon\n",
			errContains: "invalid network_timeout",
		},
		{
			name:        "negative timeout",
			content:     "network_timeout: -5s\n",
			errContains: "must not be negative",
		},
		{
			name:        "weak vault",
			content:     "vault:\n  iterations: 10\n",
			errContains: "vault.iterations must be between",
		},
		{
			name:        "runaway vault",
			content:     "vault:\n  iterations: 2000000000\n",
			errContains: "vault.iterations must be between",
		},
		{
			name:        "bad email",
			content:     "author:\n  email: not-an-email\n",
			errContains: "is not an email address",
		},
		{
			name:        "conflicting ssh options",
			content:     "ssh:\n  insecure_ignore_host_key: true\n  known_hosts: /tmp/hosts\n",
			errContains: "only one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(context.Background(), writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("ParseConfig() expected error containing %q, got nil", tt.errContains)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ParseConfig() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{in: "~", want: home},
		{in: "~/models", want: filepath.Join(home, "models")},
		{in: "/abs/models", want: "/abs/models"},
		{in: "~other/models", want: "~other/models"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := expandHome(tt.in); got != tt.want {
				t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/modelrepo.yaml")
	if got := DefaultPath(); got != "/etc/modelrepo.yaml" {
		t.Errorf("DefaultPath() = %q, want env override", got)
	}

	t.Setenv(EnvConfigPath, "")
	if got := DefaultPath(); !strings.HasSuffix(got, filepath.Join("modelrepo", "config.yaml")) {
		t.Errorf("DefaultPath() = %q, want .../modelrepo/config.yaml", got)
	}
}
