package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archicontribs/modelrepo/pkg/git"
	"github.com/archicontribs/modelrepo/pkg/vault"
)

const (
	// EnvConfigPath overrides the configuration file location.
	EnvConfigPath = "MODELREPO_CONFIG"

	// EnvRepositoryRoot overrides repository_root.
	EnvRepositoryRoot = "MODELREPO_ROOT"

	defaultRootDir        = "ModelRepositories"
	defaultNetworkTimeout = "5m"
)

// AppConfig represents the parsed modelrepo configuration file
type AppConfig struct {
	// RepositoryRoot is the folder clones are placed under when no target is given
	RepositoryRoot string `yaml:"repository_root"`

	// StoreCredentials persists typed-in credentials after a successful remote operation
	StoreCredentials bool `yaml:"store_credentials"`

	// DefaultBranch is the initial branch of repositories created with init
	DefaultBranch string `yaml:"default_branch,omitempty"`

	// NetworkTimeout bounds clone, fetch and push, e.g. "90s" or "5m". "0" disables it.
	NetworkTimeout string `yaml:"network_timeout,omitempty"`

	Author AuthorConfig `yaml:"author,omitempty"`
	SSH    SSHConfig    `yaml:"ssh,omitempty"`
	Vault  VaultConfig  `yaml:"vault,omitempty"`
}

// AuthorConfig is the default commit identity
type AuthorConfig struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// SSHConfig controls host key checking for ssh:// remotes
type SSHConfig struct {
	InsecureIgnoreHostKey bool   `yaml:"insecure_ignore_host_key,omitempty"`
	KnownHosts            string `yaml:"known_hosts,omitempty"`
}

// VaultConfig tunes credential encryption
type VaultConfig struct {
	// Iterations is the PBKDF2 iteration count for newly stored records
	Iterations int `yaml:"iterations,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	root := defaultRootDir
	if home, err := os.UserHomeDir(); err == nil {
		root = filepath.Join(home, defaultRootDir)
	}
	return &AppConfig{
		RepositoryRoot: root,
		NetworkTimeout: defaultNetworkTimeout,
		Vault: VaultConfig{
			Iterations: vault.DefaultIterations,
		},
	}
}

// DefaultPath returns the configuration file location, honoring EnvConfigPath.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".modelrepo", "config.yaml")
	}
	return filepath.Join(dir, "modelrepo", "config.yaml")
}

// Validate checks that the configuration is usable
func (c *AppConfig) Validate() error {
	if c.RepositoryRoot == "" {
		return fmt.Errorf("repository_root is required")
	}

	if _, err := c.Timeout(); err != nil {
		return err
	}

	if c.Vault.Iterations != 0 && (c.Vault.Iterations < vault.MinIterations || c.Vault.Iterations > vault.MaxIterations) {
		return fmt.Errorf("vault.iterations must be between %d and %d, got %d", vault.MinIterations, vault.MaxIterations, c.Vault.Iterations)
	}

	if c.Author.Email != "" && !strings.Contains(c.Author.Email, "@") {
		return fmt.Errorf("author.email %q is not an email address", c.Author.Email)
	}

	if c.SSH.InsecureIgnoreHostKey && c.SSH.KnownHosts != "" {
		return fmt.Errorf("ssh: only one of insecure_ignore_host_key or known_hosts should be set, not both")
	}

	return nil
}

// Timeout parses NetworkTimeout. An empty value means no timeout.
func (c *AppConfig) Timeout() (time.Duration, error) {
	if c.NetworkTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.NetworkTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid network_timeout %q: %w", c.NetworkTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("network_timeout must not be negative, got %s", c.NetworkTimeout)
	}
	return d, nil
}

// GitConfig converts the configuration into orchestrator settings.
func (c *AppConfig) GitConfig() (*git.Config, error) {
	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}
	return &git.Config{
		RepositoryRoot:   c.RepositoryRoot,
		DefaultBranch:    c.DefaultBranch,
		StoreCredentials: c.StoreCredentials,
		NetworkTimeout:   timeout,
		AuthorName:       c.Author.Name,
		AuthorEmail:      c.Author.Email,
		SSH: git.SSHConfig{
			InsecureIgnoreHostKey: c.SSH.InsecureIgnoreHostKey,
			KnownHostsFile:        c.SSH.KnownHosts,
		},
	}, nil
}

// VaultOptions converts the configuration into vault options. The machine
// secret and filesystem are left at their defaults.
func (c *AppConfig) VaultOptions() vault.Options {
	return vault.Options{Iterations: c.Vault.Iterations}
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
