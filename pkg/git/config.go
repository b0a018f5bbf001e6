package git

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultBranch      = "main"
	defaultAuthorName  = "Model Repository"
	defaultAuthorEmail = "modelrepo@localhost"
)

// Config holds the orchestrator's settings. It replaces process-wide
// preferences: everything the orchestrator needs is passed in here.
type Config struct {
	// RepositoryRoot is the folder new clones are placed under by callers
	// that derive a location from a remote URL.
	RepositoryRoot string `yaml:"repository_root" json:"repository_root"`

	// DefaultBranch is the initial branch of newly created local repositories (default: "main").
	DefaultBranch string `yaml:"default_branch" json:"default_branch"`

	// StoreCredentials enables persisting explicit or prompted credentials
	// in the vault after a successful remote operation.
	StoreCredentials bool `yaml:"store_credentials" json:"store_credentials"`

	// NetworkTimeout bounds clone, fetch and push. Zero disables the timeout.
	NetworkTimeout time.Duration `yaml:"network_timeout" json:"network_timeout"`

	// AuthorName and AuthorEmail are used when a commit request omits them.
	AuthorName  string `yaml:"author_name" json:"author_name"`
	AuthorEmail string `yaml:"author_email" json:"author_email"`

	// SSH controls host key verification for ssh:// remotes.
	SSH SSHConfig `yaml:"ssh" json:"ssh"`
}

// SSHConfig controls host key checking for SSH transports.
type SSHConfig struct {
	// InsecureIgnoreHostKey disables host key verification entirely.
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key" json:"insecure_ignore_host_key"`

	// KnownHostsFile overrides the known_hosts file used for verification.
	// Empty means the SSH_KNOWN_HOSTS environment variable or ~/.ssh/known_hosts.
	KnownHostsFile string `yaml:"known_hosts" json:"known_hosts"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.NetworkTimeout < 0 {
		return fmt.Errorf("network_timeout must not be negative, got %s", c.NetworkTimeout)
	}

	if c.AuthorEmail != "" && !strings.Contains(c.AuthorEmail, "@") {
		return fmt.Errorf("author_email %q is not an email address", c.AuthorEmail)
	}

	if c.SSH.InsecureIgnoreHostKey && c.SSH.KnownHostsFile != "" {
		return fmt.Errorf("ssh: only one of insecure_ignore_host_key or known_hosts should be set, not both")
	}

	return nil
}

// GetBranch returns the configured branch or "main" as default.
func (c *Config) GetBranch() string {
	if c.DefaultBranch == "" {
		return defaultBranch
	}
	return c.DefaultBranch
}

// GetAuthor returns name and email, falling back to the configured identity
// and then to built-in defaults.
func (c *Config) GetAuthor(name, email string) (string, string) {
	if name == "" {
		name = c.AuthorName
	}
	if name == "" {
		name = defaultAuthorName
	}
	if email == "" {
		email = c.AuthorEmail
	}
	if email == "" {
		email = defaultAuthorEmail
	}
	return name, email
}
