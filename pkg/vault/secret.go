package vault

import (
	"bytes"
	"fmt"
	"os"
	"os/user"
	"strings"
)

// SecretSource yields the machine and user scoped secret keys are derived from.
// It must never be derived from repository content or the stored credentials.
type SecretSource interface {
	Secret() ([]byte, error)
}

// SecretFunc adapts a function to SecretSource.
type SecretFunc func() ([]byte, error)

// Secret calls f.
func (f SecretFunc) Secret() ([]byte, error) {
	return f()
}

var machineIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// MachineSecret combines the host name, the current user and, where the
// platform has one, the machine id. A record sealed with it cannot be opened
// after being copied to another machine or account.
func MachineSecret() SecretSource {
	return SecretFunc(machineSecret)
}

func machineSecret() ([]byte, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to read host name: %w", err)
	}

	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to look up current user: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("modelrepo\x00")
	b.WriteString(host)
	b.WriteByte(0)
	b.WriteString(u.Uid)
	b.WriteByte(0)
	b.WriteString(u.Username)
	b.WriteByte(0)
	b.WriteString(u.HomeDir)

	for _, path := range machineIDFiles {
		id, err := os.ReadFile(path)
		if err == nil {
			b.WriteByte(0)
			b.WriteString(strings.TrimSpace(string(id)))
			break
		}
	}

	return b.Bytes(), nil
}
