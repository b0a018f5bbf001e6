package vault

import "fmt"

// ErrorKind classifies vault failures.
type ErrorKind int

const (
	// KeyDerivationFailed means no key could be produced from the machine secret.
	KeyDerivationFailed ErrorKind = iota + 1
	// NotFound means no credential record exists for the repository.
	NotFound
	// DecryptFailed means a record exists but cannot be opened with the current
	// machine secret: wrong machine or user, or a corrupted file. Callers should
	// fall back to prompting and never retry.
	DecryptFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KeyDerivationFailed:
		return "key derivation failed"
	case NotFound:
		return "credentials not found"
	case DecryptFailed:
		return "decrypt failed"
	default:
		return "unknown vault error"
	}
}

// Error is returned by Vault operations. Match it with errors.Is against the
// sentinels below, or errors.As for the path and cause.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

var (
	ErrKeyDerivationFailed = &Error{Kind: KeyDerivationFailed}
	ErrNotFound            = &Error{Kind: NotFound}
	ErrDecryptFailed       = &Error{Kind: DecryptFailed}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
