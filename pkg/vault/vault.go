// Package vault keeps per-repository credentials encrypted at rest.
//
// Each repository gets one record under its metadata directory. The record key
// is derived from a machine and user scoped secret with PBKDF2 and a random
// per-record salt; the payload is sealed with XChaCha20-Poly1305. The scheme
// protects against casual disk theft, not against an attacker who can run code
// as the same user on the same machine.
//
// Whether credentials get persisted at all is the caller's decision.
package vault

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	tracerName = "modelrepo"

	// CredentialsFileName is the record name inside a repository's metadata directory.
	CredentialsFileName = "credentials"

	// DefaultIterations is the PBKDF2 iteration count for new records.
	DefaultIterations = 120000

	// MinIterations and MaxIterations bound the iteration count of any record,
	// stored or loaded.
	MinIterations = 10000
	MaxIterations = 10000000

	saltSize = 16
)

// additionalData binds sealed payloads to this record format.
var additionalData = []byte("modelrepo credentials v1")

// Credentials is a username and password pair.
type Credentials struct {
	Username string
	Password string
}

// IsZero reports whether both fields are empty.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}

// Options configures a Vault.
type Options struct {
	// Fs is where records are read and written. Defaults to the OS filesystem.
	Fs afero.Fs

	// Secret supplies the key derivation secret. Defaults to MachineSecret.
	Secret SecretSource

	// Iterations is the PBKDF2 iteration count for new records.
	// Defaults to DefaultIterations.
	Iterations int

	// Rand is the salt and nonce source. Defaults to crypto/rand.
	Rand io.Reader
}

// Vault stores credential records. It does no locking of its own: callers
// serialize access per repository.
type Vault struct {
	fs         afero.Fs
	secret     SecretSource
	iterations int
	rand       io.Reader
}

// New creates a Vault, filling in defaults for unset options.
func New(opts Options) *Vault {
	v := &Vault{
		fs:         opts.Fs,
		secret:     opts.Secret,
		iterations: opts.Iterations,
		rand:       opts.Rand,
	}
	if v.fs == nil {
		v.fs = afero.NewOsFs()
	}
	if v.secret == nil {
		v.secret = MachineSecret()
	}
	if v.iterations == 0 {
		v.iterations = DefaultIterations
	}
	if v.rand == nil {
		v.rand = rand.Reader
	}
	return v
}

// RecordPath returns the credential record location for a metadata directory.
func RecordPath(gitDir string) string {
	return filepath.Join(gitDir, CredentialsFileName)
}

// Has reports whether a record exists for the repository. It does not check
// that the record can be decrypted.
func (v *Vault) Has(ctx context.Context, gitDir string) (bool, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "vault.Has")
	defer span.End()

	path := RecordPath(gitDir)
	span.SetAttributes(attribute.String("vault.path", path))

	ok, err := afero.Exists(v.fs, path)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check credentials %s: %w", path, err)
	}
	return ok, nil
}

// Store seals creds and atomically replaces the repository's record.
func (v *Vault) Store(ctx context.Context, gitDir string, creds Credentials) error {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "vault.Store")
	defer span.End()

	path := RecordPath(gitDir)
	span.SetAttributes(
		attribute.String("vault.path", path),
		attribute.Int("vault.iterations", v.iterations),
	)

	if v.iterations < MinIterations || v.iterations > MaxIterations {
		err := &Error{Kind: KeyDerivationFailed, Path: path, Err: fmt.Errorf("iteration count %d outside [%d, %d]", v.iterations, MinIterations, MaxIterations)}
		span.RecordError(err)
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(v.rand, salt); err != nil {
		err = &Error{Kind: KeyDerivationFailed, Path: path, Err: fmt.Errorf("failed to generate salt: %w", err)}
		span.RecordError(err)
		return err
	}

	aead, err := v.newAEAD(salt, v.iterations)
	if err != nil {
		err = &Error{Kind: KeyDerivationFailed, Path: path, Err: err}
		span.RecordError(err)
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(v.rand, nonce); err != nil {
		err = &Error{Kind: KeyDerivationFailed, Path: path, Err: fmt.Errorf("failed to generate nonce: %w", err)}
		span.RecordError(err)
		return err
	}
	sealed := aead.Seal(nonce, nonce, encodePayload(creds), additionalData)

	data, err := encodeRecord(salt, v.iterations, sealed)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := v.writeAtomic(gitDir, path, data); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Load opens the repository's record. A missing record yields ErrNotFound; a
// record that cannot be opened yields ErrDecryptFailed, including when the
// machine secret is unavailable.
func (v *Vault) Load(ctx context.Context, gitDir string) (Credentials, error) {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "vault.Load")
	defer span.End()

	path := RecordPath(gitDir)
	span.SetAttributes(attribute.String("vault.path", path))

	data, err := afero.ReadFile(v.fs, path)
	if os.IsNotExist(err) {
		return Credentials{}, &Error{Kind: NotFound, Path: path}
	}
	if err != nil {
		span.RecordError(err)
		return Credentials{}, fmt.Errorf("failed to read credentials %s: %w", path, err)
	}

	salt, iterations, ciphertext, err := decodeRecord(data)
	if err != nil {
		err = &Error{Kind: DecryptFailed, Path: path, Err: err}
		span.RecordError(err)
		return Credentials{}, err
	}

	aead, err := v.newAEAD(salt, iterations)
	if err != nil {
		err = &Error{Kind: DecryptFailed, Path: path, Err: err}
		span.RecordError(err)
		return Credentials{}, err
	}

	if len(ciphertext) < aead.NonceSize() {
		err := &Error{Kind: DecryptFailed, Path: path, Err: fmt.Errorf("ciphertext too short")}
		span.RecordError(err)
		return Credentials{}, err
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, sealed, additionalData)
	if err != nil {
		err = &Error{Kind: DecryptFailed, Path: path, Err: err}
		span.RecordError(err)
		return Credentials{}, err
	}

	creds, err := decodePayload(plain)
	if err != nil {
		err = &Error{Kind: DecryptFailed, Path: path, Err: err}
		span.RecordError(err)
		return Credentials{}, err
	}
	return creds, nil
}

// Delete removes the repository's record. A missing record is not an error.
func (v *Vault) Delete(ctx context.Context, gitDir string) error {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "vault.Delete")
	defer span.End()

	path := RecordPath(gitDir)
	span.SetAttributes(attribute.String("vault.path", path))

	if err := v.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		span.RecordError(err)
		return fmt.Errorf("failed to delete credentials %s: %w", path, err)
	}
	return nil
}

func (v *Vault) newAEAD(salt []byte, iterations int) (cipher.AEAD, error) {
	secret, err := v.secret.Secret()
	if err != nil {
		return nil, fmt.Errorf("failed to read machine secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("machine secret is empty")
	}

	key := pbkdf2.Key(secret, salt, iterations, chacha20poly1305.KeySize, sha256.New)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead, nil
}

// writeAtomic writes data next to path and renames it into place, so a crash
// mid-write leaves the previous record intact.
func (v *Vault) writeAtomic(dir, path string, data []byte) error {
	tmp, err := afero.TempFile(v.fs, dir, "."+CredentialsFileName+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp credentials file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = v.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close credentials: %w", err)
	}
	if err := v.fs.Chmod(tmpName, 0600); err != nil {
		cleanup()
		return fmt.Errorf("failed to set credentials permissions: %w", err)
	}
	if err := v.fs.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace credentials %s: %w", path, err)
	}
	return nil
}
