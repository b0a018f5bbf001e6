package vault

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

const (
	recordVersion  = 1
	payloadVersion = 1
)

var errMalformedPayload = errors.New("malformed credential payload")

// record is the on-disk layout of a credential file.
type record struct {
	Version    int    `yaml:"version"`
	Salt       string `yaml:"salt"`
	Iterations int    `yaml:"iterations"`
	// Ciphertext is the AEAD nonce followed by the sealed payload.
	Ciphertext string `yaml:"ciphertext"`
}

func encodeRecord(salt []byte, iterations int, ciphertext []byte) ([]byte, error) {
	return yaml.Marshal(record{
		Version:    recordVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Iterations: iterations,
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
}

func decodeRecord(data []byte) (salt []byte, iterations int, ciphertext []byte, err error) {
	var r record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, 0, nil, fmt.Errorf("failed to parse record: %w", err)
	}
	if r.Version != recordVersion {
		return nil, 0, nil, fmt.Errorf("unsupported record version %d", r.Version)
	}
	if r.Iterations < MinIterations || r.Iterations > MaxIterations {
		return nil, 0, nil, fmt.Errorf("iteration count %d outside [%d, %d]", r.Iterations, MinIterations, MaxIterations)
	}

	salt, err = base64.StdEncoding.DecodeString(r.Salt)
	if err != nil || len(salt) == 0 {
		return nil, 0, nil, fmt.Errorf("invalid salt")
	}
	ciphertext, err = base64.StdEncoding.DecodeString(r.Ciphertext)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("invalid ciphertext: %w", err)
	}
	return salt, r.Iterations, ciphertext, nil
}

// encodePayload lays out the plaintext as a version byte followed by the
// length-prefixed username and password.
func encodePayload(c Credentials) []byte {
	buf := make([]byte, 0, 1+2*binary.MaxVarintLen64+len(c.Username)+len(c.Password))
	buf = append(buf, payloadVersion)
	buf = binary.AppendUvarint(buf, uint64(len(c.Username)))
	buf = append(buf, c.Username...)
	buf = binary.AppendUvarint(buf, uint64(len(c.Password)))
	buf = append(buf, c.Password...)
	return buf
}

func decodePayload(buf []byte) (Credentials, error) {
	if len(buf) == 0 || buf[0] != payloadVersion {
		return Credentials{}, errMalformedPayload
	}
	buf = buf[1:]

	username, buf, err := readField(buf)
	if err != nil {
		return Credentials{}, err
	}
	password, buf, err := readField(buf)
	if err != nil {
		return Credentials{}, err
	}
	if len(buf) != 0 {
		return Credentials{}, errMalformedPayload
	}
	return Credentials{Username: username, Password: password}, nil
}

func readField(buf []byte) (string, []byte, error) {
	n, size := binary.Uvarint(buf)
	if size <= 0 || n > uint64(len(buf)-size) {
		return "", nil, errMalformedPayload
	}
	buf = buf[size:]
	return string(buf[:n]), buf[n:], nil
}
