package vault

import (
	"errors"
	"testing"
)

func TestDecodePayloadRejectsMalformed(t *testing.T) {
	valid := encodePayload(Credentials{Username: "alice", Password: "pw"})

	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "empty", buf: nil},
		{name: "wrong version", buf: append([]byte{9}, valid[1:]...)},
		{name: "truncated", buf: valid[:len(valid)-1]},
		{name: "trailing bytes", buf: append(append([]byte{}, valid...), 'x')},
		{name: "length overflow", buf: []byte{payloadVersion, 0xff, 0x01, 'a'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodePayload(tt.buf); !errors.Is(err, errMalformedPayload) {
				t.Errorf("decodePayload() error = %v, want errMalformedPayload", err)
			}
		})
	}
}

func TestPayloadEmptyFields(t *testing.T) {
	got, err := decodePayload(encodePayload(Credentials{}))
	if err != nil {
		t.Fatalf("decodePayload() unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("decodePayload() = %+v, want zero credentials", got)
	}
}
