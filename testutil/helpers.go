package testutil

import (
	"encoding/hex"
	"testing"

	"github.com/arejula27/chaind/pkg/hash"
)

// MustDecodeHex decodes hex or fails the test.
func MustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}

// MustHashFromHex decodes a hex string into a hash.Hash or fails the test.
func MustHashFromHex(t *testing.T, s string) hash.Hash {
	t.Helper()
	h, err := hash.HashFromHex(s)
	if err != nil {
		t.Fatalf("invalid hash hex %q: %v", s, err)
	}
	return h
}
