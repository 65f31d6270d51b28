// Package hash defines the fixed-width digest and address primitives
// shared by every other package: 32-byte content hashes and 20-byte
// account addresses, both ordered as unsigned big-endian integers.
package hash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is an opaque 32-byte digest. The zero value is the default,
// all-zero hash (used as the genesis block's parent and as the default
// state-trie node reference).
type Hash [Size]byte

// Zero is the default, all-zero hash.
var Zero Hash

// Sum256 returns the SHA-256 digest of data as a Hash.
func Sum256(data ...[]byte) Hash {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// IsZero reports whether h is the default hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Cmp compares two hashes as unsigned big-endian integers: the most
// significant byte is compared first. Returns -1, 0, or 1.
func (h Hash) Cmp(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// LessOrEqual reports whether h, interpreted as an unsigned big-endian
// integer, is <= target. This is the proof-of-work acceptance check.
func (h Hash) LessOrEqual(target Hash) bool {
	return h.Cmp(target) <= 0
}

// MarshalBinary returns the hash's raw bytes, so CBOR (and any other
// encoding/binary-aware codec) stores it as a compact byte string rather
// than an array of 32 integers.
func (h Hash) MarshalBinary() ([]byte, error) {
	return h.Bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (h *Hash) UnmarshalBinary(data []byte) error {
	v, ok := HashFromBytes(data)
	if !ok {
		return fmt.Errorf("hash: UnmarshalBinary: want %d bytes, got %d", Size, len(data))
	}
	*h = v
	return nil
}

// HashFromBytes copies b into a new Hash. b must be exactly Size bytes.
func HashFromBytes(b []byte) (Hash, bool) {
	var h Hash
	if len(b) != Size {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// HashFromHex decodes a hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	h, ok := HashFromBytes(b)
	if !ok {
		return Hash{}, hex.ErrLength
	}
	return h, nil
}
