package hash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// AddressSize is the length in bytes of an Address.
const AddressSize = 20

// Address is a 20-byte account identifier derived from an Ed25519
// public key: the last AddressSize bytes of SHA-256(publicKey).
type Address [AddressSize]byte

// ZeroAddress is the default, all-zero address.
var ZeroAddress Address

// AddressFromPublicKey derives the address owning pk.
func AddressFromPublicKey(pk []byte) Address {
	digest := sha256.Sum256(pk)
	var addr Address
	copy(addr[:], digest[len(digest)-AddressSize:])
	return addr
}

// MarshalBinary returns the address's raw bytes, so CBOR stores it as a
// compact byte string rather than an array of 20 integers.
func (a Address) MarshalBinary() ([]byte, error) {
	return a.Bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (a *Address) UnmarshalBinary(data []byte) error {
	v, ok := AddressFromBytes(data)
	if !ok {
		return fmt.Errorf("hash: Address.UnmarshalBinary: want %d bytes, got %d", AddressSize, len(data))
	}
	*a = v
	return nil
}

// AddressFromBytes copies b into a new Address. b must be exactly
// AddressSize bytes.
func AddressFromBytes(b []byte) (Address, bool) {
	var a Address
	if len(b) != AddressSize {
		return a, false
	}
	copy(a[:], b)
	return a, true
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the lowercase hex encoding of a.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Cmp compares two addresses as unsigned big-endian integers, used by
// the miner to impose a deterministic sender ordering over pending
// transactions.
func (a Address) Cmp(other Address) int {
	return bytes.Compare(a[:], other[:])
}

// AddressFromHex decodes a hex string into an Address.
func AddressFromHex(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, err
	}
	var a Address
	if len(b) != AddressSize {
		return a, hex.ErrLength
	}
	copy(a[:], b)
	return a, nil
}
