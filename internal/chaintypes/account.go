// Package chaintypes defines the account, transaction, and block types
// that make up the chain's data model, and their canonical serialization.
package chaintypes

import (
	"encoding/binary"

	"github.com/arejula27/chaind/pkg/hash"
)

// Account is the per-address state held in the trie. The zero value is
// the default account held at every address with no history.
type Account struct {
	Nonce   uint64
	Balance uint64
}

// Hash returns SHA-256(nonce || balance), both big-endian.
func (a Account) Hash() hash.Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], a.Nonce)
	binary.BigEndian.PutUint64(buf[8:16], a.Balance)
	return hash.Sum256(buf[:])
}
