// Package trie implements the binary radix state trie: a content-addressed,
// copy-on-write trie over 160-bit addresses with batch update and lazy
// load from an internal/kvstore.Store. Grounded on the teacher's general
// content-addressed node idiom; the compressed binary trie studied in the
// reference pack (go-ethereum) was not adapted because its path
// compression doesn't match this trie's uncompressed construction.
package trie

import (
	"fmt"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/pkg/hash"
)

// kind tags a node's type in both its hash preimage and its serialized form.
type kind byte

const (
	kindEmpty  kind = 0x00
	kindLeaf   kind = 0x01
	kindBranch kind = 0x02
)

// node is one of Empty, Leaf(Address, Account), or Branch(left, right).
// The zero value is not a valid node; use the constructors.
type node struct {
	k       kind
	addr    hash.Address
	account chaintypes.Account
	left    hash.Hash
	right   hash.Hash
}

// emptyHash is the content hash of the Empty node: SHA-256 of its tag
// byte alone. It is a fixed, well-known value (not the zero hash) so
// that a Branch with one Empty child — unavoidable whenever two
// addresses share a bit prefix — hashes identically across any
// spec-conformant implementation.
var emptyHash = hash.Sum256([]byte{byte(kindEmpty)})

func emptyNode() node { return node{k: kindEmpty} }

func leafNode(a hash.Address, acc chaintypes.Account) node {
	return node{k: kindLeaf, addr: a, account: acc}
}

func branchNode(left, right hash.Hash) node {
	return node{k: kindBranch, left: left, right: right}
}

// hashOf returns the content hash of n: SHA-256 of a tag byte followed by
// the type-specific payload. Empty has no payload; its hash is the fixed
// emptyHash.
func hashOf(n node) hash.Hash {
	switch n.k {
	case kindEmpty:
		return emptyHash
	case kindLeaf:
		return hash.Sum256([]byte{byte(kindLeaf)}, n.addr.Bytes(), n.account.Hash().Bytes())
	case kindBranch:
		return hash.Sum256([]byte{byte(kindBranch)}, n.left.Bytes(), n.right.Bytes())
	default:
		panic("trie: invalid node kind")
	}
}

// encode serializes n for storage: just the tag byte for Empty, tag plus
// payload otherwise.
func encode(n node) []byte {
	switch n.k {
	case kindEmpty:
		return []byte{byte(kindEmpty)}
	case kindLeaf:
		buf := make([]byte, 0, 1+20+16)
		buf = append(buf, byte(kindLeaf))
		buf = append(buf, n.addr.Bytes()...)
		var accBuf [16]byte
		putUint64(accBuf[0:8], n.account.Nonce)
		putUint64(accBuf[8:16], n.account.Balance)
		buf = append(buf, accBuf[:]...)
		return buf
	case kindBranch:
		buf := make([]byte, 0, 1+32+32)
		buf = append(buf, byte(kindBranch))
		buf = append(buf, n.left.Bytes()...)
		buf = append(buf, n.right.Bytes()...)
		return buf
	default:
		panic("trie: unknown node kind in encode")
	}
}

func decode(b []byte) (node, error) {
	if len(b) == 0 {
		return node{}, fmt.Errorf("trie: empty node encoding")
	}
	switch kind(b[0]) {
	case kindEmpty:
		if len(b) != 1 {
			return node{}, fmt.Errorf("trie: bad empty encoding length %d", len(b))
		}
		return emptyNode(), nil
	case kindLeaf:
		if len(b) != 1+20+16 {
			return node{}, fmt.Errorf("trie: bad leaf encoding length %d", len(b))
		}
		addr, ok := hash.AddressFromBytes(b[1:21])
		if !ok {
			return node{}, fmt.Errorf("trie: bad leaf address")
		}
		acc := chaintypes.Account{
			Nonce:   getUint64(b[21:29]),
			Balance: getUint64(b[29:37]),
		}
		return leafNode(addr, acc), nil
	case kindBranch:
		if len(b) != 1+32+32 {
			return node{}, fmt.Errorf("trie: bad branch encoding length %d", len(b))
		}
		left, ok := hash.HashFromBytes(b[1:33])
		if !ok {
			return node{}, fmt.Errorf("trie: bad branch left hash")
		}
		right, ok := hash.HashFromBytes(b[33:65])
		if !ok {
			return node{}, fmt.Errorf("trie: bad branch right hash")
		}
		return branchNode(left, right), nil
	default:
		return node{}, fmt.Errorf("trie: unknown node kind %d", b[0])
	}
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// bit returns bit d of addr, high bit first within each byte.
func bit(addr hash.Address, d int) int {
	b := addr.Bytes()[d/8]
	return int((b >> (7 - uint(d%8))) & 1)
}
