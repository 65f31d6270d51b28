package chaintypes

import (
	"encoding/binary"

	"github.com/arejula27/chaind/internal/merkle"
	"github.com/arejula27/chaind/pkg/hash"
)

// BlockReward is the fixed coinbase subsidy paid to the miner of each
// block, on top of collected fees. No retargeting, no halving.
const BlockReward = 50

// GodAddress is the well-known account seeded with the entire initial
// supply at genesis.
var GodAddress = mustAddress("67d39da22d106b686c4f301b6f357600d28fc104")

// GodInitialBalance is the balance GodAddress holds at genesis.
const GodInitialBalance = 100_000_000

func mustAddress(s string) hash.Address {
	a, err := hash.AddressFromHex(s)
	if err != nil {
		panic(err)
	}
	return a
}

// GenesisDifficulty returns the fixed target inherited by every block:
// the first three bytes are zero, the rest 0xFF.
func GenesisDifficulty() hash.Hash {
	var d hash.Hash
	for i := 3; i < hash.Size; i++ {
		d[i] = 0xFF
	}
	return d
}

// Header is the part of a block whose canonical serialization is the
// block-hash preimage; the body is authenticated indirectly via
// MerkleRoot.
type Header struct {
	Parent      hash.Hash
	Nonce       uint32
	Difficulty  hash.Hash
	TimestampMs uint64
	MerkleRoot  hash.Hash
	StateRoot   hash.Hash
	Coinbase    Transaction
}

// Canonical serializes the header tuple in declared order: parent,
// nonce, difficulty, timestamp, merkle_root, state_root, coinbase. The
// coinbase transaction's own canonical encoding is self-describing, so
// no outer length prefix is needed for it.
func (h Header) Canonical() []byte {
	buf := make([]byte, 0, hash.Size+4+hash.Size+8+hash.Size+hash.Size)
	buf = append(buf, h.Parent.Bytes()...)
	buf = appendUint32(buf, h.Nonce)
	buf = append(buf, h.Difficulty.Bytes()...)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], h.TimestampMs)
	buf = append(buf, ts[:]...)
	buf = append(buf, h.MerkleRoot.Bytes()...)
	buf = append(buf, h.StateRoot.Bytes()...)
	buf = append(buf, h.Coinbase.Canonical()...)
	return buf
}

// Hash is SHA-256 over the header's canonical serialization. This is the
// value proof-of-work targets.
func (h Header) Hash() hash.Hash {
	return hash.Sum256(h.Canonical())
}

// Block is a header plus its ordered transaction body.
type Block struct {
	Header Header
	Data   []SignedTransaction
}

// Hash returns the block hash, i.e. the header hash; the body is
// authenticated via Header.MerkleRoot, not included in the preimage.
func (b Block) Hash() hash.Hash {
	return b.Header.Hash()
}

// MerkleRoot recomputes the Merkle root over b.Data.
func (b Block) MerkleRoot() hash.Hash {
	return merkle.Root(b.Data)
}

// Genesis constructs the fixed genesis block: zero parent, zero nonce,
// zero timestamp, empty body, default coinbase, and a state root seeded
// with GodAddress holding GodInitialBalance. genesisStateRoot must be
// precomputed by the caller against an empty store (see
// internal/blockchain for the bootstrap sequence that produces it).
func Genesis(genesisStateRoot hash.Hash) Block {
	return Block{
		Header: Header{
			Parent:      hash.Zero,
			Nonce:       0,
			Difficulty:  GenesisDifficulty(),
			TimestampMs: 0,
			MerkleRoot:  merkle.Root([]SignedTransaction{}),
			StateRoot:   genesisStateRoot,
			Coinbase:    Transaction{},
		},
		Data: nil,
	}
}
