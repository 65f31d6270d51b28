// Package blockchain implements block execution, state commitment, and
// longest-chain tip tracking over an internal/kvstore.Store and
// internal/trie state trie.
package blockchain

import (
	"encoding/binary"
	"sync"

	"github.com/arejula27/chaind/internal/chainerr"
	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/internal/trie"
	"github.com/arejula27/chaind/pkg/hash"
)

// Blockchain owns the tip. Tip reads and commits are serialized behind a
// single exclusive lock; Height, HasBlock, and GetBlock read the store
// directly without taking it. Validation work that only reads the store
// (ExecuteBlock) is deliberately kept outside that lock; it is
// re-acquired only to commit.
type Blockchain struct {
	mu    sync.Mutex
	store kvstore.Store
}

// Open wraps store, bootstrapping the fixed genesis block (GodAddress
// funded with GodInitialBalance) if the store has no tip yet. Every
// honest node that opens an empty store ends up with the identical
// genesis block hash.
func Open(store kvstore.Store) (*Blockchain, error) {
	return OpenWithGenesisFunding(store, map[hash.Address]chaintypes.Account{
		chaintypes.GodAddress: {Nonce: 0, Balance: chaintypes.GodInitialBalance},
	})
}

// OpenWithGenesisFunding is Open generalized over the genesis funding
// map, for standing up a private test chain funded to keypairs whose
// private keys are actually known (the production GodAddress's is not
// recoverable, so signature-dependent tests need their own funded
// genesis). Production callers should use Open.
func OpenWithGenesisFunding(store kvstore.Store, funding map[hash.Address]chaintypes.Account) (*Blockchain, error) {
	bc := &Blockchain{store: store}

	_, ok, err := store.Get(kvstore.Meta, []byte(kvstore.TipKey))
	if err != nil {
		return nil, err
	}
	if ok {
		return bc, nil
	}

	newRoot, newNodes, err := trie.InsertBatch(bc.store, hash.Zero, funding)
	if err != nil {
		return nil, err
	}

	genesis := chaintypes.Genesis(newRoot)
	if err := bc.commitLocked(genesis, newNodes); err != nil {
		return nil, err
	}
	return bc, nil
}

// Store exposes the underlying key-value store for read-only trie
// traversal by callers (the miner's template assembly) that must snapshot
// state without holding the blockchain lock across verification work.
func (bc *Blockchain) Store() kvstore.Store {
	return bc.store
}

// Tip returns the current tip's block hash.
func (bc *Blockchain) Tip() (hash.Hash, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.tipLocked()
}

func (bc *Blockchain) tipLocked() (hash.Hash, error) {
	raw, ok, err := bc.store.Get(kvstore.Meta, []byte(kvstore.TipKey))
	if err != nil {
		return hash.Zero, err
	}
	if !ok {
		return hash.Zero, chainerr.New(chainerr.StoreFailure, "no tip recorded")
	}
	h, valid := hash.HashFromBytes(raw)
	if !valid {
		return hash.Zero, chainerr.New(chainerr.StoreFailure, "corrupt tip record")
	}
	return h, nil
}

// Height returns the recorded height of block h.
func (bc *Blockchain) Height(h hash.Hash) (uint64, bool, error) {
	raw, ok, err := bc.store.Get(kvstore.Meta, h.Bytes())
	if err != nil || !ok {
		return 0, ok, err
	}
	return binary.BigEndian.Uint64(raw), true, nil
}

// HasBlock reports whether h is already known, without decoding it.
// Used by the gossip worker to filter NewBlockHashes announcements and
// to distinguish orphans from blocks with a known parent.
func (bc *Blockchain) HasBlock(h hash.Hash) (bool, error) {
	return bc.store.Contains(kvstore.Blocks, h.Bytes())
}

// GetBlock fetches and decodes the block stored under h.
func (bc *Blockchain) GetBlock(h hash.Hash) (chaintypes.Block, bool, error) {
	raw, ok, err := bc.store.Get(kvstore.Blocks, h.Bytes())
	if err != nil || !ok {
		return chaintypes.Block{}, ok, err
	}
	b, err := chaintypes.DecodeBlock(raw)
	if err != nil {
		return chaintypes.Block{}, false, chainerr.New(chainerr.InvalidEncoding, "decode block %s: %v", h, err)
	}
	return b, true, nil
}

// GetAccount reads addr's account as of the current tip's state.
func (bc *Blockchain) GetAccount(addr hash.Address) (chaintypes.Account, error) {
	bc.mu.Lock()
	tip, err := bc.tipLocked()
	bc.mu.Unlock()
	if err != nil {
		return chaintypes.Account{}, err
	}

	tipBlock, ok, err := bc.GetBlock(tip)
	if err != nil {
		return chaintypes.Account{}, err
	}
	if !ok {
		return chaintypes.Account{}, chainerr.New(chainerr.UnknownBlock, "tip block %s missing", tip)
	}

	acc, found, err := trie.Get(bc.store, tipBlock.Header.StateRoot, addr)
	if err != nil {
		return chaintypes.Account{}, err
	}
	if !found {
		return chaintypes.Account{}, nil
	}
	return acc, nil
}

// AllBlocksInLongestChain walks parent pointers from the tip back to
// genesis and returns the sequence root-to-tip.
func (bc *Blockchain) AllBlocksInLongestChain() ([]chaintypes.Block, error) {
	bc.mu.Lock()
	tip, err := bc.tipLocked()
	bc.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var chain []chaintypes.Block
	for {
		b, ok, err := bc.GetBlock(tip)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, chainerr.New(chainerr.UnknownBlock, "missing block %s while walking chain", tip)
		}
		chain = append(chain, b)
		if b.Header.Parent.IsZero() {
			break
		}
		tip = b.Header.Parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Process validates b against the current store state and, on success,
// commits it. It takes the blockchain lock only to commit, per the
// concurrency model: signature verification and trie traversal happen
// unlocked.
func (bc *Blockchain) Process(b chaintypes.Block) (hash.Hash, error) {
	h, newNodes, err := ExecuteBlock(bc.store, b)
	if err != nil {
		return hash.Zero, err
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	if err := bc.commitLocked(b, newNodes); err != nil {
		return hash.Zero, err
	}
	return h, nil
}

func putUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
