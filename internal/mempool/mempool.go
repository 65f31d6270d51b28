// Package mempool holds signed transactions awaiting inclusion in a
// block: a hash-indexed set with idempotent insert and bulk removal.
package mempool

import (
	"sync"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/pkg/hash"
)

// Mempool is safe for concurrent use, guarded by its own exclusive lock
// (it never shares a lock with the blockchain or the orphan buffer).
type Mempool struct {
	mu  sync.RWMutex
	txs map[hash.Hash]chaintypes.SignedTransaction
}

// New returns an empty mempool.
func New() *Mempool {
	return &Mempool{txs: make(map[hash.Hash]chaintypes.SignedTransaction)}
}

// Insert adds tx, keyed by its hash. Re-inserting an already-known hash
// is a silent no-op.
func (m *Mempool) Insert(tx chaintypes.SignedTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := tx.Hash()
	if _, ok := m.txs[h]; ok {
		return
	}
	m.txs[h] = tx
}

// Contains reports whether h is currently held.
func (m *Mempool) Contains(h hash.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.txs[h]
	return ok
}

// Get returns the transaction for h, if held.
func (m *Mempool) Get(h hash.Hash) (chaintypes.SignedTransaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.txs[h]
	return tx, ok
}

// Missing filters hashes down to those not currently held.
func (m *Mempool) Missing(hashes []hash.Hash) []hash.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var missing []hash.Hash
	for _, h := range hashes {
		if _, ok := m.txs[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// RemoveTransactions deletes every entry keyed by one of hashes, e.g.
// after those transactions are committed in a block on the canonical
// chain.
func (m *Mempool) RemoveTransactions(hashes []hash.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hashes {
		delete(m.txs, h)
	}
}

// All returns a snapshot of every held transaction. Iteration order is
// unspecified; callers that need a deterministic order (the miner) sort
// independently.
func (m *Mempool) All() []chaintypes.SignedTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chaintypes.SignedTransaction, 0, len(m.txs))
	for _, tx := range m.txs {
		out = append(out, tx)
	}
	return out
}

// Len reports the number of held transactions.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}
