package gossip

import (
	"sync"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/pkg/hash"
)

// orphanBuffer maps a missing parent hash to the blocks waiting on it.
// It is protected by its own exclusive lock, independent of the
// blockchain and mempool locks, per the lock-ordering rule in spec.md
// §5 (blockchain -> mempool -> orphan_buffer).
type orphanBuffer struct {
	mu  sync.Mutex
	buf map[hash.Hash][]chaintypes.Block
}

func newOrphanBuffer() *orphanBuffer {
	return &orphanBuffer{buf: make(map[hash.Hash][]chaintypes.Block)}
}

// add appends b to the list waiting on parent.
func (o *orphanBuffer) add(parent hash.Hash, b chaintypes.Block) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf[parent] = append(o.buf[parent], b)
}

// drain removes and returns every block waiting on parent, e.g. once
// parent itself has been committed or is known to be permanently
// unreachable.
func (o *orphanBuffer) drain(parent hash.Hash) []chaintypes.Block {
	o.mu.Lock()
	defer o.mu.Unlock()
	blocks := o.buf[parent]
	delete(o.buf, parent)
	return blocks
}
