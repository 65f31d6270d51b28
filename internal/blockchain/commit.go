package blockchain

import (
	"github.com/arejula27/chaind/internal/chainerr"
	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/pkg/hash"
)

func errUnknownParent(parent hash.Hash) error {
	return chainerr.New(chainerr.UnknownParent, "commit: parent %s missing height record", parent)
}

// CommitBlock persists b and newNodes and advances the tip, acquiring
// the blockchain lock for the duration. Idempotent: recommitting an
// already-known block is a no-op.
func (bc *Blockchain) CommitBlock(b chaintypes.Block, newNodes map[hash.Hash][]byte) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.commitLocked(b, newNodes)
}

// commitLocked assumes bc.mu is held. Writes state_nodes, then the
// block, then meta (height and, conditionally, tip), in that order with
// a flush after the block write — the mitigation for the store's lack
// of cross-namespace atomicity (see DESIGN.md).
func (bc *Blockchain) commitLocked(b chaintypes.Block, newNodes map[hash.Hash][]byte) error {
	blockHash := b.Header.Hash()

	if known, err := bc.store.Contains(kvstore.Blocks, blockHash.Bytes()); err != nil {
		return err
	} else if known {
		// The block itself is durable, but a crash between the block
		// write and the height write (see DESIGN.md's cross-keyspace
		// atomicity note) can leave its height record missing. Repair
		// that instead of treating "block known" as "fully committed",
		// so a child block's later Height(parent) lookup never wrongly
		// fails with UnknownParent.
		if _, ok, err := bc.Height(blockHash); err != nil {
			return err
		} else if ok {
			return nil
		}
	}

	var parentHeight uint64
	if !b.Header.Parent.IsZero() {
		h, ok, err := bc.Height(b.Header.Parent)
		if err != nil {
			return err
		}
		if !ok {
			return errUnknownParent(b.Header.Parent)
		}
		parentHeight = h + 1
	}

	if len(newNodes) > 0 {
		nodeKVs := make(map[string][]byte, len(newNodes))
		for h, raw := range newNodes {
			nodeKVs[string(h.Bytes())] = raw
		}
		if err := bc.store.BatchPut(kvstore.StateNodes, nodeKVs); err != nil {
			return err
		}
	}

	if err := bc.store.Put(kvstore.Blocks, blockHash.Bytes(), chaintypes.EncodeBlock(b)); err != nil {
		return err
	}
	if err := bc.store.Flush(); err != nil {
		return err
	}

	if err := bc.store.Put(kvstore.Meta, blockHash.Bytes(), putUint64(parentHeight)); err != nil {
		return err
	}

	currentTip, err := bc.tipLockedOrZero()
	if err != nil {
		return err
	}
	if currentTip.IsZero() {
		return bc.store.Put(kvstore.Meta, []byte(kvstore.TipKey), blockHash.Bytes())
	}

	currentTipHeight, ok, err := bc.Height(currentTip)
	if err != nil {
		return err
	}
	if !ok || parentHeight > currentTipHeight {
		return bc.store.Put(kvstore.Meta, []byte(kvstore.TipKey), blockHash.Bytes())
	}
	return nil
}

// tipLockedOrZero is like tipLocked but returns the zero hash instead of
// an error when no tip has been recorded yet (the genesis bootstrap
// case), since commitLocked needs to distinguish "no tip yet" from a
// store failure.
func (bc *Blockchain) tipLockedOrZero() (hash.Hash, error) {
	raw, ok, err := bc.store.Get(kvstore.Meta, []byte(kvstore.TipKey))
	if err != nil {
		return hash.Zero, err
	}
	if !ok {
		return hash.Zero, nil
	}
	h, valid := hash.HashFromBytes(raw)
	if !valid {
		return hash.Zero, nil
	}
	return h, nil
}
