package blockchain

import (
	"github.com/arejula27/chaind/internal/chainerr"
	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/internal/merkle"
	"github.com/arejula27/chaind/internal/trie"
	"github.com/arejula27/chaind/pkg/hash"
)

// ExecuteBlock validates b against store and, on success, computes the
// post-state root and the set of freshly created trie nodes. It is pure
// with respect to store except for reading trie nodes, and never
// mutates it: callers commit separately. Checks run in the fixed order
// the specification requires, returning the first violation.
func ExecuteBlock(store kvstore.Store, b chaintypes.Block) (hash.Hash, map[hash.Hash][]byte, error) {
	parentRaw, ok, err := store.Get(kvstore.Blocks, b.Header.Parent.Bytes())
	if err != nil {
		return hash.Zero, nil, err
	}
	if !ok {
		return hash.Zero, nil, chainerr.New(chainerr.UnknownParent, "parent %s not found", b.Header.Parent)
	}
	parent, err := chaintypes.DecodeBlock(parentRaw)
	if err != nil {
		return hash.Zero, nil, chainerr.New(chainerr.InvalidEncoding, "decode parent %s: %v", b.Header.Parent, err)
	}

	blockHash := b.Header.Hash()
	if !blockHash.LessOrEqual(b.Header.Difficulty) {
		return hash.Zero, nil, chainerr.New(chainerr.PowViolation, "block %s exceeds difficulty target", blockHash)
	}

	if b.Header.Difficulty != parent.Header.Difficulty {
		return hash.Zero, nil, chainerr.New(chainerr.DifficultyMismatch, "block %s difficulty differs from parent", blockHash)
	}

	for i, tx := range b.Data {
		if !tx.VerifySignature() {
			return hash.Zero, nil, chainerr.New(chainerr.BadSignature, "transaction %d in block %s has an invalid signature", i, blockHash)
		}
	}

	var totalFee uint64
	for _, tx := range b.Data {
		totalFee += tx.Fee()
	}
	if b.Header.Coinbase.Value != chaintypes.BlockReward+totalFee {
		return hash.Zero, nil, chainerr.New(chainerr.CoinbaseMismatch, "block %s coinbase value %d != reward %d + fees %d", blockHash, b.Header.Coinbase.Value, chaintypes.BlockReward, totalFee)
	}

	if merkle.Root(b.Data) != b.Header.MerkleRoot {
		return hash.Zero, nil, chainerr.New(chainerr.MerkleMismatch, "block %s merkle root mismatch", blockHash)
	}

	newRoot, newNodes, err := applyTransactions(store, parent.Header.StateRoot, b)
	if err != nil {
		return hash.Zero, nil, err
	}
	if newRoot != b.Header.StateRoot {
		return hash.Zero, nil, chainerr.New(chainerr.StateRootMismatch, "block %s state root mismatch: computed %s, declared %s", blockHash, newRoot, b.Header.StateRoot)
	}

	return blockHash, newNodes, nil
}

// applyTransactions replays b's transactions in order against the state
// rooted at parentStateRoot, then credits the coinbase, and returns the
// resulting root and freshly created nodes. All per-account updates are
// tracked against parentStateRoot in memory and committed to the trie in
// a single batch at the end, so a later step never needs to read a node
// an earlier step just created but hasn't persisted yet.
func applyTransactions(store kvstore.Store, parentStateRoot hash.Hash, b chaintypes.Block) (hash.Hash, map[hash.Hash][]byte, error) {
	working := make(map[hash.Address]chaintypes.Account)

	load := func(addr hash.Address) (chaintypes.Account, error) {
		if acc, ok := working[addr]; ok {
			return acc, nil
		}
		acc, found, err := trie.Get(store, parentStateRoot, addr)
		if err != nil {
			return chaintypes.Account{}, err
		}
		if !found {
			acc = chaintypes.Account{}
		}
		return acc, nil
	}

	for i, tx := range b.Data {
		sender := tx.Sender()
		senderAcc, err := load(sender)
		if err != nil {
			return hash.Zero, nil, err
		}
		if tx.Nonce != senderAcc.Nonce {
			return hash.Zero, nil, chainerr.New(chainerr.NonceMismatch, "tx %d: sender %s nonce %d != expected %d", i, sender, tx.Nonce, senderAcc.Nonce)
		}
		cost := tx.Cost()
		if senderAcc.Balance < cost {
			return hash.Zero, nil, chainerr.New(chainerr.InsufficientBalance, "tx %d: sender %s balance %d < cost %d", i, sender, senderAcc.Balance, cost)
		}

		senderAcc.Balance -= cost
		senderAcc.Nonce++
		working[sender] = senderAcc

		receiverAcc, err := load(tx.To)
		if err != nil {
			return hash.Zero, nil, err
		}
		receiverAcc.Balance += tx.Value
		working[tx.To] = receiverAcc
	}

	coinbaseAcc, err := load(b.Header.Coinbase.To)
	if err != nil {
		return hash.Zero, nil, err
	}
	coinbaseAcc.Balance += b.Header.Coinbase.Value
	working[b.Header.Coinbase.To] = coinbaseAcc

	return trie.InsertBatch(store, parentStateRoot, working)
}
