package miner

import (
	"sort"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/internal/trie"
	"github.com/arejula27/chaind/pkg/hash"
)

// senderState tracks the expected next nonce and projected balance for
// one sender while walking the sorted candidate list.
type senderState struct {
	expectedNonce    uint64
	projectedBalance uint64
}

// buildTemplate selects a deterministically ordered, state-feasible
// subset of candidates atop (parentStateRoot), and returns the included
// transactions, the resulting state root, and the freshly created trie
// nodes (not yet persisted — the sink persists them only once the block
// is mined and committed).
func buildTemplate(store kvstore.Store, parentStateRoot hash.Hash, candidates []chaintypes.SignedTransaction, minerAddr hash.Address) (included []chaintypes.SignedTransaction, totalFee uint64, stateRoot hash.Hash, newNodes map[hash.Hash][]byte, err error) {
	sorted := append([]chaintypes.SignedTransaction(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := sorted[i].Sender(), sorted[j].Sender()
		if c := si.Cmp(sj); c != 0 {
			return c < 0
		}
		return sorted[i].Nonce < sorted[j].Nonce
	})

	senders := make(map[hash.Address]*senderState)
	working := make(map[hash.Address]chaintypes.Account)

	loadAccount := func(addr hash.Address) (chaintypes.Account, error) {
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

	for _, stx := range sorted {
		sender := stx.Sender()
		st, ok := senders[sender]
		if !ok {
			acc, err := loadAccount(sender)
			if err != nil {
				return nil, 0, hash.Zero, nil, err
			}
			st = &senderState{expectedNonce: acc.Nonce, projectedBalance: acc.Balance}
			senders[sender] = st
		}

		if stx.Nonce > st.expectedNonce {
			continue // not yet eligible; leave for a later template
		}
		cost := stx.Cost()
		if stx.Nonce < st.expectedNonce || st.projectedBalance < cost {
			continue // stale or infeasible; drop from this template
		}

		st.expectedNonce++
		st.projectedBalance -= cost
		totalFee += stx.Fee()
		included = append(included, stx)

		senderAcc, err := loadAccount(sender)
		if err != nil {
			return nil, 0, hash.Zero, nil, err
		}
		senderAcc.Nonce = st.expectedNonce
		senderAcc.Balance = st.projectedBalance
		working[sender] = senderAcc

		receiverAcc, err := loadAccount(stx.To)
		if err != nil {
			return nil, 0, hash.Zero, nil, err
		}
		receiverAcc.Balance += stx.Value
		working[stx.To] = receiverAcc
	}

	minerAcc, err := loadAccount(minerAddr)
	if err != nil {
		return nil, 0, hash.Zero, nil, err
	}
	minerAcc.Balance += chaintypes.BlockReward + totalFee
	working[minerAddr] = minerAcc

	stateRoot, newNodes, err = trie.InsertBatch(store, parentStateRoot, working)
	if err != nil {
		return nil, 0, hash.Zero, nil, err
	}
	return included, totalFee, stateRoot, newNodes, nil
}
