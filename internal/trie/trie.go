package trie

import (
	"fmt"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/pkg/hash"
)

// Get descends the trie rooted at root looking for addr, reading nodes
// only from store (never from an in-flight batch of new nodes). It
// returns (account, true, nil) on a matching leaf, (zero, false, nil) if
// addr is absent, and a non-nil error only on a store failure.
func Get(store kvstore.Store, root hash.Hash, addr hash.Address) (chaintypes.Account, bool, error) {
	h := root
	d := 0
	for {
		// hash.Zero means "no trie built yet", the bootstrap convention;
		// a real Empty node encountered mid-descent hashes to emptyHash
		// and is loaded like any other node via the switch below.
		if h.IsZero() {
			return chaintypes.Account{}, false, nil
		}
		n, err := load(store, h)
		if err != nil {
			return chaintypes.Account{}, false, err
		}
		switch n.k {
		case kindEmpty:
			return chaintypes.Account{}, false, nil
		case kindLeaf:
			if n.addr == addr {
				return n.account, true, nil
			}
			return chaintypes.Account{}, false, nil
		case kindBranch:
			if bit(addr, d) == 0 {
				h = n.left
			} else {
				h = n.right
			}
			d++
		default:
			return chaintypes.Account{}, false, fmt.Errorf("trie: corrupt node kind at %s", h)
		}
	}
}

// InsertBatch applies updates U to the trie rooted at root and returns the
// new root along with every freshly created node, keyed by hash. An empty
// update set returns root unchanged and a nil/empty new-node map.
func InsertBatch(store kvstore.Store, root hash.Hash, updates map[hash.Address]chaintypes.Account) (hash.Hash, map[hash.Hash][]byte, error) {
	if len(updates) == 0 {
		return root, nil, nil
	}
	newNodes := make(map[hash.Hash][]byte)
	newRoot, err := insert(store, root, updates, 0, newNodes)
	if err != nil {
		return hash.Zero, nil, err
	}
	return newRoot, newNodes, nil
}

// insert implements the recursive update algorithm from the state-trie
// specification: branches partition and recurse, leaves and empties
// rebuild from scratch over the accumulated update set.
func insert(store kvstore.Store, h hash.Hash, updates map[hash.Address]chaintypes.Account, d int, out map[hash.Hash][]byte) (hash.Hash, error) {
	// hash.Zero here means "no trie built yet" (the bootstrap root passed
	// by a caller with no prior state), not a node's content hash — the
	// Empty node's real content hash is emptyHash, handled below via load.
	if h.IsZero() {
		return rebuild(updates, d, out), nil
	}

	n, err := load(store, h)
	if err != nil {
		return hash.Zero, err
	}

	switch n.k {
	case kindBranch:
		uLeft, uRight := partition(updates, d)
		left, err := insert(store, n.left, uLeft, d+1, out)
		if err != nil {
			return hash.Zero, err
		}
		right, err := insert(store, n.right, uRight, d+1, out)
		if err != nil {
			return hash.Zero, err
		}
		return emit(branchNode(left, right), out), nil

	case kindLeaf:
		if _, present := updates[n.addr]; !present {
			merged := make(map[hash.Address]chaintypes.Account, len(updates)+1)
			for a, acc := range updates {
				merged[a] = acc
			}
			merged[n.addr] = n.account
			return rebuild(merged, d, out), nil
		}
		return rebuild(updates, d, out), nil

	case kindEmpty:
		return rebuild(updates, d, out), nil

	default:
		return hash.Zero, fmt.Errorf("trie: corrupt node kind at %s", h)
	}
}

// rebuild constructs a fresh subtree from scratch over the key set S at
// depth d, per the "rebuild from scratch" rule: empty set -> Empty,
// singleton -> Leaf, else partition and recurse, always emitting a
// Branch even when one side is empty.
func rebuild(s map[hash.Address]chaintypes.Account, d int, out map[hash.Hash][]byte) hash.Hash {
	switch len(s) {
	case 0:
		return emit(emptyNode(), out)
	case 1:
		for a, acc := range s {
			return emit(leafNode(a, acc), out)
		}
	}

	left, right := partition(s, d)
	leftHash := rebuild(left, d+1, out)
	rightHash := rebuild(right, d+1, out)
	return emit(branchNode(leftHash, rightHash), out)
}

func partition(s map[hash.Address]chaintypes.Account, d int) (map[hash.Address]chaintypes.Account, map[hash.Address]chaintypes.Account) {
	left := make(map[hash.Address]chaintypes.Account)
	right := make(map[hash.Address]chaintypes.Account)
	for a, acc := range s {
		if bit(a, d) == 0 {
			left[a] = acc
		} else {
			right[a] = acc
		}
	}
	return left, right
}

// emit records n's encoding under its hash in out and returns that hash.
// Empty nodes are stored too (at the fixed emptyHash key) so a Branch
// that legitimately points at an Empty child can be loaded back.
func emit(n node, out map[hash.Hash][]byte) hash.Hash {
	h := hashOf(n)
	out[h] = encode(n)
	return h
}

// load fetches and decodes the node at h, consulting the store.
func load(store kvstore.Store, h hash.Hash) (node, error) {
	raw, ok, err := store.Get(kvstore.StateNodes, h.Bytes())
	if err != nil {
		return node{}, err
	}
	if !ok {
		return node{}, fmt.Errorf("trie: node %s not found in store", h)
	}
	return decode(raw)
}
