// Package merkle computes Merkle roots and inclusion proofs over an
// ordered list of leaves, duplicating the last element on an odd count
// at every level. Grounded on the teacher's block-template Merkle-branch
// code (internal/work, now removed), generalized from Bitcoin's
// coinbase-relative branches to full root+proof computation.
package merkle

import "github.com/arejula27/chaind/pkg/hash"

// Leaf is anything that can be hashed into a Merkle tree leaf.
type Leaf interface {
	Hash() hash.Hash
}

// Root computes the Merkle root of leaves. The empty list's root is the
// default, all-zero hash.
func Root[T Leaf](leaves []T) hash.Hash {
	level := leafHashes(leaves)
	if len(level) == 0 {
		return hash.Zero
	}
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0]
}

// Proof returns the sibling hashes from leaf index i up to the root,
// ordered leaf-first. When a level has an odd count and i is the last
// (duplicated) element, its sibling is itself.
func Proof[T Leaf](leaves []T, i int) ([]hash.Hash, bool) {
	level := leafHashes(leaves)
	if i < 0 || i >= len(level) {
		return nil, false
	}

	var proof []hash.Hash
	idx := i
	for len(level) > 1 {
		siblingIdx := idx ^ 1
		if siblingIdx >= len(level) {
			siblingIdx = idx // duplicated last element is its own sibling
		}
		proof = append(proof, level[siblingIdx])
		level = nextLevel(level)
		idx /= 2
	}
	return proof, true
}

// Verify recomputes the root from leafHash and proof using bit 0 of the
// running index at each level to decide concatenation order, and
// compares it against root. Returns false if index >= leafCount.
func Verify(root hash.Hash, leafHash hash.Hash, proof []hash.Hash, index, leafCount int) bool {
	if index < 0 || index >= leafCount {
		return false
	}

	current := leafHash
	for _, sibling := range proof {
		if index&1 == 0 {
			current = hash.Sum256(current.Bytes(), sibling.Bytes())
		} else {
			current = hash.Sum256(sibling.Bytes(), current.Bytes())
		}
		index /= 2
	}
	return current == root
}

func leafHashes[T Leaf](leaves []T) []hash.Hash {
	out := make([]hash.Hash, len(leaves))
	for i, l := range leaves {
		out[i] = l.Hash()
	}
	return out
}

func nextLevel(level []hash.Hash) []hash.Hash {
	if len(level)%2 == 1 {
		level = append(level, level[len(level)-1])
	}
	next := make([]hash.Hash, 0, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		next = append(next, hash.Sum256(level[i].Bytes(), level[i+1].Bytes()))
	}
	return next
}
