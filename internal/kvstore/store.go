// Package kvstore defines the three-namespace key-value store abstraction
// (blocks, state nodes, meta) used by the blockchain and state trie, and
// a durable bbolt-backed implementation.
package kvstore

// Namespace names the logical keyspace a key belongs to. The core never
// assumes atomicity across namespaces, only within a single batch to a
// single namespace (see internal/blockchain for the write ordering this
// implies).
type Namespace string

const (
	// Blocks maps a block hash to its serialized Block.
	Blocks Namespace = "blocks"
	// StateNodes maps a state-trie node hash to its serialized Node.
	StateNodes Namespace = "state_nodes"
	// Meta holds arbitrary keys: "tip" -> current tip hash, and
	// block_hash -> big-endian u64 height.
	Meta Namespace = "meta"
)

// TipKey is the well-known Meta key holding the current tip's block hash.
const TipKey = "tip"

// Store is the key-value abstraction every other component depends on.
// Point operations and batches are assumed internally synchronized by
// the implementation; the core does not add its own locking around it
// except where noted in internal/blockchain.
type Store interface {
	// Get fetches the value for k in ns. ok is false if absent.
	Get(ns Namespace, k []byte) (v []byte, ok bool, err error)
	// Put writes a single key.
	Put(ns Namespace, k, v []byte) error
	// Contains reports whether k is present in ns.
	Contains(ns Namespace, k []byte) (bool, error)
	// BatchPut writes every entry in kvs atomically with respect to ns.
	// No cross-namespace atomicity is implied or required.
	BatchPut(ns Namespace, kvs map[string][]byte) error
	// Flush durably persists all writes made so far.
	Flush() error
	// Close releases the underlying resources.
	Close() error
}
