package kvstore

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// BoltStore is a Store backed by a single bbolt database file, one
// bucket per Namespace. Grounded on the teacher's sharechain bolt-backed
// store (NewBoltStore/Get/Add/Close), generalized from a single bucket
// to the three namespaces the core needs.
type BoltStore struct {
	db *bolt.DB
}

var allNamespaces = []Namespace{Blocks, StateNodes, Meta}

// NewBoltStore opens (or creates) a bbolt database at path and ensures
// every namespace bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, ns := range allNamespaces {
			if _, err := tx.CreateBucketIfNotExists([]byte(ns)); err != nil {
				return fmt.Errorf("create bucket %s: %w", ns, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Get implements Store.
func (s *BoltStore) Get(ns Namespace, k []byte) ([]byte, bool, error) {
	var v []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return nil
		}
		raw := b.Get(k)
		if raw != nil {
			v = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

// Put implements Store.
func (s *BoltStore) Put(ns Namespace, k, v []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return fmt.Errorf("unknown namespace %s", ns)
		}
		return b.Put(k, v)
	})
}

// Contains implements Store.
func (s *BoltStore) Contains(ns Namespace, k []byte) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return nil
		}
		found = b.Get(k) != nil
		return nil
	})
	return found, err
}

// BatchPut implements Store. It is atomic with respect to ns: either
// every key in kvs is written, or (on error) none are, since bbolt
// transactions roll back on error.
func (s *BoltStore) BatchPut(ns Namespace, kvs map[string][]byte) error {
	if len(kvs) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return fmt.Errorf("unknown namespace %s", ns)
		}
		for k, v := range kvs {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Flush durably syncs the database file to disk. bbolt fsyncs on every
// committed Update transaction already, so this is a best-effort extra
// sync for callers that want an explicit durability point (see the
// blockchain's state_nodes -> blocks -> meta write ordering).
func (s *BoltStore) Flush() error {
	return s.db.Sync()
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
