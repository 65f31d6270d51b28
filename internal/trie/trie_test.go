package trie

import (
	"testing"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/pkg/hash"
)

func addr(b byte) hash.Address {
	var a hash.Address
	a[0] = b
	return a
}

func commit(t *testing.T, store kvstore.Store, newNodes map[hash.Hash][]byte) {
	t.Helper()
	kvs := make(map[string][]byte, len(newNodes))
	for h, raw := range newNodes {
		kvs[string(h.Bytes())] = raw
	}
	if err := store.BatchPut(kvstore.StateNodes, kvs); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}
}

func TestInsertBatch_EmptyUpdateIsNoOp(t *testing.T) {
	store := kvstore.NewMemoryStore()
	newRoot, newNodes, err := InsertBatch(store, hash.Zero, map[hash.Address]chaintypes.Account{})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if newRoot != hash.Zero {
		t.Errorf("newRoot = %s, want zero", newRoot)
	}
	if len(newNodes) != 0 {
		t.Errorf("expected no new nodes, got %d", len(newNodes))
	}
}

func TestInsertBatch_SingleAccountFromEmpty(t *testing.T) {
	store := kvstore.NewMemoryStore()
	a := addr(0x01)
	acc := chaintypes.Account{Nonce: 1, Balance: 100}

	newRoot, newNodes, err := InsertBatch(store, hash.Zero, map[hash.Address]chaintypes.Account{a: acc})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if len(newNodes) != 1 {
		t.Fatalf("expected exactly one new node (a single leaf), got %d", len(newNodes))
	}
	commit(t, store, newNodes)

	got, ok, err := Get(store, newRoot, a)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected account to be found")
	}
	if got != acc {
		t.Errorf("got %+v, want %+v", got, acc)
	}
}

func TestInsertBatch_GetMissingAddressReturnsFalse(t *testing.T) {
	store := kvstore.NewMemoryStore()
	a := addr(0x01)
	acc := chaintypes.Account{Nonce: 1, Balance: 100}
	newRoot, newNodes, _ := InsertBatch(store, hash.Zero, map[hash.Address]chaintypes.Account{a: acc})
	commit(t, store, newNodes)

	_, ok, err := Get(store, newRoot, addr(0x02))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected unrelated address to be absent")
	}
}

func TestInsertBatch_MultipleAccountsAllReadable(t *testing.T) {
	store := kvstore.NewMemoryStore()
	updates := map[hash.Address]chaintypes.Account{
		addr(0x00): {Nonce: 0, Balance: 10},
		addr(0x01): {Nonce: 1, Balance: 20},
		addr(0x80): {Nonce: 2, Balance: 30},
		addr(0xFF): {Nonce: 3, Balance: 40},
	}

	newRoot, newNodes, err := InsertBatch(store, hash.Zero, updates)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	commit(t, store, newNodes)

	for a, want := range updates {
		got, ok, err := Get(store, newRoot, a)
		if err != nil {
			t.Fatalf("Get(%s): %v", a, err)
		}
		if !ok {
			t.Fatalf("Get(%s): expected present", a)
		}
		if got != want {
			t.Errorf("Get(%s) = %+v, want %+v", a, got, want)
		}
	}
}

func TestInsertBatch_UpdateExistingAccountOverwrites(t *testing.T) {
	store := kvstore.NewMemoryStore()
	a := addr(0x01)
	root1, nodes1, _ := InsertBatch(store, hash.Zero, map[hash.Address]chaintypes.Account{
		a: {Nonce: 0, Balance: 100},
	})
	commit(t, store, nodes1)

	root2, nodes2, err := InsertBatch(store, root1, map[hash.Address]chaintypes.Account{
		a: {Nonce: 1, Balance: 90},
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	commit(t, store, nodes2)

	got, ok, err := Get(store, root2, a)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got != (chaintypes.Account{Nonce: 1, Balance: 90}) {
		t.Errorf("got %+v, want updated account", got)
	}

	// old root is untouched: copy-on-write retains history.
	oldGot, ok, err := Get(store, root1, a)
	if err != nil || !ok {
		t.Fatalf("Get(old root): ok=%v err=%v", ok, err)
	}
	if oldGot != (chaintypes.Account{Nonce: 0, Balance: 100}) {
		t.Errorf("old root mutated: got %+v", oldGot)
	}
}

func TestInsertBatch_AddingSecondKeyToExistingLeafSplitsIt(t *testing.T) {
	store := kvstore.NewMemoryStore()
	a1 := addr(0x00) // bit0 = 0
	a2 := addr(0x80) // bit0 = 1

	root1, nodes1, _ := InsertBatch(store, hash.Zero, map[hash.Address]chaintypes.Account{
		a1: {Nonce: 0, Balance: 1},
	})
	commit(t, store, nodes1)

	root2, nodes2, err := InsertBatch(store, root1, map[hash.Address]chaintypes.Account{
		a2: {Nonce: 0, Balance: 2},
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	commit(t, store, nodes2)

	got1, ok, err := Get(store, root2, a1)
	if err != nil || !ok || got1.Balance != 1 {
		t.Errorf("a1: got=%+v ok=%v err=%v", got1, ok, err)
	}
	got2, ok, err := Get(store, root2, a2)
	if err != nil || !ok || got2.Balance != 2 {
		t.Errorf("a2: got=%+v ok=%v err=%v", got2, ok, err)
	}
}

func TestInsertBatch_DeterministicRootForSameUpdates(t *testing.T) {
	storeA := kvstore.NewMemoryStore()
	storeB := kvstore.NewMemoryStore()
	updates := map[hash.Address]chaintypes.Account{
		addr(0x01): {Nonce: 1, Balance: 5},
		addr(0x02): {Nonce: 2, Balance: 6},
		addr(0x03): {Nonce: 3, Balance: 7},
	}

	rootA, _, err := InsertBatch(storeA, hash.Zero, updates)
	if err != nil {
		t.Fatalf("InsertBatch A: %v", err)
	}
	rootB, _, err := InsertBatch(storeB, hash.Zero, updates)
	if err != nil {
		t.Fatalf("InsertBatch B: %v", err)
	}
	if rootA != rootB {
		t.Errorf("roots diverged for identical updates: %s != %s", rootA, rootB)
	}
}

func TestGet_EmptyTrieReturnsFalse(t *testing.T) {
	store := kvstore.NewMemoryStore()
	_, ok, err := Get(store, hash.Zero, addr(0x01))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected empty trie lookup to report absent")
	}
}
