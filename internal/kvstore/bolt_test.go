package kvstore

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewBoltStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStore_PutAndGet(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put(Blocks, []byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	v, ok, err := store.Get(Blocks, []byte("k1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected key to be found")
	}
	if string(v) != "v1" {
		t.Errorf("value = %s, want v1", v)
	}
}

func TestBoltStore_GetMissing(t *testing.T) {
	store := openTestStore(t)
	_, ok, err := store.Get(Blocks, []byte("missing"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected missing key to report not found")
	}
}

func TestBoltStore_NamespacesAreIsolated(t *testing.T) {
	store := openTestStore(t)
	if err := store.Put(Blocks, []byte("k"), []byte("blocks-value")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(StateNodes, []byte("k"), []byte("state-value")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	v, _, _ := store.Get(Blocks, []byte("k"))
	if string(v) != "blocks-value" {
		t.Errorf("blocks value = %s, want blocks-value", v)
	}
	v, _, _ = store.Get(StateNodes, []byte("k"))
	if string(v) != "state-value" {
		t.Errorf("state_nodes value = %s, want state-value", v)
	}
}

func TestBoltStore_BatchPutWritesEveryKey(t *testing.T) {
	store := openTestStore(t)

	err := store.BatchPut(Meta, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	})
	if err != nil {
		t.Fatalf("BatchPut: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		if _, ok, _ := store.Get(Meta, []byte(k)); !ok {
			t.Errorf("expected key %q to be present after batch", k)
		}
	}
}

func TestBoltStore_EmptyBatchIsNoOp(t *testing.T) {
	store := openTestStore(t)
	if err := store.BatchPut(Meta, map[string][]byte{}); err != nil {
		t.Fatalf("BatchPut(empty): %v", err)
	}
}

func TestBoltStore_Contains(t *testing.T) {
	store := openTestStore(t)
	store.Put(Blocks, []byte("present"), []byte("x"))

	ok, err := store.Contains(Blocks, []byte("present"))
	if err != nil || !ok {
		t.Errorf("Contains(present) = %v, %v; want true, nil", ok, err)
	}
	ok, err = store.Contains(Blocks, []byte("absent"))
	if err != nil || ok {
		t.Errorf("Contains(absent) = %v, %v; want false, nil", ok, err)
	}
}
