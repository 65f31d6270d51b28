package gossip

import (
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/pkg/hash"
	"github.com/arejula27/chaind/testutil"
)

func TestEncodeDecodePing_RoundTrips(t *testing.T) {
	msg, err := EncodePing("hello")
	if err != nil {
		t.Fatalf("EncodePing: %v", err)
	}
	typ, payload, err := decodeEnvelope(msg)
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if typ != MsgPing {
		t.Fatalf("type = %v, want Ping", typ)
	}
	nonce, err := decodeNoncePayload(payload)
	if err != nil {
		t.Fatalf("decodeNoncePayload: %v", err)
	}
	if nonce != "hello" {
		t.Fatalf("nonce = %q, want %q", nonce, "hello")
	}
}

func TestEncodeDecodeHashes_RoundTrips(t *testing.T) {
	hashes := []hash.Hash{hash.Sum256([]byte("a")), hash.Sum256([]byte("b"))}
	msg, err := EncodeNewBlockHashes(hashes)
	if err != nil {
		t.Fatalf("EncodeNewBlockHashes: %v", err)
	}
	typ, payload, err := decodeEnvelope(msg)
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if typ != MsgNewBlockHashes {
		t.Fatalf("type = %v, want NewBlockHashes", typ)
	}
	got, err := decodeHashesPayload(payload)
	if err != nil {
		t.Fatalf("decodeHashesPayload: %v", err)
	}
	if len(got) != 2 || got[0] != hashes[0] || got[1] != hashes[1] {
		t.Fatalf("hashes = %v, want %v", got, hashes)
	}
}

func TestEncodeDecodeTransactions_RoundTrips(t *testing.T) {
	kp := testutil.DeterministicKeyPair(4)
	tx := testutil.SignTransfer(kp, 3, kp.Address, 10, 1, 5)

	msg, err := EncodeTransactions([]chaintypes.SignedTransaction{tx})
	if err != nil {
		t.Fatalf("EncodeTransactions: %v", err)
	}
	typ, payload, err := decodeEnvelope(msg)
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if typ != MsgTransactions {
		t.Fatalf("type = %v, want Transactions", typ)
	}
	got, err := decodeTxsPayload(payload)
	if err != nil {
		t.Fatalf("decodeTxsPayload: %v", err)
	}
	if len(got) != 1 || got[0].Hash() != tx.Hash() {
		t.Fatalf("round-tripped tx hash mismatch")
	}
	if !got[0].VerifySignature() {
		t.Fatal("round-tripped transaction no longer verifies")
	}
}

func TestEncodeBlocks_LargeBatchIsTransparentlyCompressed(t *testing.T) {
	kp := testutil.DeterministicKeyPair(5)
	var txs []chaintypes.SignedTransaction
	for i := uint64(0); i < 50; i++ {
		txs = append(txs, testutil.SignTransfer(kp, i, kp.Address, 1, 1, 1))
	}
	block := chaintypes.Block{Data: txs}

	msg, err := EncodeBlocks([]chaintypes.Block{block})
	if err != nil {
		t.Fatalf("EncodeBlocks: %v", err)
	}

	var env envelope
	if err := cbor.Unmarshal(msg, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if !env.Compressed {
		t.Fatal("large block payload was not compressed")
	}

	typ, payload, err := decodeEnvelope(msg)
	if err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	if typ != MsgBlocks {
		t.Fatalf("type = %v, want Blocks", typ)
	}
	got, err := decodeBlocksPayload(payload)
	if err != nil {
		t.Fatalf("decodeBlocksPayload: %v", err)
	}
	if len(got) != 1 || len(got[0].Data) != len(txs) {
		t.Fatalf("round-tripped block has %d txs, want %d", len(got[0].Data), len(txs))
	}
}
