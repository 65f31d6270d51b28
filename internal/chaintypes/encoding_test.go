package chaintypes

import (
	"crypto/ed25519"
	"testing"

	"github.com/arejula27/chaind/pkg/hash"
)

func TestEncodeDecodeBlock_RoundTrip(t *testing.T) {
	_, priv := mustKeypair(t)
	stx := Sign(Transaction{Nonce: 1, GasPrice: 1, GasLimit: 10, To: hash.Address{0x02}, Value: 100, Data: []byte("memo")}, priv)

	b := Block{
		Header: Header{
			Parent:      hash.Sum256([]byte("parent")),
			Nonce:       42,
			Difficulty:  GenesisDifficulty(),
			TimestampMs: 123456789,
			MerkleRoot:  hash.Sum256([]byte("merkle")),
			StateRoot:   hash.Sum256([]byte("state")),
			Coinbase:    Transaction{To: hash.Address{0x03}, Value: 60},
		},
		Data: []SignedTransaction{stx},
	}

	encoded := EncodeBlock(b)
	got, err := DecodeBlock(encoded)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}

	if got.Hash() != b.Hash() {
		t.Errorf("decoded block hash differs: %s != %s", got.Hash(), b.Hash())
	}
	if len(got.Data) != 1 || got.Data[0].Hash() != stx.Hash() {
		t.Errorf("decoded body differs from original")
	}
}

func TestEncodeDecodeBlock_EmptyBody(t *testing.T) {
	b := Genesis(hash.Sum256([]byte("genesis state")))
	encoded := EncodeBlock(b)
	got, err := DecodeBlock(encoded)
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if got.Hash() != b.Hash() {
		t.Errorf("decoded genesis hash differs: %s != %s", got.Hash(), b.Hash())
	}
	if len(got.Data) != 0 {
		t.Errorf("expected empty body, got %d entries", len(got.Data))
	}
}

func TestDecodeBlock_RejectsTruncatedData(t *testing.T) {
	_, err := DecodeBlock([]byte{0x01, 0x02})
	if err == nil {
		t.Error("expected error decoding truncated block")
	}
}

func mustKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return pub, priv
}
