// Package testutil holds fixtures shared across this module's test
// suites: deterministic keypairs, sample accounts, and a tiny
// in-memory-backed chain ready for signed transfers. Mirrors the
// teacher's own testutil/fixtures.go (sample templates/shares/chains),
// generalized from Bitcoin share fixtures to account-model ones.
package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/arejula27/chaind/internal/blockchain"
	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/pkg/hash"
)

// KeyPair is a deterministic Ed25519 keypair plus its derived address,
// for tests that need the same signer across runs.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
	Address hash.Address
}

// DeterministicKeyPair derives a repeatable keypair from a single seed
// byte, so tests that compare addresses or re-run fixtures get the same
// values every time without hardcoding 32-byte seeds inline.
func DeterministicKeyPair(seed byte) KeyPair {
	var s [ed25519.SeedSize]byte
	for i := range s {
		s[i] = seed
	}
	priv := ed25519.NewKeyFromSeed(s[:])
	pub := priv.Public().(ed25519.PublicKey)
	return KeyPair{
		Public:  pub,
		Private: priv,
		Address: hash.AddressFromPublicKey(pub),
	}
}

// SampleAccount builds an Account fixture.
func SampleAccount(nonce, balance uint64) chaintypes.Account {
	return chaintypes.Account{Nonce: nonce, Balance: balance}
}

// SignTransfer builds and signs a value-transfer transaction from kp to
// to, with the given nonce/value/fee parameters.
func SignTransfer(kp KeyPair, nonce uint64, to hash.Address, value, gasPrice, gasLimit uint64) chaintypes.SignedTransaction {
	tx := chaintypes.Transaction{
		Nonce:    nonce,
		GasPrice: gasPrice,
		GasLimit: gasLimit,
		To:       to,
		Value:    value,
	}
	return chaintypes.Sign(tx, kp.Private)
}

// NewFundedChain opens a fresh in-memory-backed chain whose genesis
// seeds funder with balance, bypassing the production GodAddress (whose
// private key isn't recoverable) so tests can author real signed
// transfers from the funded account.
func NewFundedChain(t *testing.T, funder KeyPair, balance uint64) (*blockchain.Blockchain, kvstore.Store) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	bc, err := blockchain.OpenWithGenesisFunding(store, map[hash.Address]chaintypes.Account{
		funder.Address: {Nonce: 0, Balance: balance},
	})
	if err != nil {
		t.Fatalf("testutil: OpenWithGenesisFunding: %v", err)
	}
	return bc, store
}

// MineBlock searches nonces starting from zero until header meets
// difficulty, mirroring the miner's PoW search loop without its
// control-channel plumbing. The search is linear and single-threaded: an
// all-0xFF difficulty is met at the first nonce, while the genesis
// difficulty (three leading zero bytes) takes on the order of 2^24
// attempts.
func MineBlock(t *testing.T, header chaintypes.Header, body []chaintypes.SignedTransaction) chaintypes.Block {
	t.Helper()
	for nonce := uint32(0); ; nonce++ {
		header.Nonce = nonce
		if header.Hash().LessOrEqual(header.Difficulty) {
			return chaintypes.Block{Header: header, Data: body}
		}
		if nonce == ^uint32(0) {
			t.Fatal("testutil: exhausted nonce space without meeting difficulty")
		}
	}
}
