package chaintypes

import (
	"testing"

	"github.com/arejula27/chaind/pkg/hash"
)

func TestAccount_ZeroValueIsDefault(t *testing.T) {
	var a Account
	if a.Nonce != 0 || a.Balance != 0 {
		t.Errorf("zero value = %+v, want {0 0}", a)
	}
}

func TestAccount_HashIsDeterministic(t *testing.T) {
	a := Account{Nonce: 3, Balance: 500}
	want := hash.Sum256([]byte{0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 1, 244})
	if got := a.Hash(); got != want {
		t.Errorf("Hash() = %s, want %s", got, want)
	}
}

func TestAccount_HashDiffersOnNonceOrBalance(t *testing.T) {
	a := Account{Nonce: 1, Balance: 1}
	b := Account{Nonce: 2, Balance: 1}
	c := Account{Nonce: 1, Balance: 2}
	if a.Hash() == b.Hash() {
		t.Error("accounts with different nonce hashed equal")
	}
	if a.Hash() == c.Hash() {
		t.Error("accounts with different balance hashed equal")
	}
}
