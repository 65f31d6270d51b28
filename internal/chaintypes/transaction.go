package chaintypes

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/arejula27/chaind/pkg/hash"
)

// Transaction is an unsigned value transfer, fields in the declared order.
type Transaction struct {
	Nonce    uint64
	GasPrice uint64
	GasLimit uint64
	To       hash.Address
	Value    uint64
	Data     []byte
}

// Fee is the flat gas_price * gas_limit charge; no fee market.
func (tx Transaction) Fee() uint64 {
	return tx.GasPrice * tx.GasLimit
}

// Cost is the total the sender is debited: value plus fee.
func (tx Transaction) Cost() uint64 {
	return tx.Value + tx.Fee()
}

// Canonical returns the deterministic, self-describing byte encoding used
// as both the signature domain and the hash preimage for an unsigned
// transaction: four big-endian u64 fields, the 20-byte recipient, and the
// opaque data blob prefixed with its length.
func (tx Transaction) Canonical() []byte {
	buf := make([]byte, 0, 8*4+hash.AddressSize+4+len(tx.Data))
	buf = appendUint64(buf, tx.Nonce)
	buf = appendUint64(buf, tx.GasPrice)
	buf = appendUint64(buf, tx.GasLimit)
	buf = append(buf, tx.To.Bytes()...)
	buf = appendUint64(buf, tx.Value)
	buf = appendUint32(buf, uint32(len(tx.Data)))
	buf = append(buf, tx.Data...)
	return buf
}

// Hash is SHA-256 of the canonical serialization.
func (tx Transaction) Hash() hash.Hash {
	return hash.Sum256(tx.Canonical())
}

// SignedTransaction pairs an unsigned Transaction with the signature and
// public key that authorize it. The sender address is derived from the
// public key, not carried explicitly.
type SignedTransaction struct {
	Transaction
	Signature []byte
	PublicKey []byte
}

// Sender derives the sending address from the embedded public key.
func (stx SignedTransaction) Sender() hash.Address {
	return hash.AddressFromPublicKey(stx.PublicKey)
}

// Canonical is the deterministic encoding of the whole signed object:
// the unsigned transaction's canonical bytes followed by the
// length-prefixed signature and public key.
func (stx SignedTransaction) Canonical() []byte {
	buf := stx.Transaction.Canonical()
	buf = appendUint32(buf, uint32(len(stx.Signature)))
	buf = append(buf, stx.Signature...)
	buf = appendUint32(buf, uint32(len(stx.PublicKey)))
	buf = append(buf, stx.PublicKey...)
	return buf
}

// Hash is SHA-256 over the whole signed object, so re-signing the same
// transaction produces a distinct mempool identity.
func (stx SignedTransaction) Hash() hash.Hash {
	return hash.Sum256(stx.Canonical())
}

// Sign produces a SignedTransaction over tx using priv, whose public
// portion becomes the embedded public key.
func Sign(tx Transaction, priv ed25519.PrivateKey) SignedTransaction {
	sig := ed25519.Sign(priv, tx.Canonical())
	pub := priv.Public().(ed25519.PublicKey)
	return SignedTransaction{
		Transaction: tx,
		Signature:   append([]byte(nil), sig...),
		PublicKey:   append([]byte(nil), []byte(pub)...),
	}
}

// VerifySignature reports whether stx's signature is a valid Ed25519
// signature by its embedded public key over its unsigned transaction.
func (stx SignedTransaction) VerifySignature() bool {
	if len(stx.PublicKey) != ed25519.PublicKeySize {
		return false
	}
	if len(stx.Signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(stx.PublicKey), stx.Transaction.Canonical(), stx.Signature)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}
