package chaintypes

import (
	"encoding/binary"
	"fmt"

	"github.com/arejula27/chaind/pkg/hash"
)

// cursor is a small sequential reader over a byte slice, used to decode
// the self-describing encodings below without an intermediate codec.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.off+n > len(c.buf) {
		return nil, fmt.Errorf("chaintypes: unexpected end of data at offset %d, want %d more bytes", c.off, n)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) uint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) address() (hash.Address, error) {
	b, err := c.take(hash.AddressSize)
	if err != nil {
		return hash.Address{}, err
	}
	a, _ := hash.AddressFromBytes(b)
	return a, nil
}

func (c *cursor) hash() (hash.Hash, error) {
	b, err := c.take(hash.Size)
	if err != nil {
		return hash.Hash{}, err
	}
	h, _ := hash.HashFromBytes(b)
	return h, nil
}

func (c *cursor) bytesWithLen32() ([]byte, error) {
	n, err := c.uint32()
	if err != nil {
		return nil, err
	}
	return c.take(int(n))
}

func decodeTransaction(c *cursor) (Transaction, error) {
	var tx Transaction
	var err error
	if tx.Nonce, err = c.uint64(); err != nil {
		return tx, err
	}
	if tx.GasPrice, err = c.uint64(); err != nil {
		return tx, err
	}
	if tx.GasLimit, err = c.uint64(); err != nil {
		return tx, err
	}
	if tx.To, err = c.address(); err != nil {
		return tx, err
	}
	if tx.Value, err = c.uint64(); err != nil {
		return tx, err
	}
	data, err := c.bytesWithLen32()
	if err != nil {
		return tx, err
	}
	if len(data) > 0 {
		tx.Data = append([]byte(nil), data...)
	}
	return tx, nil
}

func decodeSignedTransaction(c *cursor) (SignedTransaction, error) {
	tx, err := decodeTransaction(c)
	if err != nil {
		return SignedTransaction{}, err
	}
	sig, err := c.bytesWithLen32()
	if err != nil {
		return SignedTransaction{}, err
	}
	pub, err := c.bytesWithLen32()
	if err != nil {
		return SignedTransaction{}, err
	}
	return SignedTransaction{
		Transaction: tx,
		Signature:   append([]byte(nil), sig...),
		PublicKey:   append([]byte(nil), pub...),
	}, nil
}

// EncodeSignedTransaction serializes stx using the same canonical layout
// as SignedTransaction.Canonical; exported so callers outside this
// package (the gossip wire envelope) can round-trip a signed transaction
// without redefining the encoding.
func EncodeSignedTransaction(stx SignedTransaction) []byte {
	return stx.Canonical()
}

// DecodeSignedTransaction parses the encoding produced by
// EncodeSignedTransaction / SignedTransaction.Canonical.
func DecodeSignedTransaction(data []byte) (SignedTransaction, error) {
	c := &cursor{buf: data}
	return decodeSignedTransaction(c)
}

// EncodeBlock serializes b for storage: the full header (same layout as
// Header.Canonical, which is self-describing) followed by a count-
// prefixed list of signed transactions.
func EncodeBlock(b Block) []byte {
	buf := append([]byte(nil), b.Header.Canonical()...)
	buf = appendUint32(buf, uint32(len(b.Data)))
	for _, stx := range b.Data {
		buf = append(buf, stx.Canonical()...)
	}
	return buf
}

// DecodeBlock parses the encoding produced by EncodeBlock.
func DecodeBlock(data []byte) (Block, error) {
	c := &cursor{buf: data}

	var h Header
	var err error
	if h.Parent, err = c.hash(); err != nil {
		return Block{}, err
	}
	if h.Nonce, err = c.uint32(); err != nil {
		return Block{}, err
	}
	if h.Difficulty, err = c.hash(); err != nil {
		return Block{}, err
	}
	if h.TimestampMs, err = c.uint64(); err != nil {
		return Block{}, err
	}
	if h.MerkleRoot, err = c.hash(); err != nil {
		return Block{}, err
	}
	if h.StateRoot, err = c.hash(); err != nil {
		return Block{}, err
	}
	if h.Coinbase, err = decodeTransaction(c); err != nil {
		return Block{}, err
	}

	count, err := c.uint32()
	if err != nil {
		return Block{}, err
	}
	data2 := make([]SignedTransaction, count)
	for i := range data2 {
		stx, err := decodeSignedTransaction(c)
		if err != nil {
			return Block{}, err
		}
		data2[i] = stx
	}

	return Block{Header: h, Data: data2}, nil
}
