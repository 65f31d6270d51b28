// Package gossip implements the peer-to-peer protocol state machine:
// inventory-based block/transaction propagation, orphan handling,
// mempool synchronization, and height-driven catch-up. Grounded on the
// teacher's internal/p2p message/sync design, generalized from a single
// GossipSub share topic to the full typed request/response message set
// spec.md requires.
package gossip

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/pkg/hash"
)

// MessageType tags the one wire-level union of P2P messages, mirroring
// the teacher's MessageType (internal/p2p/messages.go) generalized from
// six share-sync variants to the full spec.md message set.
type MessageType uint8

const (
	MsgPing MessageType = iota + 1
	MsgPong
	MsgNewBlockHashes
	MsgGetBlocks
	MsgBlocks
	MsgNewTransactionHashes
	MsgGetTransactions
	MsgTransactions
	MsgGetBlockchain
	MsgSendBlockchain
	MsgGetMempool
	MsgSendMempool
	MsgGetBlockHeight
	MsgBlockHeight
)

func (t MessageType) String() string {
	switch t {
	case MsgPing:
		return "Ping"
	case MsgPong:
		return "Pong"
	case MsgNewBlockHashes:
		return "NewBlockHashes"
	case MsgGetBlocks:
		return "GetBlocks"
	case MsgBlocks:
		return "Blocks"
	case MsgNewTransactionHashes:
		return "NewTransactionHashes"
	case MsgGetTransactions:
		return "GetTransactions"
	case MsgTransactions:
		return "Transactions"
	case MsgGetBlockchain:
		return "GetBlockchain"
	case MsgSendBlockchain:
		return "SendBlockchain"
	case MsgGetMempool:
		return "GetMempool"
	case MsgSendMempool:
		return "SendMempool"
	case MsgGetBlockHeight:
		return "GetBlockHeight"
	case MsgBlockHeight:
		return "BlockHeight"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// envelope is the single CBOR-encoded structure that crosses the wire;
// Payload holds the type-specific body, itself CBOR, decoded only once
// the handler has switched on Type. This is the "one tagged union"
// spec.md §6 describes, modeled on the teacher's per-message cbor
// struct tags (keyasint, for a compact map-free encoding). Payload is a
// plain CBOR byte string rather than cbor.RawMessage: when Compressed is
// set its contents are zstd-compressed bytes, which aren't themselves
// valid CBOR, so they can't be spliced in as an already-encoded item the
// way RawMessage assumes.
type envelope struct {
	Type       MessageType `cbor:"1,keyasint"`
	Payload    []byte      `cbor:"2,keyasint,omitempty"`
	Compressed bool        `cbor:"3,keyasint,omitempty"`
}

type pingPayload struct {
	Nonce string `cbor:"1,keyasint"`
}

type pongPayload struct {
	Nonce string `cbor:"1,keyasint"`
}

type hashesPayload struct {
	Hashes []hash.Hash `cbor:"1,keyasint"`
}

type blocksPayload struct {
	// Blocks are carried as bytes in chaintypes.EncodeBlock's own
	// canonical layout rather than re-described with cbor struct tags,
	// so the wire format and the on-disk format stay a single source
	// of truth (spec.md §3's block hash preimage already fixes the
	// header layout; no reason to duplicate it here).
	Blocks [][]byte `cbor:"1,keyasint"`
}

type txsPayload struct {
	Txs [][]byte `cbor:"1,keyasint"`
}

type blockHeightPayload struct {
	Height uint64 `cbor:"1,keyasint"`
}

// encode serializes a Go value representing one message's payload (or
// nil for the empty-bodied request types) into a complete wire envelope.
func encode(t MessageType, payload any) ([]byte, error) {
	var raw []byte
	var compressed bool
	if payload != nil {
		b, err := cbor.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("gossip: encode %s payload: %w", t, err)
		}
		raw, compressed = compressPayload(b)
	}
	return cbor.Marshal(envelope{Type: t, Payload: raw, Compressed: compressed})
}

// decodeEnvelope unwraps the outer envelope, transparently decompressing
// the payload, and leaves Type and the raw payload bytes for the caller
// to decode per-type.
func decodeEnvelope(data []byte) (MessageType, []byte, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return 0, nil, fmt.Errorf("gossip: decode envelope: %w", err)
	}
	payload, err := decompressPayload(env.Payload, env.Compressed)
	if err != nil {
		return 0, nil, err
	}
	return env.Type, payload, nil
}

// EncodePing/EncodePong/... construct wire bytes for each message
// variant listed in spec.md §6. Decode* are their inverses, used by the
// Worker's dispatch loop.

func EncodePing(nonce string) ([]byte, error) {
	return encode(MsgPing, pingPayload{Nonce: nonce})
}

func EncodePong(nonce string) ([]byte, error) {
	return encode(MsgPong, pongPayload{Nonce: nonce})
}

func EncodeNewBlockHashes(hs []hash.Hash) ([]byte, error) {
	return encode(MsgNewBlockHashes, hashesPayload{Hashes: hs})
}

func EncodeGetBlocks(hs []hash.Hash) ([]byte, error) {
	return encode(MsgGetBlocks, hashesPayload{Hashes: hs})
}

func EncodeBlocks(blocks []chaintypes.Block) ([]byte, error) {
	return encode(MsgBlocks, blocksPayload{Blocks: encodeBlocks(blocks)})
}

func EncodeNewTransactionHashes(hs []hash.Hash) ([]byte, error) {
	return encode(MsgNewTransactionHashes, hashesPayload{Hashes: hs})
}

func EncodeGetTransactions(hs []hash.Hash) ([]byte, error) {
	return encode(MsgGetTransactions, hashesPayload{Hashes: hs})
}

func EncodeTransactions(txs []chaintypes.SignedTransaction) ([]byte, error) {
	return encode(MsgTransactions, txsPayload{Txs: encodeTxs(txs)})
}

func EncodeGetBlockchain() ([]byte, error) {
	return encode(MsgGetBlockchain, nil)
}

func EncodeSendBlockchain(blocks []chaintypes.Block) ([]byte, error) {
	return encode(MsgSendBlockchain, blocksPayload{Blocks: encodeBlocks(blocks)})
}

func EncodeGetMempool() ([]byte, error) {
	return encode(MsgGetMempool, nil)
}

func EncodeSendMempool(txs []chaintypes.SignedTransaction) ([]byte, error) {
	return encode(MsgSendMempool, txsPayload{Txs: encodeTxs(txs)})
}

func EncodeGetBlockHeight() ([]byte, error) {
	return encode(MsgGetBlockHeight, nil)
}

func EncodeBlockHeight(height uint64) ([]byte, error) {
	return encode(MsgBlockHeight, blockHeightPayload{Height: height})
}

func encodeBlocks(blocks []chaintypes.Block) [][]byte {
	out := make([][]byte, len(blocks))
	for i, b := range blocks {
		out[i] = chaintypes.EncodeBlock(b)
	}
	return out
}

func decodeBlocks(raw [][]byte) ([]chaintypes.Block, error) {
	out := make([]chaintypes.Block, len(raw))
	for i, b := range raw {
		blk, err := chaintypes.DecodeBlock(b)
		if err != nil {
			return nil, fmt.Errorf("gossip: decode block %d: %w", i, err)
		}
		out[i] = blk
	}
	return out, nil
}

func encodeTxs(txs []chaintypes.SignedTransaction) [][]byte {
	out := make([][]byte, len(txs))
	for i, tx := range txs {
		out[i] = chaintypes.EncodeSignedTransaction(tx)
	}
	return out
}

func decodeTxs(raw [][]byte) ([]chaintypes.SignedTransaction, error) {
	out := make([]chaintypes.SignedTransaction, len(raw))
	for i, b := range raw {
		tx, err := chaintypes.DecodeSignedTransaction(b)
		if err != nil {
			return nil, fmt.Errorf("gossip: decode transaction %d: %w", i, err)
		}
		out[i] = tx
	}
	return out, nil
}

func decodeHashesPayload(raw []byte) ([]hash.Hash, error) {
	var p hashesPayload
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("gossip: decode hashes payload: %w", err)
	}
	return p.Hashes, nil
}

func decodeBlocksPayload(raw []byte) ([]chaintypes.Block, error) {
	var p blocksPayload
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("gossip: decode blocks payload: %w", err)
	}
	return decodeBlocks(p.Blocks)
}

func decodeTxsPayload(raw []byte) ([]chaintypes.SignedTransaction, error) {
	var p txsPayload
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("gossip: decode txs payload: %w", err)
	}
	return decodeTxs(p.Txs)
}

// decodeNoncePayload decodes Ping and Pong payloads, which share the
// same {nonce: string} shape.
func decodeNoncePayload(raw []byte) (string, error) {
	var p pingPayload
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("gossip: decode nonce payload: %w", err)
	}
	return p.Nonce, nil
}

func decodeBlockHeightPayload(raw []byte) (uint64, error) {
	var p blockHeightPayload
	if err := cbor.Unmarshal(raw, &p); err != nil {
		return 0, fmt.Errorf("gossip: decode block height payload: %w", err)
	}
	return p.Height, nil
}
