package gossip

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the payload size at or above which any message
// body (in practice mostly Blocks/Transactions/SendBlockchain/SendMempool)
// gets zstd-compressed before hitting the wire. Small payloads aren't worth the framing
// overhead. Grounded on the teacher's CompressCoinbase/DecompressCoinbase
// (internal/p2p/compress.go), renamed for the payload types this
// protocol actually carries and extended with a size gate.
const compressThreshold = 512

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(64<<20))
)

// compressPayload compresses data if it is large enough to benefit, and
// reports whether it did so (the envelope's Compressed flag).
func compressPayload(data []byte) ([]byte, bool) {
	if len(data) < compressThreshold {
		return data, false
	}
	return zstdEncoder.EncodeAll(data, nil), true
}

// decompressPayload reverses compressPayload.
func decompressPayload(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("gossip: zstd decompress: %w", err)
	}
	return out, nil
}
