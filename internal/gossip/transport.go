package gossip

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
)

// Transport is the small send/broadcast boundary the worker addresses
// replies through. It depends only on libp2p's peer.ID identity type,
// not on its network stack: establishing connections, stream framing,
// and discovery are the "raw socket/serialization transport" spec.md
// marks out of scope (see SPEC_FULL.md §11). A concrete implementation
// wires this onto an actual host.Host/stream pair; tests use a fake.
type Transport interface {
	// Send delivers msg to exactly one peer.
	Send(ctx context.Context, to peer.ID, msg []byte) error
	// Broadcast delivers msg to every currently connected peer.
	Broadcast(ctx context.Context, msg []byte) error
}
