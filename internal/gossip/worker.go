package gossip

import (
	"context"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arejula27/chaind/internal/blockchain"
	"github.com/arejula27/chaind/internal/chainerr"
	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/mempool"
	"github.com/arejula27/chaind/internal/metrics"
	"github.com/arejula27/chaind/pkg/hash"
)

// maxPeerLimiters bounds the per-peer rate-limiter map, mirroring the
// teacher's eviction threshold in p2p.PubSub.getPeerLimiter.
const maxPeerLimiters = 500

// Worker is the gossip protocol state machine: one instance is shared
// across N gossip worker goroutines (spec.md §5; the default is 4),
// each inbound message handled in isolation as the spec requires. All
// mutable shared state it touches (the blockchain, the mempool, the
// orphan buffer) is protected by its own lock, acquired in the fixed
// order blockchain -> mempool -> orphan_buffer.
type Worker struct {
	chain     *blockchain.Blockchain
	pool      *mempool.Mempool
	transport Transport
	orphans   *orphanBuffer
	onMined   func()
	log       *zap.Logger

	limiterMu sync.Mutex
	limiters  map[peer.ID]*rate.Limiter
}

// New constructs a Worker. onMined is fired after a peer-supplied block
// is committed onto the canonical chain, the gossip worker's side of the
// miner's Update signal (spec.md §4.H's sink thread does the same for
// locally mined blocks).
func New(chain *blockchain.Blockchain, pool *mempool.Mempool, transport Transport, onMined func(), log *zap.Logger) *Worker {
	return &Worker{
		chain:     chain,
		pool:      pool,
		transport: transport,
		orphans:   newOrphanBuffer(),
		onMined:   onMined,
		log:       log,
		limiters:  make(map[peer.ID]*rate.Limiter),
	}
}

// limiterFor returns p's rate limiter, creating one on first contact.
// The limiter map is this worker's only per-peer bookkeeping (there is
// no connection handshake in scope, spec.md's gossip worker reacts to
// inbound messages from an already-connected transport), so its size is
// also the best available proxy for PeersConnected.
func (w *Worker) limiterFor(p peer.ID) *rate.Limiter {
	w.limiterMu.Lock()
	defer w.limiterMu.Unlock()

	if lim, ok := w.limiters[p]; ok {
		return lim
	}
	if len(w.limiters) >= maxPeerLimiters {
		for id := range w.limiters {
			delete(w.limiters, id)
			break
		}
	}
	lim := rate.NewLimiter(10, 20)
	w.limiters[p] = lim
	metrics.PeersConnected.Set(float64(len(w.limiters)))
	return lim
}

// Handle decodes and dispatches one inbound message from peer `from`.
// It never panics on adversarial input: a malformed envelope is logged
// and dropped, matching spec.md §7's "the core never panics on
// adversarial input".
func (w *Worker) Handle(ctx context.Context, from peer.ID, raw []byte) {
	if !w.limiterFor(from).Allow() {
		w.log.Warn("gossip: peer rate limited", zap.String("peer", from.String()))
		return
	}

	msgType, payload, err := decodeEnvelope(raw)
	if err != nil {
		w.log.Debug("gossip: dropping malformed message", zap.String("peer", from.String()), zap.Error(err))
		return
	}

	if err := w.dispatch(ctx, from, msgType, payload); err != nil {
		w.log.Warn("gossip: handler error", zap.String("peer", from.String()), zap.String("type", msgType.String()), zap.Error(err))
	}
}

func (w *Worker) dispatch(ctx context.Context, from peer.ID, msgType MessageType, payload []byte) error {
	switch msgType {
	case MsgPing:
		return w.handlePing(ctx, from, payload)
	case MsgPong:
		return nil // no-op
	case MsgNewBlockHashes:
		return w.handleNewBlockHashes(ctx, from, payload)
	case MsgGetBlocks:
		return w.handleGetBlocks(ctx, from, payload)
	case MsgBlocks:
		return w.handleBlocks(ctx, from, payload)
	case MsgNewTransactionHashes:
		return w.handleNewTransactionHashes(ctx, from, payload)
	case MsgGetTransactions:
		return w.handleGetTransactions(ctx, from, payload)
	case MsgTransactions:
		return w.handleTransactions(ctx, from, payload)
	case MsgGetBlockchain:
		return w.handleGetBlockchain(ctx, from)
	case MsgSendBlockchain:
		return w.handleSendBlockchain(ctx, from, payload)
	case MsgGetMempool:
		return w.handleGetMempool(ctx, from)
	case MsgSendMempool:
		return w.handleSendMempool(ctx, from, payload)
	case MsgGetBlockHeight:
		return w.handleGetBlockHeight(ctx, from)
	case MsgBlockHeight:
		return w.handleBlockHeight(ctx, from, payload)
	default:
		return nil
	}
}

// handlePing replies Pong(nonce) to the sender only.
func (w *Worker) handlePing(ctx context.Context, from peer.ID, payload []byte) error {
	nonce, err := decodeNoncePayload(payload)
	if err != nil {
		return err
	}
	msg, err := EncodePong(nonce)
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleNewBlockHashes collects the hashes we don't already have and
// requests them from the announcing peer.
func (w *Worker) handleNewBlockHashes(ctx context.Context, from peer.ID, payload []byte) error {
	hashes, err := decodeHashesPayload(payload)
	if err != nil {
		return err
	}

	var missing []hash.Hash
	for _, h := range hashes {
		known, err := w.chain.HasBlock(h)
		if err != nil {
			return err
		}
		if !known {
			missing = append(missing, h)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	msg, err := EncodeGetBlocks(missing)
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleGetBlocks replies with every requested block we have, silently
// omitting hashes we don't.
func (w *Worker) handleGetBlocks(ctx context.Context, from peer.ID, payload []byte) error {
	hashes, err := decodeHashesPayload(payload)
	if err != nil {
		return err
	}

	var found []chaintypes.Block
	for _, h := range hashes {
		b, ok, err := w.chain.GetBlock(h)
		if err != nil {
			return err
		}
		if ok {
			found = append(found, b)
		}
	}
	msg, err := EncodeBlocks(found)
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleBlocks implements spec.md §4.I's Blocks(bs) handling: orphans
// are buffered and their parent requested, known-parent blocks are
// queued and drained (including any orphans they themselves unblock),
// and newly committed hashes are rebroadcast once the whole batch is
// processed.
func (w *Worker) handleBlocks(ctx context.Context, from peer.ID, payload []byte) error {
	blocks, err := decodeBlocksPayload(payload)
	if err != nil {
		return err
	}

	queue := make([]chaintypes.Block, 0, len(blocks))
	for _, b := range blocks {
		parentKnown, err := w.chain.HasBlock(b.Header.Parent)
		if err != nil {
			return err
		}
		if b.Header.Parent.IsZero() || parentKnown {
			queue = append(queue, b)
			continue
		}
		w.orphans.add(b.Header.Parent, b)
		msg, err := EncodeGetBlocks([]hash.Hash{b.Header.Parent})
		if err != nil {
			return err
		}
		if err := w.transport.Send(ctx, from, msg); err != nil {
			return err
		}
	}

	var committed []hash.Hash
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]

		if known, err := w.chain.HasBlock(b.Header.Hash()); err != nil {
			return err
		} else if known {
			continue // already committed; draining its orphans already happened
		}

		h, err := w.chain.Process(b)
		if err != nil {
			w.log.Debug("gossip: dropping block", zap.String("peer", from.String()), zap.Error(err))
			metrics.BlocksRejected.WithLabelValues(string(chainerr.KindOf(err))).Inc()
			w.dropOrphansUnder(b.Header.Hash())
			continue
		}

		w.pool.RemoveTransactions(txHashes(b.Data))
		if w.onMined != nil {
			w.onMined()
		}
		committed = append(committed, h)
		queue = append(queue, w.orphans.drain(h)...)
	}

	if len(committed) == 0 {
		return nil
	}
	msg, err := EncodeNewBlockHashes(committed)
	if err != nil {
		return err
	}
	return w.transport.Broadcast(ctx, msg)
}

// dropOrphansUnder discards every orphan (transitively) waiting on a
// block that failed execution: they are unreachable without it, per
// spec.md §4.I.
func (w *Worker) dropOrphansUnder(h hash.Hash) {
	for _, b := range w.orphans.drain(h) {
		w.dropOrphansUnder(b.Header.Hash())
	}
}

// handleNewTransactionHashes requests whichever announced hashes aren't
// already in the mempool.
func (w *Worker) handleNewTransactionHashes(ctx context.Context, from peer.ID, payload []byte) error {
	hashes, err := decodeHashesPayload(payload)
	if err != nil {
		return err
	}
	missing := w.pool.Missing(hashes)
	if len(missing) == 0 {
		return nil
	}
	msg, err := EncodeGetTransactions(missing)
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleGetTransactions replies with whichever requested hashes we hold.
func (w *Worker) handleGetTransactions(ctx context.Context, from peer.ID, payload []byte) error {
	hashes, err := decodeHashesPayload(payload)
	if err != nil {
		return err
	}
	var found []chaintypes.SignedTransaction
	for _, h := range hashes {
		if tx, ok := w.pool.Get(h); ok {
			found = append(found, tx)
		}
	}
	msg, err := EncodeTransactions(found)
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleTransactions drops anything with an invalid signature, inserts
// the rest, and rebroadcasts the accepted hashes.
func (w *Worker) handleTransactions(ctx context.Context, from peer.ID, payload []byte) error {
	txs, err := decodeTxsPayload(payload)
	if err != nil {
		return err
	}

	var accepted []hash.Hash
	for _, tx := range txs {
		if !tx.VerifySignature() {
			w.log.Debug("gossip: dropping transaction with invalid signature", zap.String("peer", from.String()))
			metrics.TransactionsRejected.WithLabelValues(string(chainerr.BadSignature)).Inc()
			continue
		}
		w.pool.Insert(tx)
		metrics.TransactionsAccepted.Inc()
		accepted = append(accepted, tx.Hash())
	}
	if len(accepted) == 0 {
		return nil
	}
	msg, err := EncodeNewTransactionHashes(accepted)
	if err != nil {
		return err
	}
	return w.transport.Broadcast(ctx, msg)
}

// handleGetBlockchain replies with the full canonical chain, root to tip.
func (w *Worker) handleGetBlockchain(ctx context.Context, from peer.ID) error {
	blocks, err := w.chain.AllBlocksInLongestChain()
	if err != nil {
		return err
	}
	msg, err := EncodeSendBlockchain(blocks)
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleSendBlockchain executes and commits blocks in order, aborting
// the whole batch at the first failure (the remainder is assumed
// poisoned, spec.md §7).
func (w *Worker) handleSendBlockchain(ctx context.Context, from peer.ID, payload []byte) error {
	blocks, err := decodeBlocksPayload(payload)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		known, err := w.chain.HasBlock(b.Header.Hash())
		if err != nil {
			return err
		}
		if known {
			continue // already committed (e.g. genesis, or overlap with our own chain)
		}
		if _, err := w.chain.Process(b); err != nil {
			return err
		}
		w.pool.RemoveTransactions(txHashes(b.Data))
	}
	if w.onMined != nil {
		w.onMined()
	}
	return nil
}

// handleGetMempool replies with every held signed transaction.
func (w *Worker) handleGetMempool(ctx context.Context, from peer.ID) error {
	msg, err := EncodeSendMempool(w.pool.All())
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleSendMempool ingests txs, rejecting any with an invalid signature.
func (w *Worker) handleSendMempool(ctx context.Context, from peer.ID, payload []byte) error {
	txs, err := decodeTxsPayload(payload)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if !tx.VerifySignature() {
			continue
		}
		w.pool.Insert(tx)
	}
	return nil
}

// handleGetBlockHeight replies with the local tip's height.
func (w *Worker) handleGetBlockHeight(ctx context.Context, from peer.ID) error {
	height, err := w.localHeight()
	if err != nil {
		return err
	}
	msg, err := EncodeBlockHeight(height)
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, msg)
}

// handleBlockHeight pulls a full blockchain and mempool sync from the
// peer if it claims a height greater than ours.
func (w *Worker) handleBlockHeight(ctx context.Context, from peer.ID, payload []byte) error {
	peerHeight, err := decodeBlockHeightPayload(payload)
	if err != nil {
		return err
	}
	localHeight, err := w.localHeight()
	if err != nil {
		return err
	}
	if peerHeight <= localHeight {
		return nil
	}

	getChain, err := EncodeGetBlockchain()
	if err != nil {
		return err
	}
	if err := w.transport.Send(ctx, from, getChain); err != nil {
		return err
	}
	getMempool, err := EncodeGetMempool()
	if err != nil {
		return err
	}
	return w.transport.Send(ctx, from, getMempool)
}

func (w *Worker) localHeight() (uint64, error) {
	tip, err := w.chain.Tip()
	if err != nil {
		return 0, err
	}
	height, _, err := w.chain.Height(tip)
	return height, err
}

func txHashes(txs []chaintypes.SignedTransaction) []hash.Hash {
	out := make([]hash.Hash, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash()
	}
	return out
}
