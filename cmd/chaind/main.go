// Command chaind runs a single account-model PoW node: it opens the
// durable store, wires the blockchain, mempool, miner, and gossip
// worker pool together, and blocks until SIGINT/SIGTERM. Flag parsing
// here is deliberately thin — loading configuration from files or an
// env is out of scope (SPEC_FULL.md §10); these flags exist only to
// populate a nodecfg.Config for this process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"go.uber.org/zap"

	"github.com/arejula27/chaind/internal/blockchain"
	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/gossip"
	"github.com/arejula27/chaind/internal/kvstore"
	"github.com/arejula27/chaind/internal/mempool"
	"github.com/arejula27/chaind/internal/metrics"
	"github.com/arejula27/chaind/internal/miner"
	"github.com/arejula27/chaind/internal/nodecfg"
	"github.com/arejula27/chaind/pkg/hash"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chaind: failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("chaind: fatal error", zap.Error(err))
	}
}

func parseFlags() (nodecfg.Config, error) {
	cfg := nodecfg.Default()

	var minerAddrHex string
	flag.StringVar(&cfg.DataDir, "data-dir", "", "directory holding the bbolt store file")
	flag.IntVar(&cfg.ListenPort, "listen-port", cfg.ListenPort, "P2P listen port")
	flag.IntVar(&cfg.GossipWorkers, "gossip-workers", cfg.GossipWorkers, "number of gossip handler goroutines")
	flag.StringVar(&minerAddrHex, "miner-address", "", "hex address credited for mined blocks; enables mining if set")
	flag.Parse()

	if minerAddrHex != "" {
		addr, err := hash.AddressFromHex(minerAddrHex)
		if err != nil {
			return nodecfg.Config{}, fmt.Errorf("chaind: -miner-address: %w", err)
		}
		cfg.MinerAddress = addr
		cfg.MineEnabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nodecfg.Config{}, err
	}
	return cfg, nil
}

func run(cfg nodecfg.Config, log *zap.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := kvstore.NewBoltStore(filepath.Join(cfg.DataDir, "chaind.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	chain, err := blockchain.Open(store)
	if err != nil {
		return fmt.Errorf("open chain: %w", err)
	}

	pool := mempool.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := newLoggingTransport(log)

	var wg sync.WaitGroup

	var m *miner.Miner
	if cfg.MineEnabled {
		m = miner.New(chain, pool, cfg.MinerAddress, log)
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Run()
		}()
		go func() {
			defer wg.Done()
			runMinerSink(ctx, m, chain, pool, transport, log)
		}()
		m.Send(miner.Start(0))
	}

	onMined := func() {}
	if m != nil {
		onMined = func() { m.Send(miner.Update()) }
	}
	worker := gossip.New(chain, pool, transport, onMined, log)

	inbound := make(chan inboundMessage, 256)
	for i := 0; i < cfg.GossipWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runGossipWorker(ctx, worker, inbound)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reportMetrics(ctx, chain, pool)
	}()

	log.Info("chaind: node started",
		zap.String("data_dir", cfg.DataDir),
		zap.Int("listen_port", cfg.ListenPort),
		zap.Bool("mining", cfg.MineEnabled),
	)

	waitForShutdown(log)

	cancel()
	close(inbound)
	if m != nil {
		m.Send(miner.Exit())
	}
	wg.Wait()
	return nil
}

// inboundMessage is one message handed from the (out-of-scope) network
// transport to the gossip worker pool.
type inboundMessage struct {
	from peer.ID
	raw  []byte
}

func runGossipWorker(ctx context.Context, w *gossip.Worker, inbound <-chan inboundMessage) {
	for msg := range inbound {
		w.Handle(ctx, msg.from, msg.raw)
	}
}

// runMinerSink owns commits of locally mined blocks: it is the single
// writer on the miner's Finished channel's consuming side, matching
// spec.md §4.H's requirement that a dedicated sink thread commits,
// prunes the mempool, and signals the miner to resume.
func runMinerSink(ctx context.Context, m *miner.Miner, chain *blockchain.Blockchain, pool *mempool.Mempool, transport gossip.Transport, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case mined, ok := <-m.Finished:
			if !ok {
				return
			}
			if err := chain.CommitBlock(mined.Block, mined.NewNodes); err != nil {
				log.Error("chaind: failed to commit locally mined block", zap.Error(err))
				m.Send(miner.Update())
				continue
			}
			pool.RemoveTransactions(minedTxHashes(mined.Block.Data))
			metrics.BlocksCommitted.Inc()

			blockHash := mined.Block.Hash()
			if encoded, err := gossip.EncodeNewBlockHashes([]hash.Hash{blockHash}); err != nil {
				log.Warn("chaind: failed to encode mined block announcement", zap.Error(err))
			} else if err := transport.Broadcast(ctx, encoded); err != nil {
				log.Warn("chaind: failed to broadcast mined block", zap.Error(err))
			}

			log.Info("chaind: mined block committed", zap.String("hash", blockHash.String()))
			m.Send(miner.Update())
		}
	}
}

func reportMetrics(ctx context.Context, chain *blockchain.Blockchain, pool *mempool.Mempool) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.MempoolSize.Set(float64(pool.Len()))
			tip, err := chain.Tip()
			if err != nil {
				continue
			}
			if height, ok, err := chain.Height(tip); err == nil && ok {
				metrics.ChainHeight.Set(float64(height))
			}
		}
	}
}

func minedTxHashes(txs []chaintypes.SignedTransaction) []hash.Hash {
	out := make([]hash.Hash, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash()
	}
	return out
}

func waitForShutdown(log *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("chaind: received shutdown signal", zap.String("signal", sig.String()))
}
