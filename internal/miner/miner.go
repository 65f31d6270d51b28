package miner

import (
	"time"

	"github.com/arejula27/chaind/internal/blockchain"
	"github.com/arejula27/chaind/internal/chaintypes"
	"github.com/arejula27/chaind/internal/mempool"
	"github.com/arejula27/chaind/pkg/hash"
	"go.uber.org/zap"
)

// pollInterval is how often, in nonces, the search loop checks for a
// pending control signal.
const pollInterval = 10_000

// timestampRefreshInterval is how often, in nonces, the header timestamp
// is refreshed so a long search doesn't mine a stale-looking block.
const timestampRefreshInterval = 10_000_000

// MinedBlock is what the search loop hands to the sink on success: a
// valid block and the trie nodes its state transition produced, not yet
// persisted.
type MinedBlock struct {
	Block    chaintypes.Block
	NewNodes map[hash.Hash][]byte
}

// Miner owns the control FSM and the PoW search loop. It never commits
// blocks itself; a sink goroutine owns Finished and is responsible for
// committing, pruning the mempool, and sending Update back.
type Miner struct {
	chain     *blockchain.Blockchain
	pool      *mempool.Mempool
	minerAddr hash.Address
	log       *zap.Logger

	control  chan Signal
	Finished chan MinedBlock
}

// New constructs a Miner targeting chain and pool, crediting mined
// blocks to minerAddr. The control channel is small and buffered so
// Stop/Update/Exit never block the caller behind a slow search.
func New(chain *blockchain.Blockchain, pool *mempool.Mempool, minerAddr hash.Address, log *zap.Logger) *Miner {
	return &Miner{
		chain:     chain,
		pool:      pool,
		minerAddr: minerAddr,
		log:       log,
		control:   make(chan Signal, 4),
		Finished:  make(chan MinedBlock, 1),
	}
}

// Send delivers a control signal. The channel has exactly one consumer,
// the miner's own Run goroutine.
func (m *Miner) Send(sig Signal) {
	m.control <- sig
}

// Run drives the control FSM until Exit. It is meant to run on its own
// goroutine; Run blocks until shutdown.
func (m *Miner) Run() {
	st := statePaused
	var lambda time.Duration

	for {
		switch st {
		case stateShutDown:
			return

		case statePaused, stateMinedWait:
			sig := <-m.control
			st, lambda = applyControl(st, lambda, sig)

		case stateRunning:
			outcome, interrupt := m.runIteration(lambda)
			switch {
			case outcome != nil:
				select {
				case m.Finished <- *outcome:
				default:
					m.log.Warn("miner: dropped mined block, sink channel full")
				}
				st = stateMinedWait
			case interrupt != nil:
				st, lambda = applyControl(st, lambda, *interrupt)
			}
			if st == stateRunning && lambda > 0 {
				time.Sleep(lambda)
			}
		}
	}
}

// runIteration assembles one candidate template and searches nonces
// until either a valid proof of work is found or a control signal
// interrupts the search.
func (m *Miner) runIteration(lambda time.Duration) (*MinedBlock, *Signal) {
	tipHash, err := m.chain.Tip()
	if err != nil {
		m.log.Error("miner: failed to read tip", zap.Error(err))
		return nil, waitForSignal(m.control)
	}
	tipBlock, ok, err := m.chain.GetBlock(tipHash)
	if err != nil || !ok {
		m.log.Error("miner: tip block unavailable", zap.Error(err))
		return nil, waitForSignal(m.control)
	}

	candidates := m.pool.All()
	included, totalFee, stateRoot, newNodes, err := buildTemplate(m.chain.Store(), tipBlock.Header.StateRoot, candidates, m.minerAddr)
	if err != nil {
		m.log.Error("miner: template assembly failed", zap.Error(err))
		return nil, waitForSignal(m.control)
	}

	header := chaintypes.Header{
		Parent:      tipHash,
		Nonce:       0,
		Difficulty:  tipBlock.Header.Difficulty,
		TimestampMs: uint64(time.Now().UnixMilli()),
		MerkleRoot:  chaintypes.Block{Data: included}.MerkleRoot(),
		StateRoot:   stateRoot,
		Coinbase: chaintypes.Transaction{
			Nonce:    0,
			GasPrice: 0,
			GasLimit: 0,
			To:       m.minerAddr,
			Value:    chaintypes.BlockReward + totalFee,
		},
	}

	return m.search(header, included, newNodes)
}

// search increments the nonce until the header's hash meets difficulty,
// polling the control channel every pollInterval nonces and refreshing
// the timestamp every timestampRefreshInterval nonces.
func (m *Miner) search(header chaintypes.Header, body []chaintypes.SignedTransaction, newNodes map[hash.Hash][]byte) (*MinedBlock, *Signal) {
	var nonce uint32
	var sinceRefresh uint32

	for {
		for i := uint32(0); i < pollInterval; i++ {
			header.Nonce = nonce
			if header.Hash().LessOrEqual(header.Difficulty) {
				return &MinedBlock{
					Block:    chaintypes.Block{Header: header, Data: body},
					NewNodes: newNodes,
				}, nil
			}
			nonce++
			sinceRefresh++
			if sinceRefresh >= timestampRefreshInterval {
				header.TimestampMs = uint64(time.Now().UnixMilli())
				sinceRefresh = 0
			}
		}

		select {
		case sig := <-m.control:
			return nil, &sig
		default:
		}
	}
}

func waitForSignal(control chan Signal) *Signal {
	sig := <-control
	return &sig
}
