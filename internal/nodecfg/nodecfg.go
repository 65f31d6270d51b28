// Package nodecfg declares the typed configuration a chaind process is
// wired from. Loading it from flags, environment, or a file is out of
// scope (spec.md Non-goals) — an external loader is expected to populate
// a Config and hand it to cmd/chaind, the same way the teacher's
// Generator and Node constructors take already-populated values rather
// than reading flags themselves.
package nodecfg

import (
	"time"

	"github.com/arejula27/chaind/pkg/hash"
)

// Config is every knob a running node needs. DataDir, ListenPort, and
// GossipWorkers must be set (and MinerAddress when MineEnabled is);
// Validate reports the first one that is missing or out of range.
type Config struct {
	// DataDir is the directory holding the bbolt store file.
	DataDir string

	// ListenPort is the local P2P listen port. The transport that binds
	// it is out of scope (see SPEC_FULL.md §11); this field exists so a
	// loader has somewhere to put it.
	ListenPort int

	// Bootnodes are addresses of peers to dial at startup. Dialing
	// itself is the transport's job, not nodecfg's.
	Bootnodes []string

	// MinerAddress is the address mined blocks credit their reward and
	// fees to. It must be non-zero when MineEnabled is set.
	MinerAddress hash.Address

	// MineEnabled turns the miner's control FSM on at startup.
	MineEnabled bool

	// MempoolMaxSize bounds how many pending transactions the mempool
	// will hold; spec.md leaves eviction policy unspecified, so this is
	// advisory sizing information only, not enforced inside
	// internal/mempool itself.
	MempoolMaxSize int

	// GossipWorkers is how many goroutines drain the inbound message
	// queue concurrently (spec.md §5 default is 4).
	GossipWorkers int

	// PeerDialTimeout bounds how long the transport may spend
	// connecting to a bootnode before giving up.
	PeerDialTimeout time.Duration
}

// Default returns a Config with the spec's suggested defaults filled
// in; callers still must set DataDir and, if mining, MinerAddress.
func Default() Config {
	return Config{
		ListenPort:      26117,
		MempoolMaxSize:  10_000,
		GossipWorkers:   4,
		PeerDialTimeout: 10 * time.Second,
	}
}

// Validate reports the first missing or out-of-range field.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errConfig("data_dir is required")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return errConfig("listen_port must be between 1 and 65535")
	}
	if c.GossipWorkers <= 0 {
		return errConfig("gossip_workers must be positive")
	}
	if c.MineEnabled && c.MinerAddress == hash.ZeroAddress {
		return errConfig("miner_address is required when mining is enabled")
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errConfig(msg string) error { return configError("nodecfg: " + msg) }
