// Package metrics registers the node's Prometheus collectors. Adapted
// from the teacher's internal/metrics/metrics.go: same namespace/gauge/
// counter shape, generalized from share-pool metrics to this node's own
// chain/mempool/peer concerns. Wiring a listener for promhttp's handler
// is the (out-of-scope) admin HTTP surface's job; this package only
// registers collectors for it to serve.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chaind",
		Name:      "chain_height",
		Help:      "Height of the local canonical chain tip.",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chaind",
		Name:      "mempool_size",
		Help:      "Number of pending signed transactions held in the mempool.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chaind",
		Name:      "peers_connected",
		Help:      "Number of connected gossip peers.",
	})

	BlocksCommitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chaind",
		Name:      "blocks_committed_total",
		Help:      "Total blocks committed onto the canonical chain.",
	})

	BlocksRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chaind",
		Name:      "blocks_rejected_total",
		Help:      "Total blocks rejected by validation, labeled by failure reason.",
	}, []string{"reason"})

	TransactionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chaind",
		Name:      "transactions_accepted_total",
		Help:      "Total signed transactions accepted into the mempool.",
	})

	TransactionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chaind",
		Name:      "transactions_rejected_total",
		Help:      "Total signed transactions rejected, labeled by failure reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(
		ChainHeight,
		MempoolSize,
		PeersConnected,
		BlocksCommitted,
		BlocksRejected,
		TransactionsAccepted,
		TransactionsRejected,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
