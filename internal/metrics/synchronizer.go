package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "synchronizer",
		Name:      "blocks_total",
		Help:      "Count of processed blocks.",
	}, []string{"delegator", "status"})

	syncBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "synchronizer",
		Name:      "block_duration_seconds",
		Help:      "Duration of processing a single block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"delegator", "status"})

	syncVoteordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "synchronizer",
		Name:      "voteorders_total",
		Help:      "Count of validated voteorders by verdict.",
	}, []string{"delegator", "verdict"})

	syncPushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "synchronizer",
		Name:      "pushes_total",
		Help:      "Count of submitted transactions.",
	}, []string{"delegator", "status"})

	syncPushSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "synchronizer",
		Name:      "push_operations",
		Help:      "Number of operations per submitted transaction.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1..512
	}, []string{"delegator"})

	syncRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "synchronizer",
		Name:      "retries_total",
		Help:      "Count of retried ledger operations.",
	}, []string{"delegator", "operation"})

	syncCursorBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "synchronizer",
		Name:      "cursor_block",
		Help:      "Block the synchronizer resumes from.",
	}, []string{"delegator"})
)

// Synchronizer tracks metrics of one delegator's synchronization daemon.
type Synchronizer struct {
	delegator string
}

// NewSynchronizer creates a Synchronizer metrics collector.
func NewSynchronizer(delegator string) *Synchronizer {
	if delegator == "" {
		delegator = unknown
	}
	return &Synchronizer{delegator: delegator}
}

func (m Synchronizer) ObserveBlock(err error, started time.Time) {
	s := status(err)
	syncBlocksTotal.WithLabelValues(m.delegator, s).Inc()
	syncBlockDuration.WithLabelValues(m.delegator, s).Observe(time.Since(started).Seconds())
}

func (m Synchronizer) ObserveDecision(accepted bool) {
	verdict := "rejected"
	if accepted {
		verdict = "passed"
	}
	syncVoteordersTotal.WithLabelValues(m.delegator, verdict).Inc()
}

func (m Synchronizer) ObservePush(err error, operations int) {
	syncPushesTotal.WithLabelValues(m.delegator, status(err)).Inc()
	if err == nil {
		syncPushSize.WithLabelValues(m.delegator).Observe(float64(operations))
	}
}

func (m Synchronizer) ObserveRetry(operation string) {
	syncRetriesTotal.WithLabelValues(m.delegator, operation).Inc()
}

func (m Synchronizer) SetCursor(block uint64) {
	syncCursorBlock.WithLabelValues(m.delegator).Set(float64(block))
}
