package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	logOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_indexer_logs_total",
			Help: "Logs seen by the indexer, by outcome",
		},
		[]string{"outcome"},
	)

	eventsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_indexer_events_stored_total",
			Help: "Events inserted into the store, by event type",
		},
		[]string{"event_type"},
	)

	blocksIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vault_indexer_blocks_indexed_total",
			Help: "Blocks committed by the indexer",
		},
	)

	cycleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_indexer_cycle_failures_total",
			Help: "Indexing cycles that ended early, by error class",
		},
		[]string{"reason"},
	)

	lastIndexedBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_indexer_last_indexed_block",
			Help: "Cursor value after the last successful write",
		},
	)

	chainHead = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_indexer_chain_head",
			Help: "Chain head observed at the start of the last cycle",
		},
	)

	blockProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vault_indexer_block_processing_duration_seconds",
			Help:    "Time taken to persist one block",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func LogOutcomeInc(outcome string) {
	logOutcomes.WithLabelValues(outcome).Inc()
}

func EventStoredInc(eventType string) {
	eventsStored.WithLabelValues(eventType).Inc()
}

func BlocksIndexedInc() {
	blocksIndexed.Inc()
}

func CycleFailureInc(reason string) {
	cycleFailures.WithLabelValues(reason).Inc()
}

func LastIndexedBlockSet(height uint64) {
	lastIndexedBlock.Set(float64(height))
}

func ChainHeadSet(height uint64) {
	chainHead.Set(float64(height))
}

func BlockProcessingTimeLog(duration time.Duration) {
	blockProcessingTime.Observe(duration.Seconds())
}
