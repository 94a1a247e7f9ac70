// Package metrics defines the Prometheus collectors for the collection
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VideosDiscovered counts new (unprocessed) videos surfaced per topic.
	VideosDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newswatch",
		Name:      "videos_discovered_total",
		Help:      "Number of new videos surfaced by collection runs.",
	}, []string{"topic"})

	// ChannelFailures counts per-channel resolution and fetch failures.
	ChannelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newswatch",
		Name:      "channel_failures_total",
		Help:      "Number of per-channel failures during collection runs.",
	}, []string{"stage", "reason"})

	// VideosMarked counts ledger mark-processed operations.
	VideosMarked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "newswatch",
		Name:      "videos_marked_processed_total",
		Help:      "Number of videos recorded as processed in the ledger.",
	})

	// RunDuration observes full topic collection run durations.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "newswatch",
		Name:      "collection_run_duration_seconds",
		Help:      "Duration of topic collection runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"topic"})
)
