// Package metrics provides Prometheus metrics for ingestion and playback
// source selection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttemptsTotal counts individual HTTP attempts, by outcome
	// ("ok", "retry", "exhausted").
	FetchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ducktv_fetch_attempts_total",
		Help: "Total number of HTTP fetch attempts, by outcome.",
	}, []string{"outcome"})

	// IngestURLsTotal counts ingested URLs by phase ("playlist", "guide") and
	// result ("ok", "error").
	IngestURLsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ducktv_ingest_urls_total",
		Help: "Total number of playlist/guide URLs processed, by phase and result.",
	}, []string{"phase", "result"})

	// IngestDuration observes the wall time of a full catalog build.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ducktv_ingest_duration_seconds",
		Help:    "Wall time of a full catalog build.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	// CatalogChannels tracks the channel count of the most recent build.
	CatalogChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ducktv_catalog_channels",
		Help: "Number of channels in the most recently built catalog.",
	})

	// CatalogGroups tracks the group count of the most recent build.
	CatalogGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ducktv_catalog_groups",
		Help: "Number of groups in the most recently built catalog.",
	})

	// GuideChannels tracks the guide-channel count of the most recent build.
	GuideChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ducktv_guide_channels",
		Help: "Number of guide channels in the most recently built guide index.",
	})

	// FailoverTotal counts playback-error driven source switches.
	FailoverTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ducktv_failover_total",
		Help: "Total number of source failovers triggered by playback errors.",
	})
)
