// Package observability holds the Prometheus collectors shared by the chain services.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChainWalksTotal counts finished walks by kind and outcome.
	ChainWalksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supply_chain",
		Subsystem: "traversal",
		Name:      "walks_total",
		Help:      "Total number of chain walks by kind and outcome.",
	}, []string{"kind", "outcome"})

	// ChainWalkDuration measures walk latency by kind.
	ChainWalkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "supply_chain",
		Subsystem: "traversal",
		Name:      "walk_duration_seconds",
		Help:      "Duration of chain walks.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	// ChainWalkLevels records how many BFS levels a walk expanded.
	ChainWalkLevels = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "supply_chain",
		Subsystem: "traversal",
		Name:      "walk_levels",
		Help:      "Number of levels expanded per chain walk.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 64},
	})

	// ChainWalkRoundTrips records repository round trips per walk.
	ChainWalkRoundTrips = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "supply_chain",
		Subsystem: "traversal",
		Name:      "walk_round_trips",
		Help:      "Number of repository round trips per chain walk.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})

	// CountsCacheRequests counts traceability-count cache lookups by result.
	CountsCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supply_chain",
		Subsystem: "cache",
		Name:      "counts_requests_total",
		Help:      "Traceability counts cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	// LocationFileFetches counts location file loads by artifact and outcome.
	LocationFileFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supply_chain",
		Subsystem: "artifacts",
		Name:      "location_file_fetches_total",
		Help:      "Location file loads by artifact and outcome (ok, missing, invalid, error).",
	}, []string{"artifact", "outcome"})

	// ArtifactBuildDuration measures artifact assembly latency.
	ArtifactBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "supply_chain",
		Subsystem: "artifacts",
		Name:      "build_duration_seconds",
		Help:      "Duration of chain artifact assembly.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"artifact"})

	// SeasonsAssigned counts transactions given a season by the backfill.
	SeasonsAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "supply_chain",
		Subsystem: "seasons",
		Name:      "assigned_total",
		Help:      "Transactions assigned a season by the backfill job.",
	})
)

// ObserveWalk records one finished walk.
func ObserveWalk(kind string, started time.Time, levels, roundTrips int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ChainWalksTotal.WithLabelValues(kind, outcome).Inc()
	ChainWalkDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	ChainWalkLevels.Observe(float64(levels))
	ChainWalkRoundTrips.Observe(float64(roundTrips))
}
