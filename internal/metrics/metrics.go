// Package metrics exposes the dashboard's own operational counters.
// These measure the client, not the traced system: the traced system's
// aggregates come from the remote analytics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracedeck_refreshes_total",
		Help: "Completed refresh cycles, successful or not",
	})

	RefreshErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracedeck_refresh_errors_total",
		Help: "Refresh failures by fetch target",
	}, []string{"target"})

	StaleResponsesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracedeck_stale_responses_discarded_total",
		Help: "Refresh results dropped because a newer refresh already applied",
	})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracedeck_refresh_duration_seconds",
		Help:    "Wall time of one refresh cycle",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	})

	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracedeck_commands_total",
		Help: "Administrative commands issued, by command and outcome",
	}, []string{"command", "outcome"})

	LastRefreshTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tracedeck_last_successful_refresh_timestamp_seconds",
		Help: "Unix time of the last refresh that replaced the cache",
	})
)
