package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiscoveryFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pybuild_discovery_failed_total",
			Help: "Number of projects whose build system could not be discovered",
		},
		[]string{"error_kind"},
	)

	DiscoveryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pybuild_discovery_count_total",
			Help: "Total number of discovered projects, by resolved backend",
		},
		[]string{"backend", "default"},
	)

	DiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pybuild_discovery_duration_seconds",
			Help:    "Time to load and resolve one project in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	PolicyViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pybuild_policy_violations_total",
			Help: "Total number of policy violations reported for discovered projects",
		},
	)
)
