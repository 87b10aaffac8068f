package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParseCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pybuild_parse_cache_hits_total",
			Help: "Number of project files served from the parse cache",
		},
	)

	ParseCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pybuild_parse_cache_misses_total",
			Help: "Number of project files decoded from disk",
		},
	)
)
