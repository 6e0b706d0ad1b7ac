package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	layerMemory = "memory"
	layerRedis  = "redis"
)

// DefaultName labels the metrics of a MemoryCache configured without a name.
const DefaultName = "translation"

var (
	// cacheHits tracks cache hits by layer (memory, redis) and cache name
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newslate_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer", "cache"},
	)

	// cacheMisses tracks cache misses, expired entries included
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newslate_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer", "cache"},
	)

	// cacheEvictions counts entries dropped because the cache was full
	cacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newslate_cache_evictions_total",
			Help: "Entries evicted from an in-memory cache at capacity",
		},
		[]string{"cache"},
	)

	// cacheEntries is the resident entry count per in-memory cache
	cacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "newslate_cache_entries",
			Help: "Resident entries in an in-memory cache",
		},
		[]string{"cache"},
	)

	// cacheErrors tracks failed cache operations by operation
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newslate_cache_errors_total",
			Help: "Translation cache operation errors",
		},
		[]string{"operation"},
	)
)
