package news

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	newsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newslate_news_requests_total",
		Help: "Upstream news API requests by backend, operation and status",
	}, []string{"backend", "operation", "status"})

	newsRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "newslate_news_request_duration_seconds",
		Help:    "Upstream news API request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"backend"})

	newsCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newslate_news_cache_total",
		Help: "News response cache lookups by operation and result",
	}, []string{"operation", "result"})
)
