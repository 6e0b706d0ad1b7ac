package newslate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for newslate_translations_total.
const (
	outcomeSkipped    = "skipped"    // already translated or same language
	outcomeTranslated = "translated" // every field resolved
	outcomePartial    = "partial"    // at least one field kept its original text
	outcomeFailed     = "failed"     // single text translation failed
)

var (
	translationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newslate_translations_total",
		Help: "Article and text translations by outcome",
	}, []string{"outcome"})

	providerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newslate_provider_duration_seconds",
		Help:    "Upstream translation call duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	providerRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newslate_provider_retries_total",
		Help: "Retry attempts against the translation provider",
	})
)
