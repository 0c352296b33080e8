package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cellar",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	AssistantRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "assistant_requests_total",
		Help:      "Total number of assistant calls by operation and outcome",
	}, []string{"operation", "outcome"})

	AssistantDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cellar",
		Name:      "assistant_duration_seconds",
		Help:      "Duration of assistant calls",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"operation"})

	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "image_uploads_total",
		Help:      "Total number of label image uploads by outcome",
	}, []string{"outcome"})

	ConsumptionEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "consumption_events_total",
		Help:      "Total number of bottles logged as consumed",
	})

	CollectionWines = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellar",
		Name:      "collection_wines",
		Help:      "Number of wines in the effective collection at the last listing",
	})

	ActiveWines = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellar",
		Name:      "active_wines",
		Help:      "Number of wines with at least one bottle remaining",
	})

	BottlesRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellar",
		Name:      "bottles_remaining",
		Help:      "Number of unconsumed bottles in the cellar",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter",
	}, []string{"route"})
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
