package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	fetches  *prometheus.CounterVec
	inflight prometheus.Gauge
	duration prometheus.Histogram
}

// newMetrics builds the fetch collectors. A nil registerer leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openapi_store",
			Name:      "fetches_total",
			Help:      "External reference fetches by outcome.",
		}, []string{"status"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "openapi_store",
			Name:      "fetches_in_flight",
			Help:      "External reference fetches currently pending.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "openapi_store",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent loading an external reference.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
