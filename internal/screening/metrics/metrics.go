package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for watchlist screening.
type Metrics struct {
	CacheLookups  *prometheus.CounterVec
	ScreenLatency *prometheus.HistogramVec
}

// New creates screening metrics registered with the default registry.
func New() *Metrics {
	return &Metrics{
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_screening_cache_lookups_total",
			Help: "Screening cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"

		ScreenLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycgate_screening_duration_seconds",
			Help:    "Duration of uncached screening calls by provider",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"provider"}),
	}
}

func (m *Metrics) IncCacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) IncCacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ObserveScreenLatency(provider string, d time.Duration) {
	if m != nil {
		m.ScreenLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}
