package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for store loads and queries.
type Metrics struct {
	StoreLoads        *prometheus.CounterVec // labels: outcome={success,error}
	StoreLoadDuration prometheus.Histogram
	StoreCities       prometheus.Gauge
	StoreDays         prometheus.Gauge

	Queries   *prometheus.CounterVec // labels: mode={overall,year,month}, outcome={success,empty,not_found,invalid,error}
	Describes *prometheus.CounterVec // labels: outcome={success,empty}
}

func newMetrics() *Metrics {
	return &Metrics{
		StoreLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "japan_temperature",
			Name:      "store_loads_total",
			Help:      "Store loads by outcome.",
		}, []string{"outcome"}),
		StoreLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "japan_temperature",
			Name:      "store_load_duration_seconds",
			Help:      "Duration of a complete fetch and load of the feed.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		StoreCities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "japan_temperature",
			Name:      "store_cities",
			Help:      "Cities with complete data in the published store.",
		}),
		StoreDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "japan_temperature",
			Name:      "store_days",
			Help:      "Days covered by the published store.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "japan_temperature",
			Name:      "queries_total",
			Help:      "Temperature queries by mode and outcome.",
		}, []string{"mode", "outcome"}),
		Describes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "japan_temperature",
			Name:      "describes_total",
			Help:      "Descriptive statistics requests by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StoreLoads,
		m.StoreLoadDuration,
		m.StoreCities,
		m.StoreDays,
		m.Queries,
		m.Describes,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
