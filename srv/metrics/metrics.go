// Package metrics exposes Prometheus collectors for the feature service
// query path and the selection state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kataster_queries_total",
		Help: "Total feature service queries by kind",
	}, []string{"kind"})
	QueryErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kataster_query_errors_total",
		Help: "Total failed feature service queries by kind",
	}, []string{"kind"})
	QueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kataster_query_duration_ms",
		Help:    "Feature service query duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"kind"})
	IdentifyMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kataster_identify_misses_total",
		Help: "Total identify requests that resolved to no parcel",
	})
	SelectionSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kataster_selection_size",
		Help: "Number of currently selected geometry versions",
	})
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryErrorsTotal)
	prometheus.MustRegister(QueryDurationMs)
	prometheus.MustRegister(IdentifyMissesTotal)
	prometheus.MustRegister(SelectionSize)
}

// Handler returns the Prometheus scrape handler, mounted at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
