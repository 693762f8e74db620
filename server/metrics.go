package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filterOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cocstats_filter_applications_total",
		Help: "Filter applications by outcome",
	}, []string{"outcome"})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cocstats_exports_total",
		Help: "PDF exports by result",
	}, []string{"result"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cocstats_sessions_active",
		Help: "Sessions currently held in memory",
	})

	storeRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cocstats_store_records",
		Help: "Records loaded from the source",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cocstats_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"route"})
)

// instrument records request latency under the matched chi route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
