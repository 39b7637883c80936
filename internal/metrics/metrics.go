package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "evaluations_total", Help: "Completed evaluation passes"},
		[]string{"mode"},
	)
	ItemsScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "items_scored_total", Help: "Per-item scoring outcomes"},
		[]string{"outcome"},
	)
	FeedTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_timeouts_total", Help: "External data calls abandoned on timeout"},
	)
	FeedDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_denied_total", Help: "External data calls skipped by the deny-list"},
	)
	FeedReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Connection resets after a timed-out call"},
	)
	BarsCachedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bars_cached_total", Help: "Historical bars persisted to the local cache"},
	)
	FeedbackEvaluatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feedback_evaluated_total", Help: "Feedback records closed after their horizon"},
	)
)

func init() {
	prometheus.MustRegister(
		EvaluationsTotal,
		ItemsScoredTotal,
		FeedTimeoutsTotal,
		FeedDeniedTotal,
		FeedReconnectsTotal,
		BarsCachedTotal,
		FeedbackEvaluatedTotal,
	)
}

// Serve exposes /metrics on addr and returns the server for shutdown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
