package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions       *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	activeOrders    *prometheus.GaugeVec
	evaluateLatency prometheus.Histogram
	limiterWait     prometheus.Histogram
	reapedEntries   prometheus.Counter
	ordersPlaced    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_admission_decisions_total",
				Help: "Total admission decisions by outcome and conflict type",
			},
			[]string{"outcome", "conflict"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		activeOrders: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradegate_active_orders",
				Help: "In-flight registered orders per symbol",
			},
			[]string{"symbol"},
		),
		evaluateLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradegate_evaluate_duration_seconds",
				Help:    "Duration of admission evaluations in seconds",
				Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
			},
		),
		limiterWait: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradegate_ratelimit_wait_seconds",
				Help:    "Time spent blocked on the exchange rate limiter",
				Buckets: prometheus.DefBuckets,
			},
		),
		reapedEntries: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tradegate_reaped_entries_total",
				Help: "Registry and timing-history entries evicted by the reaper",
			},
		),
		ordersPlaced: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_orders_placed_total",
				Help: "Orders placed against the exchange after admission",
			},
			[]string{"symbol", "side"},
		),
	}
}

// RecordDecision records an admission outcome; conflict is empty when admitted.
func (r *Recorder) RecordDecision(outcome, conflictType string) {
	if conflictType == "" {
		conflictType = "none"
	}
	r.decisions.WithLabelValues(outcome, conflictType).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordEvaluateLatency records one evaluation's duration in seconds.
func (r *Recorder) RecordEvaluateLatency(seconds float64) {
	r.evaluateLatency.Observe(seconds)
}

// RecordLimiterWait records time spent blocked on the rate limiter.
func (r *Recorder) RecordLimiterWait(seconds float64) {
	r.limiterWait.Observe(seconds)
}

// RecordReap records entries evicted by a reaper sweep.
func (r *Recorder) RecordReap(removed int) {
	r.reapedEntries.Add(float64(removed))
}

// SetActiveOrders records the current in-flight count for a symbol.
func (r *Recorder) SetActiveOrders(symbol string, n int) {
	r.activeOrders.WithLabelValues(symbol).Set(float64(n))
}

// RecordOrderPlaced records a successfully placed exchange order.
func (r *Recorder) RecordOrderPlaced(symbol, side string) {
	r.ordersPlaced.WithLabelValues(symbol, side).Inc()
}
