package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutations and the health of their persistence.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	failures  *prometheus.CounterVec
	flush     prometheus.Histogram
	pending   prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_failures_total",
		Help: "Failed cart writes, by persistence mode.",
	}, []string{"mode"})
	flush := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_flush_duration_seconds",
		Help:    "Duration of write-behind flush passes.",
		Buckets: prometheus.DefBuckets,
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_flush_pending",
		Help: "Owners with unsaved cart state.",
	})
	reg.MustRegister(mutations, failures, flush, pending)
	return &CartMetrics{
		mutations: mutations,
		failures:  failures,
		flush:     flush,
		pending:   pending,
	}
}

// IncMutation counts one applied mutation.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistFailure counts a failed write in the given mode (sync or async).
func (c *CartMetrics) IncPersistFailure(mode string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(mode)).Inc()
}

func (c *CartMetrics) ObserveFlush(duration time.Duration) {
	if c == nil || c.flush == nil {
		return
	}
	c.flush.Observe(duration.Seconds())
}

func (c *CartMetrics) SetPending(n int) {
	if c == nil || c.pending == nil {
		return
	}
	c.pending.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
