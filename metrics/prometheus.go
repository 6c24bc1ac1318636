package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records engine events into a prometheus registry.
type Prometheus struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheus registers the collectors with the default registerer.
func NewPrometheus() Recorder {
	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "x402_gate",
			Name:      "events_total",
			Help:      "payment protocol event counters",
		},
		[]string{"event", "chain"},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "x402_gate",
			Name:      "latency_seconds",
			Help:      "ledger verification latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "chain"},
	)

	prometheus.MustRegister(counters, histogram)

	return &Prometheus{
		counters:  counters,
		histogram: histogram,
	}
}

func (p *Prometheus) IncCounter(name string, chain string) {
	p.counters.WithLabelValues(name, chain).Inc()
}

func (p *Prometheus) ObserveLatency(name string, chain string, d time.Duration) {
	p.histogram.WithLabelValues(name, chain).Observe(d.Seconds())
}
