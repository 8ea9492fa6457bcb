package reshape

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus metrics for the read operations.
// A nil *Metrics records nothing.
type Metrics struct {
	Calls    *prometheus.CounterVec
	Rows     *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics registers the metrics against reg, defaulting to the global registry when nil.
// Registering twice against the same registry returns the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	calls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gnsstab_reads_total",
		Help: "Total number of read operations, labeled by operation and result.",
	}, []string{"op", "result"}), "gnsstab_reads_total")
	if err != nil {
		return nil, err
	}

	rows, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gnsstab_rows_total",
		Help: "Total number of table rows produced, labeled by operation.",
	}, []string{"op"}), "gnsstab_rows_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gnsstab_read_duration_seconds",
		Help:    "Read operation latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"op"})
	if err := reg.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("collector gnsstab_read_duration_seconds already registered with incompatible type")
		}
		duration = existing
	}

	return &Metrics{Calls: calls, Rows: rows, Duration: duration}, nil
}

// observe records one finished operation.
func (m *Metrics) observe(op string, start time.Time, rows int, err error) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(op, kindLabel(err)).Inc()
	if err == nil {
		m.Rows.WithLabelValues(op).Add(float64(rows))
	}
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
