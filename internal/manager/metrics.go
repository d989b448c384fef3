package manager

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the request metrics. A nil *metrics records nothing.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entity_manager",
			Name:      "requests_total",
			Help:      "Total requests sent, by method and outcome",
		}, []string{"method", "outcome"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "entity_manager",
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds, by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	requests, err := register(reg, m.requests)
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, m.duration)
	if err != nil {
		return nil, err
	}

	m.requests = requests
	m.duration = duration

	return m, nil
}

// register registers c, reusing an identical collector that is already
// registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return c, err
}

func (m *metrics) observe(method string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	m.requests.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
