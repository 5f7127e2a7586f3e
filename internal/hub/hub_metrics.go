package hub

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the hub subsystem.
type Metrics struct {
	ActionsTotal       *prometheus.CounterVec
	DeliveriesTotal    *prometheus.CounterVec
	DispatchDuration   prometheus.Histogram
	DispatchRecipients prometheus.Histogram
	DispatchFailures   prometheus.Histogram
}

// NewMetrics registers and returns hub metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actionhub_actions_total",
			Help: "Total audited hub actions by action type.",
		}, []string{"action"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actionhub_deliveries_total",
			Help: "Total per-recipient delivery attempts by outcome.",
		}, []string{"outcome"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actionhub_dispatch_duration_seconds",
			Help:    "Duration of notification dispatch calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}),
		DispatchRecipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actionhub_dispatch_recipients",
			Help:    "Recipients per dispatch call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 .. 512
		}),
		DispatchFailures: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actionhub_dispatch_failures",
			Help:    "Failed deliveries per dispatch call.",
			Buckets: prometheus.LinearBuckets(0, 1, 16), // 0 .. 15
		}),
	}

	reg.MustRegister(
		m.ActionsTotal,
		m.DeliveriesTotal,
		m.DispatchDuration,
		m.DispatchRecipients,
		m.DispatchFailures,
	)

	return m
}

// Hooks returns a DispatchHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() DispatchHooks {
	return DispatchHooks{
		OnDelivery: func(success bool) {
			outcome := "success"
			if !success {
				outcome = "failure"
			}
			m.DeliveriesTotal.WithLabelValues(outcome).Inc()
		},
		OnComplete: func(recipients int, duration float64, _, failureCount int) {
			m.DispatchDuration.Observe(duration)
			m.DispatchRecipients.Observe(float64(recipients))
			m.DispatchFailures.Observe(float64(failureCount))
		},
	}
}
