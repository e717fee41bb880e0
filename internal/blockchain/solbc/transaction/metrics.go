// internal/blockchain/solbc/transaction/metrics.go
package transaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	submittedCounter  prometheus.Counter
	failedCounter     prometheus.Counter
	simulatedCounter  prometheus.Counter
	durationHistogram prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg. При reg == nil метрики
// не регистрируются, что позволяет создавать несколько менеджеров в тестах.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submittedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pumpfun_txkit_submitted_total",
			Help: "Total number of confirmed transactions",
		}),
		failedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pumpfun_txkit_failed_total",
			Help: "Total number of failed submissions",
		}),
		simulatedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pumpfun_txkit_simulated_total",
			Help: "Total number of simulated transactions",
		}),
		durationHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pumpfun_txkit_submit_duration_seconds",
			Help:    "Submission duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.submittedCounter, m.failedCounter, m.simulatedCounter, m.durationHistogram)
	}
	return m
}

func (m *Metrics) TrackSubmission(start time.Time) {
	m.durationHistogram.Observe(time.Since(start).Seconds())
}

// Observe увеличивает счётчик, соответствующий исходу отправки.
func (m *Metrics) Observe(result Result, err error) {
	if err != nil {
		m.failedCounter.Inc()
		return
	}
	switch result.(type) {
	case Submitted:
		m.submittedCounter.Inc()
	case Simulated:
		m.simulatedCounter.Inc()
	default:
		m.failedCounter.Inc()
	}
}
