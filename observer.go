package sessionlock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeAcquired  = "acquired"
	outcomeContended = "contended"
	outcomeReleased  = "released"
	outcomeError     = "error"
)

// Metrics collects prometheus metrics for lock operations. Attach it to a
// Service with WithMetrics; a Service without Metrics skips all observation.
type Metrics struct {
	acquireTotal *prometheus.CounterVec
	releaseTotal *prometheus.CounterVec
	waitDuration prometheus.Histogram
}

// NewMetrics creates the lock service collectors and registers them with the
// given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		acquireTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionlock",
			Name:      "acquire_total",
			Help:      "Lock acquisition attempts by outcome.",
		}, []string{"outcome"}),
		releaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionlock",
			Name:      "release_total",
			Help:      "Lock release attempts by outcome.",
		}, []string{"outcome"}),
		waitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sessionlock",
			Name:      "wait_seconds",
			Help:      "Time spent in WaitForLock until the lock was obtained.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		}),
	}

	reg.MustRegister(m.acquireTotal, m.releaseTotal, m.waitDuration)
	return m
}

func (s *Service) observeAcquire(outcome string) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.acquireTotal.WithLabelValues(outcome).Inc()
}

func (s *Service) observeRelease(outcome string) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.releaseTotal.WithLabelValues(outcome).Inc()
}

func (s *Service) observeWait(d time.Duration) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.waitDuration.Observe(d.Seconds())
}
