package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Submissions      *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	AuditWrites      *prometheus.CounterVec
}

// NewMetrics registers the service metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_relay_submissions_total",
			Help: "Total number of form submissions by terminal outcome",
		}, []string{"outcome"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contact_relay_upstream_duration_seconds",
			Help:    "Time spent in upstream calls (store, captcha, token, mail)",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		AuditWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_relay_audit_writes_total",
			Help: "Rejected-domain audit writes by result",
		}, []string{"result"}),
	}
}
