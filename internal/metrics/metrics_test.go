package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.Submissions.WithLabelValues("sent").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Submissions.WithLabelValues("sent")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Submissions.WithLabelValues("sent")))
}
