package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Outcome("register", "")
	m.Outcome("register", "CAPACITY_EXCEEDED")
	m.Outcome("register", "CAPACITY_EXCEEDED")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("register", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("register", "CAPACITY_EXCEEDED")))

	m.CacheResult("popularity", false)
	m.CacheResult("popularity", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportLoad.WithLabelValues("popularity", "hit")))

	m.ActivityConsumed("feedback.submitted", nil)
	m.ActivityConsumed("feedback.submitted", errors.New("redis down"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Activity.WithLabelValues("feedback.submitted", "error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Outcome("x", "")
	m.CacheResult("x", true)
	m.ActivityConsumed("x", nil)
}

func TestDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
