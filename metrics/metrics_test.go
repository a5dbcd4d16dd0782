package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := Register(prometheus.NewRegistry())

	m.ObserveCheck("LoginPage", OutcomeOpen)
	m.ObserveCheck("LoginPage", OutcomeOpen)
	m.ObserveCheck("LoginPage", OutcomeClosed)
	m.ObserveRule("url", "pass", 10*time.Millisecond)
	m.ObserveIdentify(OutcomeNoMatch)
	m.ObserveLegacyFallback("HomePage")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PageChecks.WithLabelValues("LoginPage", OutcomeOpen)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PageChecks.WithLabelValues("LoginPage", OutcomeClosed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleEvaluations.WithLabelValues("url", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Identifications.WithLabelValues(OutcomeNoMatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LegacyFallbackUsed.WithLabelValues("HomePage")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RuleEvalDuration))
}

func TestRegisterTwicePanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	Register(reg)
	assert.Panics(t, func() { Register(reg) })
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCheck("p", OutcomeError)
		m.ObserveRule("title", "fail", time.Second)
		m.ObserveIdentify(OutcomeMatch)
		m.ObserveLegacyFallback("p")
	})
}
