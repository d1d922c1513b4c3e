package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.IncrementCertificatesGenerated()
	m.IncrementCertificatesGenerated()
	m.AddRowsSkipped(3)
	m.AddRowsSkipped(0)
	m.ObserveGeneration(time.Now(), OutcomeCompleted)
	m.IncrementVerification(OutcomeNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CertificatesGenerated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRuns.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GenerationRuns.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues(OutcomeNotFound)))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.IncrementCertificatesGenerated()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CertificatesGenerated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CertificatesGenerated))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncrementCertificatesGenerated()
		m.AddRowsSkipped(1)
		m.ObserveGeneration(time.Now(), OutcomeFailed)
		m.IncrementVerification(OutcomeVerified)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IncrementVerification(OutcomeVerified)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `certgen_verifications_total{outcome="verified"} 1`))
}
