package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestRecorder_RecordAnalysis(t *testing.T) {
	r := New()
	r.RecordAnalysis(core.AnalyticsResult{
		Forecast: core.Forecast{Method: core.LinearTrend},
		Recommendations: []core.Recommendation{
			{Topic: "trend", Severity: core.SeverityInfo},
			{Topic: "savings_rate", Severity: core.SeverityWarning},
		},
	}, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("linear_trend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.recommendations.WithLabelValues("savings_rate", "warning")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.analysisLatency))
}

func TestRecorder_Counters(t *testing.T) {
	r := New()
	r.RecordImport(7, 2)
	r.RecordImport(1, 0)
	r.RecordHTTP("/api/summary", 200, time.Millisecond)
	r.RecordDigest(nil)
	r.RecordDigest(errors.New("down"))

	assert.Equal(t, 8.0, testutil.ToFloat64(r.importedRows.WithLabelValues("imported")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.importedRows.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/summary", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.digests.WithLabelValues("failed")))
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordImport(1, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.importedRows.WithLabelValues("imported")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RecordDigest(nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `fintrack_worker_digests_total{outcome="published"} 1`)
}
