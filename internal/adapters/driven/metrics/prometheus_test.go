package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RegistryRequest(t *testing.T) {
	r := NewRecorder()

	r.RegistryRequest("retry", 2*time.Second)
	r.RegistryRequest("retry", time.Second)
	r.RegistryRequest("ok", 300*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.registryRequests.WithLabelValues("retry")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.registryRequests.WithLabelValues("ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(r.registryRequests.WithLabelValues("not_found")))
}

func TestRecorder_Generation(t *testing.T) {
	r := NewRecorder()

	r.Generation("llama3.2", true, time.Second)
	r.Generation("llama3.2", false, time.Second)
	r.Generation("gpt-4o-mini", true, time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.generations.WithLabelValues("llama3.2", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.generations.WithLabelValues("llama3.2", "false")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.generationTime))
}

func TestRecorder_ReportSaved(t *testing.T) {
	r := NewRecorder()
	r.ReportSaved()
	r.ReportSaved()

	expected := `
# HELP cvescope_reports_saved_total Total number of analysis reports persisted
# TYPE cvescope_reports_saved_total counter
cvescope_reports_saved_total 2
`
	err := testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "cvescope_reports_saved_total")
	assert.NoError(t, err)
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()

	a.ReportSaved()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.reportsSaved))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.reportsSaved))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.RegistryRequest("ok", time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cvescope_registry_requests_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
