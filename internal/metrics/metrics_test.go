package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/users/{id}", 404, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/users/{id}", 404, 30*time.Millisecond)
	m.ObserveScenario("PASSED")
	m.ObserveScenario("FAILED")
	m.ObserveScenario("PASSED")
	m.ObserveAttempt()
	m.ObserveAttempt()
	m.ObserveAttempt()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scenariosTotal.WithLabelValues("PASSED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scenariosTotal.WithLabelValues("FAILED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.scenarioAttempts))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `harness_http_request_duration_seconds_count{method="GET",route="/users/{id}",status="404"} 2`)
	assert.Contains(t, string(body), `harness_scenario_attempts_total 3`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveAttempt()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.scenarioAttempts))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.scenarioAttempts))
}
