package observ

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncCounterAccumulatesByCanonicalLabelKey(t *testing.T) {
	name := "test_counter_" + t.Name()
	IncCounter(name, map[string]string{"symbol": "EURUSD"})
	IncCounter(name, map[string]string{"symbol": "EURUSD"})
	IncCounter(name, map[string]string{"symbol": "GBPUSD"})

	assert.Equal(t, int64(2), reg.counters[name]["symbol=EURUSD"])
	assert.Equal(t, int64(1), reg.counters[name]["symbol=GBPUSD"])
}

func TestIncCounterByAddsArbitraryAmount(t *testing.T) {
	name := "test_counter_by_" + t.Name()
	IncCounterBy(name, nil, 5)
	IncCounterBy(name, nil, 3)
	assert.Equal(t, int64(8), reg.counters[name][""])
}

func TestCanonLabelsOrderIndependent(t *testing.T) {
	a := canonLabels(map[string]string{"b": "2", "a": "1"})
	b := canonLabels(map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "a=1,b=2", a)
}

func TestSetGaugeOverwritesPreviousValue(t *testing.T) {
	name := "test_gauge_" + t.Name()
	SetGauge(name, 1.5, nil)
	SetGauge(name, 2.5, nil)
	assert.Equal(t, 2.5, reg.gauges[name][""])
}

func TestObserveAppendsSamples(t *testing.T) {
	name := "test_hist_" + t.Name()
	Observe(name, 10, nil)
	Observe(name, 20, nil)
	assert.Equal(t, []float64{10, 20}, reg.hist[name][""])
}

func TestHandlerServesJSONDump(t *testing.T) {
	name := "test_dump_" + t.Name()
	SetGauge(name, 1, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "gauges")
}

func TestHealthHandlerReturnsHealthyWithNoData(t *testing.T) {
	SetVersion("test-version")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	HealthHandler().ServeHTTP(rec, req)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "test-version", status.Version)
	assert.NotEmpty(t, status.Timestamp)
}

func TestHealthHandlerDegradesOnStaleSymbol(t *testing.T) {
	SetGauge("symbol_stale", 1, map[string]string{"symbol": "EURUSD"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	HealthHandler().ServeHTTP(rec, req)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
}

func TestHealthPlainLivenessAlwaysOK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	Health().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestP95ReturnsZeroForNoSamples(t *testing.T) {
	assert.Equal(t, int64(0), p95(map[string][]float64{"a": {}}))
}

func TestP95ReturnsHighPercentileSample(t *testing.T) {
	got := p95(map[string][]float64{"a": {1, 2, 3, 4, 5, 6, 7, 8, 9, 10}})
	assert.GreaterOrEqual(t, got, int64(9))
}
