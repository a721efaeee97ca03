package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTripMetricsRecordEvaluation(t *testing.T) {
	registry := NewRegistry("test", "trip")
	m := NewTripMetrics(registry)

	m.RecordEvaluation(50*time.Millisecond, 82.5)

	rec := httptest.NewRecorder()
	registry.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "test_trip_evaluations_total 1")
}

func TestTripMetricsChainRejection(t *testing.T) {
	registry := NewRegistry("test2", "trip")
	m := NewTripMetrics(registry)

	m.RecordChainRejection("chain_integrity")
	m.RecordChainRejection("chain_integrity")
	m.RecordChainRejection("signature_invalid")

	rec := httptest.NewRecorder()
	registry.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `kind="chain_integrity"} 2`)
	require.Contains(t, body, `kind="signature_invalid"} 1`)
}

func TestTripMetricsSessionLifecycle(t *testing.T) {
	registry := NewRegistry("test3", "trip")
	m := NewTripMetrics(registry)

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded("nonce_mismatch")

	rec := httptest.NewRecorder()
	registry.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, "test3_trip_active_verify_sessions 1")
	require.Contains(t, body, `reason="nonce_mismatch"} 1`)
}
