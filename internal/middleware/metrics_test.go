package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, p := range []string{"/ok", "/ok", "/fail"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	m.IncrementAnalyses()
	m.IncrementAnalysesFailed()
	m.BackgroundFailure("persist")
	m.BackgroundFailure("persist")
	m.BackgroundFailure("synthesize")

	rec := httptest.NewRecorder()
	m.Handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["requests_total"])
	assert.EqualValues(t, 2, body["requests_success"])
	assert.EqualValues(t, 1, body["requests_failed"])
	assert.EqualValues(t, 0, body["requests_in_progress"])
	assert.EqualValues(t, 1, body["analyses_total"])
	assert.EqualValues(t, 1, body["analyses_failed"])
	assert.Equal(t, map[string]any{"persist": float64(2), "synthesize": float64(1)}, body["background_failures"])
}
