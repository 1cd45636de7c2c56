package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbor/internal/platform/metrics"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	m := metrics.New(prometheus.NewRegistry())
	h := Recovery(testLogger(&logs), m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trees/tree-001", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal_error", body["error"])
	assert.Empty(t, body["error_description"])
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PanicsRecovered))
}

func TestLogger(t *testing.T) {
	var logs bytes.Buffer
	h := Logger(testLogger(&logs))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/sites", nil))

	out := logs.String()
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/sites")
	assert.Contains(t, out, "status=201")
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		want        int
	}{
		{"json post", http.MethodPost, "application/json", `{}`, http.StatusNoContent},
		{"json with charset", http.MethodPut, "application/json; charset=utf-8", `{}`, http.StatusNoContent},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", "a=b", http.StatusUnsupportedMediaType},
		{"get ignores header", http.MethodGet, "", "", http.StatusNoContent},
		{"empty post", http.MethodPost, "", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/trees", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLatencyUsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Get("/trees/{treeID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"tree-001", "tree-002"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/trees/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/trees/{treeID}", "200")))
}
