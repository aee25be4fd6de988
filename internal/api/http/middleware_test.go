package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/triplake/triplake/internal/observability"
)

func TestRequestIDMiddleware_GeneratesAndEchoes(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetRequestID(r.Context()))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// A caller-provided id is preserved.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware_ReturnsInternalError(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestStatsHandler_ReportsSnapshot(t *testing.T) {
	stats := observability.NewIngestStats()
	stats.RecordFile(observability.FileSummary{File: "jan.csv", RowsDecoded: 10, RowsStored: 9})

	handler := DefaultMiddleware("")(NewStatsHandler(stats))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ingest/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows_stored":9`)
	assert.Contains(t, rec.Body.String(), "jan.csv")
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
