package http

import (
	"net/http"

	"github.com/triplake/triplake/internal/observability"
)

// StatsHandler handles GET /v1/ingest/stats requests.
type StatsHandler struct {
	stats *observability.IngestStats
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(stats *observability.IngestStats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// ServeHTTP reports the ingestion counters accumulated so far.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

// HealthHandler handles GET /v1/healthz requests. It bypasses the API key
// check so load balancers can probe it.
type HealthHandler struct{}

// ServeHTTP reports liveness.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
