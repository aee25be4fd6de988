package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/internal/query"
	"github.com/triplake/triplake/pkg/types"
)

// dateLayouts are accepted for the start_date and end_date parameters.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// TripsResponse is the paginated trip listing.
type TripsResponse struct {
	Data       []types.StoredTrip `json:"data"`
	NextCursor *int64             `json:"next_cursor"`
	HasMore    bool               `json:"has_more"`
	RequestID  string             `json:"request_id"`
}

// TripsHandler handles GET /v1/trips requests.
type TripsHandler struct {
	engine *query.Engine
}

// NewTripsHandler creates a trips handler over engine.
func NewTripsHandler(engine *query.Engine) *TripsHandler {
	return &TripsHandler{engine: engine}
}

// ServeHTTP handles the trip listing HTTP request.
func (h *TripsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	params, err := parseTripParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	page, err := h.engine.Query(r.Context(), params)
	if err != nil {
		// Parameter validation failures belong to the caller.
		if terrors.GetCategory(err) == terrors.ErrCategoryQuery {
			writeError(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err), requestID)
		return
	}

	resp := TripsResponse{
		Data:       page.Data,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		RequestID:  requestID,
	}
	if resp.Data == nil {
		resp.Data = []types.StoredTrip{}
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseTripParams(r *http.Request) (query.Params, error) {
	var params query.Params
	q := r.URL.Query()

	if raw := q.Get("start_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return params, fmt.Errorf("invalid start_date: %q", raw)
		}
		params.StartDate = &t
	}
	if raw := q.Get("end_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return params, fmt.Errorf("invalid end_date: %q", raw)
		}
		params.EndDate = &t
	}
	if raw := q.Get("cursor"); raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || cursor < 0 {
			return params, fmt.Errorf("invalid cursor: %q", raw)
		}
		params.Cursor = &cursor
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return params, fmt.Errorf("invalid limit: %q", raw)
		}
		params.Limit = limit
	}

	return params, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
