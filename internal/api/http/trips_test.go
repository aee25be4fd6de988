package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triplake/triplake/internal/query"
	"github.com/triplake/triplake/internal/store"
	"github.com/triplake/triplake/pkg/types"
)

func newTripsServer(t *testing.T, n int, apiKey string) http.Handler {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		pickup := base.Add(time.Duration(i) * time.Hour)
		_, err := s.InsertTrip(context.Background(), &types.TripRecord{
			PickupTime:      pickup,
			DropoffTime:     pickup.Add(20 * time.Minute),
			TripDistance:    2.0,
			FareAmount:      10.0,
			StoreAndFwdFlag: "N",
			TripDuration:    20.0,
		})
		require.NoError(t, err)
	}

	return DefaultMiddleware(apiKey)(NewTripsHandler(query.NewEngine(s)))
}

func getTrips(t *testing.T, handler http.Handler, url, apiKey string) (*httptest.ResponseRecorder, TripsResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp TripsResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestTripsHandler_PaginatedListing(t *testing.T) {
	handler := newTripsServer(t, 5, "")

	rec, resp := getTrips(t, handler, "/v1/trips?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.HasMore)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, int64(2), *resp.NextCursor)
	assert.NotEmpty(t, resp.RequestID)

	rec, resp = getTrips(t, handler, "/v1/trips?limit=2&cursor=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(5), resp.Data[0].ID)
	assert.False(t, resp.HasMore)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, int64(5), *resp.NextCursor)
}

func TestTripsHandler_DateFilter(t *testing.T) {
	handler := newTripsServer(t, 5, "")

	rec, resp := getTrips(t, handler, "/v1/trips?start_date=2023-01-01T09:00:00&end_date=2023-01-01T10:00:00", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 2)
}

func TestTripsHandler_BadParameters(t *testing.T) {
	handler := newTripsServer(t, 1, "")

	for _, url := range []string{
		"/v1/trips?start_date=not-a-date",
		"/v1/trips?cursor=abc",
		"/v1/trips?cursor=-4",
		"/v1/trips?limit=zero",
		"/v1/trips?limit=0",
	} {
		rec, _ := getTrips(t, handler, url, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestTripsHandler_InvertedDateRangeIsClientError(t *testing.T) {
	handler := newTripsServer(t, 1, "")

	rec, _ := getTrips(t, handler, "/v1/trips?start_date=2023-02-01T00:00:00&end_date=2023-01-01T00:00:00", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "start_date must not be after end_date")
}

func TestTripsHandler_EmptyStoreReturnsEmptyArray(t *testing.T) {
	handler := newTripsServer(t, 0, "")

	rec, _ := getTrips(t, handler, "/v1/trips", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestTripsHandler_MethodNotAllowed(t *testing.T) {
	handler := newTripsServer(t, 0, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/trips", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTripsHandler_APIKey(t *testing.T) {
	handler := newTripsServer(t, 1, "secret")

	rec, _ := getTrips(t, handler, "/v1/trips", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = getTrips(t, handler, "/v1/trips", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := getTrips(t, handler, "/v1/trips", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)
}
