package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triplake/triplake/internal/load"
	"github.com/triplake/triplake/internal/store"
)

const tripCSVHeader = "VendorID,tpep_pickup_datetime,tpep_dropoff_datetime,passenger_count,trip_distance,fare_amount\n"

func newTestPipeline(t *testing.T, chunkSize int) (*Pipeline, *store.TripStore) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(load.NewLoader(s), chunkSize), s
}

func TestIngestFile_RowConservation(t *testing.T) {
	p, s := newTestPipeline(t, 0)

	csv := tripCSVHeader +
		"2,2023-01-01 10:00:00,2023-01-01 10:20:00,1,2.1,10\n" + // good
		"2,2023-01-01 11:00:00,2023-01-01 11:20:00,1,-1,8\n" + // invalid distance
		"2,2023-01-01 10:00:00,2023-01-01 10:20:00,1,2.1,10\n" + // duplicate of row 1
		"1,2023-01-02 09:00:00,2023-01-02 09:15:00,2,1.4,7.5\n" // good

	summary := p.IngestFile(context.Background(), "trips.csv", strings.NewReader(csv))

	assert.Empty(t, summary.Err)
	assert.Equal(t, int64(4), summary.RowsDecoded)
	assert.Equal(t, int64(2), summary.RowsStored)

	// Every decoded row is accounted for exactly once.
	accounted := summary.RowsStored + summary.RejectedTotal() + summary.SchemaFailed + summary.StoreFailed
	assert.Equal(t, summary.RowsDecoded, accounted)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestIngestFile_MalformedFileStopsButKeepsCommitted(t *testing.T) {
	// Chunk size 1: the first row commits before the ragged row is hit.
	p, s := newTestPipeline(t, 1)

	csv := tripCSVHeader +
		"2,2023-01-01 10:00:00,2023-01-01 10:20:00,1,2.1,10\n" +
		"2,2023-01-01 11:00:00\n" + // ragged row
		"1,2023-01-02 09:00:00,2023-01-02 09:15:00,2,1.4,7.5\n"

	summary := p.IngestFile(context.Background(), "trips.csv", strings.NewReader(csv))

	assert.NotEmpty(t, summary.Err)
	assert.Equal(t, int64(1), summary.RowsStored)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIngestFile_UnsupportedExtension(t *testing.T) {
	p, _ := newTestPipeline(t, 0)

	summary := p.IngestFile(context.Background(), "trips.parquet", strings.NewReader("x"))
	assert.NotEmpty(t, summary.Err)
	assert.Equal(t, int64(0), summary.RowsDecoded)
}

func TestIngestFile_NDJSON(t *testing.T) {
	p, _ := newTestPipeline(t, 0)

	ndjson := `{"VendorID": 2, "tpep_pickup_datetime": "2023-01-01 10:00:00", "tpep_dropoff_datetime": "2023-01-01 10:30:00", "trip_distance": 3.2, "fare_amount": 14.5}` + "\n" +
		`{"VendorID": 1, "tpep_pickup_datetime": "2023-01-01 12:00:00", "tpep_dropoff_datetime": "2023-01-01 12:10:00", "trip_distance": 0.9, "fare_amount": 5.0}` + "\n"

	summary := p.IngestFile(context.Background(), "trips.ndjson", strings.NewReader(ndjson))

	assert.Empty(t, summary.Err)
	assert.Equal(t, int64(2), summary.RowsDecoded)
	assert.Equal(t, int64(2), summary.RowsStored)
}

func TestIngestFile_MissingTimestampsFailSchema(t *testing.T) {
	p, _ := newTestPipeline(t, 0)

	csv := "trip_distance,fare_amount\n2.1,10\n"
	summary := p.IngestFile(context.Background(), "trips.csv", strings.NewReader(csv))

	assert.Empty(t, summary.Err)
	assert.Equal(t, int64(1), summary.SchemaFailed)
	assert.Equal(t, int64(0), summary.RowsStored)
}
