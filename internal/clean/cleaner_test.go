package clean

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/triplake/triplake/pkg/types"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"VendorID", "vendor_id"},
		{"Trip Distance", "trip_distance"},
		{"  Fare   Amount ", "fare_amount"},
		{"tpep_pickup_datetime", "tpep_pickup_datetime"},
		{"store_and_fwd_flag", "store_and_fwd_flag"},
		{"Congestion Surcharge", "congestion_surcharge"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeColumn(tt.in), tt.in)
	}
}

// Mirrors the defining example: a chunk of three rows where the second has an
// invalid distance and the third duplicates the first yields exactly one
// cleaned record.
func TestClean_DuplicateAndInvalid(t *testing.T) {
	chunk := []types.RawRow{
		{"Trip Distance": "2.1", "fare_amount": "10"},
		{"Trip Distance": "-1", "fare_amount": "8"},
		{"Trip Distance": "2.1", "fare_amount": "10"},
	}

	cleaner := New()
	rows, tally := cleaner.Clean(chunk)

	assert.Len(t, rows, 1)
	assert.Equal(t, 2.1, rows[0][ColTripDistance])
	assert.Equal(t, 10.0, rows[0][ColFareAmount])
	assert.Equal(t, int64(1), tally.Duplicate)
	assert.Equal(t, int64(1), tally.Invalid)
	assert.Equal(t, int64(0), tally.Outlier)
}

func TestClean_Conservation(t *testing.T) {
	chunk := []types.RawRow{
		{"trip_distance": 2.0, "fare_amount": 10.0},
		{"trip_distance": 2.0, "fare_amount": 10.0},
		{"trip_distance": 0.0, "fare_amount": 10.0},
		{"trip_distance": 3.0, "fare_amount": -4.0},
		{"trip_distance": 2.5, "fare_amount": 11.0},
	}

	rows, tally := New().Clean(chunk)
	assert.Equal(t, int64(len(chunk)), int64(len(rows))+tally.Total())
}

func TestClean_UnknownColumnsIgnored(t *testing.T) {
	chunk := []types.RawRow{
		{"trip_distance": 2.0, "fare_amount": 10.0, "mystery_column": "zzz"},
	}

	rows, _ := New().Clean(chunk)
	assert.Len(t, rows, 1)
	_, present := rows[0]["mystery_column"]
	assert.False(t, present)
}

func TestClean_TemporalParsing(t *testing.T) {
	chunk := []types.RawRow{
		{
			"tpep_pickup_datetime":  "2023-01-01 10:00:00",
			"tpep_dropoff_datetime": "2023-01-01 10:30:00",
			"trip_distance":         "2.0",
			"fare_amount":           "10",
		},
	}

	rows, _ := New().Clean(chunk)
	assert.Len(t, rows, 1)

	pickup, ok := rows[0][ColPickupTime].(time.Time)
	assert.True(t, ok)
	assert.Equal(t, 2023, pickup.Year())
	assert.Equal(t, 30.0, rows[0][ColTripDuration])
}

func TestClean_UnparseableTimestampBecomesMissing(t *testing.T) {
	chunk := []types.RawRow{
		{
			"tpep_pickup_datetime": "not a date",
			"trip_distance":        "2.0",
			"fare_amount":          "10",
		},
	}

	rows, tally := New().Clean(chunk)
	// Not a hard error for the row.
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(0), tally.Total())
	_, present := rows[0][ColPickupTime]
	assert.False(t, present)
}

func TestClean_PickupAfterDropoffDropped(t *testing.T) {
	chunk := []types.RawRow{
		{
			"tpep_pickup_datetime":  "2023-01-01 11:00:00",
			"tpep_dropoff_datetime": "2023-01-01 10:00:00",
			"trip_distance":         "2.0",
			"fare_amount":           "10",
		},
	}

	rows, tally := New().Clean(chunk)
	assert.Len(t, rows, 0)
	assert.Equal(t, int64(1), tally.Invalid)
}

func TestClean_PassengerCountMedianImputation(t *testing.T) {
	chunk := []types.RawRow{
		{"trip_distance": 1.0, "fare_amount": 10.0, "passenger_count": "1"},
		{"trip_distance": 2.0, "fare_amount": 10.0, "passenger_count": "2"},
		{"trip_distance": 3.0, "fare_amount": 10.0, "passenger_count": "4"},
		{"trip_distance": 4.0, "fare_amount": 10.0, "passenger_count": nil},
	}

	rows, _ := New().Clean(chunk)
	assert.Len(t, rows, 4)

	// Median of the non-missing values {1, 2, 4} is 2.
	imputed := rows[3][ColPassengerCount].(types.NullInt)
	assert.True(t, imputed.Valid)
	assert.Equal(t, int64(2), imputed.Int64)
}

func TestClean_MissingNumericSentinel(t *testing.T) {
	chunk := []types.RawRow{
		{"trip_distance": 1.0, "fare_amount": 10.0},
	}

	rows, _ := New().Clean(chunk)
	assert.Len(t, rows, 1)

	// tip_amount was never present; it gets the -1 sentinel.
	assert.Equal(t, -1.0, rows[0][ColTipAmount])
	// vendor_id is integer-typed; the sentinel survives coercion as a
	// valid -1, distinguishable from NULL.
	vendor := rows[0][ColVendorID].(types.NullInt)
	assert.True(t, vendor.Valid)
	assert.Equal(t, int64(-1), vendor.Int64)
}

func TestClean_StoreAndFwdFlagCoercion(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{"Y", "Y"},
		{"y", "Y"},
		{"N", "N"},
		{"n", "N"},
		{"x", "N"},
		{nil, "N"}, // missing → "UNKNOWN" → coerced to "N"
	}

	for _, tt := range tests {
		chunk := []types.RawRow{
			{"trip_distance": 1.0, "fare_amount": 10.0, "store_and_fwd_flag": tt.in},
		}
		rows, _ := New().Clean(chunk)
		assert.Len(t, rows, 1)
		assert.Equal(t, tt.want, rows[0][ColStoreAndFwdFlag], fmt.Sprintf("flag %v", tt.in))
	}
}

func TestClean_IQROutlierRemoval(t *testing.T) {
	chunk := make([]types.RawRow, 0, 10)
	for i := 1; i <= 9; i++ {
		chunk = append(chunk, types.RawRow{
			"trip_distance": float64(i),
			"fare_amount":   10.0,
		})
	}
	// Far outside [Q1-1.5*IQR, Q3+1.5*IQR] for the distances above.
	chunk = append(chunk, types.RawRow{
		"trip_distance": 100.0,
		"fare_amount":   10.0,
	})

	rows, tally := New().Clean(chunk)
	assert.Len(t, rows, 9)
	assert.Equal(t, int64(1), tally.Outlier)
	for _, row := range rows {
		assert.Less(t, row[ColTripDistance].(float64), 100.0)
	}
}

func TestClean_DeterministicAcrossRuns(t *testing.T) {
	chunk := []types.RawRow{
		{"trip_distance": "2.0", "fare_amount": "10", "passenger_count": "3"},
		{"trip_distance": "5.0", "fare_amount": "22", "passenger_count": nil},
	}

	first, firstTally := New().Clean(cloneChunk(chunk))
	second, secondTally := New().Clean(cloneChunk(chunk))

	assert.Equal(t, firstTally, secondTally)
	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func cloneChunk(chunk []types.RawRow) []types.RawRow {
	out := make([]types.RawRow, len(chunk))
	for i, row := range chunk {
		cp := make(types.RawRow, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
