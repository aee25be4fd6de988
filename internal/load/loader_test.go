package load

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triplake/triplake/internal/store"
	"github.com/triplake/triplake/pkg/types"
)

func loaderRecord(pickup time.Time) *types.TripRecord {
	return &types.TripRecord{
		PickupTime:      pickup,
		DropoffTime:     pickup.Add(10 * time.Minute),
		TripDistance:    1.8,
		FareAmount:      9.5,
		StoreAndFwdFlag: "N",
		TripDuration:    10.0,
	}
}

func TestLoadBatch_FailureDoesNotAbortBatch(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC)
	bad := loaderRecord(base.Add(time.Hour))
	bad.FareAmount = 0 // fails the store's fare constraint

	records := []*types.TripRecord{
		loaderRecord(base),
		bad,
		loaderRecord(base.Add(2 * time.Hour)),
	}

	res, err := NewLoader(s).LoadBatch(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Stored)
	assert.Equal(t, int64(1), res.Failed)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLoadBatch_CancelledContextStopsEarly(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewLoader(s).LoadBatch(ctx, []*types.TripRecord{
		loaderRecord(time.Date(2023, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.Error(t, err)
	assert.Equal(t, int64(0), res.Stored)
}
