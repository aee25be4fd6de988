// Package load commits validated trip records to the store, one transaction
// per record.
package load

import (
	"context"
	"log"

	"github.com/triplake/triplake/internal/store"
	"github.com/triplake/triplake/pkg/types"
)

// Result summarizes one batch of loads.
type Result struct {
	Stored int64
	Failed int64
}

// Loader writes records to the trip store. Each record commits or rolls back
// on its own; a failed record never blocks the ones behind it.
type Loader struct {
	store *store.TripStore
}

// NewLoader creates a Loader backed by s.
func NewLoader(s *store.TripStore) *Loader {
	return &Loader{store: s}
}

// LoadBatch inserts records in order. Insert failures are logged and counted
// but do not abort the batch; only context cancellation stops it early.
func (l *Loader) LoadBatch(ctx context.Context, records []*types.TripRecord) (Result, error) {
	var res Result

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if _, err := l.store.InsertTrip(ctx, rec); err != nil {
			log.Printf("load: insert failed for trip pickup=%s: %v", rec.PickupTime.Format("2006-01-02 15:04:05"), err)
			res.Failed++
			continue
		}
		res.Stored++
	}

	return res, nil
}
