// Package store persists validated trip records in SQLite and serves
// keyset-paginated reads over them. One write connection in WAL mode takes
// all inserts; a small read-only pool serves queries concurrently.
package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/pkg/types"
)

// PageFilter selects one page of stored trips. Cursor is exclusive: rows
// with id strictly greater than it qualify. Date bounds are inclusive and
// apply to the pickup timestamp.
type PageFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Cursor    *int64
	Limit     int
}

// TripStore is the durable trip store. Safe for concurrent use; writes are
// serialized on the single write connection.
type TripStore struct {
	db     *sql.DB // write connection, single writer
	readDB *sql.DB // read-only pool
	path   string
	mu     sync.Mutex

	insertStmt *sql.Stmt
}

// Open opens (creating if necessary) the trip database at path.
func Open(path string) (*TripStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, terrors.NewStoreError(terrors.CodeOpenFailed, "failed to open trip database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	readDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, terrors.NewStoreError(terrors.CodeOpenFailed, "failed to open read connection", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)

	s := &TripStore{db: db, readDB: readDB, path: path}

	if err := s.initSchema(); err != nil {
		readDB.Close()
		db.Close()
		return nil, err
	}

	insertStmt, err := db.Prepare(insertTripSQL)
	if err != nil {
		readDB.Close()
		db.Close()
		return nil, terrors.NewStoreError(terrors.CodeOpenFailed, "failed to prepare insert statement", err)
	}
	s.insertStmt = insertStmt

	return s, nil
}

func (s *TripStore) initSchema() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range schemaSQL() {
		if _, err := s.db.Exec(stmt); err != nil {
			return terrors.NewStoreError(terrors.CodeOpenFailed, "failed to initialize schema", err)
		}
	}
	return nil
}

// InsertTrip stores one record in its own transaction and returns the
// assigned identifier. A failed insert rolls back and leaves no trace; the
// identifier it would have consumed may still be burned, so readers must
// never assume ids are contiguous.
func (s *TripStore) InsertTrip(ctx context.Context, rec *types.TripRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, terrors.NewStoreError(terrors.CodeInsertFailed, "failed to begin transaction", err)
	}

	res, err := tx.StmtContext(ctx, s.insertStmt).ExecContext(ctx,
		rec.VendorID,
		rec.PickupTime.UnixNano(),
		rec.DropoffTime.UnixNano(),
		rec.PassengerCount,
		rec.TripDistance,
		rec.RateCodeID,
		rec.StoreAndFwdFlag,
		rec.PULocationID,
		rec.DOLocationID,
		rec.PaymentType,
		rec.FareAmount,
		rec.Extra,
		rec.MTATax,
		rec.TipAmount,
		rec.TollsAmount,
		rec.ImprovementSurcharge,
		rec.TotalAmount,
		rec.CongestionSurcharge,
		rec.AirportFee,
		rec.TripDuration,
	)
	if err != nil {
		tx.Rollback()
		return 0, terrors.NewStoreError(terrors.CodeInsertFailed, "failed to insert trip", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, terrors.NewStoreError(terrors.CodeInsertFailed, "failed to read assigned id", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, terrors.NewStoreError(terrors.CodeInsertFailed, "failed to commit trip", err)
	}

	return id, nil
}

// SelectPage returns up to filter.Limit trips matching the filter, ordered
// by ascending id, plus whether more rows exist past the page. The store
// probes with limit+1 rather than counting, so hasMore stays cheap on large
// tables.
func (s *TripStore) SelectPage(ctx context.Context, filter PageFilter) ([]types.StoredTrip, bool, error) {
	query := selectTripsSQL
	args := make([]interface{}, 0, 4)

	cursor := int64(0)
	if filter.Cursor != nil {
		cursor = *filter.Cursor
	}
	args = append(args, cursor)

	if filter.StartDate != nil {
		query += " AND pickup_time >= ?"
		args = append(args, filter.StartDate.UnixNano())
	}
	if filter.EndDate != nil {
		query += " AND pickup_time <= ?"
		args = append(args, filter.EndDate.UnixNano())
	}

	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, filter.Limit+1)

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, terrors.NewStoreError(terrors.CodeScanFailed, "failed to query trips", err)
	}
	defer rows.Close()

	trips := make([]types.StoredTrip, 0, filter.Limit)
	for rows.Next() {
		var t types.StoredTrip
		var pickupNanos, dropoffNanos int64
		if err := rows.Scan(
			&t.ID,
			&t.VendorID,
			&pickupNanos,
			&dropoffNanos,
			&t.PassengerCount,
			&t.TripDistance,
			&t.RateCodeID,
			&t.StoreAndFwdFlag,
			&t.PULocationID,
			&t.DOLocationID,
			&t.PaymentType,
			&t.FareAmount,
			&t.Extra,
			&t.MTATax,
			&t.TipAmount,
			&t.TollsAmount,
			&t.ImprovementSurcharge,
			&t.TotalAmount,
			&t.CongestionSurcharge,
			&t.AirportFee,
			&t.TripDuration,
		); err != nil {
			return nil, false, terrors.NewStoreError(terrors.CodeScanFailed, "failed to scan trip row", err)
		}
		t.PickupTime = time.Unix(0, pickupNanos).UTC()
		t.DropoffTime = time.Unix(0, dropoffNanos).UTC()
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, terrors.NewStoreError(terrors.CodeScanFailed, "failed to iterate trip rows", err)
	}

	hasMore := len(trips) > filter.Limit
	if hasMore {
		trips = trips[:filter.Limit]
	}

	return trips, hasMore, nil
}

// Count returns the number of stored trips. Used by operational reporting,
// not by pagination.
func (s *TripStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&n); err != nil {
		return 0, terrors.NewStoreError(terrors.CodeScanFailed, "failed to count trips", err)
	}
	return n, nil
}

// Close closes both database connections.
func (s *TripStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	if s.readDB != nil {
		s.readDB.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
