// Package query serves cursor-paginated reads over the trip store.
package query

import (
	"context"
	"time"

	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/internal/store"
	"github.com/triplake/triplake/pkg/types"
)

const (
	// DefaultLimit applies when the caller omits the limit or passes a
	// non-positive one.
	DefaultLimit = 100

	// MaxLimit caps the page size; larger requests are clamped, not
	// rejected.
	MaxLimit = 500
)

// Params selects one page of trips. All fields are optional; the zero value
// asks for the first DefaultLimit trips.
type Params struct {
	StartDate *time.Time
	EndDate   *time.Time
	Cursor    *int64
	Limit     int
}

// Engine answers paginated trip queries against the store's read path.
type Engine struct {
	store        *store.TripStore
	defaultLimit int
	maxLimit     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits overrides the default and maximum page sizes.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(e *Engine) {
		if defaultLimit > 0 {
			e.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			e.maxLimit = maxLimit
		}
	}
}

// NewEngine creates an Engine over s.
func NewEngine(s *store.TripStore, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		defaultLimit: DefaultLimit,
		maxLimit:     MaxLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query returns one page of trips ordered by ascending id. Every non-empty
// page carries the id of its last row as the next cursor; repeating a query
// with each returned cursor walks the whole result set exactly once, even
// if rows in between were removed.
func (e *Engine) Query(ctx context.Context, p Params) (*types.Page, error) {
	if p.StartDate != nil && p.EndDate != nil && p.StartDate.After(*p.EndDate) {
		return nil, terrors.NewQueryError("start_date must not be after end_date")
	}
	if p.Cursor != nil && *p.Cursor < 0 {
		return nil, terrors.NewQueryError("cursor must be non-negative")
	}

	limit := p.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}

	trips, hasMore, err := e.store.SelectPage(ctx, store.PageFilter{
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Cursor:    p.Cursor,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	page := &types.Page{
		Data:    trips,
		HasMore: hasMore,
	}
	if len(trips) > 0 {
		last := trips[len(trips)-1].ID
		page.NextCursor = &last
	}

	return page, nil
}
