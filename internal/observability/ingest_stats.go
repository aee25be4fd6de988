// Package observability tracks ingestion statistics for operational
// reporting.
package observability

import (
	"sync"
	"time"

	"github.com/triplake/triplake/internal/clean"
)

// recentFileCap bounds the per-file history kept in memory.
const recentFileCap = 20

// FileSummary reports the outcome of ingesting one raw file.
type FileSummary struct {
	File          string                       `json:"file"`
	RowsDecoded   int64                        `json:"rows_decoded"`
	RowsStored    int64                        `json:"rows_stored"`
	StoreFailed   int64                        `json:"store_failed"`
	SchemaFailed  int64                        `json:"schema_failed"`
	Rejected      map[clean.RejectReason]int64 `json:"rejected"`
	Duration      time.Duration                `json:"duration_ns"`
	StartedAt     time.Time                    `json:"started_at"`
	Chunks        int64                        `json:"chunks"`
	Err           string                       `json:"error,omitempty"`
}

// RejectedTotal returns the number of rows the cleaner dropped.
func (f FileSummary) RejectedTotal() int64 {
	var n int64
	for _, v := range f.Rejected {
		n += v
	}
	return n
}

// Snapshot is a point-in-time copy of the ingestion statistics.
type Snapshot struct {
	FilesProcessed int64                        `json:"files_processed"`
	FilesFailed    int64                        `json:"files_failed"`
	RowsDecoded    int64                        `json:"rows_decoded"`
	RowsStored     int64                        `json:"rows_stored"`
	RowsRejected   map[clean.RejectReason]int64 `json:"rows_rejected"`
	SchemaFailed   int64                        `json:"schema_failed"`
	StoreFailed    int64                        `json:"store_failed"`
	RecentFiles    []FileSummary                `json:"recent_files"`
}

// IngestStats accumulates per-file ingestion outcomes. All methods are
// thread-safe; concurrent file workers record into the same instance.
type IngestStats struct {
	mu             sync.RWMutex
	filesProcessed int64
	filesFailed    int64
	rowsDecoded    int64
	rowsStored     int64
	rowsRejected   map[clean.RejectReason]int64
	schemaFailed   int64
	storeFailed    int64
	recent         []FileSummary
}

// NewIngestStats creates an empty tracker.
func NewIngestStats() *IngestStats {
	return &IngestStats{
		rowsRejected: make(map[clean.RejectReason]int64),
	}
}

// RecordFile accumulates one file's outcome.
func (s *IngestStats) RecordFile(summary FileSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filesProcessed++
	if summary.Err != "" {
		s.filesFailed++
	}
	s.rowsDecoded += summary.RowsDecoded
	s.rowsStored += summary.RowsStored
	s.schemaFailed += summary.SchemaFailed
	s.storeFailed += summary.StoreFailed
	for reason, n := range summary.Rejected {
		s.rowsRejected[reason] += n
	}

	s.recent = append(s.recent, summary)
	if len(s.recent) > recentFileCap {
		s.recent = s.recent[len(s.recent)-recentFileCap:]
	}
}

// Snapshot returns a copy safe to serialize while ingestion continues.
func (s *IngestStats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rejected := make(map[clean.RejectReason]int64, len(s.rowsRejected))
	for reason, n := range s.rowsRejected {
		rejected[reason] = n
	}

	recent := make([]FileSummary, len(s.recent))
	copy(recent, s.recent)

	return Snapshot{
		FilesProcessed: s.filesProcessed,
		FilesFailed:    s.filesFailed,
		RowsDecoded:    s.rowsDecoded,
		RowsStored:     s.rowsStored,
		RowsRejected:   rejected,
		SchemaFailed:   s.schemaFailed,
		StoreFailed:    s.storeFailed,
		RecentFiles:    recent,
	}
}
