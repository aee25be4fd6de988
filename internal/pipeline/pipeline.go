// Package pipeline orchestrates ingestion: decode a raw file chunk by
// chunk, clean each chunk, validate the surviving rows, and load them into
// the store. Rows flow through in bounded chunks so memory stays flat
// regardless of file size.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/triplake/triplake/internal/clean"
	"github.com/triplake/triplake/internal/decode"
	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/internal/load"
	"github.com/triplake/triplake/internal/observability"
	"github.com/triplake/triplake/internal/schema"
	"github.com/triplake/triplake/pkg/types"
)

// Pipeline runs the decode, clean, validate, load stages for one file at a
// time. Safe for concurrent use; per-file state lives on the stack.
type Pipeline struct {
	cleaner   *clean.Cleaner
	validator *schema.Validator
	loader    *load.Loader
	chunkSize int
}

// New creates a Pipeline writing through loader. chunkSize bounds how many
// rows are held in memory per file; non-positive values use the decoder
// default.
func New(loader *load.Loader, chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = decode.DefaultChunkSize
	}
	return &Pipeline{
		cleaner:   clean.New(),
		validator: schema.NewValidator(),
		loader:    loader,
		chunkSize: chunkSize,
	}
}

// IngestFile processes one raw file from r. The file name selects the
// decoder. Row-level problems (cleaning rejections, schema violations,
// store failures) are counted and never abort the file; a structural
// decode failure stops the file at that point with everything already
// committed left in place.
func (p *Pipeline) IngestFile(ctx context.Context, name string, r io.Reader) observability.FileSummary {
	summary := observability.FileSummary{
		File:      name,
		Rejected:  make(map[clean.RejectReason]int64),
		StartedAt: time.Now(),
	}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
	}()

	decoder, err := decode.NewFileDecoder(name, r, p.chunkSize)
	if err != nil {
		summary.Err = err.Error()
		return summary
	}

	for {
		chunk, err := decoder.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.Err = err.Error()
			log.Printf("pipeline: decode failed for %s after %d chunks: %v", name, summary.Chunks, err)
			return summary
		}

		summary.Chunks++
		summary.RowsDecoded += int64(len(chunk))

		rows, tally := p.cleaner.Clean(chunk)
		for reason, n := range tally.ByReason() {
			summary.Rejected[reason] += n
		}

		records := make([]*types.TripRecord, 0, len(rows))
		for _, row := range rows {
			record, err := p.validator.Validate(row)
			if err != nil {
				summary.SchemaFailed++
				log.Printf("pipeline: schema violation in %s: %v", name, err)
				continue
			}
			records = append(records, record)
		}

		result, err := p.loader.LoadBatch(ctx, records)
		summary.RowsStored += result.Stored
		summary.StoreFailed += result.Failed
		if err != nil {
			// Context cancellation; everything committed so far stays.
			summary.Err = err.Error()
			return summary
		}
	}

	return summary
}

// IsFormatError reports whether a file failed on its structure rather than
// its content.
func IsFormatError(err error) bool {
	return terrors.GetCategory(err) == terrors.ErrCategoryFormat
}
