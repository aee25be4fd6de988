package decode

import (
	"context"
	"encoding/csv"
	"io"

	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/pkg/types"
)

// csvDecoder reads delimited-text files with a header row. Column names are
// taken verbatim from the header; normalization belongs to the cleaner.
type csvDecoder struct {
	reader    *csv.Reader
	chunkSize int
	header    []string
	done      bool
}

func newCSVDecoder(r io.Reader, chunkSize int) *csvDecoder {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false
	// Source files occasionally carry ragged rows; surface those as
	// malformed input rather than panicking downstream.
	cr.FieldsPerRecord = 0

	return &csvDecoder{
		reader:    cr,
		chunkSize: chunkSize,
	}
}

// Next returns the next chunk of rows, or io.EOF when the file is exhausted.
func (d *csvDecoder) Next(ctx context.Context) ([]types.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.done {
		return nil, io.EOF
	}

	if d.header == nil {
		header, err := d.reader.Read()
		if err == io.EOF {
			d.done = true
			return nil, io.EOF
		}
		if err != nil {
			d.done = true
			return nil, terrors.Wrap(terrors.ErrCategoryFormat, terrors.CodeMalformedInput, "failed to read CSV header", err)
		}
		d.header = header
	}

	chunk := make([]types.RawRow, 0, d.chunkSize)
	for len(chunk) < d.chunkSize {
		record, err := d.reader.Read()
		if err == io.EOF {
			d.done = true
			break
		}
		if err != nil {
			d.done = true
			return nil, terrors.Wrap(terrors.ErrCategoryFormat, terrors.CodeMalformedInput, "failed to read CSV record", err)
		}

		row := make(types.RawRow, len(d.header))
		for i, col := range d.header {
			if i >= len(record) || record[i] == "" {
				// Absent cell. Represented as nil so the cleaner's
				// missing-value policy applies.
				row[col] = nil
				continue
			}
			row[col] = record[i]
		}
		chunk = append(chunk, row)
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}
