package decode

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/pkg/types"
)

// maxLineBytes bounds a single NDJSON record. Trip records are small; a line
// beyond this is corrupt data, not a legitimate record.
const maxLineBytes = 4 * 1024 * 1024

// ndjsonDecoder reads newline-delimited JSON, one record object per line.
type ndjsonDecoder struct {
	scanner   *bufio.Scanner
	chunkSize int
	line      int64
	done      bool
}

func newNDJSONDecoder(r io.Reader, chunkSize int) *ndjsonDecoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	return &ndjsonDecoder{
		scanner:   scanner,
		chunkSize: chunkSize,
	}
}

// Next returns the next chunk of rows, or io.EOF when the file is exhausted.
// A line that is not a JSON object fails the whole file: the declared format
// cannot be parsed.
func (d *ndjsonDecoder) Next(ctx context.Context) ([]types.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.done {
		return nil, io.EOF
	}

	chunk := make([]types.RawRow, 0, d.chunkSize)
	for len(chunk) < d.chunkSize {
		if !d.scanner.Scan() {
			d.done = true
			if err := d.scanner.Err(); err != nil {
				return nil, terrors.Wrap(terrors.ErrCategoryFormat, terrors.CodeMalformedInput, "failed to read NDJSON line", err)
			}
			break
		}
		d.line++

		text := strings.TrimSpace(d.scanner.Text())
		if text == "" {
			continue
		}

		decoder := json.NewDecoder(strings.NewReader(text))
		decoder.UseNumber()

		var row types.RawRow
		if err := decoder.Decode(&row); err != nil {
			d.done = true
			return nil, terrors.Wrap(terrors.ErrCategoryFormat, terrors.CodeMalformedInput, "invalid JSON record", err).
				WithDetails(map[string]interface{}{"line": d.line})
		}
		chunk = append(chunk, row)
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}
