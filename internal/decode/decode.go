// Package decode turns raw drop files into chunked sequences of untyped rows.
// A decoder is lazy, finite, and non-restartable: callers pull bounded chunks
// so a file far larger than memory can still be processed.
package decode

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"

	terrors "github.com/triplake/triplake/internal/errors"
	"github.com/triplake/triplake/pkg/types"
)

// Format identifies a supported drop-file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatNDJSON  Format = "ndjson"
	FormatUnknown Format = "unknown"
)

// Sentinel errors; matched by category+code via errors.Is.
var (
	ErrUnsupportedFormat = terrors.NewFormatError(terrors.CodeUnsupportedFormat, "unsupported file format")
	ErrMalformedInput    = terrors.NewFormatError(terrors.CodeMalformedInput, "malformed input")
)

// DefaultChunkSize is the number of rows per chunk when the caller does not
// configure one. Matches the upstream drop producer's batch size.
const DefaultChunkSize = 100000

// ChunkDecoder produces successive bounded chunks of RawRow in file order.
// Next returns io.EOF once the file is exhausted. A chunk may be shorter
// than the configured chunk size only at the end of the file.
type ChunkDecoder interface {
	Next(ctx context.Context) ([]types.RawRow, error)
}

// DetectFormat determines the declared format from the file name. A trailing
// ".snappy" extension marks a snappy-framed stream wrapping the real format.
func DetectFormat(name string) (format Format, compressed bool) {
	if strings.EqualFold(filepath.Ext(name), ".snappy") {
		compressed = true
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, compressed
	case ".json", ".ndjson":
		return FormatNDJSON, compressed
	default:
		return FormatUnknown, compressed
	}
}

// NewDecoder creates a chunk decoder for the declared format.
func NewDecoder(r io.Reader, format Format, chunkSize int) (ChunkDecoder, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	switch format {
	case FormatCSV:
		return newCSVDecoder(r, chunkSize), nil
	case FormatNDJSON:
		return newNDJSONDecoder(r, chunkSize), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// NewFileDecoder creates a chunk decoder for a named drop file, detecting
// the format from the extension and unwrapping snappy framing if present.
func NewFileDecoder(name string, r io.Reader, chunkSize int) (ChunkDecoder, error) {
	format, compressed := DetectFormat(name)
	if format == FormatUnknown {
		return nil, ErrUnsupportedFormat.WithDetails(map[string]interface{}{"file": name})
	}
	if compressed {
		r = snappy.NewReader(r)
	}
	return NewDecoder(r, format, chunkSize)
}
