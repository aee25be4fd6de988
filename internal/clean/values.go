package clean

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/triplake/triplake/pkg/types"
)

// timestampLayouts are tried in order when parsing temporal columns. The
// first is what the upstream trip files actually carry.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006 03:04:05 PM",
}

// isMissing reports whether a raw scalar counts as a missing value: nil,
// empty string, or one of the textual null markers the upstream files use.
func isMissing(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "null":
		return true
	}
	return false
}

// asFloat converts a raw scalar to float64. Returns false for missing or
// unparseable values.
func asFloat(v interface{}) (float64, bool) {
	if isMissing(v) {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asString converts a raw scalar to its string form. Returns false for
// missing values.
func asString(v interface{}) (string, bool) {
	if isMissing(v) {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// parseTimestamp parses a temporal value against the known layouts.
func parseTimestamp(v interface{}) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	s, ok := asString(v)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fingerprint computes a murmur3-128 digest over every canonical field of a
// cleaned row, in fixed column order. Rows identical across all fields hash
// identically; that is the intra-chunk duplicate test.
func fingerprint(row types.RawRow) [2]uint64 {
	h := murmur3.New128()
	var buf [8]byte

	for _, col := range fingerprintColumns {
		h.Write([]byte(col))

		v, ok := row[col]
		if !ok || v == nil {
			h.Write([]byte{0xff})
			continue
		}

		switch tv := v.(type) {
		case time.Time:
			binary.BigEndian.PutUint64(buf[:], uint64(tv.UnixNano()))
			h.Write(buf[:])
		case float64:
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(tv))
			h.Write(buf[:])
		case types.NullInt:
			if tv.Valid {
				binary.BigEndian.PutUint64(buf[:], uint64(tv.Int64))
				h.Write(buf[:])
			} else {
				h.Write([]byte{0xfe})
			}
		case string:
			h.Write([]byte(tv))
		default:
			fmt.Fprintf(h, "%v", tv)
		}
	}

	h1, h2 := h.Sum128()
	return [2]uint64{h1, h2}
}
