package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// NullInt is a nullable int64 for integer-typed trip columns. The cleaning
// pipeline fills most missing numerics with the sentinel -1, which is a
// valid value here; Valid=false is reserved for values that are NULL in the
// store itself.
type NullInt struct {
	Int64 int64
	Valid bool
}

// NewInt returns a valid NullInt holding v.
func NewInt(v int64) NullInt {
	return NullInt{Int64: v, Valid: true}
}

// MarshalJSON encodes the value, or null when not valid.
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

// UnmarshalJSON decodes a number or null.
func (n *NullInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		n.Int64, n.Valid = 0, false
		return nil
	}
	if err := json.Unmarshal(data, &n.Int64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (n NullInt) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Int64, nil
}

// Scan implements sql.Scanner.
func (n *NullInt) Scan(src interface{}) error {
	if src == nil {
		n.Int64, n.Valid = 0, false
		return nil
	}
	switch v := src.(type) {
	case int64:
		n.Int64, n.Valid = v, true
	case int:
		n.Int64, n.Valid = int64(v), true
	case float64:
		n.Int64, n.Valid = int64(v), true
	default:
		return fmt.Errorf("cannot scan %T into NullInt", src)
	}
	return nil
}
