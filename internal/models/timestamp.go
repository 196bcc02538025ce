// Package models defines the canonical timestamp representation.
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Timestamp is the canonical stored time representation: epoch milliseconds.
//
// Historical session documents carry timestamps in three shapes — a raw
// millisecond number, a {seconds, nanoseconds} object, or an RFC3339 string —
// so unmarshalling accepts all three and normalizes to milliseconds. New data
// is always written as a plain number.
type Timestamp int64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UnixMilli())
}

// FromTime converts a time.Time to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time converts the Timestamp back to a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// MarshalJSON encodes the timestamp as a plain millisecond number.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(ts), 10), nil
}

// secondsShape matches the {seconds, nanoseconds} document-store export shape.
type secondsShape struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// UnmarshalJSON normalizes the three historical wire shapes. Unrecognized
// data falls back to the current time instead of failing the whole read.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*ts = Now()
		return nil
	}

	switch data[0] {
	case '"':
		raw := string(data[1 : len(data)-1])
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			*ts = FromTime(t)
			return nil
		}
	case '{':
		var shape secondsShape
		if err := json.Unmarshal(data, &shape); err == nil {
			*ts = Timestamp(shape.Seconds*1000 + shape.Nanoseconds/1e6)
			return nil
		}
	default:
		if millis, err := strconv.ParseFloat(string(data), 64); err == nil {
			*ts = Timestamp(int64(millis))
			return nil
		}
	}

	*ts = Now()
	return nil
}
