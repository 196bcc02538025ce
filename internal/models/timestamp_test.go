package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampMarshalsAsMillis(t *testing.T) {
	ts := Timestamp(1718064000123)
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "1718064000123" {
		t.Errorf("marshaled = %s, want raw millis", data)
	}
}

func TestTimestampUnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Timestamp
	}{
		{name: "raw millis", data: `1718064000123`, want: 1718064000123},
		{name: "float millis", data: `1718064000123.0`, want: 1718064000123},
		{name: "seconds object", data: `{"seconds":1718064000,"nanoseconds":123000000}`, want: 1718064000123},
		{name: "rfc3339 string", data: `"2024-06-11T00:00:00.123Z"`, want: 1718064000123},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tc.data), &ts); err != nil {
				t.Fatalf("Unmarshal(%s) failed: %v", tc.data, err)
			}
			if ts != tc.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tc.data, ts, tc.want)
			}
		})
	}
}

func TestTimestampUnmarshalGarbageFallsBackToNow(t *testing.T) {
	before := Now()
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"not a date"`), &ts); err != nil {
		t.Fatalf("garbage timestamp should not error, got %v", err)
	}
	if ts < before || ts > Now() {
		t.Errorf("fallback timestamp %d not near now", ts)
	}
}

func TestTimestampTimeRoundTrip(t *testing.T) {
	at := time.Date(2024, 6, 11, 12, 30, 0, 0, time.UTC)
	ts := FromTime(at)
	if !ts.Time().Equal(at) {
		t.Errorf("round trip = %v, want %v", ts.Time(), at)
	}
}
