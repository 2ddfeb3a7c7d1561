package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Millis is an absolute instant in Unix milliseconds. Stored documents and
// client payloads may carry instants in any of three shapes: a number of
// milliseconds, a Firestore-style {seconds, nanoseconds} object, or an
// RFC3339 string. All three normalize here, at ingress; the engine itself
// only ever sees Millis.
type Millis int64

func ToMillis(t time.Time) Millis {
	if t.IsZero() {
		return 0
	}
	return Millis(t.UnixMilli())
}

func (m Millis) Time() time.Time {
	if m == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(m))
}

func (m Millis) IsZero() bool { return m == 0 }

func (m Millis) Before(t time.Time) bool { return int64(m) < t.UnixMilli() }

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(m))
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*m = 0
		return nil
	}
	switch data[0] {
	case '{':
		var obj struct {
			Seconds     int64 `json:"seconds"`
			Nanoseconds int64 `json:"nanoseconds"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*m = Millis(obj.Seconds*1000 + obj.Nanoseconds/1e6)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*m = ToMillis(t)
		return nil
	default:
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*m = Millis(n)
		return nil
	}
}
