package model

import (
	"fmt"
	"strings"
	"time"
)

// WireTimeLayout is the timestamp format the Meetflix API exchanges for
// showtimes. The backend sends naive local timestamps without a zone offset,
// so time.Time's default RFC 3339 parsing would reject them.
const WireTimeLayout = "2006-01-02T15:04:05"

// LocalTime wraps time.Time to marshal as a zone-less local timestamp.
type LocalTime struct {
	time.Time
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(WireTimeLayout, raw, time.Local)
	if err != nil {
		// Some endpoints include a zone offset; accept those too.
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parse local time %q: %w", raw, err)
		}
	}
	t.Time = parsed
	return nil
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(WireTimeLayout) + `"`), nil
}

// Wire returns the timestamp formatted the way the API expects it in query
// strings and order payloads.
func (t LocalTime) Wire() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(WireTimeLayout)
}
