package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the short date form used by query filters and review items.
const DateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// Time accepts the datetime forms the backend emits, with or without a zone offset.
// Values without an offset are taken as UTC.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// ParseTime parses any of the accepted layouts.
func ParseTime(value string) (Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return Time{Time: t}, nil
		}
	}
	return Time{}, fmt.Errorf("unsupported time format: %q", value)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date returns the YYYY-MM-DD part, or an empty string for the zero time.
func (t Time) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.Format(DateLayout)
}
