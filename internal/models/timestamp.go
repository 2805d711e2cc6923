package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamps cross the API boundary as epoch milliseconds in a JSON string,
// e.g. "1718000000000". Everything is stored at millisecond precision so a
// value survives format/parse unchanged.

func TruncateMillis(t time.Time) time.Time {
	return t.Truncate(time.Millisecond).UTC()
}

func FormatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func ParseMillis(s string) (time.Time, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch millis %q: %w", s, err)
	}
	return time.UnixMilli(n).UTC(), nil
}

type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: TruncateMillis(t)}
}

// TimestampPtr converts an optional time, keeping nil as nil.
func TimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := NewTimestamp(*t)
	return &ts
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatMillis(t.Time))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string of epoch milliseconds: %w", err)
	}
	parsed, err := ParseMillis(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
