package typeconv

import (
	"math"
	"strings"
	"time"
)

// Epoch-millisecond bounds for the calendar years 1 through 9999.
// Values outside this window cannot be represented as a timestamp on
// either target, so they are passed through unconverted.
const (
	minEpochMs = -62135596800000 // 0001-01-01T00:00:00Z
	maxEpochMs = 253402300799999 // 9999-12-31T23:59:59.999Z
)

const clockFormat = "15:04:05.999999"

// truthyTokens are the string spellings accepted as boolean true.
// Any other string is false, matching integer semantics where only
// non-zero is true.
var truthyTokens = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"t":    true,
}

func toBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case float32:
		return v != 0
	case string:
		return truthyTokens[strings.ToLower(v)]
	case []byte:
		return truthyTokens[strings.ToLower(string(v))]
	}
	return value != nil
}

// epochMs extracts a millisecond epoch offset from the numeric types
// database/sql drivers produce.
func epochMs(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}

func msToTime(ms float64) (time.Time, bool) {
	// NaN must be rejected before the range comparison: every ordered
	// comparison against NaN is false.
	if math.IsNaN(ms) || ms < minEpochMs || ms > maxEpochMs {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// toTimestamp converts a millisecond epoch value to a UTC timestamp.
// time.Time inputs (already normalized by the source driver) pass
// through; anything inconvertible is returned unchanged.
func toTimestamp(value interface{}) interface{} {
	if t, ok := value.(time.Time); ok {
		return t.UTC()
	}
	ms, ok := epochMs(value)
	if !ok {
		return value
	}
	t, ok := msToTime(ms)
	if !ok {
		return value
	}
	return t
}

// toDate is like toTimestamp but truncates to midnight UTC.
func toDate(value interface{}) interface{} {
	if t, ok := value.(time.Time); ok {
		u := t.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
	ms, ok := epochMs(value)
	if !ok {
		return value
	}
	t, ok := msToTime(ms)
	if !ok {
		return value
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// toClock is like toTimestamp but keeps only the time-of-day portion,
// formatted as HH:MM:SS with fractional seconds when present.
func toClock(value interface{}) interface{} {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format(clockFormat)
	}
	ms, ok := epochMs(value)
	if !ok {
		return value
	}
	t, ok := msToTime(ms)
	if !ok {
		return value
	}
	return t.Format(clockFormat)
}
