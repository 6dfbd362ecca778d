package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// TimestampLayout is the string form used when timestamps are not rendered
// as epoch milliseconds. ParseTimestamp accepts it back.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp decodes an externally supplied timestamp. Numbers are epoch
// milliseconds; strings must be ISO-8601. The result is always UTC.
func ParseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return t.UTC(), nil
	case float64:
		return fromMillis(t)
	case float32:
		return fromMillis(float64(t))
	case int:
		return time.UnixMilli(int64(t)).UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch value %q: %w", t.String(), err)
		}
		return fromMillis(f)
	case string:
		return parseISO(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

// FormatTimestamp renders t for callers that asked for string dates.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// EpochMillis renders t as milliseconds since the Unix epoch.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, fmt.Errorf("invalid epoch value %v", ms)
	}
	return time.UnixMicro(int64(math.Round(ms * 1000))).UTC(), nil
}

func parseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

func projectTime(t time.Time, datesAsEpoch bool) any {
	if datesAsEpoch {
		return EpochMillis(t)
	}
	return FormatTimestamp(t)
}
