// Package timeparse normalizes the timestamp encodings chat platforms
// emit: epoch seconds, milliseconds or nanoseconds, and ISO-8601 strings.
package timeparse

import (
	"encoding/json"
	"strings"
	"time"
)

// Scale thresholds: epoch values above nanoThreshold are nanoseconds,
// above milliThreshold milliseconds, anything else seconds.
const (
	nanoThreshold  = 1e12
	milliThreshold = 1e11
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse converts a heterogeneous timestamp value into UTC time. The
// second return reports whether the value was actually parseable; callers
// must not treat a failed parse as a real observation.
func Parse(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return ts.UTC(), true
	case float64:
		return fromEpoch(ts), true
	case int:
		return fromEpoch(float64(ts)), true
	case int64:
		return fromEpoch(float64(ts)), true
	case json.Number:
		if f, err := ts.Float64(); err == nil {
			return fromEpoch(f), true
		}
		return parseISO(ts.String())
	case string:
		return parseISO(ts)
	default:
		return time.Time{}, false
	}
}

func fromEpoch(ts float64) time.Time {
	switch {
	case ts > nanoThreshold:
		ts = ts / 1e9
	case ts > milliThreshold:
		ts = ts / 1e3
	}
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

func parseISO(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
