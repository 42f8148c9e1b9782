// Package datetime provides date and time utility functions.
package datetime

import (
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/contract-analytics/pkg/constants"
)

const (
	// MonthLayout is the month key format used by every monthly series.
	MonthLayout = constants.MonthLayout
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
	MonthLayout,
}

// unix timestamps above this are treated as milliseconds
const unixMillisCutoff = 100000000000

// ParseTimestamp converts a loosely typed timestamp into UTC. It accepts
// time.Time values, strings in any of the supported layouts and unix
// seconds or milliseconds. The second return value is false when the value
// is absent or cannot be parsed.
func ParseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return ParseTimestamp(*v)
	case string:
		return parseTimestampString(v)
	case int:
		return fromUnix(int64(v)), true
	case int32:
		return fromUnix(int64(v)), true
	case int64:
		return fromUnix(v), true
	case float64:
		return fromUnix(int64(v)), true
	}
	return time.Time{}, false
}

func parseTimestampString(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), true
		}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return fromUnix(n), true
	}
	return time.Time{}, false
}

func fromUnix(n int64) time.Time {
	if n > unixMillisCutoff || n < -unixMillisCutoff {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
