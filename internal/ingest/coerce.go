package ingest

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ToInt coerces a cell to an int. It accepts native integers, floats
// (truncated toward zero) and numeric strings such as "20" or "20.0". Nil,
// blank and unparseable input yield def. It never panics.
func ToInt(v any, def int) int {
	switch n := v.(type) {
	case nil:
		return def
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return clampUint(uint64(n), def)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return clampUint(n, def)
	case float32:
		return floatToInt(float64(n), def)
	case float64:
		return floatToInt(n, def)
	case json.Number:
		return stringToInt(string(n), def)
	case string:
		return stringToInt(n, def)
	default:
		return def
	}
}

// ToCount is ToInt with a zero default, clamped at zero. Ledger counters are
// never negative.
func ToCount(v any) int {
	if n := ToInt(v, 0); n > 0 {
		return n
	}
	return 0
}

func stringToInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return floatToInt(f, def)
}

func floatToInt(f float64, def int) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return def
	}
	return int(f)
}

func clampUint(n uint64, def int) int {
	if n > math.MaxInt64 {
		return def
	}
	return int(n)
}

// DateLayouts are the accepted calendar date formats, tried in order.
var DateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

// DateTimeLayouts are the accepted timestamp formats, tried in order.
var DateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04",
	"2006-01-02T15:04",
}

var emptyTokens = map[string]bool{"": true, "null": true, "n/a": true}

// ParseDate parses a calendar date. Sentinel tokens ("", "null", "N/A") and
// unparseable values return the zero time, which means "no date" and sorts
// before every real date.
func ParseDate(s string) time.Time {
	return parseLayouts(s, DateLayouts)
}

// ParseDateTime parses a timestamp with the same degradation rules as
// ParseDate.
func ParseDateTime(s string) time.Time {
	return parseLayouts(s, DateTimeLayouts)
}

func parseLayouts(s string, layouts []string) time.Time {
	s = strings.TrimSpace(s)
	if emptyTokens[strings.ToLower(s)] {
		return time.Time{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatDate renders a date as YYYY-MM-DD, or "" for no date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
