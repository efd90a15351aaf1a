// Package render holds the pure formatting helpers shared by every page:
// escaping, number/date/percent formatting, status badges and pagination.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

// Dash is shown for missing values.
const Dash = "—"

// DateLayout matches the short US date with 2-digit hour and minute.
const DateLayout = "Jan 2, 2006, 03:04 PM"

// now is replaced in tests.
var now = time.Now

// number extracts a float from the values page modules pass around.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case model.Record:
		return n.Float("@this")
	case gjson.Result:
		return model.Record{Result: n}.Float("@this")
	default:
		return 0, false
	}
}

// FormatNumber groups thousands: 1234567 -> "1,234,567". Missing -> "—".
func FormatNumber(v any) string {
	f, ok := number(v)
	if !ok || math.IsNaN(f) {
		return Dash
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return humanize.Comma(int64(f))
	}
	return humanize.CommafWithDigits(f, 3)
}

// FormatPercent treats v as a ratio: FormatPercent(0.4567, 1) -> "45.7%".
func FormatPercent(v any, decimals int) string {
	f, ok := number(v)
	if !ok {
		return Dash
	}
	return strconv.FormatFloat(f*100, 'f', decimals, 64) + "%"
}

// FormatPercentValue formats an already scaled percentage: 45.67 -> "45.7%".
func FormatPercentValue(v any, decimals int) string {
	f, ok := number(v)
	if !ok {
		return Dash
	}
	return strconv.FormatFloat(f, 'f', decimals, 64) + "%"
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts time values, RFC 3339 and the usual SQL timestamp
// renderings.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case model.Record:
		if t.Empty() {
			return time.Time{}, false
		}
		return ParseTime(t.String())
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// FormatDate renders v with DateLayout; missing or unparsable -> "—".
func FormatDate(v any) string {
	return FormatDateLayout(v, DateLayout)
}

func FormatDateLayout(v any, layout string) string {
	t, ok := ParseTime(v)
	if !ok {
		return Dash
	}
	return t.Format(layout)
}

// TimeAgo renders "just now", "5m ago", "3h ago" or "2d ago".
func TimeAgo(v any) string {
	t, ok := ParseTime(v)
	if !ok {
		return ""
	}
	s := int64(now().Sub(t) / time.Second)
	switch {
	case s < 60:
		return "just now"
	case s < 3600:
		return fmt.Sprintf("%dm ago", s/60)
	case s < 86400:
		return fmt.Sprintf("%dh ago", s/3600)
	default:
		return fmt.Sprintf("%dd ago", s/86400)
	}
}

// FormatUptime renders seconds as "2d 3h", "3h 4m" or "4m".
func FormatUptime(seconds float64) string {
	total := int64(seconds)
	d := total / 86400
	h := (total % 86400) / 3600
	m := (total % 3600) / 60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh", d, h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// FormatDuration renders seconds with the given number of decimals ("12.5s"
// for 1). Negative decimals use the fewest digits that represent the value
// exactly ("12.25s"). Zero renders as Dash.
func FormatDuration(seconds float64, decimals int) string {
	if seconds == 0 {
		return Dash
	}
	return strconv.FormatFloat(seconds, 'f', decimals, 64) + "s"
}

// DateStamp is the YYYY-MM-DD suffix used in export file names.
func DateStamp(t time.Time) string {
	return t.Format("2006-01-02")
}
