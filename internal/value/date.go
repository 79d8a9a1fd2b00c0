package value

import (
	"strings"
	"time"
)

// DateLayout is the default display format for dates: MM/DD/YYYY,
// independent of locale.
const DateLayout = "01/02/2006"

// DateParser attempts to read a calendar date from text.
type DateParser func(string) (time.Time, bool)

// nativeLayouts are the free-form shapes accepted when no positional format
// matches, roughly what a browser's Date constructor understands.
var nativeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	time.RFC1123Z,
}

// CalendarDate truncates t to midnight UTC of its own calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as MM/DD/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseISODate reads YYYY-MM-DD positionally. Each component is read as a
// leading integer so a trailing time part is ignored, and out of range
// months or days roll over into adjacent periods.
func ParseISODate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	return fromParts(parts[0], parts[1], parts[2])
}

// ParseUSDate reads MM/DD/YYYY positionally.
func ParseUSDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	return fromParts(parts[2], parts[0], parts[1])
}

// ParseNativeDate tries a list of common free-form layouts.
func ParseNativeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CalendarDate(t), true
		}
	}
	return time.Time{}, false
}

// ParseDate runs the parsers in order and returns the first success.
func ParseDate(s string, parsers ...DateParser) (time.Time, bool) {
	for _, parse := range parsers {
		if t, ok := parse(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the number of calendar days from start to end. It
// works on civil day numbers because time.Duration saturates after about
// 292 years.
func DaysBetween(end, start time.Time) int64 {
	return dayNumber(end) - dayNumber(start)
}

func dayNumber(t time.Time) int64 {
	secs := CalendarDate(t).Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return days
}

const secondsPerDay = 24 * 60 * 60

func fromParts(year, month, day string) (time.Time, bool) {
	y, ok := ParseLeadingInt(year)
	if !ok {
		return time.Time{}, false
	}
	m, ok := ParseLeadingInt(month)
	if !ok {
		return time.Time{}, false
	}
	d, ok := ParseLeadingInt(day)
	if !ok {
		return time.Time{}, false
	}
	if y >= 0 && y <= 99 {
		y += 1900
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}
