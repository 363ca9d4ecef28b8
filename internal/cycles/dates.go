package cycles

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for every date the engine emits.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate reads a calendar date from a date or timestamp string. The result
// is midnight UTC of the date as written, so timestamps keep the day they
// carry in their own offset.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, errors.New("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC3339", raw)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date with DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// addMonthsClamped keeps the anchor's day of month, falling back to the last
// day of shorter months (Jan 31 + 1 month = Feb 29 in a leap year).
func addMonthsClamped(anchor time.Time, months int) time.Time {
	y, m, d := anchor.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
