package cycles

import (
	"testing"
	"time"
)

func TestParseDateAcceptsDatesAndTimestamps(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "2024-02-05", want: "2024-02-05"},
		{raw: " 2024-02-05 ", want: "2024-02-05"},
		{raw: "2024-02-05T23:30:00+10:00", want: "2024-02-05"},
		{raw: "2024-02-05T01:00:00Z", want: "2024-02-05"},
		{raw: "2024-02-05T12:00:00.123456Z", want: "2024-02-05"},
		{raw: "2024-02-05 08:15:00", want: "2024-02-05"},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.raw)
		if err != nil {
			t.Fatalf("ParseDate(%q) unexpected error: %v", tc.raw, err)
		}
		if FormatDate(got) != tc.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.raw, FormatDate(got), tc.want)
		}
		if got.Location() != time.UTC || got.Hour() != 0 {
			t.Fatalf("ParseDate(%q) = %v, want midnight UTC", tc.raw, got)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "05/02/2024", "2024-13-01", "tomorrow"} {
		if _, err := ParseDate(raw); err == nil {
			t.Fatalf("ParseDate(%q) error = nil, want non-nil", raw)
		}
	}
}

func TestAddMonthsClampedKeepsAnchorDay(t *testing.T) {
	anchor := mustDate(t, "2024-01-31")
	tests := []struct {
		months int
		want   string
	}{
		{months: 1, want: "2024-02-29"},
		{months: 2, want: "2024-03-31"},
		{months: 3, want: "2024-04-30"},
		{months: 13, want: "2025-02-28"},
	}
	for _, tc := range tests {
		got := FormatDate(addMonthsClamped(anchor, tc.months))
		if got != tc.want {
			t.Fatalf("addMonthsClamped(+%d) = %s, want %s", tc.months, got, tc.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	if got := daysBetween(mustDate(t, "2024-02-01"), mustDate(t, "2024-03-01")); got != 29 {
		t.Fatalf("daysBetween() = %d, want 29", got)
	}
	if got := daysBetween(mustDate(t, "2024-03-01"), mustDate(t, "2024-02-27")); got != -3 {
		t.Fatalf("daysBetween() = %d, want -3", got)
	}
}

func TestDayKeepsCalendarDateOfItsZone(t *testing.T) {
	sydney := time.FixedZone("AEDT", 11*60*60)
	// 2024-03-01 07:30 in Sydney is still 2024-02-29 in UTC.
	local := time.Date(2024, 3, 1, 7, 30, 0, 0, sydney)

	if got := FormatDate(Day(local)); got != "2024-03-01" {
		t.Fatalf("Day(local) = %s, want 2024-03-01", got)
	}
	if got := FormatDate(Day(local.UTC())); got != "2024-02-29" {
		t.Fatalf("Day(utc) = %s, want 2024-02-29", got)
	}
}
