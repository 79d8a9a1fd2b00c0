package value_test

import (
	"testing"
	"time"

	"github.com/example/boardcalc/internal/value"
)

func TestParseISODate(t *testing.T) {
	got, ok := value.ParseISODate("2024-01-10")
	if !ok {
		t.Fatalf("expected ISO date to parse")
	}
	want := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, ok := value.ParseISODate("01/10/2024"); ok {
		t.Fatalf("slash date must not parse as ISO")
	}
	withTime, ok := value.ParseISODate("2024-01-10T13:45:00.000Z")
	if !ok || !withTime.Equal(want) {
		t.Fatalf("expected timestamp to reduce to its date, got %v", withTime)
	}
}

func TestParseUSDateRollsOver(t *testing.T) {
	got, ok := value.ParseUSDate("13/01/2024")
	if !ok {
		t.Fatalf("expected rollover date to parse")
	}
	want := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseNativeDate(t *testing.T) {
	for _, in := range []string{"January 5, 2024", "Jan 5, 2024", "2024/01/05", "2024-01-05T08:00:00Z"} {
		got, ok := value.ParseNativeDate(in)
		if !ok {
			t.Fatalf("expected %q to parse", in)
		}
		if value.FormatDate(got) != "01/05/2024" {
			t.Fatalf("%q parsed to %s", in, value.FormatDate(got))
		}
	}
	if _, ok := value.ParseNativeDate("not a date"); ok {
		t.Fatalf("expected garbage to be rejected")
	}
}

func TestParseDateOrder(t *testing.T) {
	got, ok := value.ParseDate("03/04/2024", value.ParseISODate, value.ParseUSDate, value.ParseNativeDate)
	if !ok {
		t.Fatalf("expected date to parse")
	}
	if got.Month() != time.March || got.Day() != 4 {
		t.Fatalf("expected month-first reading, got %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	end := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if got := value.DaysBetween(end, start); got != 9 {
		t.Fatalf("expected 9, got %d", got)
	}
	if got := value.DaysBetween(start, end); got != -9 {
		t.Fatalf("expected -9, got %d", got)
	}

	far, _ := value.ParseISODate("2500-01-01")
	near, _ := value.ParseISODate("2000-01-01")
	if got := value.DaysBetween(far, near); got != 182622 {
		t.Fatalf("expected 182622 days across five centuries, got %d", got)
	}
	if got := value.DaysBetween(near, far); got != -182622 {
		t.Fatalf("expected -182622, got %d", got)
	}
	old := time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	if got := value.DaysBetween(last, old); got != 2958463 {
		t.Fatalf("expected 2958463, got %d", got)
	}
}
