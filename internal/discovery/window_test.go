package discovery

import (
	"testing"
	"time"

	"github.com/keymapio/keymap/internal/config"
)

func mustParseDay(t *testing.T, s string) time.Time {
	t.Helper()
	day, err := ParseDay(s)
	if err != nil {
		t.Fatalf("failed to parse day %q: %v", s, err)
	}
	return day
}

func TestWindowsForDay(t *testing.T) {
	day := mustParseDay(t, "2026-08-20")

	windows, err := WindowsForDay(day, 120)
	if err != nil {
		t.Fatalf("expected windows, got: %v", err)
	}
	if len(windows) != 12 {
		t.Fatalf("expected 12 windows for 120 minutes, got %d", len(windows))
	}

	first := windows[0]
	if !first.Start.Equal(day) {
		t.Errorf("expected first window to start at midnight, got %s", first.Start)
	}
	wantEnd := day.Add(2*time.Hour - time.Second)
	if !first.End.Equal(wantEnd) {
		t.Errorf("expected first window to end at %s, got %s", wantEnd, first.End)
	}

	last := windows[len(windows)-1]
	wantLastEnd := day.Add(24*time.Hour - time.Second)
	if !last.End.Equal(wantLastEnd) {
		t.Errorf("expected last window to end at 23:59:59, got %s", last.End)
	}
}

func TestWindowsForDayContiguous(t *testing.T) {
	day := mustParseDay(t, "2026-08-20")

	windows, err := WindowsForDay(day, 60)
	if err != nil {
		t.Fatalf("expected windows, got: %v", err)
	}
	if len(windows) != 24 {
		t.Fatalf("expected 24 windows for 60 minutes, got %d", len(windows))
	}

	for i := 1; i < len(windows); i++ {
		gap := windows[i].Start.Sub(windows[i-1].End)
		if gap != time.Second {
			t.Errorf("expected windows %d and %d to abut with a 1s inclusive gap, got %s",
				i-1, i, gap)
		}
	}
}

func TestWindowsForDayRejectsInvalidSize(t *testing.T) {
	day := mustParseDay(t, "2026-08-20")

	for _, minutes := range []int{0, -30, 7, 90, 100} {
		if _, err := WindowsForDay(day, minutes); err == nil {
			t.Errorf("expected %d minutes to be rejected", minutes)
		}
	}
}

func TestParseDay(t *testing.T) {
	if _, err := ParseDay("2026-08-20"); err != nil {
		t.Errorf("expected valid day, got: %v", err)
	}
	for _, s := range []string{"", "20-08-2026", "2026/08/20", "2026-13-01"} {
		if _, err := ParseDay(s); err == nil {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestDaysForSingleDate(t *testing.T) {
	days, err := DaysFor(config.DiscoveryConfig{Date: "2026-08-20"})
	if err != nil {
		t.Fatalf("expected days, got: %v", err)
	}
	if len(days) != 1 || FormatDay(days[0]) != "2026-08-20" {
		t.Errorf("expected single day 2026-08-20, got %v", days)
	}
}

func TestDaysForRange(t *testing.T) {
	days, err := DaysFor(config.DiscoveryConfig{
		DateStart: "2026-08-30",
		DateEnd:   "2026-09-02",
	})
	if err != nil {
		t.Fatalf("expected days, got: %v", err)
	}

	want := []string{"2026-08-30", "2026-08-31", "2026-09-01", "2026-09-02"}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i, day := range days {
		if FormatDay(day) != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], FormatDay(day))
		}
	}
}

func TestDaysForErrors(t *testing.T) {
	if _, err := DaysFor(config.DiscoveryConfig{}); err == nil {
		t.Error("expected error when nothing is configured")
	}
	if _, err := DaysFor(config.DiscoveryConfig{DateStart: "2026-08-20"}); err == nil {
		t.Error("expected error when range end is missing")
	}
	if _, err := DaysFor(config.DiscoveryConfig{
		DateStart: "2026-08-20",
		DateEnd:   "2026-08-18",
	}); err == nil {
		t.Error("expected error when range end precedes start")
	}
}

func TestDayBounds(t *testing.T) {
	day := mustParseDay(t, "2026-08-20")
	start, next := DayBounds(day)

	if !start.Equal(day) {
		t.Errorf("expected start at midnight, got %s", start)
	}
	if next.Sub(start) != 24*time.Hour {
		t.Errorf("expected 24h bound, got %s", next.Sub(start))
	}
}

func TestWindowString(t *testing.T) {
	day := mustParseDay(t, "2026-08-20")
	w := Window{Start: day, End: day.Add(2*time.Hour - time.Second)}

	want := "2026-08-20 00:00:00..2026-08-20 01:59:59"
	if got := w.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
