// Package discovery implements the key-discovery pipeline: it scans a
// tenant- and time-bounded slice of the source table for the Map keys each
// tenant actually uses, and accumulates them into per-tenant key sets.
package discovery

import (
	"fmt"
	"time"

	"github.com/keymapio/keymap/internal/config"
)

// minutesPerDay is the number of minutes a window size must tile exactly.
const minutesPerDay = 24 * 60

// Window is one fixed-duration, non-overlapping time slice of a calendar day.
// Both bounds are inclusive: End is the last second of the slice, matching
// the `ts >= Start AND ts <= End` predicates issued by the scanner.
type Window struct {
	Start time.Time
	End   time.Time
}

// String renders the window for logs.
func (w Window) String() string {
	return fmt.Sprintf("%s..%s",
		w.Start.Format("2006-01-02 15:04:05"),
		w.End.Format("2006-01-02 15:04:05"))
}

// Width returns the wall-clock span of the window.
func (w Window) Width() time.Duration {
	return w.End.Sub(w.Start)
}

// WindowsForDay tiles one calendar day into uniform windows of the given
// size. The size must satisfy the constraints checked by
// config.ValidateWindowMinutes; violating them is a configuration error
// raised before any scan begins.
func WindowsForDay(day time.Time, windowMinutes int) ([]Window, error) {
	if err := config.ValidateWindowMinutes(windowMinutes); err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	total := minutesPerDay / windowMinutes

	windows := make([]Window, 0, total)
	for i := 0; i < total; i++ {
		start := dayStart.Add(time.Duration(i*windowMinutes) * time.Minute)
		end := start.Add(time.Duration(windowMinutes)*time.Minute - time.Second)
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows, nil
}

// ParseDay parses a YYYY-MM-DD day string.
func ParseDay(s string) (time.Time, error) {
	day, err := time.Parse(config.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return day, nil
}

// DaysFor resolves the configured day selection into an ordered day list:
// either the single configured date, or every day in the inclusive
// start..end range.
func DaysFor(cfg config.DiscoveryConfig) ([]time.Time, error) {
	if cfg.Date != "" {
		day, err := ParseDay(cfg.Date)
		if err != nil {
			return nil, err
		}
		return []time.Time{day}, nil
	}

	if cfg.DateStart == "" || cfg.DateEnd == "" {
		return nil, fmt.Errorf("either date or date_start/date_end must be configured")
	}
	start, err := ParseDay(cfg.DateStart)
	if err != nil {
		return nil, err
	}
	end, err := ParseDay(cfg.DateEnd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date_end %s is before date_start %s", cfg.DateEnd, cfg.DateStart)
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

// FormatDay renders a day back to its YYYY-MM-DD form.
func FormatDay(day time.Time) string {
	return day.Format(config.DateLayout)
}

// DayBounds returns the half-open [00:00:00, next day 00:00:00) range used
// by the coarse per-day tenant scan.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}
