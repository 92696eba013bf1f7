package scheduler

import (
	"fmt"
	"time"
)

// Window is the weekly one-minute interval during which an automatic
// run may fire. Polling happens at second granularity, so the window
// is an exact weekday + hour + minute match.
type Window struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return t.Weekday() == w.Weekday && t.Hour() == w.Hour && t.Minute() == w.Minute
}

// Next returns the start of the next window at or after t. If t is
// inside the window, the current window's start is returned.
func (w Window) Next(t time.Time) time.Time {
	daysAhead := (int(w.Weekday) - int(t.Weekday()) + 7) % 7
	target := time.Date(t.Year(), t.Month(), t.Day(), w.Hour, w.Minute, 0, 0, t.Location())
	target = target.AddDate(0, 0, daysAhead)
	if w.Contains(t) {
		return target
	}
	if !target.After(t) {
		target = target.AddDate(0, 0, 7)
	}
	return target
}

// Countdown describes the time remaining until the next window.
func (w Window) Countdown(t time.Time) string {
	if w.Contains(t) {
		return "window active now"
	}
	next := w.Next(t)
	until := next.Sub(t)
	if t.Weekday() == w.Weekday {
		if next.Day() == t.Day() && next.Month() == t.Month() && next.Year() == t.Year() {
			return fmt.Sprintf("%s until today's %02d:%02d window",
				formatDuration(until), w.Hour, w.Minute)
		}
		return fmt.Sprintf("window passed today, next run %s %02d:%02d",
			w.Weekday, w.Hour, w.Minute)
	}
	return fmt.Sprintf("next run %s %02d:%02d (in %s)",
		w.Weekday, w.Hour, w.Minute, formatDuration(until))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
