// Package status renders a phase into the channel label text.
package status

import (
	"fmt"
	"strings"
	"time"

	"paxdown/internal/phase"
)

// warnWindow is how close the event has to be before the countdown gets
// wrapped in warning glyphs.
const warnWindow = 7 * 24 * time.Hour

// welcome replaces "0% Complete" during the event's first minutes.
const welcome = "Welcome Home!"

// Render maps a phase to the display string for eventID. ok is false
// when no update should be issued at all (out of hours).
func Render(eventID string, p phase.Phase) (name string, ok bool) {
	switch p.Kind {
	case phase.OutOfHours:
		return "", false
	case phase.Completed:
		return label(eventID) + "100% Complete", true
	case phase.InHours:
		if p.Percent == 0 {
			return label(eventID) + welcome, true
		}
		return fmt.Sprintf("%s%d%% Complete", label(eventID), p.Percent), true
	}

	body := countdown(p.Remaining)
	if p.Remaining <= warnWindow {
		body = "⚠ " + body + " ⚠"
	}
	return label(eventID) + body, true
}

// Goodbye is the final label issued when tracking is stopped by hand.
func Goodbye(eventID string) string {
	return label(eventID) + "See You Next Time!"
}

// countdown picks the largest unit with a non-zero count. Never renders
// "0 minutes"; below a minute it falls through to seconds.
func countdown(d time.Duration) string {
	if days := int(d.Hours()) / 24; days >= 1 {
		return plural(days, "day")
	}
	if hours := int(d.Hours()); hours >= 1 {
		return plural(hours, "hour")
	}
	if minutes := int(d.Minutes()); minutes >= 1 {
		return plural(minutes, "minute")
	}
	return plural(int(d.Seconds()), "second")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func label(eventID string) string {
	return "PAX " + capitalize(eventID) + ": "
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
