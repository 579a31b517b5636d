// Package phase classifies "now" against a tracked event's window.
//
// Classification is pure: it depends only on the event definition, the
// anchor instant (first day's start) and the supplied clock reading, so
// it can be driven by fake clocks in tests. Cross-day distances are
// measured on absolute instants; the daily window check is done on local
// wall-clock time-of-day in the event's own zone. The two never mix.
package phase

import (
	"time"

	"paxdown/internal/catalog"
)

// Kind enumerates the mutually exclusive classifications.
type Kind int

const (
	// Pending: the anchor instant is still in the future.
	Pending Kind = iota
	// InHours: the event is running and we are inside the day's window.
	InHours
	// OutOfHours: the event is running but doors are closed right now.
	OutOfHours
	// Completed: the event's full window has elapsed.
	Completed
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case InHours:
		return "in-hours"
	case OutOfHours:
		return "out-of-hours"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Phase is the result of one classification. Remaining is set only for
// Pending, Percent only for InHours. Phases are recomputed every tick
// and never stored.
type Phase struct {
	Kind      Kind
	Remaining time.Duration
	Percent   int
}

// Classify determines where now falls relative to the event window
// anchored at anchor.
func Classify(def *catalog.Definition, anchor, now time.Time) Phase {
	if delta := anchor.Sub(now); delta > 0 {
		return Phase{Kind: Pending, Remaining: delta}
	}

	loc := def.Location()
	offset := dayOffset(anchor.In(loc), now.In(loc))
	if offset >= def.Days {
		return Phase{Kind: Completed}
	}

	// The final calendar day closes early; every other day uses the
	// regular end-of-day window.
	end := def.End
	if offset == def.Days-1 {
		end = def.LastEnd
	}

	local := now.In(loc)
	nowSecs := local.Hour()*3600 + local.Minute()*60 + local.Second()

	// Window is start-exclusive, end-inclusive: the opening instant
	// itself still counts as out of hours.
	if nowSecs <= def.Start.Seconds() || nowSecs > end.Seconds() {
		return Phase{Kind: OutOfHours}
	}

	oneDay := def.End.Seconds() - def.Start.Seconds()
	total := oneDay*(def.Days-1) + def.LastEnd.Seconds() - def.Start.Seconds()
	elapsed := (nowSecs - def.Start.Seconds()) + oneDay*offset

	// Integer division truncates, which is the wanted floor behavior.
	percent := elapsed * 100 / total
	if percent >= 100 {
		return Phase{Kind: Completed}
	}
	return Phase{Kind: InHours, Percent: percent}
}

// FinalEnd returns the instant the event is over: the last calendar day
// at the last-day closing time. Used to decide whether persisted
// tracking is still worth restoring.
func FinalEnd(def *catalog.Definition, anchor time.Time) time.Time {
	loc := def.Location()
	last := anchor.In(loc).AddDate(0, 0, def.Days-1)
	return time.Date(last.Year(), last.Month(), last.Day(),
		def.LastEnd.Hour, def.LastEnd.Minute, def.LastEnd.Second, 0, loc)
}

// dayOffset counts whole calendar days between two local timestamps,
// comparing dates rather than elapsed hours so a late-night anchor does
// not shift the boundary.
func dayOffset(anchor, now time.Time) int {
	ay, am, ad := anchor.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(n.Sub(a).Hours() / 24)
}
