package scoring

import "github.com/keystone/habit-engine/calendar"

// =============================================================================
// GRACE TRACKER - one forgiven day per ISO week
// =============================================================================

// GraceState is the tracker's position in its per-week state machine.
type GraceState int

const (
	// GraceTracking means no day has been entered yet.
	GraceTracking GraceState = iota
	GraceAvailable
	GraceConsumed
)

func (s GraceState) String() string {
	switch s {
	case GraceTracking:
		return "tracking"
	case GraceAvailable:
		return "graceAvailable"
	case GraceConsumed:
		return "graceConsumed"
	default:
		return "unknown"
	}
}

// GraceTracker grants one grace use per ISO week. Both streak walks drive
// the same tracker: call Enter for every visited day, then Consume when the
// day fails. Entering a day from a different ISO week (year and number)
// makes grace available again, whichever direction the walk goes.
//
// The zero value is ready to use.
type GraceTracker struct {
	week  calendar.Week
	state GraceState
}

// Enter moves the tracker onto the given day.
func (g *GraceTracker) Enter(d calendar.Date) {
	w := d.ISOWeek()
	if g.state == GraceTracking || w != g.week {
		g.week = w
		g.state = GraceAvailable
	}
}

// Consume uses the current week's grace. It returns false if the grace was
// already used or no day has been entered.
func (g *GraceTracker) Consume() bool {
	if g.state != GraceAvailable {
		return false
	}
	g.state = GraceConsumed
	return true
}

// State returns the current state.
func (g *GraceTracker) State() GraceState { return g.state }

// Week returns the ISO week of the last entered day.
func (g *GraceTracker) Week() calendar.Week { return g.week }
