package strategy

import (
	"fmt"
	"time"

	"SilverSnap/internal/model"
)

// ClockWindow is a daily wall-clock interval in a fixed location, e.g. the
// mid-day exit-review window in Eastern time.
type ClockWindow struct {
	start int // minutes from midnight, inclusive
	end   int // minutes from midnight, inclusive
	loc   *time.Location
}

// NewClockWindow parses "15:04"-style bounds. The window must not be empty.
func NewClockWindow(start, end string, loc *time.Location) (ClockWindow, error) {
	s, err := parseMinutes(start)
	if err != nil {
		return ClockWindow{}, err
	}
	e, err := parseMinutes(end)
	if err != nil {
		return ClockWindow{}, err
	}
	if e < s {
		return ClockWindow{}, fmt.Errorf("%w: window end %s before start %s", model.ErrInvalidConfiguration, end, start)
	}
	if loc == nil {
		loc = time.Local
	}
	return ClockWindow{start: s, end: e, loc: loc}, nil
}

// Contains reports whether t's wall clock in the window's location falls
// inside the interval.
func (w ClockWindow) Contains(t time.Time) bool {
	local := t.In(w.loc)
	m := local.Hour()*60 + local.Minute()
	return m >= w.start && m <= w.end
}

func parseMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad time of day %q: %v", model.ErrInvalidConfiguration, s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
