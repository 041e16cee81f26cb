package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Operating window of the community center. No appointment may start before
// opening or end after closing.
const (
	OpeningHour = 8
	ClosingHour = 20
)

var (
	ErrZeroStart   = errors.New("start time is required")
	ErrWindowOrder = errors.New("end time must be after start time")
)

// Window is a half-open interval [Start, End) on a single calendar date.
// A nil End denotes a zero-width instant: it only conflicts with windows
// that strictly contain it.
type Window struct {
	Date  time.Time
	Start time.Time
	End   *time.Time
}

// Validate enforces start < end when both endpoints are present.
func (w Window) Validate() error {
	if w.Start.IsZero() {
		return ErrZeroStart
	}
	if w.End != nil && !w.End.After(w.Start) {
		return ErrWindowOrder
	}
	return nil
}

// effectiveEnd treats a missing end as equal to the window's own start.
func (w Window) effectiveEnd() time.Time {
	if w.End != nil {
		return *w.End
	}
	return w.Start
}

// Overlaps reports whether two windows collide: the dates must match and the
// half-open intervals must intersect (start_a < end_b AND start_b < end_a).
func (w Window) Overlaps(other Window) bool {
	if !sameDay(w.Date, other.Date) {
		return false
	}
	return w.Start.Before(other.effectiveEnd()) && other.Start.Before(w.effectiveEnd())
}

// WithinOperatingWindow reports whether the window fits the center's
// opening hours on its own date.
func (w Window) WithinOperatingWindow() bool {
	opens := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), OpeningHour, 0, 0, 0, w.Start.Location())
	closes := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), ClosingHour, 0, 0, 0, w.Start.Location())
	if w.Start.Before(opens) || w.Start.After(closes) {
		return false
	}
	if w.End != nil && w.End.After(closes) {
		return false
	}
	return true
}

// Format renders the window as "09:00-10:00", or just the start time when
// the window has no end.
func (w Window) Format() string {
	if w.End == nil {
		return w.Start.Format("15:04")
	}
	return fmt.Sprintf("%s-%s", w.Start.Format("15:04"), w.End.Format("15:04"))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CandidateStarts returns the hourly probe starts within the operating
// window for a slot of the given duration, used when proposing alternatives.
func CandidateStarts(date time.Time, d time.Duration) []time.Time {
	var out []time.Time
	y, m, day := date.Date()
	closes := time.Date(y, m, day, ClosingHour, 0, 0, 0, date.Location())
	for h := OpeningHour; h < ClosingHour; h++ {
		start := time.Date(y, m, day, h, 0, 0, 0, date.Location())
		if start.Add(d).After(closes) {
			break
		}
		out = append(out, start)
	}
	return out
}
