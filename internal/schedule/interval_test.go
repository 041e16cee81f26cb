package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func window(startH, startM, endH, endM int) Window {
	end := day(endH, endM)
	return Window{Date: day(0, 0), Start: day(startH, startM), End: &end}
}

func instant(hour, min int) Window {
	return Window{Date: day(0, 0), Start: day(hour, min)}
}

func TestWindowValidate(t *testing.T) {
	require.NoError(t, window(9, 0, 10, 0).Validate())
	require.NoError(t, instant(9, 0).Validate())

	assert.ErrorIs(t, Window{}.Validate(), ErrZeroStart)
	assert.ErrorIs(t, window(10, 0, 9, 0).Validate(), ErrWindowOrder)
	// zero-length windows are rejected too
	assert.ErrorIs(t, window(9, 0, 9, 0).Validate(), ErrWindowOrder)
}

func TestWindowOverlaps(t *testing.T) {
	base := window(9, 0, 10, 0)

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"identical", window(9, 0, 10, 0), true},
		{"partial overlap", window(9, 30, 10, 30), true},
		{"contained", window(9, 15, 9, 45), true},
		{"containing", window(8, 0, 11, 0), true},
		{"adjacent after", window(10, 0, 11, 0), false},
		{"adjacent before", window(8, 0, 9, 0), false},
		{"disjoint", window(11, 0, 12, 0), false},
		{"instant inside", instant(9, 30), true},
		{"instant at start", instant(9, 0), false},
		{"instant at end", instant(10, 0), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			// overlap is symmetric
			assert.Equal(t, tc.want, tc.other.Overlaps(base))
		})
	}
}

func TestWindowOverlapsDifferentDates(t *testing.T) {
	a := window(9, 0, 10, 0)
	b := a
	b.Date = a.Date.AddDate(0, 0, 1)
	assert.False(t, a.Overlaps(b))
}

func TestWithinOperatingWindow(t *testing.T) {
	assert.True(t, window(8, 0, 9, 0).WithinOperatingWindow())
	assert.True(t, window(19, 0, 20, 0).WithinOperatingWindow())
	assert.True(t, instant(12, 0).WithinOperatingWindow())

	assert.False(t, window(7, 30, 8, 30).WithinOperatingWindow())
	assert.False(t, window(19, 30, 20, 30).WithinOperatingWindow())
	assert.False(t, instant(21, 0).WithinOperatingWindow())
}

func TestWindowFormat(t *testing.T) {
	assert.Equal(t, "09:00-10:30", window(9, 0, 10, 30).Format())
	assert.Equal(t, "09:00", instant(9, 0).Format())
}

func TestCandidateStarts(t *testing.T) {
	starts := CandidateStarts(day(0, 0), time.Hour)
	require.Len(t, starts, ClosingHour-OpeningHour)
	assert.Equal(t, day(8, 0), starts[0])
	assert.Equal(t, day(19, 0), starts[len(starts)-1])

	// a two-hour slot cannot start at 19:00
	starts = CandidateStarts(day(0, 0), 2*time.Hour)
	assert.Equal(t, day(18, 0), starts[len(starts)-1])
}
