package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityStateTerminal(t *testing.T) {
	assert.False(t, ActivityScheduled.Terminal())
	assert.True(t, ActivityCancelled.Terminal())
	assert.True(t, ActivityCompleted.Terminal())
}

func TestStartDatePassed(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	yesterday := Activity{StartDate: time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)}
	assert.True(t, yesterday.StartDatePassed(now))

	// earlier today does not count: only the calendar date matters
	today := Activity{StartDate: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	assert.False(t, today.StartDatePassed(now))

	tomorrow := Activity{StartDate: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)}
	assert.False(t, tomorrow.StartDatePassed(now))
}

func TestStartInPast(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	earlier := Activity{StartDate: now.Add(-time.Hour)}
	assert.True(t, earlier.StartInPast(now))

	later := Activity{StartDate: now.Add(time.Hour)}
	assert.False(t, later.StartInPast(now))
}

func TestAppointmentMarshalUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	end := time.Date(2026, 3, 10, 10, 0, 0, 0, loc)
	ap := Appointment{
		ID:      "apt-1",
		StartAt: time.Date(2026, 3, 10, 9, 0, 0, 0, loc),
		EndAt:   &end,
		State:   AppointmentScheduled,
	}

	raw, err := json.Marshal(ap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "2026-03-10T14:00:00Z", decoded["start_at_utc"])
	assert.Equal(t, "2026-03-10T15:00:00Z", decoded["end_at_utc"])
}

func TestActivityMarshalUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	a := Activity{
		ID:        "act-1",
		Name:      "Chess Club",
		StartDate: time.Date(2026, 3, 10, 9, 0, 0, 0, loc),
		State:     ActivityScheduled,
	}

	raw, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "2026-03-10T07:00:00Z", decoded["start_date"])
	assert.Equal(t, "Scheduled", decoded["state"])
}
