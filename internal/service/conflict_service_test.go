package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenda-service/internal/errs"
	"agenda-service/internal/models"
	"agenda-service/internal/repository"
)

func seedAppointment(f *fixture, activityID, placeID string, startH, endH int) string {
	return f.store.addAppointment(models.Appointment{
		ActivityID: activityID,
		PlaceID:    placeID,
		Date:       bookingDate,
		StartAt:    at(startH, 0),
		EndAt:      atPtr(endH, 0),
	})
}

func TestCheckPlaceConflict(t *testing.T) {
	f := newFixture()
	id := seedAppointment(f, "act-1", "place-1", 9, 10)

	res, err := f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(9, 30), atPtr(10, 30), repository.Exclude{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, id, res.Appointment.ID)
	assert.Equal(t, "09:00-10:00", res.Window)
	require.NotNil(t, res.Place)
	assert.Equal(t, "Main Hall", res.Place.Name)

	// free slot
	res, err = f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(10, 0), atPtr(11, 0), repository.Exclude{})
	require.NoError(t, err)
	assert.Nil(t, res)

	// other place
	res, err = f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-2", bookingDate, at(9, 0), atPtr(10, 0), repository.Exclude{})
	require.NoError(t, err)
	assert.Nil(t, res)

	// other date
	res, err = f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate.AddDate(0, 0, 1), at(9, 0).AddDate(0, 0, 1), nil, repository.Exclude{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCheckPlaceConflictExclusions(t *testing.T) {
	f := newFixture()
	id := seedAppointment(f, "act-1", "place-1", 9, 10)

	res, err := f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(9, 0), atPtr(10, 0), repository.Exclude{AppointmentID: id})
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(9, 0), atPtr(10, 0), repository.Exclude{ActivityID: "act-1"})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCheckPlaceConflictIgnoresCancelled(t *testing.T) {
	f := newFixture()
	reason := "Facilitator unavailable"
	f.store.addAppointment(models.Appointment{
		ActivityID: "act-1", PlaceID: "place-1", Date: bookingDate,
		StartAt: at(9, 0), EndAt: atPtr(10, 0),
		State: models.AppointmentCancelled, CancelReason: &reason,
	})

	res, err := f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(9, 0), atPtr(10, 0), repository.Exclude{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCheckPlaceConflictInstant(t *testing.T) {
	f := newFixture()
	seedAppointment(f, "act-1", "place-1", 9, 10)

	// an instant strictly inside the busy window collides
	res, err := f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(9, 30), nil, repository.Exclude{})
	require.NoError(t, err)
	assert.NotNil(t, res)

	// at the shared endpoint it does not
	res, err = f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(10, 0), nil, repository.Exclude{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestCheckPlaceConflictInvalidWindow(t *testing.T) {
	f := newFixture()
	var validation *errs.Validation

	_, err := f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, time.Time{}, nil, repository.Exclude{})
	require.ErrorAs(t, err, &validation)

	_, err = f.booking.Conflicts.CheckPlaceConflict(context.Background(), f.db,
		"place-1", bookingDate, at(10, 0), atPtr(9, 0), repository.Exclude{})
	require.ErrorAs(t, err, &validation)
}

func TestCheckOffererConflict(t *testing.T) {
	f := newFixture()
	id := seedAppointment(f, "act-1", "place-1", 9, 10)
	f.store.offerers["act-1"] = []string{"off-1"}

	// shared offerer collides even across places
	res, err := f.booking.Conflicts.CheckOffererConflict(context.Background(), f.db,
		[]string{"off-1"}, bookingDate, at(9, 30), atPtr(10, 30), repository.Exclude{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, id, res.Appointment.ID)

	// disjoint offerer sets do not
	res, err = f.booking.Conflicts.CheckOffererConflict(context.Background(), f.db,
		[]string{"off-2"}, bookingDate, at(9, 30), atPtr(10, 30), repository.Exclude{})
	require.NoError(t, err)
	assert.Nil(t, res)

	// no offerers, nothing to collide with
	res, err = f.booking.Conflicts.CheckOffererConflict(context.Background(), f.db,
		nil, bookingDate, at(9, 30), atPtr(10, 30), repository.Exclude{})
	require.NoError(t, err)
	assert.Nil(t, res)
}
