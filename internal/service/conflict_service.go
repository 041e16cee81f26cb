package service

import (
	"context"
	"time"

	"agenda-service/internal/errs"
	"agenda-service/internal/models"
	"agenda-service/internal/repository"
	"agenda-service/internal/schedule"
)

// ConflictService decides whether a candidate window collides with existing
// non-cancelled appointments, either at the same place or through a shared
// offerer. Checks are read-then-decide; the storage constraint is the
// backstop under concurrent writes.
type ConflictService struct {
	DB    repository.DB
	Appts repository.AppointmentRepository
	Refs  repository.ReferenceRepository
}

func NewConflictService(db repository.DB, appts repository.AppointmentRepository, refs repository.ReferenceRepository) *ConflictService {
	return &ConflictService{DB: db, Appts: appts, Refs: refs}
}

// ConflictResult describes the appointment blocking a candidate window.
type ConflictResult struct {
	Appointment *models.Appointment
	Place       *models.Place
	Window      string
}

// CheckPlaceConflict scans non-cancelled appointments for the place on the
// date. A nil result means the slot is free. The query runs on q so callers
// can check inside their own transaction.
func (s *ConflictService) CheckPlaceConflict(ctx context.Context, q repository.Querier, placeID string, date, start time.Time, end *time.Time, excl repository.Exclude) (*ConflictResult, error) {
	if err := validateCandidate(date, start, end); err != nil {
		return nil, err
	}
	ap, err := s.Appts.FindPlaceConflict(ctx, q, placeID, date, start, end, excl)
	if err != nil {
		return nil, err
	}
	if ap == nil {
		return nil, nil
	}
	return s.result(ctx, q, ap)
}

// CheckOffererConflict scans non-cancelled appointments whose activity shares
// any of the given offerers, independent of place: a staff member cannot be
// double-booked across different activities at overlapping times.
func (s *ConflictService) CheckOffererConflict(ctx context.Context, q repository.Querier, offererIDs []string, date, start time.Time, end *time.Time, excl repository.Exclude) (*ConflictResult, error) {
	if err := validateCandidate(date, start, end); err != nil {
		return nil, err
	}
	if len(offererIDs) == 0 {
		return nil, nil
	}
	ap, err := s.Appts.FindOffererConflict(ctx, q, offererIDs, date, start, end, excl)
	if err != nil {
		return nil, err
	}
	if ap == nil {
		return nil, nil
	}
	return s.result(ctx, q, ap)
}

func (s *ConflictService) result(ctx context.Context, q repository.Querier, ap *models.Appointment) (*ConflictResult, error) {
	place, err := s.Refs.GetPlace(ctx, q, ap.PlaceID)
	if err != nil {
		return nil, err
	}
	w := schedule.Window{Date: ap.Date, Start: ap.StartAt, End: ap.EndAt}
	return &ConflictResult{Appointment: ap, Place: place, Window: w.Format()}, nil
}

// validateCandidate fails fast before any lookup when the candidate interval
// is malformed. A nil end is a zero-width instant and is allowed here.
func validateCandidate(date, start time.Time, end *time.Time) error {
	w := schedule.Window{Date: date, Start: start, End: end}
	if err := w.Validate(); err != nil {
		return &errs.Validation{Msg: err.Error()}
	}
	return nil
}
