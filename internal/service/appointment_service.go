package service

import (
	"context"
	"log/slog"
	"time"

	"agenda-service/internal/errs"
	"agenda-service/internal/models"
	"agenda-service/internal/repository"
)

// AppointmentService manages individual appointments: extra occurrences of a
// recurring activity, window moves and per-appointment cancellation. Every
// mutation runs both conflict checks.
type AppointmentService struct {
	DB         repository.DB
	Appts      repository.AppointmentRepository
	Activities repository.ActivityRepository
	Refs       repository.ReferenceRepository
	Conflicts  *ConflictService
	Suggest    *SuggestionService
	Logger     *slog.Logger

	now func() time.Time
}

func NewAppointmentService(db repository.DB, appts repository.AppointmentRepository, activities repository.ActivityRepository,
	refs repository.ReferenceRepository, conflicts *ConflictService, suggest *SuggestionService, logger *slog.Logger) *AppointmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppointmentService{
		DB:         db,
		Appts:      appts,
		Activities: activities,
		Refs:       refs,
		Conflicts:  conflicts,
		Suggest:    suggest,
		Logger:     logger,
		now:        time.Now,
	}
}

type CreateAppointmentInput struct {
	ActivityID string
	Draft      AppointmentDraft
	CreatedBy  string
}

func (s *AppointmentService) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	return s.Appts.ListAppointments(ctx, s.DB)
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	ap, err := s.Appts.GetAppointment(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if ap == nil {
		return nil, errs.NotFoundf("appointment not found")
	}
	return ap, nil
}

// CreateAppointment adds an occurrence to an existing scheduled activity.
func (s *AppointmentService) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error) {
	activity, err := s.Activities.GetActivity(ctx, s.DB, in.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, errs.NotFoundf("activity not found")
	}
	if err := guardMutable(activity, "add appointments to"); err != nil {
		return nil, err
	}
	if in.Draft.EndAt == nil {
		return nil, errs.Validationf("end time is required")
	}
	if err := s.validateDraft(ctx, in.Draft, activity.Capacity); err != nil {
		return nil, err
	}

	offererIDs, err := s.Activities.ListOffererIDs(ctx, s.DB, in.ActivityID)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.ensureNoConflicts(ctx, tx, in.Draft, offererIDs, repository.Exclude{}); err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		ActivityID: in.ActivityID,
		PlaceID:    in.Draft.PlaceID,
		Date:       in.Draft.Date,
		StartAt:    in.Draft.StartAt,
		EndAt:      in.Draft.EndAt,
		State:      models.AppointmentScheduled,
		CreatedBy:  in.CreatedBy,
	}
	newID, err := s.Appts.InsertAppointment(ctx, tx, appointment)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "appointment created", "appointment_id", newID, "activity_id", in.ActivityID)
	return s.GetAppointment(ctx, newID)
}

// UpdateAppointment moves an appointment to a new window or place, excluding
// itself from the conflict scan.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, id string, draft AppointmentDraft) (*models.Appointment, error) {
	current, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.State == models.AppointmentCancelled {
		return nil, errs.IllegalStatef("cannot modify a cancelled appointment")
	}
	activity, err := s.Activities.GetActivity(ctx, s.DB, current.ActivityID)
	if err != nil {
		return nil, err
	}
	var capacity *int
	if activity != nil {
		capacity = activity.Capacity
	}
	if err := s.validateDraft(ctx, draft, capacity); err != nil {
		return nil, err
	}

	offererIDs, err := s.Activities.ListOffererIDs(ctx, s.DB, current.ActivityID)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	excl := repository.Exclude{AppointmentID: id}
	if err := s.ensureNoConflicts(ctx, tx, draft, offererIDs, excl); err != nil {
		return nil, err
	}

	moved := *current
	moved.PlaceID = draft.PlaceID
	moved.Date = draft.Date
	moved.StartAt = draft.StartAt
	moved.EndAt = draft.EndAt
	rows, err := s.Appts.UpdateAppointment(ctx, tx, id, &moved)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errs.IllegalStatef("cannot modify a cancelled appointment")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetAppointment(ctx, id)
}

// CancelAppointment cancels a single appointment without touching its activity.
func (s *AppointmentService) CancelAppointment(ctx context.Context, id, reason string) (*models.Appointment, error) {
	if err := validateReason(reason, "cancellation"); err != nil {
		return nil, err
	}
	current, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.State == models.AppointmentCancelled {
		return nil, errs.IllegalStatef("appointment is already cancelled")
	}
	rows, err := s.Appts.CancelAppointment(ctx, s.DB, id, reason)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errs.IllegalStatef("appointment is already cancelled")
	}
	s.Logger.InfoContext(ctx, "appointment cancelled", "appointment_id", id)
	return s.GetAppointment(ctx, id)
}

// validateDraft checks the window, the place, and that the owning activity's
// capacity still fits the place about to host the appointment.
func (s *AppointmentService) validateDraft(ctx context.Context, draft AppointmentDraft, capacity *int) error {
	if draft.PlaceID == "" {
		return errs.Validationf("place is required")
	}
	w := draft.window()
	if err := w.Validate(); err != nil {
		return &errs.Validation{Msg: err.Error()}
	}
	if !w.WithinOperatingWindow() {
		return errs.Validationf("appointments must fall between 08:00 and 20:00")
	}
	place, err := s.Refs.GetPlace(ctx, s.DB, draft.PlaceID)
	if err != nil {
		return err
	}
	if place == nil || !place.Active {
		return errs.NotFoundf("the selected place does not exist or is inactive")
	}
	return capacityWithinPlace(capacity, place)
}

// ensureNoConflicts mirrors the booking engine's pair of checks.
func (s *AppointmentService) ensureNoConflicts(ctx context.Context, q repository.Querier, draft AppointmentDraft, offererIDs []string, excl repository.Exclude) error {
	res, err := s.Conflicts.CheckPlaceConflict(ctx, q, draft.PlaceID, draft.Date, draft.StartAt, draft.EndAt, excl)
	if err != nil {
		return err
	}
	if res != nil {
		conflict := &errs.Conflict{
			Msg:           "the place is already booked from " + res.Window,
			Window:        res.Window,
			AppointmentID: res.Appointment.ID,
		}
		if s.Suggest != nil {
			conflict.Suggestions = s.Suggest.SuggestAlternatives(ctx, draft.PlaceID, draft.Date, draft.StartAt, draft.EndAt)
		}
		return conflict
	}
	res, err = s.Conflicts.CheckOffererConflict(ctx, q, offererIDs, draft.Date, draft.StartAt, draft.EndAt, excl)
	if err != nil {
		return err
	}
	if res != nil {
		return &errs.Conflict{
			Msg:           "an offerer already has another appointment from " + res.Window,
			Window:        res.Window,
			AppointmentID: res.Appointment.ID,
		}
	}
	return nil
}
