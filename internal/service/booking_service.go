package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agenda-service/internal/errs"
	"agenda-service/internal/models"
	"agenda-service/internal/repository"
	"agenda-service/internal/schedule"
)

// minReasonLength applies to cancellation and reschedule reasons.
const minReasonLength = 10

// BookingService orchestrates the activity lifecycle: atomic creation of an
// activity with its first appointment and association rows, updates, the
// cancel cascade, rescheduling, completion and administrative deletion.
type BookingService struct {
	DB         repository.DB
	Activities repository.ActivityRepository
	Appts      repository.AppointmentRepository
	Refs       repository.ReferenceRepository
	Conflicts  *ConflictService
	Suggest    *SuggestionService
	Logger     *slog.Logger

	now func() time.Time
}

func NewBookingService(db repository.DB, activities repository.ActivityRepository, appts repository.AppointmentRepository,
	refs repository.ReferenceRepository, conflicts *ConflictService, suggest *SuggestionService, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		DB:         db,
		Activities: activities,
		Appts:      appts,
		Refs:       refs,
		Conflicts:  conflicts,
		Suggest:    suggest,
		Logger:     logger,
		now:        time.Now,
	}
}

// AppointmentDraft is the place/date/time window of a proposed appointment.
type AppointmentDraft struct {
	PlaceID string
	Date    time.Time
	StartAt time.Time
	EndAt   *time.Time
}

func (d AppointmentDraft) window() schedule.Window {
	return schedule.Window{Date: d.Date, Start: d.StartAt, End: d.EndAt}
}

type CreateActivityInput struct {
	Name           string
	ActivityTypeID string
	Periodicity    models.Periodicity
	StartDate      time.Time
	EndDate        *time.Time
	Capacity       *int
	PartnerID      string
	ProjectID      *string
	CreatedBy      string
	Appointment    AppointmentDraft
	OffererIDs     []string
	BeneficiaryIDs []string
}

// CreateActivity books a new activity together with its first appointment and
// offerer/beneficiary links. All rows persist or none do.
func (s *BookingService) CreateActivity(ctx context.Context, in CreateActivityInput) (*models.Activity, error) {
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	draft := in.Appointment
	if err := s.ensureNoConflicts(ctx, tx, draft, in.OffererIDs, repository.Exclude{}); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		Name:           in.Name,
		ActivityTypeID: in.ActivityTypeID,
		Periodicity:    in.Periodicity,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Capacity:       in.Capacity,
		PartnerID:      in.PartnerID,
		ProjectID:      in.ProjectID,
		State:          models.ActivityScheduled,
		CreatedBy:      in.CreatedBy,
	}
	activityID, err := s.Activities.InsertActivity(ctx, tx, activity)
	if err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		ActivityID: activityID,
		PlaceID:    draft.PlaceID,
		Date:       draft.Date,
		StartAt:    draft.StartAt,
		EndAt:      draft.EndAt,
		State:      models.AppointmentScheduled,
		CreatedBy:  in.CreatedBy,
	}
	if _, err := s.Appts.InsertAppointment(ctx, tx, appointment); err != nil {
		return nil, err
	}

	if err := s.Activities.ReplaceOfferers(ctx, tx, activityID, in.OffererIDs); err != nil {
		return nil, err
	}
	if err := s.Activities.ReplaceBeneficiaries(ctx, tx, activityID, in.BeneficiaryIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "activity created", "activity_id", activityID, "place_id", draft.PlaceID)
	return s.GetActivity(ctx, activityID)
}

type UpdateActivityInput struct {
	Name           string
	ActivityTypeID string
	Periodicity    models.Periodicity
	StartDate      time.Time
	EndDate        *time.Time
	Capacity       *int
	PartnerID      string
	ProjectID      *string
	Appointment    *AppointmentDraft
	OffererIDs     []string
	BeneficiaryIDs []string
}

// UpdateActivity rewrites the activity and, when a new window is supplied,
// its scheduled appointment. Link sets are replaced wholesale when provided.
func (s *BookingService) UpdateActivity(ctx context.Context, id string, in UpdateActivityInput) (*models.Activity, error) {
	activity, err := s.mustGetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(activity, "modify"); err != nil {
		return nil, err
	}
	if activity.StartInPast(s.now()) {
		return nil, errs.IllegalStatef("cannot modify an activity that has already occurred")
	}

	if err := s.checkCatalogRefs(ctx, in.ActivityTypeID, in.ProjectID); err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, in.OffererIDs, in.BeneficiaryIDs); err != nil {
		return nil, err
	}
	if in.Appointment != nil {
		if err := s.validateWindow(*in.Appointment); err != nil {
			return nil, err
		}
		place, err := s.lookupActivePlace(ctx, in.Appointment.PlaceID)
		if err != nil {
			return nil, err
		}
		if err := capacityWithinPlace(in.Capacity, place); err != nil {
			return nil, err
		}
	}
	if err := s.capacityFitsKeptPlaces(ctx, id, in); err != nil {
		return nil, err
	}

	offererIDs := in.OffererIDs
	if offererIDs == nil {
		offererIDs, err = s.Activities.ListOffererIDs(ctx, s.DB, id)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if in.Appointment != nil {
		draft := *in.Appointment
		// The new window must not collide with anything outside this
		// activity. Its own appointments are all excluded, siblings
		// included: occurrences of one activity may share a window.
		excl := repository.Exclude{ActivityID: id}
		if err := s.ensureNoConflicts(ctx, tx, draft, offererIDs, excl); err != nil {
			return nil, err
		}
		appointments, err := s.Appts.ListByActivity(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		for i := range appointments {
			if appointments[i].State != models.AppointmentScheduled {
				continue
			}
			moved := appointments[i]
			moved.PlaceID = draft.PlaceID
			moved.Date = draft.Date
			moved.StartAt = draft.StartAt
			moved.EndAt = draft.EndAt
			if _, err := s.Appts.UpdateAppointment(ctx, tx, moved.ID, &moved); err != nil {
				return nil, err
			}
			break
		}
	}

	updated := &models.Activity{
		Name:           in.Name,
		ActivityTypeID: in.ActivityTypeID,
		Periodicity:    in.Periodicity,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Capacity:       in.Capacity,
		PartnerID:      in.PartnerID,
		ProjectID:      in.ProjectID,
	}
	if _, err := s.Activities.UpdateActivity(ctx, tx, id, updated); err != nil {
		return nil, err
	}

	if in.OffererIDs != nil {
		if err := s.Activities.ReplaceOfferers(ctx, tx, id, in.OffererIDs); err != nil {
			return nil, err
		}
	}
	if in.BeneficiaryIDs != nil {
		if err := s.Activities.ReplaceBeneficiaries(ctx, tx, id, in.BeneficiaryIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetActivity(ctx, id)
}

// CancelActivity moves a scheduled activity to Cancelled and cascades to
// every non-cancelled appointment under it.
func (s *BookingService) CancelActivity(ctx context.Context, id, reason string) (*models.Activity, error) {
	if err := validateReason(reason, "cancellation"); err != nil {
		return nil, err
	}
	activity, err := s.mustGetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	switch activity.State {
	case models.ActivityCancelled:
		return nil, errs.IllegalStatef("activity is already cancelled")
	case models.ActivityCompleted:
		return nil, errs.IllegalStatef("cannot cancel a completed activity")
	}
	if activity.StartDatePassed(s.now()) {
		return nil, errs.IllegalStatef("cannot cancel an activity that has already occurred")
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := s.Activities.MarkCancelled(ctx, tx, id, reason)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, errs.IllegalStatef("activity is already cancelled")
	}
	derived := fmt.Sprintf("Activity cancelled: %s", reason)
	if _, err := s.Appts.CancelByActivity(ctx, tx, id, derived); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "activity cancelled", "activity_id", id)
	return s.GetActivity(ctx, id)
}

type RescheduleInput struct {
	Reason   string
	NewDate  time.Time
	NewStart time.Time
	PlaceID  string // optional; empty keeps the current place
}

// RescheduleActivity moves a scheduled activity to a new window, keeping the
// appointment's duration. A one-time activity's sole appointment is rewritten
// in the same transaction; a recurring activity only moves its start date.
func (s *BookingService) RescheduleActivity(ctx context.Context, id string, in RescheduleInput) (*models.Activity, error) {
	if err := validateReason(in.Reason, "reschedule"); err != nil {
		return nil, err
	}
	activity, err := s.mustGetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(activity, "reschedule"); err != nil {
		return nil, err
	}
	now := s.now()
	if activity.StartInPast(now) {
		return nil, errs.IllegalStatef("cannot reschedule an activity that has already occurred")
	}
	if in.NewDate.Before(truncateToDay(now)) {
		return nil, errs.Validationf("the new date must not be in the past")
	}

	appointments, err := s.Appts.ListByActivity(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	var current *models.Appointment
	for i := range appointments {
		if appointments[i].State == models.AppointmentScheduled {
			current = &appointments[i]
			break
		}
	}
	if current == nil {
		return nil, errs.IllegalStatef("activity has no scheduled appointment to reschedule")
	}

	draft := AppointmentDraft{
		PlaceID: in.PlaceID,
		Date:    in.NewDate,
		StartAt: in.NewStart,
	}
	if draft.PlaceID == "" {
		draft.PlaceID = current.PlaceID
	}
	if current.EndAt != nil {
		end := in.NewStart.Add(current.EndAt.Sub(current.StartAt))
		draft.EndAt = &end
	}
	if err := s.validateWindow(draft); err != nil {
		return nil, err
	}
	if in.PlaceID != "" {
		place, err := s.lookupActivePlace(ctx, in.PlaceID)
		if err != nil {
			return nil, err
		}
		if err := capacityWithinPlace(activity.Capacity, place); err != nil {
			return nil, err
		}
	}

	offererIDs, err := s.Activities.ListOffererIDs(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	excl := repository.Exclude{AppointmentID: current.ID}
	if err := s.ensureNoConflicts(ctx, tx, draft, offererIDs, excl); err != nil {
		return nil, err
	}

	if _, err := s.Activities.MarkRescheduled(ctx, tx, id, in.NewStart, in.Reason); err != nil {
		return nil, err
	}
	if activity.Periodicity == models.PeriodicityOneTime {
		if _, err := s.Appts.RescheduleAppointment(ctx, tx, current.ID,
			in.NewDate, in.NewStart, draft.EndAt, draft.PlaceID, in.Reason); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "activity rescheduled", "activity_id", id, "new_start", in.NewStart)
	return s.GetActivity(ctx, id)
}

// CompleteActivity marks a scheduled activity as completed. The trigger is
// external; no further guards apply.
func (s *BookingService) CompleteActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.mustGetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	switch activity.State {
	case models.ActivityCancelled:
		return nil, errs.IllegalStatef("cannot complete a cancelled activity")
	case models.ActivityCompleted:
		return nil, errs.IllegalStatef("activity is already completed")
	}
	if _, err := s.Activities.MarkCompleted(ctx, s.DB, id); err != nil {
		return nil, err
	}
	return s.GetActivity(ctx, id)
}

// DeleteActivity hard-deletes an activity for administrative cleanup,
// removing association rows and appointments first.
func (s *BookingService) DeleteActivity(ctx context.Context, id string) error {
	if _, err := s.mustGetActivity(ctx, id); err != nil {
		return err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.Activities.DeleteAssociations(ctx, tx, id); err != nil {
		return err
	}
	if err := s.Appts.DeleteByActivity(ctx, tx, id); err != nil {
		return err
	}
	if _, err := s.Activities.DeleteActivity(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetActivity returns the activity with its appointments and link sets.
func (s *BookingService) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.mustGetActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.OffererIDs, err = s.Activities.ListOffererIDs(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if activity.BeneficiaryIDs, err = s.Activities.ListBeneficiaryIDs(ctx, s.DB, id); err != nil {
		return nil, err
	}
	if activity.Appointments, err = s.Appts.ListByActivity(ctx, s.DB, id); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *BookingService) ListActivities(ctx context.Context) ([]models.Activity, error) {
	return s.Activities.ListActivities(ctx, s.DB)
}

func (s *BookingService) mustGetActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.Activities.GetActivity(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, errs.NotFoundf("activity not found")
	}
	return activity, nil
}

// ensureNoConflicts runs the place check and the offerer check for the
// candidate window, attaching suggestions to a conflict when available.
func (s *BookingService) ensureNoConflicts(ctx context.Context, q repository.Querier, draft AppointmentDraft, offererIDs []string, excl repository.Exclude) error {
	res, err := s.Conflicts.CheckPlaceConflict(ctx, q, draft.PlaceID, draft.Date, draft.StartAt, draft.EndAt, excl)
	if err != nil {
		return err
	}
	if res != nil {
		return s.conflictError(ctx, draft,
			fmt.Sprintf("the place is already booked on %s from %s", draft.Date.Format("2006-01-02"), res.Window), res)
	}
	res, err = s.Conflicts.CheckOffererConflict(ctx, q, offererIDs, draft.Date, draft.StartAt, draft.EndAt, excl)
	if err != nil {
		return err
	}
	if res != nil {
		return s.conflictError(ctx, draft,
			fmt.Sprintf("an offerer already has another appointment from %s", res.Window), res)
	}
	return nil
}

func (s *BookingService) conflictError(ctx context.Context, draft AppointmentDraft, msg string, res *ConflictResult) error {
	conflict := &errs.Conflict{
		Msg:           msg,
		Window:        res.Window,
		AppointmentID: res.Appointment.ID,
	}
	if s.Suggest != nil {
		conflict.Suggestions = s.Suggest.SuggestAlternatives(ctx, draft.PlaceID, draft.Date, draft.StartAt, draft.EndAt)
	}
	return conflict
}

func (s *BookingService) validateCreate(in CreateActivityInput) error {
	if len(strings.TrimSpace(in.Name)) < 3 {
		return errs.Validationf("name must be at least 3 characters")
	}
	if in.ActivityTypeID == "" {
		return errs.Validationf("activity type is required")
	}
	if in.PartnerID == "" {
		return errs.Validationf("community partner is required")
	}
	if in.CreatedBy == "" {
		return errs.Validationf("creator is required")
	}
	switch in.Periodicity {
	case models.PeriodicityOneTime, models.PeriodicityRecurring:
	default:
		return errs.Validationf("periodicity must be %q or %q", models.PeriodicityOneTime, models.PeriodicityRecurring)
	}
	if len(in.OffererIDs) == 0 {
		return errs.Validationf("at least one offerer is required")
	}
	if len(in.BeneficiaryIDs) == 0 {
		return errs.Validationf("at least one beneficiary is required")
	}
	if in.Capacity != nil && *in.Capacity <= 0 {
		return errs.Validationf("capacity must be a positive number")
	}
	if in.Periodicity == models.PeriodicityOneTime && in.EndDate != nil &&
		!truncateToDay(*in.EndDate).Equal(truncateToDay(in.StartDate)) {
		return errs.Validationf("a one-time activity must start and end on the same date")
	}
	if in.Periodicity == models.PeriodicityRecurring {
		if in.EndDate == nil {
			return errs.Validationf("end date is required for recurring activities")
		}
		if !in.EndDate.After(in.StartDate) {
			return errs.Validationf("end date must be after the start date")
		}
	}
	if in.Appointment.EndAt == nil {
		return errs.Validationf("end time is required")
	}
	return s.validateWindow(in.Appointment)
}

func (s *BookingService) validateWindow(draft AppointmentDraft) error {
	if draft.PlaceID == "" {
		return errs.Validationf("place is required")
	}
	w := draft.window()
	if err := w.Validate(); err != nil {
		return &errs.Validation{Msg: err.Error()}
	}
	if !w.WithinOperatingWindow() {
		return errs.Validationf("appointments must fall between %02d:00 and %02d:00",
			schedule.OpeningHour, schedule.ClosingHour)
	}
	return nil
}

func (s *BookingService) checkReferences(ctx context.Context, in CreateActivityInput) error {
	place, err := s.lookupActivePlace(ctx, in.Appointment.PlaceID)
	if err != nil {
		return err
	}
	if err := capacityWithinPlace(in.Capacity, place); err != nil {
		return err
	}
	if err := s.checkCatalogRefs(ctx, in.ActivityTypeID, in.ProjectID); err != nil {
		return err
	}
	return s.checkParticipants(ctx, in.OffererIDs, in.BeneficiaryIDs)
}

func (s *BookingService) lookupActivePlace(ctx context.Context, placeID string) (*models.Place, error) {
	place, err := s.Refs.GetPlace(ctx, s.DB, placeID)
	if err != nil {
		return nil, err
	}
	if place == nil || !place.Active {
		return nil, errs.NotFoundf("the selected place does not exist or is inactive")
	}
	return place, nil
}

func (s *BookingService) checkCatalogRefs(ctx context.Context, activityTypeID string, projectID *string) error {
	ok, err := s.Refs.ActivityTypeExists(ctx, s.DB, activityTypeID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Validationf("the selected activity type does not exist")
	}
	if projectID != nil {
		ok, err := s.Refs.ProjectExists(ctx, s.DB, *projectID)
		if err != nil {
			return err
		}
		if !ok {
			return errs.Validationf("the selected project does not exist")
		}
	}
	return nil
}

// checkParticipants verifies offerer and beneficiary links. Nil slices are
// skipped: on update they mean "keep the current set".
func (s *BookingService) checkParticipants(ctx context.Context, offererIDs, beneficiaryIDs []string) error {
	for _, oid := range offererIDs {
		ok, err := s.Refs.OffererIsActive(ctx, s.DB, oid)
		if err != nil {
			return err
		}
		if !ok {
			return errs.Validationf("one or more selected offerers do not exist or are inactive")
		}
	}
	for _, bid := range beneficiaryIDs {
		ok, err := s.Refs.BeneficiaryIsActive(ctx, s.DB, bid)
		if err != nil {
			return err
		}
		if !ok {
			return errs.Validationf("one or more selected beneficiaries do not exist or are inactive")
		}
	}
	return nil
}

// capacityWithinPlace enforces that an activity's capacity never exceeds the
// capacity of a place hosting one of its appointments.
func capacityWithinPlace(capacity *int, place *models.Place) error {
	if capacity == nil || place == nil || place.Capacity == nil {
		return nil
	}
	if *capacity > *place.Capacity {
		return errs.Validationf("assigned capacity (%d) exceeds the place capacity (%d)", *capacity, *place.Capacity)
	}
	return nil
}

// capacityFitsKeptPlaces checks the proposed capacity against the places the
// activity's scheduled appointments keep using after an update. When a new
// window is supplied the first scheduled appointment moves to the draft's
// place, which the caller checks separately.
func (s *BookingService) capacityFitsKeptPlaces(ctx context.Context, id string, in UpdateActivityInput) error {
	if in.Capacity == nil {
		return nil
	}
	appointments, err := s.Appts.ListByActivity(ctx, s.DB, id)
	if err != nil {
		return err
	}
	skipMoved := in.Appointment != nil
	checked := map[string]bool{}
	for i := range appointments {
		if appointments[i].State != models.AppointmentScheduled {
			continue
		}
		if skipMoved {
			skipMoved = false
			continue
		}
		placeID := appointments[i].PlaceID
		if checked[placeID] {
			continue
		}
		checked[placeID] = true
		place, err := s.Refs.GetPlace(ctx, s.DB, placeID)
		if err != nil {
			return err
		}
		if err := capacityWithinPlace(in.Capacity, place); err != nil {
			return err
		}
	}
	return nil
}

func guardMutable(a *models.Activity, verb string) error {
	switch a.State {
	case models.ActivityCancelled:
		return errs.IllegalStatef("cannot %s a cancelled activity", verb)
	case models.ActivityCompleted:
		return errs.IllegalStatef("cannot %s a completed activity", verb)
	}
	return nil
}

func validateReason(reason, kind string) error {
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return errs.Validationf("the %s reason must be at least %d characters", kind, minReasonLength)
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
