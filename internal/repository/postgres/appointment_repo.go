package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"agenda-service/internal/models"
	"agenda-service/internal/repository"
)

type AppointmentRepo struct{}

func NewAppointmentRepo() *AppointmentRepo { return &AppointmentRepo{} }

const appointmentColumns = `id,activity_id,place_id,date,start_at,end_at,state,
		cancel_reason,reschedule_reason,created_by,created_at`

func scanAppointment(row pgx.Row, ap *models.Appointment) error {
	return row.Scan(&ap.ID, &ap.ActivityID, &ap.PlaceID, &ap.Date, &ap.StartAt, &ap.EndAt,
		&ap.State, &ap.CancelReason, &ap.RescheduleReason, &ap.CreatedBy, &ap.CreatedAt)
}

func (r *AppointmentRepo) InsertAppointment(ctx context.Context, q repository.Querier, ap *models.Appointment) (string, error) {
	query := `INSERT INTO appointments
		(id, activity_id, place_id, date, start_at, end_at, state, created_by, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id`
	var newID string
	err := q.QueryRow(ctx, query, ap.ActivityID, ap.PlaceID, ap.Date, ap.StartAt, ap.EndAt,
		ap.State, ap.CreatedBy).Scan(&newID)
	if err != nil {
		return "", mapError(err, "insert appointment")
	}
	return newID, nil
}

func (r *AppointmentRepo) GetAppointment(ctx context.Context, q repository.Querier, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	var ap models.Appointment
	err := scanAppointment(q.QueryRow(ctx, query, id), &ap)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "get appointment")
	}
	return &ap, nil
}

func (r *AppointmentRepo) ListAppointments(ctx context.Context, q repository.Querier) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY date DESC, start_at DESC`
	return r.queryAppointments(ctx, q, query)
}

func (r *AppointmentRepo) ListByActivity(ctx context.Context, q repository.Querier, activityID string) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE activity_id=$1 ORDER BY date, start_at`
	return r.queryAppointments(ctx, q, query, activityID)
}

func (r *AppointmentRepo) queryAppointments(ctx context.Context, q repository.Querier, query string, args ...any) ([]models.Appointment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list appointments")
	}
	defer rows.Close()
	var out []models.Appointment
	for rows.Next() {
		var ap models.Appointment
		if err := scanAppointment(rows, &ap); err != nil {
			return nil, mapError(err, "scan appointment")
		}
		out = append(out, ap)
	}
	return out, nil
}

func (r *AppointmentRepo) UpdateAppointment(ctx context.Context, q repository.Querier, id string, ap *models.Appointment) (int64, error) {
	query := `UPDATE appointments
		SET place_id=$1, date=$2, start_at=$3, end_at=$4
		WHERE id=$5 AND state='Scheduled'`
	res, err := q.Exec(ctx, query, ap.PlaceID, ap.Date, ap.StartAt, ap.EndAt, id)
	if err != nil {
		return 0, mapError(err, "update appointment")
	}
	return res.RowsAffected(), nil
}

func (r *AppointmentRepo) CancelAppointment(ctx context.Context, q repository.Querier, id, reason string) (int64, error) {
	query := `UPDATE appointments
		SET state='Cancelled', cancel_reason=$1
		WHERE id=$2 AND state != 'Cancelled'`
	res, err := q.Exec(ctx, query, reason, id)
	if err != nil {
		return 0, mapError(err, "cancel appointment")
	}
	return res.RowsAffected(), nil
}

func (r *AppointmentRepo) CancelByActivity(ctx context.Context, q repository.Querier, activityID, reason string) (int64, error) {
	query := `UPDATE appointments
		SET state='Cancelled', cancel_reason=$1
		WHERE activity_id=$2 AND state != 'Cancelled'`
	res, err := q.Exec(ctx, query, reason, activityID)
	if err != nil {
		return 0, mapError(err, "cancel appointments of activity")
	}
	return res.RowsAffected(), nil
}

func (r *AppointmentRepo) RescheduleAppointment(ctx context.Context, q repository.Querier, id string, date, start time.Time, end *time.Time, placeID, reason string) (int64, error) {
	query := `UPDATE appointments
		SET date=$1, start_at=$2, end_at=$3, place_id=$4, reschedule_reason=$5
		WHERE id=$6 AND state='Scheduled'`
	res, err := q.Exec(ctx, query, date, start, end, placeID, reason, id)
	if err != nil {
		return 0, mapError(err, "reschedule appointment")
	}
	return res.RowsAffected(), nil
}

func (r *AppointmentRepo) DeleteByActivity(ctx context.Context, q repository.Querier, activityID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM appointments WHERE activity_id=$1`, activityID); err != nil {
		return mapError(err, "delete appointments of activity")
	}
	return nil
}

// FindPlaceConflict scans non-cancelled appointments at the place on the date
// for half-open overlap with [start, end). A missing end counts as a
// zero-width instant.
func (r *AppointmentRepo) FindPlaceConflict(ctx context.Context, q repository.Querier, placeID string, date, start time.Time, end *time.Time, excl repository.Exclude) (*models.Appointment, error) {
	endOrStart := start
	if end != nil {
		endOrStart = *end
	}
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE place_id=$1 AND date=$2 AND state='Scheduled'
		  AND start_at < $3 AND $4 < COALESCE(end_at, start_at)
		  AND ($5 = '' OR id <> $5)
		  AND ($6 = '' OR activity_id <> $6)
		LIMIT 1`
	var ap models.Appointment
	err := scanAppointment(q.QueryRow(ctx, query, placeID, date, endOrStart, start,
		excl.AppointmentID, excl.ActivityID), &ap)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "check place conflict")
	}
	return &ap, nil
}

// FindOffererConflict scans non-cancelled appointments whose activity shares
// any of the given offerers, regardless of place.
func (r *AppointmentRepo) FindOffererConflict(ctx context.Context, q repository.Querier, offererIDs []string, date, start time.Time, end *time.Time, excl repository.Exclude) (*models.Appointment, error) {
	if len(offererIDs) == 0 {
		return nil, nil
	}
	endOrStart := start
	if end != nil {
		endOrStart = *end
	}
	query := `SELECT DISTINCT a.id,a.activity_id,a.place_id,a.date,a.start_at,a.end_at,a.state,
		a.cancel_reason,a.reschedule_reason,a.created_by,a.created_at
		FROM appointments a
		JOIN activity_offerers ao ON ao.activity_id = a.activity_id
		WHERE ao.offerer_id = ANY($1) AND a.date=$2 AND a.state='Scheduled'
		  AND a.start_at < $3 AND $4 < COALESCE(a.end_at, a.start_at)
		  AND ($5 = '' OR a.id <> $5)
		  AND ($6 = '' OR a.activity_id <> $6)
		LIMIT 1`
	var ap models.Appointment
	err := scanAppointment(q.QueryRow(ctx, query, offererIDs, date, endOrStart, start,
		excl.AppointmentID, excl.ActivityID), &ap)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "check offerer conflict")
	}
	return &ap, nil
}
