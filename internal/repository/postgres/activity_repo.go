package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"agenda-service/internal/models"
	"agenda-service/internal/repository"
)

type ActivityRepo struct{}

func NewActivityRepo() *ActivityRepo { return &ActivityRepo{} }

const activityColumns = `id,name,activity_type_id,periodicity,start_date,end_date,capacity,
		partner_id,project_id,state,cancel_reason,reschedule_reason,created_by,created_at,updated_at`

func scanActivity(row pgx.Row, a *models.Activity) error {
	return row.Scan(&a.ID, &a.Name, &a.ActivityTypeID, &a.Periodicity, &a.StartDate, &a.EndDate,
		&a.Capacity, &a.PartnerID, &a.ProjectID, &a.State, &a.CancelReason, &a.RescheduleReason,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
}

func (r *ActivityRepo) InsertActivity(ctx context.Context, q repository.Querier, a *models.Activity) (string, error) {
	query := `INSERT INTO activities
		(id, name, activity_type_id, periodicity, start_date, end_date, capacity,
		 partner_id, project_id, state, created_by, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING id`
	var newID string
	err := q.QueryRow(ctx, query, a.Name, a.ActivityTypeID, a.Periodicity, a.StartDate, a.EndDate,
		a.Capacity, a.PartnerID, a.ProjectID, a.State, a.CreatedBy).Scan(&newID)
	if err != nil {
		return "", mapError(err, "insert activity")
	}
	return newID, nil
}

func (r *ActivityRepo) GetActivity(ctx context.Context, q repository.Querier, id string) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id=$1`
	var a models.Activity
	err := scanActivity(q.QueryRow(ctx, query, id), &a)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "get activity")
	}
	return &a, nil
}

func (r *ActivityRepo) ListActivities(ctx context.Context, q repository.Querier) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities ORDER BY start_date DESC`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "list activities")
	}
	defer rows.Close()
	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := scanActivity(rows, &a); err != nil {
			return nil, mapError(err, "scan activity")
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *ActivityRepo) UpdateActivity(ctx context.Context, q repository.Querier, id string, a *models.Activity) (int64, error) {
	query := `UPDATE activities
		SET name=$1, activity_type_id=$2, periodicity=$3, start_date=$4,
		    end_date=$5, capacity=$6, partner_id=$7, project_id=$8, updated_at=now()
		WHERE id=$9`
	res, err := q.Exec(ctx, query, a.Name, a.ActivityTypeID, a.Periodicity, a.StartDate,
		a.EndDate, a.Capacity, a.PartnerID, a.ProjectID, id)
	if err != nil {
		return 0, mapError(err, "update activity")
	}
	return res.RowsAffected(), nil
}

func (r *ActivityRepo) MarkCancelled(ctx context.Context, q repository.Querier, id, reason string) (int64, error) {
	query := `UPDATE activities
		SET state='Cancelled', cancel_reason=$1, updated_at=now()
		WHERE id=$2 AND state='Scheduled'`
	res, err := q.Exec(ctx, query, reason, id)
	if err != nil {
		return 0, mapError(err, "cancel activity")
	}
	return res.RowsAffected(), nil
}

func (r *ActivityRepo) MarkCompleted(ctx context.Context, q repository.Querier, id string) (int64, error) {
	query := `UPDATE activities
		SET state='Completed', updated_at=now()
		WHERE id=$1 AND state='Scheduled'`
	res, err := q.Exec(ctx, query, id)
	if err != nil {
		return 0, mapError(err, "complete activity")
	}
	return res.RowsAffected(), nil
}

func (r *ActivityRepo) MarkRescheduled(ctx context.Context, q repository.Querier, id string, newStart time.Time, reason string) (int64, error) {
	query := `UPDATE activities
		SET start_date=$1, reschedule_reason=$2, updated_at=now()
		WHERE id=$3 AND state='Scheduled'`
	res, err := q.Exec(ctx, query, newStart, reason, id)
	if err != nil {
		return 0, mapError(err, "reschedule activity")
	}
	return res.RowsAffected(), nil
}

func (r *ActivityRepo) DeleteActivity(ctx context.Context, q repository.Querier, id string) (int64, error) {
	res, err := q.Exec(ctx, `DELETE FROM activities WHERE id=$1`, id)
	if err != nil {
		return 0, mapError(err, "delete activity")
	}
	return res.RowsAffected(), nil
}

func (r *ActivityRepo) ReplaceOfferers(ctx context.Context, q repository.Querier, activityID string, offererIDs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM activity_offerers WHERE activity_id=$1`, activityID); err != nil {
		return mapError(err, "delete activity offerers")
	}
	for _, oid := range offererIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO activity_offerers (activity_id, offerer_id) VALUES ($1, $2)`,
			activityID, oid); err != nil {
			return mapError(err, "insert activity offerer")
		}
	}
	return nil
}

func (r *ActivityRepo) ReplaceBeneficiaries(ctx context.Context, q repository.Querier, activityID string, beneficiaryIDs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM activity_beneficiaries WHERE activity_id=$1`, activityID); err != nil {
		return mapError(err, "delete activity beneficiaries")
	}
	for _, bid := range beneficiaryIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO activity_beneficiaries (activity_id, beneficiary_id) VALUES ($1, $2)`,
			activityID, bid); err != nil {
			return mapError(err, "insert activity beneficiary")
		}
	}
	return nil
}

func (r *ActivityRepo) DeleteAssociations(ctx context.Context, q repository.Querier, activityID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM activity_offerers WHERE activity_id=$1`, activityID); err != nil {
		return mapError(err, "delete activity offerers")
	}
	if _, err := q.Exec(ctx, `DELETE FROM activity_beneficiaries WHERE activity_id=$1`, activityID); err != nil {
		return mapError(err, "delete activity beneficiaries")
	}
	return nil
}

func (r *ActivityRepo) ListOffererIDs(ctx context.Context, q repository.Querier, activityID string) ([]string, error) {
	return listIDs(ctx, q, `SELECT offerer_id FROM activity_offerers WHERE activity_id=$1`, activityID)
}

func (r *ActivityRepo) ListBeneficiaryIDs(ctx context.Context, q repository.Querier, activityID string) ([]string, error) {
	return listIDs(ctx, q, `SELECT beneficiary_id FROM activity_beneficiaries WHERE activity_id=$1`, activityID)
}

func listIDs(ctx context.Context, q repository.Querier, query, arg string) ([]string, error) {
	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, mapError(err, "list association ids")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err, "scan association id")
		}
		out = append(out, id)
	}
	return out, nil
}
