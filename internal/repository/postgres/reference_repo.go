package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"agenda-service/internal/models"
	"agenda-service/internal/repository"
)

// ReferenceRepo serves read-only lookups over the registries the booking
// core depends on. The registries themselves are maintained elsewhere.
type ReferenceRepo struct{}

func NewReferenceRepo() *ReferenceRepo { return &ReferenceRepo{} }

func (r *ReferenceRepo) GetPlace(ctx context.Context, q repository.Querier, id string) (*models.Place, error) {
	query := `SELECT id, name, capacity, active FROM places WHERE id=$1`
	var p models.Place
	err := q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Capacity, &p.Active)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "get place")
	}
	return &p, nil
}

func (r *ReferenceRepo) ListActivePlaces(ctx context.Context, q repository.Querier) ([]models.Place, error) {
	query := `SELECT id, name, capacity, active FROM places WHERE active ORDER BY name`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, mapError(err, "list places")
	}
	defer rows.Close()
	var out []models.Place
	for rows.Next() {
		var p models.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Capacity, &p.Active); err != nil {
			return nil, mapError(err, "scan place")
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ReferenceRepo) OffererIsActive(ctx context.Context, q repository.Querier, id string) (bool, error) {
	return existsQuery(ctx, q, `SELECT EXISTS (SELECT 1 FROM offerers WHERE id=$1 AND active)`, id)
}

func (r *ReferenceRepo) BeneficiaryIsActive(ctx context.Context, q repository.Querier, id string) (bool, error) {
	return existsQuery(ctx, q, `SELECT EXISTS (SELECT 1 FROM beneficiaries WHERE id=$1 AND active)`, id)
}

func (r *ReferenceRepo) ActivityTypeExists(ctx context.Context, q repository.Querier, id string) (bool, error) {
	return existsQuery(ctx, q, `SELECT EXISTS (SELECT 1 FROM activity_types WHERE id=$1)`, id)
}

func (r *ReferenceRepo) ProjectExists(ctx context.Context, q repository.Querier, id string) (bool, error) {
	return existsQuery(ctx, q, `SELECT EXISTS (SELECT 1 FROM projects WHERE id=$1)`, id)
}

func existsQuery(ctx context.Context, q repository.Querier, query, arg string) (bool, error) {
	var ok bool
	if err := q.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, mapError(err, "reference lookup")
	}
	return ok, nil
}
