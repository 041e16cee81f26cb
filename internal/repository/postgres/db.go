package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"agenda-service/internal/errs"
	"agenda-service/internal/repository"
)

// DB adapts a pgx pool to the repository.DB handle services receive.
type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB { return &DB{pool: pool} }

func (d *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return d.pool.Query(ctx, sql, args...)
}

func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return d.pool.QueryRow(ctx, sql, args...)
}

func (d *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return d.pool.Exec(ctx, sql, args...)
}

func (d *DB) Begin(ctx context.Context) (repository.Tx, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, mapError(err, "begin transaction")
	}
	return tx, nil
}

// mapError translates storage failures into the error taxonomy. A losing
// concurrent transaction hits the exclusion or uniqueness constraint on
// appointments and must surface as the same conflict a pre-check reports.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01", "23505":
			return &errs.Conflict{Msg: "the requested time window is no longer available"}
		}
	}
	return &errs.Persistence{Msg: msg, Err: err}
}
