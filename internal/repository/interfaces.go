package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"agenda-service/internal/models"
)

// Querier abstracts pgx pool/tx for easier testing and transactions.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Tx is a transaction handle; services begin one per booking operation.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is the storage handle injected into services.
type DB interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
}

// Exclude names rows a conflict scan must skip, used while rescheduling or
// updating so an appointment never conflicts with itself.
type Exclude struct {
	AppointmentID string
	ActivityID    string
}

type ActivityRepository interface {
	InsertActivity(ctx context.Context, q Querier, a *models.Activity) (string, error)
	GetActivity(ctx context.Context, q Querier, id string) (*models.Activity, error)
	ListActivities(ctx context.Context, q Querier) ([]models.Activity, error)
	UpdateActivity(ctx context.Context, q Querier, id string, a *models.Activity) (int64, error)
	MarkCancelled(ctx context.Context, q Querier, id, reason string) (int64, error)
	MarkCompleted(ctx context.Context, q Querier, id string) (int64, error)
	MarkRescheduled(ctx context.Context, q Querier, id string, newStart time.Time, reason string) (int64, error)
	DeleteActivity(ctx context.Context, q Querier, id string) (int64, error)
	ReplaceOfferers(ctx context.Context, q Querier, activityID string, offererIDs []string) error
	ReplaceBeneficiaries(ctx context.Context, q Querier, activityID string, beneficiaryIDs []string) error
	DeleteAssociations(ctx context.Context, q Querier, activityID string) error
	ListOffererIDs(ctx context.Context, q Querier, activityID string) ([]string, error)
	ListBeneficiaryIDs(ctx context.Context, q Querier, activityID string) ([]string, error)
}

type AppointmentRepository interface {
	InsertAppointment(ctx context.Context, q Querier, ap *models.Appointment) (string, error)
	GetAppointment(ctx context.Context, q Querier, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context, q Querier) ([]models.Appointment, error)
	ListByActivity(ctx context.Context, q Querier, activityID string) ([]models.Appointment, error)
	UpdateAppointment(ctx context.Context, q Querier, id string, ap *models.Appointment) (int64, error)
	CancelAppointment(ctx context.Context, q Querier, id, reason string) (int64, error)
	CancelByActivity(ctx context.Context, q Querier, activityID, reason string) (int64, error)
	RescheduleAppointment(ctx context.Context, q Querier, id string, date, start time.Time, end *time.Time, placeID, reason string) (int64, error)
	DeleteByActivity(ctx context.Context, q Querier, activityID string) error

	// FindPlaceConflict returns a non-cancelled appointment occupying the
	// place during [start, end) on date, or nil when the slot is free.
	FindPlaceConflict(ctx context.Context, q Querier, placeID string, date, start time.Time, end *time.Time, excl Exclude) (*models.Appointment, error)
	// FindOffererConflict returns a non-cancelled appointment whose activity
	// shares any of the given offerers during the window, or nil.
	FindOffererConflict(ctx context.Context, q Querier, offererIDs []string, date, start time.Time, end *time.Time, excl Exclude) (*models.Appointment, error)
}

// ReferenceRepository is the read-only registry of places, offerers,
// beneficiaries, activity types and projects.
type ReferenceRepository interface {
	GetPlace(ctx context.Context, q Querier, id string) (*models.Place, error)
	ListActivePlaces(ctx context.Context, q Querier) ([]models.Place, error)
	OffererIsActive(ctx context.Context, q Querier, id string) (bool, error)
	BeneficiaryIsActive(ctx context.Context, q Querier, id string) (bool, error)
	ActivityTypeExists(ctx context.Context, q Querier, id string) (bool, error)
	ProjectExists(ctx context.Context, q Querier, id string) (bool, error)
}
