package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"agenda-service/internal/models"
	"agenda-service/internal/repository"
	"agenda-service/internal/schedule"
)

// stubQuerier satisfies repository.Querier for fakes that never touch SQL.
type stubQuerier struct{}

func (stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("no sql in unit tests")
}
func (stubQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("no sql in unit tests")
}
func (stubQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("no sql in unit tests")
}

type fakeTx struct {
	stubQuerier
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error { t.committed = true; return nil }

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	stubQuerier
	txs []*fakeTx
}

func (db *fakeDB) Begin(context.Context) (repository.Tx, error) {
	tx := &fakeTx{}
	db.txs = append(db.txs, tx)
	return tx, nil
}

func (db *fakeDB) lastTx() *fakeTx {
	if len(db.txs) == 0 {
		return nil
	}
	return db.txs[len(db.txs)-1]
}

// memStore backs the fake repositories with plain maps. Appointment order is
// tracked so "first scheduled appointment" behavior is deterministic.
type memStore struct {
	seq int

	activities map[string]*models.Activity

	appointments map[string]*models.Appointment
	apptOrder    []string

	offerers      map[string][]string
	beneficiaries map[string][]string

	places     map[string]*models.Place
	placeOrder []string

	activeOfferers      map[string]bool
	activeBeneficiaries map[string]bool
	activityTypes       map[string]bool
	projects            map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		activities:          map[string]*models.Activity{},
		appointments:        map[string]*models.Appointment{},
		offerers:            map[string][]string{},
		beneficiaries:       map[string][]string{},
		places:              map[string]*models.Place{},
		activeOfferers:      map[string]bool{},
		activeBeneficiaries: map[string]bool{},
		activityTypes:       map[string]bool{},
		projects:            map[string]bool{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addPlace(id, name string, capacity int, active bool) {
	m.places[id] = &models.Place{ID: id, Name: name, Capacity: &capacity, Active: active}
	m.placeOrder = append(m.placeOrder, id)
}

func (m *memStore) addAppointment(ap models.Appointment) string {
	if ap.ID == "" {
		ap.ID = m.nextID("apt")
	}
	if ap.State == "" {
		ap.State = models.AppointmentScheduled
	}
	m.appointments[ap.ID] = &ap
	m.apptOrder = append(m.apptOrder, ap.ID)
	return ap.ID
}

type fakeActivityRepo struct {
	store *memStore

	failReplaceOfferers      error
	failReplaceBeneficiaries error
}

func (r *fakeActivityRepo) InsertActivity(_ context.Context, _ repository.Querier, a *models.Activity) (string, error) {
	stored := *a
	stored.ID = r.store.nextID("act")
	stored.CreatedAt = time.Now()
	r.store.activities[stored.ID] = &stored
	return stored.ID, nil
}

func (r *fakeActivityRepo) GetActivity(_ context.Context, _ repository.Querier, id string) (*models.Activity, error) {
	a, ok := r.store.activities[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeActivityRepo) ListActivities(_ context.Context, _ repository.Querier) ([]models.Activity, error) {
	var out []models.Activity
	for _, a := range r.store.activities {
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeActivityRepo) UpdateActivity(_ context.Context, _ repository.Querier, id string, in *models.Activity) (int64, error) {
	a, ok := r.store.activities[id]
	if !ok {
		return 0, nil
	}
	a.Name = in.Name
	a.ActivityTypeID = in.ActivityTypeID
	a.Periodicity = in.Periodicity
	a.StartDate = in.StartDate
	a.EndDate = in.EndDate
	a.Capacity = in.Capacity
	a.PartnerID = in.PartnerID
	a.ProjectID = in.ProjectID
	a.UpdatedAt = time.Now()
	return 1, nil
}

func (r *fakeActivityRepo) MarkCancelled(_ context.Context, _ repository.Querier, id, reason string) (int64, error) {
	a, ok := r.store.activities[id]
	if !ok || a.State != models.ActivityScheduled {
		return 0, nil
	}
	a.State = models.ActivityCancelled
	a.CancelReason = &reason
	return 1, nil
}

func (r *fakeActivityRepo) MarkCompleted(_ context.Context, _ repository.Querier, id string) (int64, error) {
	a, ok := r.store.activities[id]
	if !ok || a.State != models.ActivityScheduled {
		return 0, nil
	}
	a.State = models.ActivityCompleted
	return 1, nil
}

func (r *fakeActivityRepo) MarkRescheduled(_ context.Context, _ repository.Querier, id string, newStart time.Time, reason string) (int64, error) {
	a, ok := r.store.activities[id]
	if !ok || a.State != models.ActivityScheduled {
		return 0, nil
	}
	a.StartDate = newStart
	a.RescheduleReason = &reason
	return 1, nil
}

func (r *fakeActivityRepo) DeleteActivity(_ context.Context, _ repository.Querier, id string) (int64, error) {
	if _, ok := r.store.activities[id]; !ok {
		return 0, nil
	}
	delete(r.store.activities, id)
	return 1, nil
}

func (r *fakeActivityRepo) ReplaceOfferers(_ context.Context, _ repository.Querier, activityID string, offererIDs []string) error {
	if r.failReplaceOfferers != nil {
		return r.failReplaceOfferers
	}
	r.store.offerers[activityID] = append([]string(nil), offererIDs...)
	return nil
}

func (r *fakeActivityRepo) ReplaceBeneficiaries(_ context.Context, _ repository.Querier, activityID string, beneficiaryIDs []string) error {
	if r.failReplaceBeneficiaries != nil {
		return r.failReplaceBeneficiaries
	}
	r.store.beneficiaries[activityID] = append([]string(nil), beneficiaryIDs...)
	return nil
}

func (r *fakeActivityRepo) DeleteAssociations(_ context.Context, _ repository.Querier, activityID string) error {
	delete(r.store.offerers, activityID)
	delete(r.store.beneficiaries, activityID)
	return nil
}

func (r *fakeActivityRepo) ListOffererIDs(_ context.Context, _ repository.Querier, activityID string) ([]string, error) {
	return append([]string(nil), r.store.offerers[activityID]...), nil
}

func (r *fakeActivityRepo) ListBeneficiaryIDs(_ context.Context, _ repository.Querier, activityID string) ([]string, error) {
	return append([]string(nil), r.store.beneficiaries[activityID]...), nil
}

type fakeAppointmentRepo struct {
	store *memStore
}

func (r *fakeAppointmentRepo) InsertAppointment(_ context.Context, _ repository.Querier, ap *models.Appointment) (string, error) {
	stored := *ap
	stored.CreatedAt = time.Now()
	return r.store.addAppointment(stored), nil
}

func (r *fakeAppointmentRepo) GetAppointment(_ context.Context, _ repository.Querier, id string) (*models.Appointment, error) {
	ap, ok := r.store.appointments[id]
	if !ok {
		return nil, nil
	}
	cp := *ap
	return &cp, nil
}

func (r *fakeAppointmentRepo) ListAppointments(_ context.Context, _ repository.Querier) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, id := range r.store.apptOrder {
		if ap, ok := r.store.appointments[id]; ok {
			out = append(out, *ap)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) ListByActivity(_ context.Context, _ repository.Querier, activityID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, id := range r.store.apptOrder {
		if ap, ok := r.store.appointments[id]; ok && ap.ActivityID == activityID {
			out = append(out, *ap)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) UpdateAppointment(_ context.Context, _ repository.Querier, id string, in *models.Appointment) (int64, error) {
	ap, ok := r.store.appointments[id]
	if !ok || ap.State == models.AppointmentCancelled {
		return 0, nil
	}
	ap.PlaceID = in.PlaceID
	ap.Date = in.Date
	ap.StartAt = in.StartAt
	ap.EndAt = in.EndAt
	return 1, nil
}

func (r *fakeAppointmentRepo) CancelAppointment(_ context.Context, _ repository.Querier, id, reason string) (int64, error) {
	ap, ok := r.store.appointments[id]
	if !ok || ap.State == models.AppointmentCancelled {
		return 0, nil
	}
	ap.State = models.AppointmentCancelled
	ap.CancelReason = &reason
	return 1, nil
}

func (r *fakeAppointmentRepo) CancelByActivity(_ context.Context, _ repository.Querier, activityID, reason string) (int64, error) {
	var n int64
	for _, ap := range r.store.appointments {
		if ap.ActivityID != activityID || ap.State == models.AppointmentCancelled {
			continue
		}
		ap.State = models.AppointmentCancelled
		derived := reason
		ap.CancelReason = &derived
		n++
	}
	return n, nil
}

func (r *fakeAppointmentRepo) RescheduleAppointment(_ context.Context, _ repository.Querier, id string, date, start time.Time, end *time.Time, placeID, reason string) (int64, error) {
	ap, ok := r.store.appointments[id]
	if !ok || ap.State == models.AppointmentCancelled {
		return 0, nil
	}
	ap.Date = date
	ap.StartAt = start
	ap.EndAt = end
	ap.PlaceID = placeID
	ap.RescheduleReason = &reason
	return 1, nil
}

func (r *fakeAppointmentRepo) DeleteByActivity(_ context.Context, _ repository.Querier, activityID string) error {
	for id, ap := range r.store.appointments {
		if ap.ActivityID == activityID {
			delete(r.store.appointments, id)
		}
	}
	return nil
}

func (r *fakeAppointmentRepo) FindPlaceConflict(_ context.Context, _ repository.Querier, placeID string, date, start time.Time, end *time.Time, excl repository.Exclude) (*models.Appointment, error) {
	candidate := schedule.Window{Date: date, Start: start, End: end}
	for _, id := range r.store.apptOrder {
		ap, ok := r.store.appointments[id]
		if !ok || ap.State == models.AppointmentCancelled || ap.PlaceID != placeID {
			continue
		}
		if ap.ID == excl.AppointmentID || ap.ActivityID == excl.ActivityID {
			continue
		}
		existing := schedule.Window{Date: ap.Date, Start: ap.StartAt, End: ap.EndAt}
		if existing.Overlaps(candidate) {
			cp := *ap
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) FindOffererConflict(_ context.Context, _ repository.Querier, offererIDs []string, date, start time.Time, end *time.Time, excl repository.Exclude) (*models.Appointment, error) {
	wanted := map[string]bool{}
	for _, id := range offererIDs {
		wanted[id] = true
	}
	candidate := schedule.Window{Date: date, Start: start, End: end}
	for _, id := range r.store.apptOrder {
		ap, ok := r.store.appointments[id]
		if !ok || ap.State == models.AppointmentCancelled {
			continue
		}
		if ap.ID == excl.AppointmentID || ap.ActivityID == excl.ActivityID {
			continue
		}
		shared := false
		for _, oid := range r.store.offerers[ap.ActivityID] {
			if wanted[oid] {
				shared = true
				break
			}
		}
		if !shared {
			continue
		}
		existing := schedule.Window{Date: ap.Date, Start: ap.StartAt, End: ap.EndAt}
		if existing.Overlaps(candidate) {
			cp := *ap
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeReferenceRepo struct {
	store *memStore
}

func (r *fakeReferenceRepo) GetPlace(_ context.Context, _ repository.Querier, id string) (*models.Place, error) {
	p, ok := r.store.places[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeReferenceRepo) ListActivePlaces(_ context.Context, _ repository.Querier) ([]models.Place, error) {
	var out []models.Place
	for _, id := range r.store.placeOrder {
		if p, ok := r.store.places[id]; ok && p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeReferenceRepo) OffererIsActive(_ context.Context, _ repository.Querier, id string) (bool, error) {
	return r.store.activeOfferers[id], nil
}

func (r *fakeReferenceRepo) BeneficiaryIsActive(_ context.Context, _ repository.Querier, id string) (bool, error) {
	return r.store.activeBeneficiaries[id], nil
}

func (r *fakeReferenceRepo) ActivityTypeExists(_ context.Context, _ repository.Querier, id string) (bool, error) {
	return r.store.activityTypes[id], nil
}

func (r *fakeReferenceRepo) ProjectExists(_ context.Context, _ repository.Querier, id string) (bool, error) {
	return r.store.projects[id], nil
}
