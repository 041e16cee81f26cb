package models

import (
	"encoding/json"
	"time"
)

type Periodicity string

const (
	PeriodicityOneTime   Periodicity = "OneTime"
	PeriodicityRecurring Periodicity = "Recurring"
)

type ActivityState string

const (
	ActivityScheduled ActivityState = "Scheduled"
	ActivityCancelled ActivityState = "Cancelled"
	ActivityCompleted ActivityState = "Completed"
)

// Terminal reports whether the state admits no further transitions.
func (s ActivityState) Terminal() bool {
	return s == ActivityCancelled || s == ActivityCompleted
}

type AppointmentState string

const (
	AppointmentScheduled AppointmentState = "Scheduled"
	AppointmentCancelled AppointmentState = "Cancelled"
)

type Place struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity *int   `json:"capacity,omitempty"`
	Active   bool   `json:"active"`
}

type Offerer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Responsible string `json:"responsible,omitempty"`
	Active      bool   `json:"active"`
}

type Beneficiary struct {
	ID               string `json:"id"`
	Characterization string `json:"characterization,omitempty"`
	Active           bool   `json:"active"`
}

type Activity struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	ActivityTypeID   string        `json:"activity_type_id"`
	Periodicity      Periodicity   `json:"periodicity"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          *time.Time    `json:"end_date,omitempty"`
	Capacity         *int          `json:"capacity,omitempty"`
	PartnerID        string        `json:"partner_id"`
	ProjectID        *string       `json:"project_id,omitempty"`
	State            ActivityState `json:"state"`
	CancelReason     *string       `json:"cancel_reason,omitempty"`
	RescheduleReason *string       `json:"reschedule_reason,omitempty"`
	CreatedBy        string        `json:"created_by"`
	CreatedAt        time.Time     `json:"created_at_utc,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at_utc,omitempty"`

	Appointments   []Appointment `json:"appointments,omitempty"`
	OffererIDs     []string      `json:"offerer_ids,omitempty"`
	BeneficiaryIDs []string      `json:"beneficiary_ids,omitempty"`
}

// MarshalJSON ensures timestamps are serialized in UTC
func (a Activity) MarshalJSON() ([]byte, error) {
	type Alias Activity
	return json.Marshal(&struct {
		StartDate    time.Time `json:"start_date"`
		CreatedAtUTC time.Time `json:"created_at_utc,omitempty"`
		UpdatedAtUTC time.Time `json:"updated_at_utc,omitempty"`
		*Alias
	}{
		StartDate:    a.StartDate.UTC(),
		CreatedAtUTC: a.CreatedAt.UTC(),
		UpdatedAtUTC: a.UpdatedAt.UTC(),
		Alias:        (*Alias)(&a),
	})
}

// StartDatePassed compares calendar dates only, ignoring the time of day.
func (a *Activity) StartDatePassed(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	ay, am, ad := a.StartDate.Date()
	startDay := time.Date(ay, am, ad, 0, 0, 0, 0, now.Location())
	return startDay.Before(today)
}

// StartInPast reports whether the activity's start instant already passed.
func (a *Activity) StartInPast(now time.Time) bool {
	return a.StartDate.Before(now)
}

type Appointment struct {
	ID               string           `json:"id"`
	ActivityID       string           `json:"activity_id"`
	PlaceID          string           `json:"place_id"`
	Date             time.Time        `json:"date"`
	StartAt          time.Time        `json:"start_at_utc"`
	EndAt            *time.Time       `json:"end_at_utc,omitempty"`
	State            AppointmentState `json:"state"`
	CancelReason     *string          `json:"cancel_reason,omitempty"`
	RescheduleReason *string          `json:"reschedule_reason,omitempty"`
	CreatedBy        string           `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at_utc,omitempty"`
}

// MarshalJSON ensures times are serialized in UTC
func (ap Appointment) MarshalJSON() ([]byte, error) {
	type Alias Appointment
	var endUTC *time.Time
	if ap.EndAt != nil {
		utc := ap.EndAt.UTC()
		endUTC = &utc
	}
	return json.Marshal(&struct {
		StartAtUTC   time.Time  `json:"start_at_utc"`
		EndAtUTC     *time.Time `json:"end_at_utc,omitempty"`
		CreatedAtUTC time.Time  `json:"created_at_utc,omitempty"`
		*Alias
	}{
		StartAtUTC:   ap.StartAt.UTC(),
		EndAtUTC:     endUTC,
		CreatedAtUTC: ap.CreatedAt.UTC(),
		Alias:        (*Alias)(&ap),
	})
}

// Suggestion is an advisory alternative slot or place offered alongside a
// conflict response. It never reflects persisted state.
type Suggestion struct {
	PlaceID   string `json:"place_id"`
	PlaceName string `json:"place_name,omitempty"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
}
