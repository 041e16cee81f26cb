// Package errs defines the error kinds the booking core raises. Callers
// branch on the kind with errors.As, never on message text.
package errs

import (
	"fmt"

	"agenda-service/internal/models"
)

// Validation flags malformed or missing input. Not retryable.
type Validation struct {
	Msg string
}

func (e *Validation) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &Validation{Msg: fmt.Sprintf(format, args...)}
}

// NotFound flags a missing activity, appointment or reference entity.
type NotFound struct {
	Msg string
}

func (e *NotFound) Error() string { return e.Msg }

func NotFoundf(format string, args ...any) error {
	return &NotFound{Msg: fmt.Sprintf(format, args...)}
}

// Conflict flags a place or offerer double-booking. Window carries the
// formatted occupied range and Suggestions optional alternatives for
// UI-assisted retry.
type Conflict struct {
	Msg           string
	Window        string
	AppointmentID string
	Suggestions   []models.Suggestion
}

func (e *Conflict) Error() string { return e.Msg }

// IllegalState flags a mutation attempt on a cancelled, completed or
// past-dated entity.
type IllegalState struct {
	Msg string
}

func (e *IllegalState) Error() string { return e.Msg }

func IllegalStatef(format string, args ...any) error {
	return &IllegalState{Msg: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure. The core never retries; the caller
// may retry the whole operation.
type Persistence struct {
	Msg string
	Err error
}

func (e *Persistence) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Persistence) Unwrap() error { return e.Err }
