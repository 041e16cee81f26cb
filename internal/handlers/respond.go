package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agenda-service/internal/errs"
)

// All responses share the envelope {success, data?, message?}.

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{"success": true, "data": data, "message": message})
}

// respondError maps the error taxonomy to HTTP statuses. Conflicts carry the
// occupied window and any suggestions for UI-assisted retry.
func respondError(c *gin.Context, err error) {
	var (
		validation   *errs.Validation
		notFound     *errs.NotFound
		conflict     *errs.Conflict
		illegalState *errs.IllegalState
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validation.Msg})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": notFound.Msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": conflict.Msg,
			"data": gin.H{
				"conflicting_window":         conflict.Window,
				"conflicting_appointment_id": conflict.AppointmentID,
				"suggestions":                conflict.Suggestions,
			},
		})
	case errors.As(err, &illegalState):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": illegalState.Msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
	}
}
