package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agenda-service/internal/service"
)

type AppointmentHandlers struct {
	Appointments *service.AppointmentService
}

type appointmentPayload struct {
	ActivityID string `json:"activity_id"`
	PlaceID    string `json:"place_id" binding:"required"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time,omitempty"`
}

// GET /appointments
func (h *AppointmentHandlers) ListAppointments(c *gin.Context) {
	appointments, err := h.Appointments.ListAppointments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, appointments)
}

// GET /appointments/:id
func (h *AppointmentHandlers) GetAppointment(c *gin.Context) {
	appointment, err := h.Appointments.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, appointment)
}

// POST /appointments
func (h *AppointmentHandlers) CreateAppointment(c *gin.Context) {
	var req appointmentPayload
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if req.ActivityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "activity_id is required"})
		return
	}
	draft, ok := parseAppointmentDraft(c, req)
	if !ok {
		return
	}
	appointment, err := h.Appointments.CreateAppointment(c.Request.Context(), service.CreateAppointmentInput{
		ActivityID: req.ActivityID,
		Draft:      draft,
		CreatedBy:  c.GetString("user_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, appointment)
}

// PUT /appointments/:id
func (h *AppointmentHandlers) UpdateAppointment(c *gin.Context) {
	var req appointmentPayload
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	draft, ok := parseAppointmentDraft(c, req)
	if !ok {
		return
	}
	appointment, err := h.Appointments.UpdateAppointment(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, appointment, "appointment updated")
}

// PUT /appointments/:id/cancel
func (h *AppointmentHandlers) CancelAppointment(c *gin.Context) {
	var req cancelReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	appointment, err := h.Appointments.CancelAppointment(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, appointment, "appointment cancelled")
}

func parseAppointmentDraft(c *gin.Context, req appointmentPayload) (service.AppointmentDraft, bool) {
	var zero service.AppointmentDraft
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid date"})
		return zero, false
	}
	start, err := combine(date, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid start_time"})
		return zero, false
	}
	draft := service.AppointmentDraft{PlaceID: req.PlaceID, Date: date, StartAt: start}
	if req.EndTime != "" {
		end, err := combine(date, req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid end_time"})
			return zero, false
		}
		draft.EndAt = &end
	}
	return draft, true
}
