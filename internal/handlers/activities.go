package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agenda-service/internal/models"
	"agenda-service/internal/service"
)

type ActivityHandlers struct {
	Booking *service.BookingService
}

type activityPayload struct {
	Name           string   `json:"name" binding:"required"`
	ActivityTypeID string   `json:"activity_type_id" binding:"required"`
	Periodicity    string   `json:"periodicity" binding:"required"`
	StartDate      string   `json:"start_date" binding:"required"`
	EndDate        string   `json:"end_date,omitempty"`
	StartTime      string   `json:"start_time" binding:"required"`
	EndTime        string   `json:"end_time,omitempty"`
	PlaceID        string   `json:"place_id" binding:"required"`
	Capacity       *int     `json:"capacity,omitempty"`
	PartnerID      string   `json:"partner_id" binding:"required"`
	ProjectID      *string  `json:"project_id,omitempty"`
	OffererIDs     []string `json:"offerer_ids,omitempty"`
	BeneficiaryIDs []string `json:"beneficiary_ids,omitempty"`
}

// GET /activities
func (h *ActivityHandlers) ListActivities(c *gin.Context) {
	activities, err := h.Booking.ListActivities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, activities)
}

// GET /activities/:id
func (h *ActivityHandlers) GetActivity(c *gin.Context) {
	activity, err := h.Booking.GetActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, activity)
}

// POST /activities
func (h *ActivityHandlers) CreateActivity(c *gin.Context) {
	var req activityPayload
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	draft, start, endDate, ok := parseActivityWindow(c, req)
	if !ok {
		return
	}

	in := service.CreateActivityInput{
		Name:           req.Name,
		ActivityTypeID: req.ActivityTypeID,
		Periodicity:    models.Periodicity(req.Periodicity),
		StartDate:      start,
		EndDate:        endDate,
		Capacity:       req.Capacity,
		PartnerID:      req.PartnerID,
		ProjectID:      req.ProjectID,
		CreatedBy:      c.GetString("user_id"),
		Appointment:    draft,
		OffererIDs:     req.OffererIDs,
		BeneficiaryIDs: req.BeneficiaryIDs,
	}
	activity, err := h.Booking.CreateActivity(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, activity)
}

// PUT /activities/:id
func (h *ActivityHandlers) UpdateActivity(c *gin.Context) {
	var req activityPayload
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	draft, start, endDate, ok := parseActivityWindow(c, req)
	if !ok {
		return
	}

	in := service.UpdateActivityInput{
		Name:           req.Name,
		ActivityTypeID: req.ActivityTypeID,
		Periodicity:    models.Periodicity(req.Periodicity),
		StartDate:      start,
		EndDate:        endDate,
		Capacity:       req.Capacity,
		PartnerID:      req.PartnerID,
		ProjectID:      req.ProjectID,
		Appointment:    &draft,
		OffererIDs:     req.OffererIDs,
		BeneficiaryIDs: req.BeneficiaryIDs,
	}
	activity, err := h.Booking.UpdateActivity(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, activity, "activity updated")
}

type cancelReq struct {
	Reason string `json:"reason" binding:"required"`
}

// PUT /activities/:id/cancel
func (h *ActivityHandlers) CancelActivity(c *gin.Context) {
	var req cancelReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	activity, err := h.Booking.CancelActivity(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, activity, "activity cancelled")
}

type rescheduleReq struct {
	Reason  string `json:"reason" binding:"required"`
	NewDate string `json:"new_date" binding:"required"`
	NewTime string `json:"new_time" binding:"required"`
	PlaceID string `json:"place_id,omitempty"`
}

// POST /activities/:id/reschedule
func (h *ActivityHandlers) RescheduleActivity(c *gin.Context) {
	var req rescheduleReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	date, err := parseDate(req.NewDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid new_date"})
		return
	}
	start, err := combine(date, req.NewTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid new_time"})
		return
	}
	activity, err := h.Booking.RescheduleActivity(c.Request.Context(), c.Param("id"), service.RescheduleInput{
		Reason:   req.Reason,
		NewDate:  date,
		NewStart: start,
		PlaceID:  req.PlaceID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, activity, "activity rescheduled")
}

// PUT /activities/:id/complete
func (h *ActivityHandlers) CompleteActivity(c *gin.Context) {
	activity, err := h.Booking.CompleteActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, activity, "activity completed")
}

// DELETE /activities/:id
func (h *ActivityHandlers) DeleteActivity(c *gin.Context) {
	if err := h.Booking.DeleteActivity(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "activity deleted")
}

// parseActivityWindow turns the payload's date and HH:MM strings into the
// appointment draft and activity start/end instants. It writes the 400
// response itself when parsing fails.
func parseActivityWindow(c *gin.Context, req activityPayload) (service.AppointmentDraft, time.Time, *time.Time, bool) {
	var zero service.AppointmentDraft
	date, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid start_date"})
		return zero, time.Time{}, nil, false
	}
	start, err := combine(date, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid start_time"})
		return zero, time.Time{}, nil, false
	}
	var end *time.Time
	if req.EndTime != "" {
		e, err := combine(date, req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid end_time"})
			return zero, time.Time{}, nil, false
		}
		end = &e
	}
	var endDate *time.Time
	if req.EndDate != "" {
		d, err := parseDate(req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid end_date"})
			return zero, time.Time{}, nil, false
		}
		endDate = &d
	}
	draft := service.AppointmentDraft{
		PlaceID: req.PlaceID,
		Date:    date,
		StartAt: start,
		EndAt:   end,
	}
	return draft, start, endDate, true
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func combine(date time.Time, hm string) (time.Time, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
