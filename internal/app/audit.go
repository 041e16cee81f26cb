package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"agenda-service/internal/audit"
)

// AuditTrail emits an audit event after the handler finishes, for successful
// responses only. Recording is fire-and-forget: a failed emit never affects
// the request.
func (a *App) AuditTrail(action, entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if a.Audit == nil || c.Writer.Status() >= 300 {
			return
		}
		event := audit.Event{
			Action:      action,
			Entity:      entity,
			EntityID:    c.Param("id"),
			Description: action + " " + entity,
			UserID:      c.GetString("user_id"),
		}
		go a.Audit.Record(context.WithoutCancel(c.Request.Context()), event)
	}
}
