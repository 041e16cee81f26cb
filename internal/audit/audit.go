// Package audit records who did what. Recording is fire-and-forget: a sink
// failure must never fail the booking operation it describes.
package audit

import (
	"context"
	"log/slog"
	"time"
)

type Event struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	Entity      string    `json:"entity"`
	EntityID    string    `json:"entity_id,omitempty"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	At          time.Time `json:"at_utc"`
}

type Recorder interface {
	Record(ctx context.Context, e Event)
}

// LogRecorder writes audit events to the structured log. It is the fallback
// sink when no Kafka brokers are configured.
type LogRecorder struct {
	Logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{Logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, e Event) {
	r.Logger.InfoContext(ctx, "audit",
		"action", e.Action,
		"entity", e.Entity,
		"entity_id", e.EntityID,
		"description", e.Description,
		"user_id", e.UserID,
	)
}
