package app

import (
	"log/slog"

	"agenda-service/internal/audit"
	"agenda-service/internal/repository"
)

// App holds the shared wiring handed to the router.
type App struct {
	DB     repository.DB
	Logger *slog.Logger
	Audit  audit.Recorder
}
