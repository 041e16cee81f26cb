package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"agenda-service/internal/app"
	"agenda-service/internal/audit"
	"agenda-service/internal/config"
	"agenda-service/internal/obs"
	"agenda-service/internal/repository/postgres"
	"agenda-service/internal/router"
	"agenda-service/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, _ := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL required")
	}

	logger := obs.NewLogger(cfg.Env)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	var recorder audit.Recorder
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaRecorder(cfg.KafkaBrokers, cfg.AuditTopic, logger)
		if err != nil {
			log.Fatalf("failed to connect to kafka: %v", err)
		}
		defer kafka.Close()
		recorder = kafka
	} else {
		recorder = audit.NewLogRecorder(logger)
	}

	appInstance := &app.App{
		DB:     postgres.NewDB(pool),
		Logger: logger,
		Audit:  recorder,
	}

	r := router.Build(appInstance, cfg)
	if err := server.Run(r, cfg.Port, logger); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
