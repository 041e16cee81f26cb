package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	Port         string
	Env          string
	StaticTokens string
	JWTSecret    string
	KafkaBrokers []string
	AuditTopic   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Port:         os.Getenv("PORT"),
		Env:          os.Getenv("APP_ENV"),
		StaticTokens: os.Getenv("STATIC_TOKENS"),
		JWTSecret:    os.Getenv("JWT_HMAC_SECRET"),
		AuditTopic:   os.Getenv("AUDIT_TOPIC"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AuditTopic == "" {
		cfg.AuditTopic = "agenda.audit"
	}
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg, nil
}
