package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// KafkaRecorder publishes audit events to a Kafka topic.
type KafkaRecorder struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaRecorder(brokers []string, topic string, logger *slog.Logger) (*KafkaRecorder, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Successes = true
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewKafkaRecorderWithProducer(p, topic, logger), nil
}

// NewKafkaRecorderWithProducer wraps an existing producer; used by tests.
func NewKafkaRecorderWithProducer(p sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaRecorder{producer: p, topic: topic, logger: logger}
}

func (r *KafkaRecorder) Record(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		r.logger.WarnContext(ctx, "audit event marshal failed", "error", err)
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: r.topic,
		Key:   sarama.StringEncoder(e.Entity),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := r.producer.SendMessage(msg); err != nil {
		r.logger.WarnContext(ctx, "audit event publish failed",
			"action", e.Action, "entity", e.Entity, "error", err)
	}
}

func (r *KafkaRecorder) Close() error {
	return r.producer.Close()
}
