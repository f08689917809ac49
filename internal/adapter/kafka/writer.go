package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismic-data-api/internal/config"
	"github.com/couchcryptid/seismic-data-api/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// ContactWriter publishes contact messages to a Kafka topic for the
// downstream mailer.
type ContactWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewContactWriter creates a Kafka producer for the configured contact topic.
func NewContactWriter(cfg *config.Config, logger *slog.Logger) *ContactWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaContactTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &ContactWriter{writer: w, logger: logger}
}

// Publish serializes and writes a single contact message.
func (w *ContactWriter) Publish(ctx context.Context, msg domain.ContactMessage) error {
	m, err := serializeToMessage(msg)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, m); err != nil {
		return fmt.Errorf("publish contact message: %w", err)
	}
	w.logger.Debug("contact message published", "id", msg.ID, "topic", w.writer.Topic)
	return nil
}

func (w *ContactWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ContactMessage into a Kafka message keyed by its ID.
func serializeToMessage(msg domain.ContactMessage) (kafkago.Message, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize contact message: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(msg.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "message_type", Value: []byte("contact")},
			{Key: "received_at", Value: []byte(msg.ReceivedAt.Format(time.RFC3339))},
		},
	}, nil
}
