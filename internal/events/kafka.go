package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Kafka writes events to a topic keyed by resource id, so every event for one
// resource lands on the same partition in order.
type Kafka struct {
	writer *kafka.Writer
	logger *log.Logger
}

func NewKafka(brokers []string, topic string, logger *log.Logger) *Kafka {
	if logger == nil {
		logger = log.Default()
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger,
	}
}

func (k *Kafka) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := encode(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d events to %s: %w", len(msgs), k.writer.Topic, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func encode(e Event) (kafka.Message, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.ResourceID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
		Time: e.OccurredAt,
	}, nil
}
