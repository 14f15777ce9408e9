package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nmxmxh/referral-leaderboard/pkg/json"
	"github.com/nmxmxh/referral-leaderboard/pkg/logger"
)

// MessageWriter is the part of *kafka.Writer the emitter needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// KafkaEmitter publishes envelopes to a Kafka topic, one message per event,
// keyed by the envelope key.
type KafkaEmitter struct {
	writer MessageWriter
	topic  string
	log    *zap.Logger
}

// NewKafkaEmitter builds a synchronous publisher on a kafka-go writer.
func NewKafkaEmitter(cfg KafkaConfig, log *zap.Logger) (*KafkaEmitter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: no topic configured")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaEmitterWithWriter(w, cfg.Topic, log), nil
}

// NewKafkaEmitterWithWriter wraps an existing writer.
func NewKafkaEmitterWithWriter(w MessageWriter, topic string, log *zap.Logger) *KafkaEmitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaEmitter{writer: w, topic: topic, log: logger.Module(log, "kafka_emitter")}
}

// EmitEventEnvelope writes envelope and waits for the broker to acknowledge it.
func (k *KafkaEmitter) EmitEventEnvelope(ctx context.Context, envelope *EventEnvelope) (string, error) {
	if err := envelope.Validate(); err != nil {
		return "", err
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("marshal event %s: %w", envelope.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(envelope.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.Type)},
			{Key: "event_id", Value: []byte(envelope.ID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return "", fmt.Errorf("publish %s to %s: %w", envelope.Type, k.topic, err)
	}
	k.log.Debug("Event published", zap.String("event_type", envelope.Type), zap.String("event_id", envelope.ID))
	return envelope.ID, nil
}

// Close flushes pending writes and releases the writer.
func (k *KafkaEmitter) Close() error {
	return k.writer.Close()
}
