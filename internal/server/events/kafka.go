package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// publishTimeout bounds one synchronous publish. Decisions are published on
// the verification request path, so a slow broker must not hold it.
const publishTimeout = 750 * time.Millisecond

// KafkaPublisher writes events as JSON, keyed by token so all decisions for
// a token land on one partition in order.
type KafkaPublisher struct {
	writer  messageWriter
	key     []byte
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string, fingerprintKey []byte) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: publishTimeout,
	}
	return &KafkaPublisher{writer: w, key: fingerprintKey, timeout: publishTimeout}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev DecisionEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.SourceFingerprint = Fingerprint(p.key, ev.SourceAddress)

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Token),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
