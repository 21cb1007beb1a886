package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/segmentio/kafka-go"
)

// Envelope is the JSON value written for every event.
type Envelope struct {
	Event      string          `json:"event"`
	Key        string          `json:"key"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards domain events to one topic, keyed so that all events of
// an order land on the same partition.
type Publisher struct {
	writer messageWriter
	source string
}

func ParseBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func NewPublisher(brokers []string, topic, source string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		source: source,
	}
}

func (p *Publisher) Publish(ctx context.Context, e domoutbox.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}
	key := domoutbox.KeyOf(e)
	now := time.Now().UTC()
	value, err := json.Marshal(Envelope{
		Event:      e.EventName(),
		Key:        key,
		Source:     p.source,
		OccurredAt: now,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("kafka: encode envelope: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    now,
		Headers: []kafka.Header{{Key: "event", Value: []byte(e.EventName())}},
	})
	if err != nil {
		return fmt.Errorf("kafka: write %s: %w", e.EventName(), err)
	}
	return nil
}

// Forward subscribes the publisher to the named events on the in-process bus,
// so request paths never wait on the broker.
func (p *Publisher) Forward(sub domoutbox.Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		sub.Subscribe(name, p.Publish)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
