package kafka

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/segmentio/kafka-go"
)

type captureWriter struct{ msgs []kafka.Message }

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

type settled struct {
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
}

func (settled) EventName() string { return "payment.settled" }

func (e settled) EventKey() string { return e.OrderID }

type unkeyed struct{}

func (unkeyed) EventName() string { return "ping" }

func TestPublishWritesKeyedEnvelope(t *testing.T) {
	w := &captureWriter{}
	p := &Publisher{writer: w, source: "checkout"}

	if err := p.Publish(context.Background(), settled{OrderID: "o1", Amount: 11000}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Publish(context.Background(), unkeyed{}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "o1" || string(w.msgs[1].Key) != "ping" {
		t.Fatalf("keys = %q, %q", w.msgs[0].Key, w.msgs[1].Key)
	}
	var env Envelope
	if err := json.Unmarshal(w.msgs[0].Value, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Event != "payment.settled" || env.Source != "checkout" || env.Key != "o1" {
		t.Fatalf("envelope = %+v", env)
	}
	var body settled
	if err := json.Unmarshal(env.Payload, &body); err != nil || body.Amount != 11000 {
		t.Fatalf("payload = %s, %v", env.Payload, err)
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" a:9092, ,b:9092,")
	if !reflect.DeepEqual(got, []string{"a:9092", "b:9092"}) {
		t.Fatalf("brokers = %v", got)
	}
	if ParseBrokers("") != nil {
		t.Fatalf("empty csv should give nil")
	}
}

type subscriptions map[string]domoutbox.Handler

func (s subscriptions) Subscribe(name string, h domoutbox.Handler) { s[name] = h }

func TestForwardSubscribesEachEvent(t *testing.T) {
	w := &captureWriter{}
	p := &Publisher{writer: w, source: "checkout"}
	subs := subscriptions{}
	p.Forward(subs, "payment.settled", "order.created")

	if len(subs) != 2 {
		t.Fatalf("subscriptions = %d", len(subs))
	}
	if err := subs["payment.settled"](context.Background(), settled{OrderID: "o2"}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "o2" {
		t.Fatalf("messages = %+v", w.msgs)
	}
}
