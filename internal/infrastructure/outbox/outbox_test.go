package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
)

type testEvent string

func (e testEvent) EventName() string { return string(e) }

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil, Options{})
	var mu sync.Mutex
	got := map[string]int{}
	for i := 0; i < 2; i++ {
		bus.Subscribe("order.created", func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			got[e.EventName()]++
			mu.Unlock()
			return nil
		})
	}
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error { panic("handler") })

	ctx := context.Background()
	bus.Start(ctx)
	if err := bus.Publish(ctx, testEvent("boom")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(ctx, testEvent("order.created")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	bus.Stop(stopCtx)

	if got["order.created"] != 2 {
		t.Fatalf("deliveries = %d", got["order.created"])
	}
	if err := bus.Publish(ctx, testEvent("order.created")); !errors.Is(err, ErrClosed) {
		t.Fatalf("publish after stop = %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	bus := NewBus(nil, Options{})
	bus.Stop(context.Background())
}
