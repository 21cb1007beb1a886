package outbox

import "context"

// Event is a domain event published after the unit of work that produced it commits.
type Event interface {
	EventName() string
}

// Keyed events carry a partition key, usually the order id, so that
// consumers see one order's events in order.
type Keyed interface {
	EventKey() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// KeyOf returns the event key, or the event name when the event is not keyed.
func KeyOf(e Event) string {
	if k, ok := e.(Keyed); ok && k.EventKey() != "" {
		return k.EventKey()
	}
	return e.EventName()
}
