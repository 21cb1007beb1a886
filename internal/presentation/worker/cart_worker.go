package workerpresentation

import (
	"context"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"

	"go.opentelemetry.io/otel/trace"
)

const cartWorkerService = "cart-worker"

// CartWorker empties a cart once an order has been placed from it.
type CartWorker struct {
	subscriber domoutbox.Subscriber
	useCase    application.UseCase[string, struct{}]
	tel        observability.Observability
	log        observability.Logger
	requests   observability.Counter
}

func NewCartWorker(subscriber domoutbox.Subscriber, useCase application.UseCase[string, struct{}], tel observability.Observability) *CartWorker {
	tel = observability.OrNop(tel)
	return &CartWorker{
		subscriber: subscriber,
		useCase:    useCase,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", cartWorkerService)),
		requests:   tel.Metrics().Counter(observability.MUsecaseRequests),
	}
}

func (w *CartWorker) Start() {
	if w.subscriber == nil || w.useCase == nil {
		return
	}
	w.subscriber.Subscribe(domorder.CreatedEvent{}.EventName(), w.handleOrderCreated)
}

func (w *CartWorker) handleOrderCreated(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.CreatedEvent)
	if !ok {
		w.requests.Add(1,
			observability.L("use_case", "cart.worker.order_created"),
			observability.L("outcome", "ignored"),
		)
		return nil
	}

	sc := trace.SpanContextFromContext(ctx)
	ctx = WithEventContext(ctx, w.log, w.tel, sc.TraceID(), sc.SpanID(), map[string]string{
		"event":    e.EventName(),
		"event_id": evt.OrderID,
	})
	_, err := w.useCase.Execute(ctx, evt.CartOwner)
	return err
}
