package order

import (
	"context"
	"errors"
	"fmt"

	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"

	"go.opentelemetry.io/otel/attribute"
)

const (
	orderService  = "order-service"
	useCaseGetOne = "order.get"
)

// View is an order with every payment attempt made against it.
type View struct {
	Order    *domorder.Order
	Payments []*dompay.Payment
}

type GetOrderUseCase struct {
	uow uow.UnitOfWork
	tel observability.Observability
	log observability.Logger
}

func NewGetOrderUseCase(unit uow.UnitOfWork, tel observability.Observability) *GetOrderUseCase {
	tel = observability.OrNop(tel)
	return &GetOrderUseCase{uow: unit, tel: tel, log: tel.Logger().With(observability.F("service", orderService))}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID string) (_ *View, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseGetOne, "GetOrder",
		attribute.String("order.id", orderID),
	)
	defer func() { run.End(ctx, err) }()

	if orderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, apperr.Validation("order id is required")
	}

	var v View
	err = uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		o, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		payments, err := tx.Payments().ListByOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order: list payments: %w", err)
		}
		v = View{Order: o, Payments: payments}
		return nil
	})
	switch {
	case errors.Is(err, domorder.ErrNotFound):
		run.Fail("ORDER_NOT_FOUND")
		return nil, apperr.NotFound("order", err)
	case err != nil:
		run.Fail("ORDER_LOAD_FAILED")
		return nil, apperr.Internal(err)
	}
	run.With(observability.F("status", string(v.Order.Status)))
	return &v, nil
}
