package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domcustomer "github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const useCaseInitialize = "payment.initialize"

type InitializeInput struct {
	OrderID string
	Email   string
	// Amount must equal the order total exactly.
	Amount      int64
	CallbackURL string
}

type InitializeResult struct {
	PaymentID        string
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// InitializePaymentUseCase obtains a provider authorization for an order and
// records a PENDING payment under the provider reference.
type InitializePaymentUseCase struct {
	uow       uow.UnitOfWork
	provider  dompay.Provider
	ids       IDGenerator
	publisher domoutbox.Publisher
	timeout   time.Duration

	tel observability.Observability
	log observability.Logger
}

func NewInitializePaymentUseCase(
	unit uow.UnitOfWork,
	provider dompay.Provider,
	ids IDGenerator,
	publisher domoutbox.Publisher,
	timeout time.Duration,
	tel observability.Observability,
) *InitializePaymentUseCase {
	tel = observability.OrNop(tel)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InitializePaymentUseCase{
		uow:       unit,
		provider:  provider,
		ids:       ids,
		publisher: publisher,
		timeout:   timeout,
		tel:       tel,
		log:       tel.Logger().With(observability.F("service", paymentService)),
	}
}

func (uc *InitializePaymentUseCase) Execute(ctx context.Context, in InitializeInput) (_ *InitializeResult, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseInitialize, "InitializePayment",
		attribute.String("order.id", in.OrderID),
	)
	defer func() { run.End(ctx, err) }()
	run.With(observability.F("order_id", in.OrderID))

	email := domcustomer.NormalizeEmail(in.Email)
	switch {
	case in.OrderID == "":
		run.Fail("ORDER_ID_REQUIRED")
		return nil, apperr.Validation("order_id is required")
	case email == "":
		run.Fail("EMAIL_REQUIRED")
		return nil, apperr.Validation("email is required")
	case in.Amount <= 0:
		run.Fail("AMOUNT_INVALID")
		return nil, apperr.Validation("amount must be greater than zero")
	}

	var o *domorder.Order
	err = uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		var err error
		o, err = payableOrder(ctx, tx.Orders().Get, in.OrderID, in.Amount)
		return err
	})
	if err != nil {
		run.Fail(initializeStatus(err))
		return nil, codedOrInternal(err)
	}

	reference := uc.ids.NewReference()
	run.With(observability.F("reference", reference))

	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	start := time.Now()
	auth, perr := uc.provider.Initialize(callCtx, dompay.InitRequest{
		Email:       email,
		Amount:      o.Totals.Total,
		Currency:    o.Currency,
		Reference:   reference,
		CallbackURL: in.CallbackURL,
		Metadata:    map[string]any{"order_id": o.ID, "order_code": o.Code},
	})
	cancel()
	observability.ObserveExternal(uc.tel, uc.provider.Name(), "transaction.initialize", start, perr)
	if perr != nil {
		run.Fail("PROVIDER_FAILED")
		return nil, apperr.External(perr)
	}
	if auth.Reference != "" {
		reference = auth.Reference
	}

	var p *dompay.Payment
	err = uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		// Re-read under lock; the order may have been settled meanwhile.
		o, err := payableOrder(ctx, tx.Orders().GetForUpdate, in.OrderID, in.Amount)
		if err != nil {
			return err
		}
		prev := o.Status
		p, err = dompay.New(uc.ids.NewID(), o.ID, methodCard, reference, o.Totals.Total, map[string]any{
			"provider":          uc.provider.Name(),
			"email":             email,
			"access_code":       auth.AccessCode,
			"authorization_url": auth.AuthorizationURL,
		})
		if err != nil {
			return err
		}
		if err := tx.Payments().Insert(ctx, p); err != nil {
			if errors.Is(err, dompay.ErrDuplicateReference) {
				return apperr.Conflict("payment reference already exists", err)
			}
			return fmt.Errorf("payment: insert: %w", err)
		}
		if err := o.PaymentInitiated(); err != nil {
			return err
		}
		return updateOrderIfChanged(ctx, tx, o, prev)
	})
	if err != nil {
		run.Fail(initializeStatus(err))
		return nil, codedOrInternal(err)
	}

	run.Span().AddEvent("payment.initialized", trace.WithAttributes(attribute.String("payment.reference", reference)))
	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		start := time.Now()
		pubErr := uc.publisher.Publish(pubCtx, dompay.NewInitializedEvent(p))
		cancel()
		observability.ObserveExternal(uc.tel, "outbox", "payment.initialized", start, pubErr)
		if pubErr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
			run.With(observability.F("event_publish_error", pubErr.Error()))
		}
	}

	return &InitializeResult{
		PaymentID:        p.ID,
		Reference:        reference,
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
	}, nil
}

func payableOrder(ctx context.Context, load func(context.Context, string) (*domorder.Order, error), orderID string, amount int64) (*domorder.Order, error) {
	o, err := load(ctx, orderID)
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			return nil, apperr.NotFound("order", err)
		}
		return nil, fmt.Errorf("payment: load order: %w", err)
	}
	if amount != o.Totals.Total {
		return nil, apperr.Validation("amount %d does not match order total %d", amount, o.Totals.Total)
	}
	if !o.CanAcceptPayment() {
		return nil, apperr.Conflict("order is already paid", domorder.ErrAlreadySettled)
	}
	return o, nil
}

func initializeStatus(err error) string {
	if errors.Is(err, uow.ErrLockTimeout) {
		return "LOCK_TIMEOUT"
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		return "ORDER_NOT_FOUND"
	case apperr.CodeValidation:
		return "AMOUNT_MISMATCH"
	case apperr.CodeConflict:
		return "ORDER_NOT_PAYABLE"
	}
	return "INITIALIZE_FAILED"
}
