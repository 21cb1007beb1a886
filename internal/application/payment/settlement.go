package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseConfirm = "payment.confirm"
	useCaseFail    = "payment.fail"

	reasonAmountMismatch = "amount mismatch"
)

// SettlementHandler applies provider outcomes to a payment and its order.
// Both operations are idempotent and run in a single unit of work.
type SettlementHandler struct {
	uow       uow.UnitOfWork
	publisher domoutbox.Publisher

	tel         observability.Observability
	log         observability.Logger
	transitions observability.Counter
}

func NewSettlementHandler(unit uow.UnitOfWork, publisher domoutbox.Publisher, tel observability.Observability) *SettlementHandler {
	tel = observability.OrNop(tel)
	return &SettlementHandler{
		uow:         unit,
		publisher:   publisher,
		tel:         tel,
		log:         tel.Logger().With(observability.F("service", paymentService)),
		transitions: tel.Metrics().Counter(observability.MPaymentTransitions),
	}
}

// HandlePaymentConfirmation settles the payment with the given reference and
// moves its order to PAYMENT_SETTLED. A settled payment is left untouched; a
// declined one is a conflict. amount is checked against the payment when
// non-zero, and a mismatch declines the payment instead of settling it.
func (h *SettlementHandler) HandlePaymentConfirmation(ctx context.Context, reference, transactionID string, amount int64) (_ *Outcome, err error) {
	ctx, run := observability.BeginUseCase(ctx, h.tel, logctx.FromOr(ctx, h.log), useCaseConfirm, "ConfirmPayment",
		attribute.String("payment.reference", reference),
	)
	defer func() { run.End(ctx, err) }()
	run.With(observability.F("reference", reference))

	if reference == "" {
		run.Fail("REFERENCE_REQUIRED")
		return nil, apperr.Validation("reference is required")
	}

	var out Outcome
	err = h.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		p, err := loadPayment(ctx, tx, reference)
		if err != nil {
			return err
		}
		out.Payment = p

		switch p.Status {
		case dompay.StatusSettled:
			return nil
		case dompay.StatusDeclined:
			return apperr.Conflict("payment was already declined", dompay.ErrAlreadyDeclined)
		}

		o, err := lockOrder(ctx, tx, p.OrderID)
		if err != nil {
			return err
		}
		prev := o.Status

		if amount != 0 && amount != p.Amount {
			if _, err := p.Decline(reasonAmountMismatch); err != nil {
				return err
			}
			if err := o.PaymentDeclined(); err != nil {
				return fmt.Errorf("payment: order transition: %w", err)
			}
		} else {
			if _, err := p.Settle(transactionID); err != nil {
				return err
			}
			out.OrderAlreadySettled = prev == domorder.StatusPaymentSettled
			if err := o.PaymentSettled(); err != nil {
				return fmt.Errorf("payment: order transition: %w", err)
			}
		}
		if err := tx.Payments().Update(ctx, p); err != nil {
			return fmt.Errorf("payment: update payment: %w", err)
		}
		if err := updateOrderIfChanged(ctx, tx, o, prev); err != nil {
			return err
		}
		out.Changed = true
		return nil
	})
	if err != nil {
		run.Fail(settlementStatus(err))
		return nil, codedOrInternal(err)
	}

	run.With(
		observability.F("order_id", out.Payment.OrderID),
		observability.F("payment_status", string(out.Payment.Status)),
	)
	if !out.Changed {
		run.Status("ALREADY_SETTLED")
		return &out, nil
	}
	if out.Payment.Status == dompay.StatusDeclined {
		run.Status("AMOUNT_MISMATCH")
		h.transitioned(ctx, run, out.Payment, dompay.NewDeclinedEvent(out.Payment))
		return &out, nil
	}
	if out.OrderAlreadySettled {
		run.Status("ORDER_ALREADY_SETTLED")
		run.Logger().Warn("payment_settled_on_paid_order",
			observability.F("order_id", out.Payment.OrderID),
			observability.F("reference", out.Payment.Reference),
			observability.F("transaction_id", out.Payment.TransactionID),
			observability.F("amount", out.Payment.Amount),
		)
	}
	h.transitioned(ctx, run, out.Payment, dompay.NewSettledEvent(out.Payment))
	return &out, nil
}

// HandlePaymentFailure declines the payment. The order stays in
// PAYMENT_PENDING so another attempt can be made.
func (h *SettlementHandler) HandlePaymentFailure(ctx context.Context, reference, message string) (_ *Outcome, err error) {
	ctx, run := observability.BeginUseCase(ctx, h.tel, logctx.FromOr(ctx, h.log), useCaseFail, "FailPayment",
		attribute.String("payment.reference", reference),
	)
	defer func() { run.End(ctx, err) }()
	run.With(observability.F("reference", reference))

	if reference == "" {
		run.Fail("REFERENCE_REQUIRED")
		return nil, apperr.Validation("reference is required")
	}
	if message == "" {
		message = "payment failed"
	}

	var out Outcome
	err = h.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		p, err := loadPayment(ctx, tx, reference)
		if err != nil {
			return err
		}
		out.Payment = p

		changed, err := p.Decline(message)
		if err != nil {
			if errors.Is(err, dompay.ErrAlreadySettled) {
				return apperr.Conflict("payment was already settled", err)
			}
			return err
		}
		if !changed {
			return nil
		}

		o, err := lockOrder(ctx, tx, p.OrderID)
		if err != nil {
			return err
		}
		prev := o.Status
		if err := o.PaymentDeclined(); err != nil {
			return fmt.Errorf("payment: order transition: %w", err)
		}
		if err := tx.Payments().Update(ctx, p); err != nil {
			return fmt.Errorf("payment: update payment: %w", err)
		}
		if err := updateOrderIfChanged(ctx, tx, o, prev); err != nil {
			return err
		}
		out.Changed = true
		return nil
	})
	if err != nil {
		run.Fail(settlementStatus(err))
		return nil, codedOrInternal(err)
	}

	run.With(observability.F("order_id", out.Payment.OrderID))
	if !out.Changed {
		run.Status("ALREADY_DECLINED")
		return &out, nil
	}
	h.transitioned(ctx, run, out.Payment, dompay.NewDeclinedEvent(out.Payment))
	return &out, nil
}

func (h *SettlementHandler) transitioned(ctx context.Context, run *observability.Run, p *dompay.Payment, e domoutbox.Event) {
	h.transitions.Add(1, observability.L("to", string(p.Status)))
	if h.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	pubErr := h.publisher.Publish(pubCtx, e)
	observability.ObserveExternal(h.tel, "outbox", e.EventName(), start, pubErr)
	if pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Span().RecordError(pubErr)
		run.With(observability.F("event_publish_error", pubErr.Error()))
	}
}

func loadPayment(ctx context.Context, tx uow.Tx, reference string) (*dompay.Payment, error) {
	p, err := tx.Payments().GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, dompay.ErrNotFound) {
			return nil, apperr.NotFound("payment", err)
		}
		return nil, fmt.Errorf("payment: load %s: %w", reference, err)
	}
	return p, nil
}

// lockOrder reads the order under lock. Two payments of one order have
// different references, so the payment row lock alone does not serialize them.
func lockOrder(ctx context.Context, tx uow.Tx, orderID string) (*domorder.Order, error) {
	o, err := tx.Orders().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment: load order %s: %w", orderID, err)
	}
	return o, nil
}

func updateOrderIfChanged(ctx context.Context, tx uow.Tx, o *domorder.Order, prev domorder.Status) error {
	if o.Status == prev {
		return nil
	}
	if err := tx.Orders().Update(ctx, o); err != nil {
		return fmt.Errorf("payment: update order: %w", err)
	}
	return nil
}

func settlementStatus(err error) string {
	if errors.Is(err, uow.ErrLockTimeout) {
		return "LOCK_TIMEOUT"
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		return "PAYMENT_NOT_FOUND"
	case apperr.CodeConflict:
		return "CONFLICT"
	case apperr.CodeValidation:
		return "INVALID_INPUT"
	case apperr.CodeExternalService:
		return "PROVIDER_FAILED"
	}
	return "SETTLEMENT_FAILED"
}

func codedOrInternal(err error) error {
	if errors.Is(err, uow.ErrLockTimeout) {
		return apperr.Conflict("resource is busy, please retry", err)
	}
	var coded *apperr.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, domorder.ErrNotFound) {
		return apperr.NotFound("order", err)
	}
	return apperr.Internal(err)
}
