package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseVerify = "payment.verify"

// VerifyInput identifies the payment a client claims to have completed.
// Anything else the client reports is ignored; the provider is asked instead.
type VerifyInput struct {
	OrderID   string
	Reference string
}

type VerifyResult struct {
	OrderID       string
	Reference     string
	PaymentStatus dompay.Status
	OrderStatus   domorder.Status
}

type VerifyPaymentUseCase struct {
	uow      uow.UnitOfWork
	provider dompay.Provider
	settle   *SettlementHandler
	timeout  time.Duration

	tel observability.Observability
	log observability.Logger
}

func NewVerifyPaymentUseCase(unit uow.UnitOfWork, provider dompay.Provider, settle *SettlementHandler, timeout time.Duration, tel observability.Observability) *VerifyPaymentUseCase {
	tel = observability.OrNop(tel)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VerifyPaymentUseCase{
		uow:      unit,
		provider: provider,
		settle:   settle,
		timeout:  timeout,
		tel:      tel,
		log:      tel.Logger().With(observability.F("service", paymentService)),
	}
}

func (uc *VerifyPaymentUseCase) Execute(ctx context.Context, in VerifyInput) (_ *VerifyResult, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseVerify, "VerifyPayment",
		attribute.String("order.id", in.OrderID),
		attribute.String("payment.reference", in.Reference),
	)
	defer func() { run.End(ctx, err) }()
	ctx = logctx.With(ctx, run.Logger())

	if in.OrderID == "" && in.Reference == "" {
		run.Fail("INPUT_REQUIRED")
		return nil, apperr.Validation("order_id or reference is required")
	}

	p, err := uc.locate(ctx, in)
	if err != nil {
		run.Fail(settlementStatus(err))
		return nil, codedOrInternal(err)
	}
	run.With(observability.F("reference", p.Reference), observability.F("order_id", p.OrderID))

	if p.Status == dompay.StatusPending {
		callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
		start := time.Now()
		v, verr := uc.provider.Verify(callCtx, p.Reference)
		cancel()
		observability.ObserveExternal(uc.tel, uc.provider.Name(), "transaction.verify", start, verr)
		if verr != nil {
			run.Fail("PROVIDER_FAILED")
			return nil, apperr.External(verr)
		}
		run.With(observability.F("provider_status", string(v.Status)))

		switch v.Status {
		case dompay.VerificationSuccess:
			_, err = uc.settle.HandlePaymentConfirmation(ctx, p.Reference, v.TransactionID, v.Amount)
		case dompay.VerificationFailed, dompay.VerificationAbandoned:
			msg := v.GatewayResponse
			if msg == "" {
				msg = "payment " + string(v.Status)
			}
			_, err = uc.settle.HandlePaymentFailure(ctx, p.Reference, msg)
		default:
			run.Status("STILL_PENDING")
		}
		if err != nil {
			run.Fail(settlementStatus(err))
			return nil, err
		}
	}

	res := &VerifyResult{Reference: p.Reference}
	err = uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		cur, err := tx.Payments().GetByReference(ctx, p.Reference)
		if err != nil {
			return err
		}
		o, err := tx.Orders().Get(ctx, cur.OrderID)
		if err != nil {
			return err
		}
		res.OrderID, res.PaymentStatus, res.OrderStatus = o.ID, cur.Status, o.Status
		return nil
	})
	if err != nil {
		run.Fail("RELOAD_FAILED")
		return nil, codedOrInternal(err)
	}
	return res, nil
}

// locate resolves the payment by reference, or picks the most recent attempt
// for the order, preferring one still pending.
func (uc *VerifyPaymentUseCase) locate(ctx context.Context, in VerifyInput) (*dompay.Payment, error) {
	var found *dompay.Payment
	err := uc.uow.Do(ctx, func(ctx context.Context, tx uow.Tx) error {
		if in.Reference != "" {
			p, err := loadPayment(ctx, tx, in.Reference)
			if err != nil {
				return err
			}
			if in.OrderID != "" && p.OrderID != in.OrderID {
				return apperr.Validation("reference does not belong to order %s", in.OrderID)
			}
			found = p
			return nil
		}

		if _, err := tx.Orders().Get(ctx, in.OrderID); err != nil {
			if errors.Is(err, domorder.ErrNotFound) {
				return apperr.NotFound("order", err)
			}
			return fmt.Errorf("payment: load order: %w", err)
		}
		payments, err := tx.Payments().ListByOrder(ctx, in.OrderID)
		if err != nil {
			return fmt.Errorf("payment: list payments: %w", err)
		}
		for i := len(payments) - 1; i >= 0; i-- {
			if payments[i].Status == dompay.StatusPending {
				found = payments[i]
				return nil
			}
		}
		if len(payments) == 0 {
			return apperr.NotFound("payment", dompay.ErrNotFound)
		}
		found = payments[len(payments)-1]
		return nil
	})
	return found, err
}
