package payment

import (
	"context"
	"time"

	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseWebhook = "payment.webhook"

// Webhook outcomes recorded in the delivery log and the deliveries metric.
const (
	OutcomeSettled          = "settled"
	OutcomeDeclined         = "declined"
	OutcomeDuplicate        = "duplicate"
	OutcomeIgnored          = "ignored"
	OutcomeRejected         = "rejected"
	OutcomeInvalidSignature = "invalid_signature"
)

type WebhookInput struct {
	Payload   []byte
	Signature string
}

type WebhookResult struct {
	Event     string
	Reference string
	Outcome   string
}

// ProcessWebhookUseCase authenticates a provider webhook and dispatches it to
// the settlement handler. Nothing is read or written before the signature
// checks out.
type ProcessWebhookUseCase struct {
	verifier   dompay.WebhookVerifier
	settle     *SettlementHandler
	deliveries dompay.WebhookLog
	provider   string

	tel       observability.Observability
	log       observability.Logger
	delivered observability.Counter
}

func NewProcessWebhookUseCase(provider string, verifier dompay.WebhookVerifier, settle *SettlementHandler, deliveries dompay.WebhookLog, tel observability.Observability) *ProcessWebhookUseCase {
	tel = observability.OrNop(tel)
	return &ProcessWebhookUseCase{
		verifier:   verifier,
		settle:     settle,
		deliveries: deliveries,
		provider:   provider,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", paymentService)),
		delivered:  tel.Metrics().Counter(observability.MWebhookDeliveries),
	}
}

func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, in WebhookInput) (_ *WebhookResult, err error) {
	ctx, run := observability.BeginUseCase(ctx, uc.tel, logctx.FromOr(ctx, uc.log), useCaseWebhook, "ProcessWebhook",
		attribute.String("payment.provider", uc.provider),
	)
	defer func() { run.End(ctx, err) }()
	ctx = logctx.With(ctx, run.Logger())

	if in.Signature == "" || !uc.verifier.VerifySignature(in.Payload, in.Signature) {
		uc.delivered.Add(1, observability.L("outcome", OutcomeInvalidSignature))
		run.Fail("INVALID_SIGNATURE")
		return nil, apperr.New(apperr.CodeInvalidSignature, "invalid webhook signature")
	}

	evt, perr := uc.verifier.ParseWebhook(in.Payload)
	if perr != nil {
		uc.record(ctx, in.Payload, "", "", OutcomeRejected, perr)
		run.Fail("MALFORMED_PAYLOAD")
		return nil, apperr.Wrap(apperr.CodeValidation, "malformed webhook payload", perr)
	}
	res := &WebhookResult{Event: string(evt.Type), Reference: evt.Reference}
	run.With(observability.F("event", res.Event), observability.F("reference", evt.Reference))

	var out *Outcome
	switch evt.Type {
	case dompay.WebhookChargeSuccess:
		out, err = uc.settle.HandlePaymentConfirmation(ctx, evt.Reference, evt.TransactionID, evt.Amount)
	case dompay.WebhookChargeFailed:
		out, err = uc.settle.HandlePaymentFailure(ctx, evt.Reference, evt.Message)
	default:
		res.Outcome = OutcomeIgnored
		run.Status("EVENT_IGNORED")
		uc.record(ctx, in.Payload, res.Event, evt.Reference, res.Outcome, nil)
		return res, nil
	}
	if err != nil {
		uc.record(ctx, in.Payload, res.Event, evt.Reference, OutcomeRejected, err)
		run.Fail(settlementStatus(err))
		return nil, err
	}

	switch {
	case !out.Changed:
		res.Outcome = OutcomeDuplicate
	case out.Payment.Status == dompay.StatusSettled:
		res.Outcome = OutcomeSettled
	default:
		res.Outcome = OutcomeDeclined
	}
	run.Status(res.Outcome)
	uc.record(ctx, in.Payload, res.Event, evt.Reference, res.Outcome, nil)
	return res, nil
}

// record writes to the delivery log. A failing log never fails the webhook.
func (uc *ProcessWebhookUseCase) record(ctx context.Context, payload []byte, event, reference, outcome string, cause error) {
	uc.delivered.Add(1, observability.L("outcome", outcome))
	if uc.deliveries == nil {
		return
	}
	d := dompay.WebhookDelivery{
		Provider:   uc.provider,
		Event:      event,
		Reference:  reference,
		Outcome:    outcome,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
	if cause != nil {
		d.ErrorMessage = cause.Error()
	}
	if err := uc.deliveries.Record(ctx, d); err != nil {
		logctx.FromOr(ctx, uc.log).Warn("webhook_log_failed",
			observability.F("reference", reference),
			observability.F("error", err),
		)
	}
}
