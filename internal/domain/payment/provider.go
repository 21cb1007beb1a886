package payment

import (
	"context"
	"errors"
	"time"
)

// ErrProvider marks failures reported by, or on the way to, the payment provider.
var ErrProvider = errors.New("payment: provider error")

type InitRequest struct {
	Email       string
	Amount      int64
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type Authorization struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

type VerificationStatus string

const (
	VerificationSuccess   VerificationStatus = "success"
	VerificationFailed    VerificationStatus = "failed"
	VerificationAbandoned VerificationStatus = "abandoned"
	VerificationPending   VerificationStatus = "pending"
)

type Verification struct {
	Reference       string
	TransactionID   string
	Status          VerificationStatus
	Amount          int64
	Currency        string
	GatewayResponse string
}

// Provider is the outbound port to the external payment gateway.
type Provider interface {
	Name() string
	Initialize(ctx context.Context, req InitRequest) (*Authorization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

type WebhookEventType string

const (
	WebhookChargeSuccess WebhookEventType = "charge.success"
	WebhookChargeFailed  WebhookEventType = "charge.failed"
)

type WebhookEvent struct {
	Type          WebhookEventType
	Reference     string
	TransactionID string
	Amount        int64
	Message       string
}

// WebhookVerifier authenticates and decodes raw provider webhooks.
type WebhookVerifier interface {
	VerifySignature(payload []byte, signature string) bool
	ParseWebhook(payload []byte) (*WebhookEvent, error)
}

type WebhookDelivery struct {
	Provider     string
	Event        string
	Reference    string
	Outcome      string
	ErrorMessage string
	Payload      []byte
	ReceivedAt   time.Time
}
