package payment

import (
	"time"

	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
)

type IDGenerator interface {
	NewID() string
	NewReference() string
}

const (
	paymentService = "payment-service"
	publishTimeout = 300 * time.Millisecond

	// Default method recorded on payment rows created through the provider.
	methodCard = "card"
)

// Outcome reports the payment after a settlement attempt. Changed is false
// when the call was an idempotent no-op.
type Outcome struct {
	Payment *dompay.Payment
	Changed bool
	// OrderAlreadySettled is set when this payment settled on an order that
	// another payment had already paid. The charge needs a refund.
	OrderAlreadySettled bool
}
