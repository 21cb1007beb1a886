package checkout

import (
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

type IDGenerator interface {
	NewID() string
	NewOrderCode() string
}

// AddressInput references a stored address by ID or carries a new one inline.
// Exactly one of the two must be set.
type AddressInput struct {
	ID     string
	Inline *customer.AddressFields
}

func (a AddressInput) empty() bool { return a.ID == "" && a.Inline == nil }

type Input struct {
	// CartOwner is the customer id or guest session id whose cart is checked out.
	CartOwner string
	// CustomerID is set for known customers; guests are resolved by Email.
	CustomerID      string
	Email           string
	ShippingAddress AddressInput
	// BillingAddress defaults to the shipping address when nil.
	BillingAddress *AddressInput
	ShippingMethod string
	IdempotencyKey string
}

type Result struct {
	OrderID   string
	OrderCode string
	Status    order.Status
	Total     int64
	Currency  string
	// Replayed is true when the idempotency key matched an earlier order.
	Replayed bool
}

func resultOf(o *order.Order, replayed bool) *Result {
	return &Result{
		OrderID:   o.ID,
		OrderCode: o.Code,
		Status:    o.Status,
		Total:     o.Totals.Total,
		Currency:  o.Currency,
		Replayed:  replayed,
	}
}
