package order

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: conflict")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount          = errors.New("order: amount must be zero or greater")
	ErrNoLines                = errors.New("order: at least one line is required")
	ErrTotalsMismatch         = errors.New("order: total must equal subtotal + shipping + tax")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrAlreadySettled         = errors.New("order: payment already settled")
)

type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusPaymentPending Status = "PAYMENT_PENDING"
	StatusPaymentSettled Status = "PAYMENT_SETTLED"
)

const DefaultCurrency = "KES"

// Line captures the product price at the moment the order is placed.
type Line struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

// Totals are integer minor-unit amounts, fixed at creation.
type Totals struct {
	SubTotal int64
	Shipping int64
	Tax      int64
	Total    int64
}

func (t Totals) Validate() error {
	if t.SubTotal < 0 || t.Shipping < 0 || t.Tax < 0 {
		return ErrInvalidAmount
	}
	if t.Total != t.SubTotal+t.Shipping+t.Tax {
		return fmt.Errorf("%w: %d != %d + %d + %d", ErrTotalsMismatch, t.Total, t.SubTotal, t.Shipping, t.Tax)
	}
	return nil
}

type Order struct {
	ID                string
	Code              string
	CustomerID        string
	Status            Status
	Totals            Totals
	Currency          string
	ShippingAddressID string
	BillingAddressID  string
	ShippingMethodID  string
	IdempotencyKey    string
	Lines             []Line
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Draft holds everything needed to place a new order.
type Draft struct {
	ID                string
	Code              string
	CustomerID        string
	Currency          string
	ShippingAddressID string
	BillingAddressID  string
	ShippingMethodID  string
	IdempotencyKey    string
	Lines             []Line
	Totals            Totals
}

func New(d Draft) (*Order, error) {
	if d.ID == "" || d.Code == "" {
		return nil, errors.New("order: id and code are required")
	}
	if d.CustomerID == "" {
		return nil, errors.New("order: customer id is required")
	}
	if d.ShippingAddressID == "" {
		return nil, errors.New("order: shipping address is required")
	}
	if len(d.Lines) == 0 {
		return nil, ErrNoLines
	}
	if err := d.Totals.Validate(); err != nil {
		return nil, err
	}
	currency := d.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	billing := d.BillingAddressID
	if billing == "" {
		billing = d.ShippingAddressID
	}

	lines := make([]Line, len(d.Lines))
	for i, l := range d.Lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.UnitPrice < 0 {
			return nil, ErrInvalidAmount
		}
		l.OrderID = d.ID
		l.LineTotal = l.UnitPrice * int64(l.Quantity)
		lines[i] = l
	}

	now := time.Now().UTC()
	return &Order{
		ID:                d.ID,
		Code:              d.Code,
		CustomerID:        d.CustomerID,
		Status:            StatusCreated,
		Totals:            d.Totals,
		Currency:          currency,
		ShippingAddressID: d.ShippingAddressID,
		BillingAddressID:  billing,
		ShippingMethodID:  d.ShippingMethodID,
		IdempotencyKey:    d.IdempotencyKey,
		Lines:             lines,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// PaymentInitiated moves the order into PAYMENT_PENDING. Repeated attempts are allowed.
func (o *Order) PaymentInitiated() error {
	return o.apply(func(s State) (State, error) { return s.OnPaymentInitiated(o) })
}

// PaymentSettled marks the order as paid.
func (o *Order) PaymentSettled() error {
	return o.apply(func(s State) (State, error) { return s.OnPaymentSettled(o) })
}

// PaymentDeclined records a failed attempt; the order remains payable.
func (o *Order) PaymentDeclined() error {
	return o.apply(func(s State) (State, error) { return s.OnPaymentDeclined(o) })
}

func (o *Order) CanAcceptPayment() bool {
	return o.Status == StatusCreated || o.Status == StatusPaymentPending
}

func (o *Order) apply(transition func(State) (State, error)) error {
	current, err := stateFor(o.Status)
	if err != nil {
		return err
	}
	next, err := transition(current)
	if err != nil {
		return err
	}
	if next.Status() != o.Status {
		o.Status = next.Status()
		o.touch()
	}
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = append([]Line(nil), o.Lines...)
	return &c
}
