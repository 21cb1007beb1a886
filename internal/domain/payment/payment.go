package payment

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("payment: not found")
	ErrDuplicateReference = errors.New("payment: duplicate reference")
	ErrAlreadySettled     = errors.New("payment: already settled")
	ErrAlreadyDeclined    = errors.New("payment: already declined")
	ErrInvalidAmount      = errors.New("payment: amount must be greater than zero")
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSettled  Status = "SETTLED"
	StatusDeclined Status = "DECLINED"
)

// Payment is one attempt to pay an order. Reference is the provider-side key
// and is unique across all payments.
type Payment struct {
	ID             string
	OrderID        string
	Method         string
	Amount         int64
	Status         Status
	Reference      string
	TransactionID  string
	FailureMessage string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func New(id, orderID, method, reference string, amount int64, metadata map[string]any) (*Payment, error) {
	if id == "" || orderID == "" || reference == "" {
		return nil, errors.New("payment: id, order id and reference are required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	return &Payment{
		ID:        id,
		OrderID:   orderID,
		Method:    method,
		Amount:    amount,
		Status:    StatusPending,
		Reference: reference,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Settle reports changed=false when the payment was already settled.
func (p *Payment) Settle(transactionID string) (changed bool, err error) {
	switch p.Status {
	case StatusSettled:
		return false, nil
	case StatusDeclined:
		return false, ErrAlreadyDeclined
	}
	p.Status = StatusSettled
	p.TransactionID = transactionID
	p.FailureMessage = ""
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Decline reports changed=false when the payment was already declined.
func (p *Payment) Decline(message string) (changed bool, err error) {
	switch p.Status {
	case StatusDeclined:
		return false, nil
	case StatusSettled:
		return false, ErrAlreadySettled
	}
	p.Status = StatusDeclined
	p.FailureMessage = message
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
