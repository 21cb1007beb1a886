package payment

import "time"

type InitializedEvent struct {
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	Reference  string    `json:"reference"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (InitializedEvent) EventName() string { return "payment.initialized" }

func (e InitializedEvent) EventKey() string { return e.OrderID }

type SettledEvent struct {
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	Reference     string    `json:"reference"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (SettledEvent) EventName() string { return "payment.settled" }

func (e SettledEvent) EventKey() string { return e.OrderID }

type DeclinedEvent struct {
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	Reference  string    `json:"reference"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (DeclinedEvent) EventName() string { return "payment.declined" }

func (e DeclinedEvent) EventKey() string { return e.OrderID }

func NewInitializedEvent(p *Payment) InitializedEvent {
	return InitializedEvent{
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		Reference:  p.Reference,
		Amount:     p.Amount,
		OccurredAt: time.Now().UTC(),
	}
}

func NewSettledEvent(p *Payment) SettledEvent {
	return SettledEvent{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Reference:     p.Reference,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		OccurredAt:    time.Now().UTC(),
	}
}

func NewDeclinedEvent(p *Payment) DeclinedEvent {
	return DeclinedEvent{
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		Reference:  p.Reference,
		Reason:     p.FailureMessage,
		OccurredAt: time.Now().UTC(),
	}
}
