package order

import "time"

// CreatedEvent is emitted after an order and its lines are committed.
type CreatedEvent struct {
	OrderID    string    `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	CustomerID string    `json:"customer_id"`
	CartOwner  string    `json:"cart_owner"`
	Total      int64     `json:"total"`
	Currency   string    `json:"currency"`
	Lines      []Line    `json:"lines"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (CreatedEvent) EventName() string { return "order.created" }

func (e CreatedEvent) EventKey() string { return e.OrderID }

func NewCreatedEvent(o *Order, cartOwner string) CreatedEvent {
	return CreatedEvent{
		OrderID:    o.ID,
		OrderCode:  o.Code,
		CustomerID: o.CustomerID,
		CartOwner:  cartOwner,
		Total:      o.Totals.Total,
		Currency:   o.Currency,
		Lines:      append([]Line(nil), o.Lines...),
		OccurredAt: time.Now().UTC(),
	}
}
