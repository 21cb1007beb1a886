package payment

import "context"

type Repository interface {
	// Insert returns ErrDuplicateReference when the reference is already taken.
	Insert(ctx context.Context, p *Payment) error
	// GetByReference holds the payment until the enclosing unit of work ends.
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	ListByOrder(ctx context.Context, orderID string) ([]*Payment, error)
}

// WebhookLog is an append-only record of provider webhook deliveries.
type WebhookLog interface {
	Record(ctx context.Context, d WebhookDelivery) error
}
