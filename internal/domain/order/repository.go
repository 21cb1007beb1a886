package order

import "context"

type Repository interface {
	// Insert stores the order with its lines. It returns ErrConflict when the
	// customer already used the idempotency key.
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// GetForUpdate holds the order until the enclosing unit of work ends, so
	// status transitions on one order are applied one after the other.
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	FindByIdempotency(ctx context.Context, customerID, key string) (*Order, error)
}
