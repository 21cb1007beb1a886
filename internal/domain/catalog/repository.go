package catalog

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	// GetForUpdate reads the product and holds it until the enclosing unit of work ends.
	GetForUpdate(ctx context.Context, id string) (*Product, error)
	// DecrementStock fails with ErrInsufficientStock when fewer than quantity units remain.
	DecrementStock(ctx context.Context, id string, quantity int) error
	Save(ctx context.Context, p *Product) error
}
