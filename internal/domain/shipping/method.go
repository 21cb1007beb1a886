package shipping

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("shipping: method not found")

// Method is a configured delivery option with a flat price in minor units.
type Method struct {
	ID      string
	Code    string
	Name    string
	Price   int64
	Enabled bool
}

type Repository interface {
	// FindByIDOrCode matches either the id or the code.
	FindByIDOrCode(ctx context.Context, key string) (*Method, error)
	Save(ctx context.Context, m *Method) error
}
