// Package uow defines the unit of work the checkout and settlement flows run in.
package uow

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/shipping"
)

// ErrLockTimeout is returned when a unit of work gave up waiting for a row
// another unit of work holds. Retrying is safe; nothing was written.
var ErrLockTimeout = errors.New("uow: lock wait timed out")

// Tx exposes repositories bound to a single transaction.
type Tx interface {
	Products() catalog.Repository
	Orders() order.Repository
	Payments() payment.Repository
	Customers() customer.Repository
	Addresses() customer.AddressRepository
	ShippingMethods() shipping.Repository
}

// UnitOfWork runs fn in one transaction. A nil return commits; any error
// rolls back everything fn wrote.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
