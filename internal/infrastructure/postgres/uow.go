package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/shipping"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultLockTimeout bounds how long a unit of work waits on a row lock.
const DefaultLockTimeout = 5 * time.Second

type UnitOfWork struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

var _ uow.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork uses DefaultLockTimeout when lockTimeout is not positive.
func NewUnitOfWork(pool *pgxpool.Pool, lockTimeout time.Duration) *UnitOfWork {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &UnitOfWork{pool: pool, lockTimeout: lockTimeout}
}

func (u *UnitOfWork) Close() { u.pool.Close() }

// Do runs fn in a READ COMMITTED transaction. Caller cancellation does not
// interrupt a transaction once it has begun; it either commits or rolls back.
// Lock waits are bounded by lock_timeout and surface as uow.ErrLockTimeout.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	ctx = context.WithoutCancel(ctx)
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, lockTimeoutStatement(u.lockTimeout)); err != nil {
		return fmt.Errorf("postgres: set lock_timeout: %w", err)
	}
	if err := fn(ctx, repos{tx}); err != nil {
		return classifyTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyTxError(fmt.Errorf("postgres: commit: %w", err))
	}
	return nil
}

// SET does not take bind parameters; the value is an integer in milliseconds.
func lockTimeoutStatement(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)
}

func classifyTxError(err error) error {
	if isLockTimeout(err) {
		return fmt.Errorf("%w: %w", uow.ErrLockTimeout, err)
	}
	return err
}

type repos struct{ tx pgx.Tx }

func (r repos) Products() catalog.Repository          { return productRepo{r.tx} }
func (r repos) Orders() order.Repository              { return orderRepo{r.tx} }
func (r repos) Payments() payment.Repository          { return paymentRepo{r.tx} }
func (r repos) Customers() customer.Repository        { return customerRepo{r.tx} }
func (r repos) Addresses() customer.AddressRepository { return addressRepo{r.tx} }
func (r repos) ShippingMethods() shipping.Repository  { return shippingRepo{r.tx} }
