package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, code, customer_id, status, subtotal, shipping, tax, total, currency,
	shipping_address_id, billing_address_id, COALESCE(shipping_method_id, ''), COALESCE(idempotency_key, ''),
	created_at, updated_at`

type orderRepo struct{ tx pgx.Tx }

func (r orderRepo) Insert(ctx context.Context, o *order.Order) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO orders (id, code, customer_id, status, subtotal, shipping, tax, total, currency,
			shipping_address_id, billing_address_id, shipping_method_id, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.Code, o.CustomerID, string(o.Status),
		o.Totals.SubTotal, o.Totals.Shipping, o.Totals.Tax, o.Totals.Total, o.Currency,
		o.ShippingAddressID, o.BillingAddressID, nullIfEmpty(o.ShippingMethodID), nullIfEmpty(o.IdempotencyKey),
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrConflict
		}
		return fmt.Errorf("postgres: insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, l := range o.Lines {
		batch.Queue(`
			INSERT INTO order_lines (id, order_id, product_id, product_name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, o.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice, l.LineTotal)
	}
	if err := r.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert order lines: %w", err)
	}
	return nil
}

func (r orderRepo) Get(ctx context.Context, id string) (*order.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r orderRepo) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r orderRepo) FindByIdempotency(ctx context.Context, customerID, key string) (*order.Order, error) {
	if key == "" {
		return nil, order.ErrNotFound
	}
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 AND idempotency_key = $2`, customerID, key)
}

// Update persists the status; every other column is fixed at creation.
func (r orderRepo) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		o.ID, string(o.Status), o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r orderRepo) one(ctx context.Context, query string, args ...any) (*order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := r.tx.QueryRow(ctx, query, args...).Scan(
		&o.ID, &o.Code, &o.CustomerID, &status,
		&o.Totals.SubTotal, &o.Totals.Shipping, &o.Totals.Tax, &o.Totals.Total, &o.Currency,
		&o.ShippingAddressID, &o.BillingAddressID, &o.ShippingMethodID, &o.IdempotencyKey,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan order: %w", err)
	}
	o.Status = order.Status(status)

	rows, err := r.tx.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, line_total
		FROM order_lines WHERE order_id = $1 ORDER BY product_id`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: query order lines: %w", err)
	}
	o.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.LineTotal)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan order lines: %w", err)
	}
	return &o, nil
}
