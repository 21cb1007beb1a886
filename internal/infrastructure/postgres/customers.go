package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/shipping"
	"github.com/jackc/pgx/v5"
)

type customerRepo struct{ tx pgx.Tx }

func (r customerRepo) Get(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.tx.QueryRow(ctx, `SELECT id, email, created_at FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Email, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get customer: %w", err)
	}
	return &c, nil
}

func (r customerRepo) EnsureByEmail(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	var out customer.Customer
	// The no-op update makes RETURNING yield the existing row on conflict.
	err := r.tx.QueryRow(ctx, `
		INSERT INTO customers (id, email, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at`, c.ID, c.Email, c.CreatedAt).
		Scan(&out.ID, &out.Email, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: ensure customer: %w", err)
	}
	return &out, nil
}

type addressRepo struct{ tx pgx.Tx }

func (r addressRepo) Insert(ctx context.Context, a *customer.Address) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO addresses (id, customer_id, full_name, line1, line2, city, region, postal_code, country, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.CustomerID, a.FullName, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country, a.Phone, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert address: %w", err)
	}
	return nil
}

func (r addressRepo) Get(ctx context.Context, id string) (*customer.Address, error) {
	var a customer.Address
	err := r.tx.QueryRow(ctx, `
		SELECT id, customer_id, full_name, line1, line2, city, region, postal_code, country, phone, created_at
		FROM addresses WHERE id = $1`, id).
		Scan(&a.ID, &a.CustomerID, &a.FullName, &a.Line1, &a.Line2, &a.City, &a.Region, &a.PostalCode, &a.Country, &a.Phone, &a.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, customer.ErrAddressNotFound
		}
		return nil, fmt.Errorf("postgres: get address: %w", err)
	}
	return &a, nil
}

type shippingRepo struct{ tx pgx.Tx }

func (r shippingRepo) FindByIDOrCode(ctx context.Context, key string) (*shipping.Method, error) {
	var m shipping.Method
	err := r.tx.QueryRow(ctx, `
		SELECT id, code, name, price, enabled FROM shipping_methods
		WHERE id = $1 OR code = $1
		ORDER BY (id = $1) DESC
		LIMIT 1`, key).
		Scan(&m.ID, &m.Code, &m.Name, &m.Price, &m.Enabled)
	if err != nil {
		if isNoRows(err) {
			return nil, shipping.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: find shipping method: %w", err)
	}
	return &m, nil
}

func (r shippingRepo) Save(ctx context.Context, m *shipping.Method) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO shipping_methods (id, code, name, price, enabled) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name,
			price = EXCLUDED.price, enabled = EXCLUDED.enabled`,
		m.ID, m.Code, m.Name, m.Price, m.Enabled)
	if err != nil {
		return fmt.Errorf("postgres: save shipping method: %w", err)
	}
	return nil
}
