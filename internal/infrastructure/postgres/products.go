package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, enabled, stock_on_hand, price, sale_price, updated_at`

type productRepo struct{ tx pgx.Tx }

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Enabled, &p.StockOnHand, &p.Price, &p.SalePrice, &p.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan product: %w", err)
	}
	return &p, nil
}

func (r productRepo) Get(ctx context.Context, id string) (*catalog.Product, error) {
	return scanProduct(r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r productRepo) GetForUpdate(ctx context.Context, id string) (*catalog.Product, error) {
	return scanProduct(r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
}

func (r productRepo) DecrementStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return catalog.ErrInvalidQuantity
	}
	tag, err := r.tx.Exec(ctx, `
		UPDATE products
		SET stock_on_hand = stock_on_hand - $2, updated_at = now()
		WHERE id = $1 AND enabled AND stock_on_hand >= $2`, id, quantity)
	if err != nil {
		return fmt.Errorf("postgres: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrInsufficientStock
	}
	return nil
}

func (r productRepo) Save(ctx context.Context, p *catalog.Product) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO products (id, name, enabled, stock_on_hand, price, sale_price, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			stock_on_hand = EXCLUDED.stock_on_hand,
			price = EXCLUDED.price,
			sale_price = EXCLUDED.sale_price,
			updated_at = now()`,
		p.ID, p.Name, p.Enabled, p.StockOnHand, p.Price, p.SalePrice)
	if err != nil {
		return fmt.Errorf("postgres: save product: %w", err)
	}
	return nil
}
