package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, order_id, method, amount, status, reference, transaction_id, failure_message, metadata, created_at, updated_at`

type paymentRepo struct{ tx pgx.Tx }

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var (
		p      payment.Payment
		status string
	)
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &status, &p.Reference,
		&p.TransactionID, &p.FailureMessage, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: scan payment: %w", err)
	}
	p.Status = payment.Status(status)
	return &p, nil
}

func (r paymentRepo) Insert(ctx context.Context, p *payment.Payment) error {
	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := r.tx.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.OrderID, p.Method, p.Amount, string(p.Status), p.Reference,
		p.TransactionID, p.FailureMessage, metadata, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return payment.ErrDuplicateReference
		}
		return fmt.Errorf("postgres: insert payment: %w", err)
	}
	return nil
}

// GetByReference locks the row so concurrent webhook and verify calls for the
// same reference are applied one after the other.
func (r paymentRepo) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	return scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1 FOR UPDATE`, reference))
}

func (r paymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE payments
		SET status = $2, transaction_id = $3, failure_message = $4, updated_at = $5
		WHERE id = $1`,
		p.ID, string(p.Status), p.TransactionID, p.FailureMessage, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrNotFound
	}
	return nil
}

func (r paymentRepo) ListByOrder(ctx context.Context, orderID string) ([]*payment.Payment, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("postgres: query payments: %w", err)
	}
	defer rows.Close()

	var out []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
