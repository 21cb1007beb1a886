// Package sqlite keeps an append-only log of payment provider webhooks in a
// local SQLite file, independent of the main store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS webhook_deliveries (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    provider      TEXT NOT NULL,
    event         TEXT NOT NULL DEFAULT '',
    reference     TEXT NOT NULL DEFAULT '',
    outcome       TEXT NOT NULL,
    error_message TEXT NOT NULL DEFAULT '',
    payload       TEXT,
    received_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_reference ON webhook_deliveries(reference, received_at);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z"

type WebhookLog struct {
	db *sql.DB
}

var _ payment.WebhookLog = (*WebhookLog)(nil)

func Open(path string) (*WebhookLog, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &WebhookLog{db: db}, nil
}

func (l *WebhookLog) Close() error {
	return l.db.Close()
}

func (l *WebhookLog) Record(ctx context.Context, d payment.WebhookDelivery) error {
	received := d.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	var payload any
	if len(d.Payload) > 0 {
		payload = string(d.Payload)
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (provider, event, reference, outcome, error_message, payload, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Provider, d.Event, d.Reference, d.Outcome, d.ErrorMessage, payload, received.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("sqlite: record webhook %q: %w", d.Reference, err)
	}
	return nil
}

// ListByReference returns deliveries for a reference, oldest first.
func (l *WebhookLog) ListByReference(ctx context.Context, reference string) ([]payment.WebhookDelivery, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT provider, event, reference, outcome, error_message, COALESCE(payload, ''), received_at
		FROM webhook_deliveries
		WHERE reference = ?
		ORDER BY received_at, id`, reference)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list webhooks %q: %w", reference, err)
	}
	defer rows.Close()

	var out []payment.WebhookDelivery
	for rows.Next() {
		var (
			d        payment.WebhookDelivery
			payload  string
			received string
		)
		if err := rows.Scan(&d.Provider, &d.Event, &d.Reference, &d.Outcome, &d.ErrorMessage, &payload, &received); err != nil {
			return nil, fmt.Errorf("sqlite: scan webhook: %w", err)
		}
		if payload != "" {
			d.Payload = []byte(payload)
		}
		if d.ReceivedAt, err = time.Parse(time.RFC3339Nano, received); err != nil {
			return nil, fmt.Errorf("sqlite: parse received_at %q: %w", received, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
