package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists audit events to an append-only table. The payload
// column carries the full event as JSON so the schema never chases the
// event vocabulary; indexed columns exist only for the query paths we have.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the audit tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_events (
		    id UUID PRIMARY KEY,
		    occurred_at TIMESTAMPTZ NOT NULL,
		    action TEXT NOT NULL,
		    account TEXT NOT NULL DEFAULT '',
		    counterparty TEXT NOT NULL DEFAULT '',
		    payload JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS ledger_events_account_idx ON ledger_events (account)`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger_events (id, occurred_at, action, account, counterparty, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Timestamp, string(event.Action),
		string(event.Account), string(event.Counterparty), payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, account string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM ledger_events
		 WHERE account = $1 OR counterparty = $1
		 ORDER BY occurred_at`,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
