package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"basalt/internal/identity/models"
	"basalt/pkg/domain"
	"basalt/pkg/platform/sentinel"
)

// Postgres persists identity records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the identity tables if they do not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS identity_records (
		    account TEXT PRIMARY KEY,
		    identity_ref TEXT NOT NULL,
		    country SMALLINT NOT NULL,
		    verified BOOLEAN NOT NULL,
		    created_at TIMESTAMPTZ NOT NULL,
		    updated_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure identity schema: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, account domain.Address) (models.Record, error) {
	var record models.Record
	var acct string
	err := s.db.QueryRowContext(ctx,
		`SELECT account, identity_ref, country, verified, created_at, updated_at
		 FROM identity_records WHERE account = $1`,
		account.String(),
	).Scan(&acct, &record.IdentityRef, &record.Country, &record.Verified,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, sentinel.ErrNotFound
		}
		return models.Record{}, fmt.Errorf("find identity record: %w", err)
	}
	record.Account = domain.Address(acct)
	return record, nil
}

func (s *Postgres) Create(ctx context.Context, record models.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_records (account, identity_ref, country, verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.Account.String(), record.IdentityRef, record.Country,
		record.Verified, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create identity record: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, record models.Record) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identity_records
		 SET identity_ref = $2, country = $3, verified = $4, updated_at = $5
		 WHERE account = $1`,
		record.Account.String(), record.IdentityRef, record.Country,
		record.Verified, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update identity record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, account domain.Address) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM identity_records WHERE account = $1`, account.String())
	if err != nil {
		return fmt.Errorf("delete identity record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// CreateBatch inserts records in one transaction, skipping accounts that
// already hold one. Returns the records actually inserted.
func (s *Postgres) CreateBatch(ctx context.Context, records []models.Record) ([]models.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	created := make([]models.Record, 0, len(records))
	for _, record := range records {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO identity_records (account, identity_ref, country, verified, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (account) DO NOTHING`,
			record.Account.String(), record.IdentityRef, record.Country,
			record.Verified, record.CreatedAt, record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("batch insert identity record: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("batch insert identity record: %w", err)
		}
		if affected > 0 {
			created = append(created, record)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return created, nil
}
