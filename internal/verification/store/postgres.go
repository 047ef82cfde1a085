package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"proovd/internal/verification/models"
	"proovd/pkg/domain"
	"proovd/pkg/platform/sentinel"
)

// Postgres persists records in the verification_records table, one row per
// website with an upsert on the primary key.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS verification_records (
	website_id  UUID PRIMARY KEY,
	domain      TEXT NOT NULL,
	token       TEXT NOT NULL,
	method      TEXT NOT NULL,
	status      TEXT NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0,
	reason      TEXT NOT NULL DEFAULT '',
	verified_at TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

// Migrate creates the verification_records table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate verification_records: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, websiteID domain.WebsiteID) (*models.VerificationRecord, error) {
	const query = `
		SELECT website_id, domain, token, method, status, attempts, reason,
		       verified_at, created_at, updated_at
		FROM verification_records
		WHERE website_id = $1`

	record := &models.VerificationRecord{}
	var (
		id         string
		verifiedAt sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, query, websiteID.String()).Scan(
		&id,
		&record.Domain,
		&record.Token,
		&record.Method,
		&record.Status,
		&record.Attempts,
		&record.Reason,
		&verifiedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verification record for website %s: %w", websiteID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get verification record: %w", err)
	}
	record.WebsiteID, err = domain.ParseWebsiteID(id)
	if err != nil {
		return nil, fmt.Errorf("decode website id %q: %w", id, err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		record.VerifiedAt = &t
	}
	return record, nil
}

func (p *Postgres) Save(ctx context.Context, record *models.VerificationRecord) error {
	const query = `
		INSERT INTO verification_records
			(website_id, domain, token, method, status, attempts, reason,
			 verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (website_id) DO UPDATE SET
			domain      = EXCLUDED.domain,
			token       = EXCLUDED.token,
			method      = EXCLUDED.method,
			status      = EXCLUDED.status,
			attempts    = EXCLUDED.attempts,
			reason      = EXCLUDED.reason,
			verified_at = EXCLUDED.verified_at,
			updated_at  = EXCLUDED.updated_at`

	var verifiedAt sql.NullTime
	if record.VerifiedAt != nil {
		verifiedAt = sql.NullTime{Time: *record.VerifiedAt, Valid: true}
	}

	_, err := p.db.ExecContext(ctx, query,
		record.WebsiteID.String(),
		record.Domain,
		record.Token,
		string(record.Method),
		string(record.Status),
		record.Attempts,
		record.Reason,
		verifiedAt,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, websiteID domain.WebsiteID) error {
	const query = `DELETE FROM verification_records WHERE website_id = $1`
	if _, err := p.db.ExecContext(ctx, query, websiteID.String()); err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	return nil
}

func (p *Postgres) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
