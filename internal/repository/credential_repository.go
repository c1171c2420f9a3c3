package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dohwa-law/portal-gate/internal/domain"
)

type CredentialRepository interface {
	ListByCategory(ctx context.Context, category domain.Category) ([]domain.Credential, error)
	Create(ctx context.Context, cred *domain.Credential) error
	GetAdmin(ctx context.Context) (*domain.Credential, error)
	SetAdmin(ctx context.Context, secret string, now time.Time) (*domain.Credential, error)
	Delete(ctx context.Context, id string) error
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

const credentialCols = `id, category, secret, label, created_at, expires_at`

func (r *credentialRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Credential, error) {
	const q = `
		SELECT ` + credentialCols + `
		FROM credentials
		WHERE category = $1 AND id <> $2
		ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, category, domain.AdminCredentialID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var creds []domain.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	return creds, nil
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	const q = `
		INSERT INTO credentials (id, category, secret, label, created_at, expires_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var expires *time.Time
	if cred.ExpiresAt != nil {
		t := time.Date(cred.ExpiresAt.Year, cred.ExpiresAt.Month, cred.ExpiresAt.Day, 0, 0, 0, 0, time.UTC)
		expires = &t
	}

	_, err := r.pool.Exec(ctx, q, cred.ID, cred.Category, cred.Secret, cred.Label, cred.CreatedAt, expires)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *credentialRepository) GetAdmin(ctx context.Context) (*domain.Credential, error) {
	const q = `SELECT ` + credentialCols + ` FROM credentials WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cred, err := scanCredential(r.pool.QueryRow(ctx, q, domain.AdminCredentialID))
	if errors.Is(err, pgx.ErrNoRows) {
		// Not configured yet; a valid state.
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return cred, nil
}

// SetAdmin creates the admin credential on first use and overwrites the
// secret in place afterwards. The previous secret is unrecoverable.
func (r *credentialRepository) SetAdmin(ctx context.Context, secret string, now time.Time) (*domain.Credential, error) {
	const q = `
		INSERT INTO credentials (id, category, secret, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			secret = EXCLUDED.secret,
			created_at = EXCLUDED.created_at
		RETURNING ` + credentialCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cred, err := scanCredential(r.pool.QueryRow(ctx, q, domain.AdminCredentialID, domain.CategoryAdmin, secret, now))
	if err != nil {
		return nil, storeErr(err)
	}
	return cred, nil
}

func (r *credentialRepository) Delete(ctx context.Context, id string) error {
	if id == domain.AdminCredentialID {
		return domain.ErrAdminReserved
	}

	const q = `DELETE FROM credentials WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return storeErr(err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*domain.Credential, error) {
	var (
		cred    domain.Credential
		label   *string
		expires *time.Time
	)
	err := row.Scan(&cred.ID, &cred.Category, &cred.Secret, &label, &cred.CreatedAt, &expires)
	if err != nil {
		return nil, err
	}
	if label != nil {
		cred.Label = *label
	}
	if expires != nil {
		d := domain.DateOf(*expires)
		cred.ExpiresAt = &d
	}
	return &cred, nil
}

func storeErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
