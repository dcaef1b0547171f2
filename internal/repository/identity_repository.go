package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-gateway/internal/domain"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

// IdentityRepository defines persistence access for registered identities.
// Email is the unique key; Create fails with DUPLICATE_EMAIL on a clash.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	Exists(ctx context.Context, email string) (bool, error)
}

const uniqueViolation = "23505"

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	const query = `
        INSERT INTO identities (email, username, password_hash)
        VALUES ($1, $2, $3)
        RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		identity.Email,
		identity.Username,
		identity.PasswordHash,
	).Scan(&identity.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.NewDuplicateEmail(identity.Email)
	}
	return err
}

func (r *identityRepository) Exists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM identities WHERE email=$1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
