package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

// RefreshTokenRepository tracks outstanding refresh tokens by owning email.
// Entries are not consumed on use: a recorded token keeps minting access
// tokens until its own embedded expiry. Expired-but-recorded tokens are
// rejected at signature verification before ownership is ever looked up.
type RefreshTokenRepository interface {
	Record(ctx context.Context, token, email string, expiresAt time.Time) error
	Known(ctx context.Context, token string) (bool, error)
	OwnerOf(ctx context.Context, token string) (string, error)
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository returns a Postgres-backed implementation. The
// token expiry is stored alongside the owner so deployments can compact the
// table without a schema change.
func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

func (r *refreshTokenRepository) Record(ctx context.Context, token, email string, expiresAt time.Time) error {
	const query = `
        INSERT INTO refresh_tokens (token, email, expires_at)
        VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, token, email, expiresAt)
	return err
}

func (r *refreshTokenRepository) Known(ctx context.Context, token string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token=$1)`

	var known bool
	if err := r.pool.QueryRow(ctx, query, token).Scan(&known); err != nil {
		return false, err
	}
	return known, nil
}

func (r *refreshTokenRepository) OwnerOf(ctx context.Context, token string) (string, error) {
	const query = `SELECT email FROM refresh_tokens WHERE token=$1`

	var email string
	if err := r.pool.QueryRow(ctx, query, token).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewUnknownToken("refresh token not recognized")
		}
		return "", err
	}
	return email, nil
}
