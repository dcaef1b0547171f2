package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

const refreshKeyPrefix = "refresh:"

type redisRefreshTokenRepository struct {
	client *redis.Client
}

// NewRedisRefreshTokenRepository stores the refresh token table in Redis with
// a key TTL matching the token lifetime, so entries disappear together with
// the tokens they track.
func NewRedisRefreshTokenRepository(client *redis.Client) RefreshTokenRepository {
	return &redisRefreshTokenRepository{client: client}
}

func (r *redisRefreshTokenRepository) Record(ctx context.Context, token, email string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, refreshKeyPrefix+token, email, ttl).Err()
}

func (r *redisRefreshTokenRepository) Known(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, refreshKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisRefreshTokenRepository) OwnerOf(ctx context.Context, token string) (string, error) {
	email, err := r.client.Get(ctx, refreshKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.NewUnknownToken("refresh token not recognized")
		}
		return "", err
	}
	return email, nil
}
