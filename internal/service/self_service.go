package service

import (
	"context"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/events"
	"github.com/spec-kit/auth-gateway/internal/repository"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

// SelfServiceFlow implements password registration with self-issued tokens:
// registering returns an access/refresh pair, and a recorded refresh token
// keeps minting fresh access tokens until its own expiry.
type SelfServiceFlow struct {
	identities    repository.IdentityRepository
	refreshTokens repository.RefreshTokenRepository
	codec         *auth.TokenCodec
	dispatcher    events.Dispatcher
	accessTTL     time.Duration
	refreshTTL    time.Duration
	bcryptCost    int
}

// NewSelfServiceFlow builds the flow.
func NewSelfServiceFlow(
	cfg config.AuthConfig,
	codec *auth.TokenCodec,
	identities repository.IdentityRepository,
	refreshTokens repository.RefreshTokenRepository,
	dispatcher events.Dispatcher,
) *SelfServiceFlow {
	return &SelfServiceFlow{
		identities:    identities,
		refreshTokens: refreshTokens,
		codec:         codec,
		dispatcher:    dispatcher,
		accessTTL:     cfg.AccessTokenTTL(),
		refreshTTL:    cfg.RefreshTokenTTL(),
		bcryptCost:    cfg.BcryptCost,
	}
}

// Mode identifies the flow.
func (f *SelfServiceFlow) Mode() domain.AuthMode { return domain.AuthModeSelfService }

// Register creates the identity and mints the token pair. The refresh token
// is recorded in the token table so later refreshes can prove it was issued
// here.
func (f *SelfServiceFlow) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	hash, err := auth.HashPassword(in.Password, f.bcryptCost)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := f.identities.Create(ctx, identity); err != nil {
		return nil, err
	}

	accessToken, accessExp, err := f.mintUserToken(in.Email, f.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := f.mintUserToken(in.Email, f.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := f.refreshTokens.Record(ctx, refreshToken, in.Email, refreshExp); err != nil {
		return nil, err
	}

	f.publish(ctx, events.EventIdentityRegistered, in.Email)

	return &RegisterResult{
		Identity: identity,
		Tokens: &domain.TokenPair{
			AccessToken:      accessToken,
			RefreshToken:     refreshToken,
			AccessExpiresAt:  accessExp,
			RefreshExpiresAt: refreshExp,
		},
	}, nil
}

// Refresh exchanges a known, still-valid refresh token for a new access
// token. The refresh token is not rotated: it stays usable for further
// refreshes until its own expiry.
func (f *SelfServiceFlow) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	known, err := f.refreshTokens.Known(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if !known {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	claims, err := f.codec.Verify(refreshToken)
	if err != nil {
		return "", time.Time{}, apperrors.NewTokenInvalid("invalid or expired refresh token")
	}
	if claims.Subject == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("refresh token has no subject")
	}

	accessToken, exp, err := f.mintUserToken(claims.Subject, f.accessTTL)
	if err != nil {
		return "", time.Time{}, err
	}

	f.publish(ctx, events.EventAccessTokenRefreshed, claims.Subject)
	return accessToken, exp, nil
}

// mintUserToken signs a subject token. The jti keeps two tokens minted within
// the same clock second distinct.
func (f *SelfServiceFlow) mintUserToken(email string, ttl time.Duration) (string, time.Time, error) {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: email,
			ID:      uuid.NewString(),
		},
	}
	return f.codec.Sign(claims, ttl)
}

func (f *SelfServiceFlow) publish(ctx context.Context, eventType events.EventType, email string) {
	if f.dispatcher == nil {
		return
	}
	_ = f.dispatcher.Publish(ctx, events.NewEvent(eventType, f.Mode(), email))
}
