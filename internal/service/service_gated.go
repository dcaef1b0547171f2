package service

import (
	"context"
	"crypto/subtle"
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

// ServiceGatedFlow implements gateway-mediated registration: a trusted caller
// first exchanges a shared secret for a short-lived role token, and only
// bearers of that token may register users. End users receive no credentials
// from registration; obtaining them is a separate login concern.
type ServiceGatedFlow struct {
	identities    repository.IdentityRepository
	codec         *auth.TokenCodec
	dispatcher    events.Dispatcher
	serviceSecret string
	serviceTTL    time.Duration
	bcryptCost    int
}

// NewServiceGatedFlow builds the flow.
func NewServiceGatedFlow(
	cfg config.AuthConfig,
	codec *auth.TokenCodec,
	identities repository.IdentityRepository,
	dispatcher events.Dispatcher,
) *ServiceGatedFlow {
	return &ServiceGatedFlow{
		identities:    identities,
		codec:         codec,
		dispatcher:    dispatcher,
		serviceSecret: cfg.ServiceSecret,
		serviceTTL:    cfg.ServiceTokenTTL(),
		bcryptCost:    cfg.BcryptCost,
	}
}

// Mode identifies the flow.
func (f *ServiceGatedFlow) Mode() domain.AuthMode { return domain.AuthModeServiceGated }

// IssueServiceToken exchanges the shared service secret for a role token.
func (f *ServiceGatedFlow) IssueServiceToken(ctx context.Context, clientSecret string) (string, time.Time, error) {
	if subtle.ConstantTimeCompare([]byte(clientSecret), []byte(f.serviceSecret)) != 1 {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid client secret")
	}

	claims := &auth.Claims{
		Role: domain.RoleFrontend,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
	}
	token, exp, err := f.codec.Sign(claims, f.serviceTTL)
	if err != nil {
		return "", time.Time{}, err
	}

	f.publish(ctx, events.EventServiceTokenIssued, "")
	return token, exp, nil
}

// Register verifies the bearer role token before creating the identity. The
// result carries no tokens.
func (f *ServiceGatedFlow) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	token, err := auth.ParseBearer(in.BearerToken)
	if err != nil {
		return nil, err
	}

	claims, err := f.codec.Verify(token)
	if err != nil {
		return nil, apperrors.NewTokenInvalid("invalid or expired service token")
	}
	if claims.Role != domain.RoleFrontend {
		return nil, apperrors.NewUnauthorized("frontend role required")
	}

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

	f.publish(ctx, events.EventIdentityRegistered, in.Email)
	return &RegisterResult{Identity: identity}, nil
}

func (f *ServiceGatedFlow) publish(ctx context.Context, eventType events.EventType, email string) {
	if f.dispatcher == nil {
		return
	}
	_ = f.dispatcher.Publish(ctx, events.NewEvent(eventType, f.Mode(), email))
}
