package service

import (
	"context"

	"github.com/spec-kit/auth-gateway/internal/domain"
)

// RegisterInput carries a registration request into a flow. BearerToken holds
// the raw Authorization header value; only the service-gated flow reads it.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	BearerToken string
}

// RegisterResult is what a flow hands back. Tokens is nil in the
// service-gated flow, which acknowledges registration without issuing
// credentials.
type RegisterResult struct {
	Identity *domain.Identity
	Tokens   *domain.TokenPair
}

// Flow is the contract both trust flows implement. Exactly one flow is
// selected at startup; the two variants embody different trust boundaries and
// are never combined.
type Flow interface {
	Mode() domain.AuthMode
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
}
