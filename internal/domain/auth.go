package domain

import (
	"fmt"
	"time"
)

// AuthMode selects which trust flow the gateway runs. The two modes embody
// different trust boundaries and are never active at the same time.
type AuthMode string

const (
	// AuthModeSelfService issues an access/refresh token pair directly on registration.
	AuthModeSelfService AuthMode = "self_service"
	// AuthModeServiceGated requires a service role token to register; end users
	// receive no tokens from registration.
	AuthModeServiceGated AuthMode = "service_gated"
)

// RoleFrontend is the only role accepted on service role tokens.
const RoleFrontend = "frontend"

// ParseAuthMode validates a configured mode string.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(s) {
	case AuthModeSelfService, AuthModeServiceGated:
		return AuthMode(s), nil
	}
	return "", fmt.Errorf("unknown auth mode %q", s)
}

// TokenPair bundles the credentials issued by the self-service flow.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
