package service

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/repository"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

func newServiceGatedFlow() (*ServiceGatedFlow, *auth.TokenCodec) {
	codec := auth.NewTokenCodec("test-secret")
	flow := NewServiceGatedFlow(testAuthConfig(), codec, repository.NewMemoryIdentityRepository(), nil)
	return flow, codec
}

func TestIssueServiceTokenRejectsWrongSecret(t *testing.T) {
	flow, _ := newServiceGatedFlow()

	_, _, err := flow.IssueServiceToken(context.Background(), "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestIssueServiceTokenCarriesFrontendRole(t *testing.T) {
	flow, codec := newServiceGatedFlow()

	token, expiresAt, err := flow.IssueServiceToken(context.Background(), "shared-service-secret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 2*time.Second)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFrontend, claims.Role)
	assert.Empty(t, claims.Subject)
}

func TestServiceGatedRegisterRequiresBearerToken(t *testing.T) {
	flow, _ := newServiceGatedFlow()

	_, err := flow.Register(context.Background(), RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pw"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMissingCredential))
}

func TestServiceGatedRegisterRejectsWrongRole(t *testing.T) {
	flow, codec := newServiceGatedFlow()

	token, _, err := codec.Sign(&auth.Claims{Role: "backend"}, time.Minute)
	require.NoError(t, err)

	_, err = flow.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw",
		BearerToken: "Bearer " + token,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestServiceGatedRegisterRejectsRolelessUserToken(t *testing.T) {
	flow, codec := newServiceGatedFlow()

	token, _, err := codec.Sign(&auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@example.com"},
	}, time.Minute)
	require.NoError(t, err)

	_, err = flow.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw",
		BearerToken: "Bearer " + token,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestServiceGatedRegisterRejectsExpiredServiceToken(t *testing.T) {
	flow, codec := newServiceGatedFlow()

	token, _, err := codec.Sign(&auth.Claims{Role: domain.RoleFrontend}, -time.Minute)
	require.NoError(t, err)

	_, err = flow.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw",
		BearerToken: "Bearer " + token,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTokenInvalid))
}

func TestServiceGatedRegisterSucceedsOnceThenDuplicate(t *testing.T) {
	flow, _ := newServiceGatedFlow()
	ctx := context.Background()

	token, _, err := flow.IssueServiceToken(ctx, "shared-service-secret")
	require.NoError(t, err)

	in := RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw",
		BearerToken: "Bearer " + token,
	}
	result, err := flow.Register(ctx, in)
	require.NoError(t, err)
	assert.Nil(t, result.Tokens)
	assert.Equal(t, "bob@example.com", result.Identity.Email)

	_, err = flow.Register(ctx, in)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmail))
}
