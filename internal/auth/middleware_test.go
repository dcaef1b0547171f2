package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/repository"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

func TestParseBearer(t *testing.T) {
	token, err := ParseBearer("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ParseBearer("")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMissingCredential))

	for _, header := range []string{"Token abc", "Bearer", "Bearer "} {
		_, err = ParseBearer(header)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeMalformedCredential), "header %q", header)
	}
}

func guardApp(guard *AccessGuard) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	app.Get("/protected", guard.Handle, func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewMissingCredential()
		}
		return c.JSON(fiber.Map{"sub": claims.Subject, "role": claims.Role})
	})
	return app
}

func TestAccessGuardAcceptsValidToken(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	identities := repository.NewMemoryIdentityRepository()
	require.NoError(t, identities.Create(context.Background(), &domain.Identity{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}))

	token, _, err := codec.Sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@example.com"},
	}, time.Minute)
	require.NoError(t, err)

	app := guardApp(NewAccessGuard(codec, identities))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "alice@example.com")
}

func TestAccessGuardRejectsMissingAndMalformedHeaders(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	app := guardApp(NewAccessGuard(codec, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAccessGuardRejectsExpiredToken(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	token, _, err := codec.Sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@example.com"},
	}, -time.Minute)
	require.NoError(t, err)

	app := guardApp(NewAccessGuard(codec, nil))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), apperrors.CodeTokenInvalid)
}

func TestAccessGuardRechecksIdentityExistence(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	token, _, err := codec.Sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ghost@example.com"},
	}, time.Minute)
	require.NoError(t, err)

	// Empty identity store: the token verifies but its subject is unknown.
	app := guardApp(NewAccessGuard(codec, repository.NewMemoryIdentityRepository()))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), apperrors.CodeIdentityNotFound)
}

func TestAccessGuardSkipsRecheckForRoleTokens(t *testing.T) {
	codec := NewTokenCodec("test-secret")
	token, _, err := codec.Sign(&Claims{Role: domain.RoleFrontend}, time.Minute)
	require.NoError(t, err)

	app := guardApp(NewAccessGuard(codec, nil))
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), domain.RoleFrontend)
}
