package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-gateway/internal/api/http/handlers"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/observability"
	"github.com/spec-kit/auth-gateway/internal/repository"
	"github.com/spec-kit/auth-gateway/internal/service"
)

type gatewayFixture struct {
	app   *fiber.App
	codec *auth.TokenCodec
}

func newGateway(t *testing.T, mode domain.AuthMode) *gatewayFixture {
	t.Helper()

	authCfg := config.AuthConfig{
		Mode:                   mode,
		AccessTokenTTLMinutes:  15,
		RefreshTokenTTLMinutes: 43200,
		ServiceTokenTTLMinutes: 15,
		ServiceSecret:          "shared-service-secret",
		BcryptCost:             bcrypt.MinCost,
	}
	codec := auth.NewTokenCodec("test-secret")
	identities := repository.NewMemoryIdentityRepository()
	refreshTokens := repository.NewMemoryRefreshTokenRepository()

	var flow service.Flow
	var guard *auth.AccessGuard
	switch mode {
	case domain.AuthModeServiceGated:
		flow = service.NewServiceGatedFlow(authCfg, codec, identities, nil)
		guard = auth.NewAccessGuard(codec, nil)
	default:
		flow = service.NewSelfServiceFlow(authCfg, codec, identities, refreshTokens, nil)
		guard = auth.NewAccessGuard(codec, identities)
	}

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(),
		config.CORSConfig{AllowedOrigin: "http://localhost:3000"}, 0)
	RegisterRoutes(app, RouteConfig{
		Mode:   mode,
		Health: handlers.NewHealthHandler("auth-gateway", "test", nil, nil),
		Auth:   handlers.NewAuthHandler(flow),
		Guard:  guard,
	})

	return &gatewayFixture{app: app, codec: codec}
}

func (g *gatewayFixture) do(t *testing.T, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func registerBody(email string) map[string]string {
	return map[string]string{"username": "alice", "email": email, "password": "hunter22"}
}

func TestSelfServiceRegistration(t *testing.T) {
	g := newGateway(t, domain.AuthModeSelfService)

	status, body := g.do(t, "POST", "/register", registerBody("alice@example.com"), nil)
	require.Equal(t, 201, status)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "bearer", body["token_type"])

	status, body = g.do(t, "POST", "/register", registerBody("alice@example.com"), nil)
	assert.Equal(t, 400, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_EMAIL", errObj["code"])
}

func TestSelfServiceSecureData(t *testing.T) {
	g := newGateway(t, domain.AuthModeSelfService)

	_, body := g.do(t, "POST", "/register", registerBody("alice@example.com"), nil)
	accessToken := body["access_token"].(string)

	status, body := g.do(t, "GET", "/secure-data", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	require.Equal(t, 200, status)
	assert.Equal(t, "Secure data for alice@example.com", body["message"])
	claims := body["claims"].(map[string]any)
	assert.Equal(t, "alice@example.com", claims["sub"])
	assert.NotNil(t, claims["exp"])

	status, _ = g.do(t, "GET", "/secure-data", nil, nil)
	assert.Equal(t, 401, status)

	status, _ = g.do(t, "GET", "/secure-data", nil, map[string]string{"Authorization": "Token nope"})
	assert.Equal(t, 401, status)

	expired, _, err := g.codec.Sign(&auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@example.com"},
	}, -time.Minute)
	require.NoError(t, err)
	status, _ = g.do(t, "GET", "/secure-data", nil, map[string]string{"Authorization": "Bearer " + expired})
	assert.Equal(t, 401, status)
}

func TestSelfServiceSecureDataRejectsUnknownIdentity(t *testing.T) {
	g := newGateway(t, domain.AuthModeSelfService)

	token, _, err := g.codec.Sign(&auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ghost@example.com"},
	}, time.Minute)
	require.NoError(t, err)

	status, body := g.do(t, "GET", "/secure-data", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, 401, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "IDENTITY_NOT_FOUND", errObj["code"])
}

func TestSelfServiceRefreshEndpoint(t *testing.T) {
	g := newGateway(t, domain.AuthModeSelfService)

	_, body := g.do(t, "POST", "/register", registerBody("alice@example.com"), nil)
	refreshToken := body["refresh_token"].(string)
	originalAccess := body["access_token"].(string)

	status, body := g.do(t, "POST", "/token/refresh", map[string]string{"refresh_token": refreshToken}, nil)
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEqual(t, originalAccess, body["access_token"])

	status, _ = g.do(t, "POST", "/token/refresh", map[string]string{"refresh_token": "bogus"}, nil)
	assert.Equal(t, 401, status)

	// The service-gated endpoint is not routed in this mode.
	status, _ = g.do(t, "POST", "/generate-token", nil, map[string]string{"client_secret": "shared-service-secret"})
	assert.Equal(t, 404, status)
}

func TestServiceGatedTokenIssuance(t *testing.T) {
	g := newGateway(t, domain.AuthModeServiceGated)

	status, _ := g.do(t, "POST", "/generate-token", nil, map[string]string{"client_secret": "wrong"})
	assert.Equal(t, 401, status)

	status, body := g.do(t, "POST", "/generate-token", nil, map[string]string{"client_secret": "shared-service-secret"})
	require.Equal(t, 200, status)
	assert.NotEmpty(t, body["token"])

	// The refresh endpoint is not routed in this mode.
	status, _ = g.do(t, "POST", "/token/refresh", map[string]string{"refresh_token": "x"}, nil)
	assert.Equal(t, 404, status)
}

func TestServiceGatedRegistration(t *testing.T) {
	g := newGateway(t, domain.AuthModeServiceGated)

	status, _ := g.do(t, "POST", "/register", registerBody("bob@example.com"), nil)
	assert.Equal(t, 401, status)

	_, body := g.do(t, "POST", "/generate-token", nil, map[string]string{"client_secret": "shared-service-secret"})
	serviceToken := body["token"].(string)

	headers := map[string]string{"Authorization": "Bearer " + serviceToken}
	status, body = g.do(t, "POST", "/register", registerBody("bob@example.com"), headers)
	require.Equal(t, 201, status)
	assert.Equal(t, "user registered", body["message"])
	assert.Nil(t, body["access_token"])

	status, body = g.do(t, "POST", "/register", registerBody("bob@example.com"), headers)
	assert.Equal(t, 400, status)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_EMAIL", errObj["code"])

	status, body = g.do(t, "GET", "/secure-data", nil, headers)
	require.Equal(t, 200, status)
	claims := body["claims"].(map[string]any)
	assert.Equal(t, "frontend", claims["role"])
}
