package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/internal/api/dto"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/service"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

const tokenTypeBearer = "bearer"

// AuthHandler exposes the token lifecycle endpoints. Refresh and
// GenerateToken are only routed in the mode whose flow supports them.
type AuthHandler struct {
	flow         service.Flow
	selfService  *service.SelfServiceFlow
	serviceGated *service.ServiceGatedFlow
}

// NewAuthHandler constructs the handler around the selected flow.
func NewAuthHandler(flow service.Flow) *AuthHandler {
	h := &AuthHandler{flow: flow}
	switch f := flow.(type) {
	case *service.SelfServiceFlow:
		h.selfService = f
	case *service.ServiceGatedFlow:
		h.serviceGated = f
	}
	return h
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("username, email and password required", nil)
	}

	result, err := h.flow.Register(c.Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		BearerToken: c.Get(fiber.HeaderAuthorization),
	})
	if err != nil {
		return err
	}

	if result.Tokens == nil {
		return c.Status(http.StatusCreated).JSON(dto.RegisterAckResponse{Message: "user registered"})
	}
	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    tokenTypeBearer,
	})
}

// Refresh handles POST /token/refresh. Self-service mode only.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewUnauthorized("refresh token required")
	}

	accessToken, expiresAt, err := h.selfService.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.RefreshResponse{
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
	})
}

// GenerateToken handles POST /generate-token. Service-gated mode only.
func (h *AuthHandler) GenerateToken(c *fiber.Ctx) error {
	token, expiresAt, err := h.serviceGated.IssueServiceToken(c.Context(), c.Get("client_secret"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ServiceTokenResponse{Token: token, ExpiresAt: expiresAt})
}

// SecureData handles GET /secure-data behind the access guard.
func (h *AuthHandler) SecureData(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewMissingCredential()
	}

	message := "Secure data"
	if claims.Subject != "" {
		message = fmt.Sprintf("Secure data for %s", claims.Subject)
	}
	return c.JSON(dto.SecureDataResponse{Message: message, Claims: claimsMap(claims)})
}

func claimsMap(claims *auth.Claims) map[string]any {
	m := map[string]any{}
	if claims.Subject != "" {
		m["sub"] = claims.Subject
	}
	if claims.Role != "" {
		m["role"] = claims.Role
	}
	if claims.ExpiresAt != nil {
		m["exp"] = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		m["iat"] = claims.IssuedAt.Unix()
	}
	if claims.ID != "" {
		m["jti"] = claims.ID
	}
	return m
}
