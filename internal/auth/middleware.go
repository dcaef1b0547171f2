package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/internal/repository"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util"
)

const claimsKey = "auth_claims"

// ParseBearer extracts the token from an Authorization header value. A missing
// header and a malformed scheme are distinct failures.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewMissingCredential()
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.NewMalformedCredential()
	}
	return parts[1], nil
}

// AccessGuard validates bearer credentials and exposes the decoded claims to
// downstream handlers.
type AccessGuard struct {
	codec      *TokenCodec
	identities repository.IdentityRepository
}

// NewAccessGuard constructs the guard. identities may be nil for modes whose
// tokens do not reference stored identities; when set, user tokens are only
// accepted while their subject still resolves to a registered identity.
func NewAccessGuard(codec *TokenCodec, identities repository.IdentityRepository) *AccessGuard {
	return &AccessGuard{codec: codec, identities: identities}
}

// Handle enforces authentication for protected routes.
func (g *AccessGuard) Handle(c *fiber.Ctx) error {
	token, err := ParseBearer(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	claims, err := g.codec.Verify(token)
	if err != nil {
		return apperrors.NewTokenInvalid("invalid or expired token")
	}

	if g.identities != nil && claims.Subject != "" {
		exists, err := g.identities.Exists(c.Context(), claims.Subject)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !exists {
			return apperrors.NewIdentityNotFound(claims.Subject)
		}
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the authenticated claim set.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
