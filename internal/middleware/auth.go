package middleware

import (
	"context"
	"strings"

	authsvc "carmarket-backend/internal/application/auth"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const userLocal = "user"

// Authenticator resolves a bearer token to the caller's claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authsvc.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token. The claims are stored under Locals("user").
func RequireAuth(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return response.Unauthorized(c, "Unauthorized")
		}
		claims, err := a.Authenticate(c.UserContext(), token)
		if err != nil {
			log.Debug().Err(err).Str("trace_id", GetTraceID(c)).Msg("auth: token rejected")
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals(userLocal, claims)
		return c.Next()
	}
}

// OptionalAuth sets Locals("user") when a valid token is present and never rejects.
func OptionalAuth(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := BearerToken(c); token != "" {
			if claims, err := a.Authenticate(c.UserContext(), token); err == nil {
				c.Locals(userLocal, claims)
			}
		}
		return c.Next()
	}
}

// BearerToken returns the token from "Authorization: Bearer <token>", or "".
func BearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// GetUser returns the authenticated claims from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) *authsvc.Claims {
	claims, _ := c.Locals(userLocal).(*authsvc.Claims)
	return claims
}
