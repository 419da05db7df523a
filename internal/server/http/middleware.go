package http

import (
	"errors"
	"strings"

	"luchess/internal/server/core"

	"github.com/gofiber/fiber/v2"
)

// Locals keys holding the caller's identity
const (
	localUserID = "userID"
	localClaims = "claims"
)

var (
	errNoToken  = errors.New("missing authorization token")
	errBadToken = errors.New("invalid or expired token")
)

// TokenValidator resolves a bearer token to its user and claims
type TokenValidator func(token string) (userID string, claims map[string]any, err error)

// authenticate checks the Authorization header and stores the identity on
// success. Nothing is stored when it fails.
func authenticate(c *fiber.Ctx, validateToken TokenValidator) error {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return errNoToken
	}

	userID, claims, err := validateToken(token)
	if err != nil {
		return errBadToken
	}
	c.Locals(localUserID, userID)
	c.Locals(localClaims, claims)
	return nil
}

// AuthRequired rejects requests that carry no valid token
func AuthRequired(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, validateToken); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: err.Error(),
				Code:  core.ErrUnauthorized,
			})
		}
		return c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is sent. Requests with
// a missing or bad token continue as anonymous.
func OptionalAuth(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_ = authenticate(c, validateToken)
		return c.Next()
	}
}

// requestUser is the caller's user ID, empty when anonymous
func requestUser(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func requestClaims(c *fiber.Ctx) map[string]any {
	claims, _ := c.Locals(localClaims).(map[string]any)
	return claims
}
