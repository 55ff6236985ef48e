package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lesson-ledger-api/internal/service"
	"github.com/noah-isme/lesson-ledger-api/internal/utils"
)

// SessionLocalsKey is the fiber locals key holding the authenticated session id.
const SessionLocalsKey = "session_id"

// SessionAuthenticator resolves a bearer token to a live session id.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// SessionProtected rejects requests without a valid bearer token whose session
// flag is still present.
func SessionProtected(auth SessionAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		token := strings.TrimSpace(authorization[len(bearer):])
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		sessionID, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrSessionInvalid) {
				return utils.SendError(c, fiber.StatusUnauthorized, "session is invalid or expired")
			}
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to verify session")
		}

		c.Locals(SessionLocalsKey, sessionID)
		c.SetUserContext(service.ContextWithSession(c.UserContext(), sessionID))

		return c.Next()
	}
}
