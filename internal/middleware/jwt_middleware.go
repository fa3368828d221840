package middleware

import (
	"productapi/internal/models"
	"productapi/internal/services"
	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// Authenticator resolves an Authorization header value into a principal.
type Authenticator interface {
	Authenticate(credential string) (*models.Principal, error)
}

// Principal attaches the caller identity to the request context. Requests
// without a credential, or with one that does not verify, continue
// unauthenticated; the resolvers decide what an anonymous caller may do.
func Principal(auth Authenticator, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		p, err := auth.Authenticate(authHeader)
		if err != nil {
			log.Warn().
				Err(err).
				Str("request_id", RequestIDFrom(c)).
				Msg("credential rejected, continuing unauthenticated")
			return c.Next()
		}
		if p != nil {
			c.Locals(localsPrincipal, p)
			c.SetUserContext(services.ContextWithPrincipal(c.UserContext(), p))
		}
		return c.Next()
	}
}

// PrincipalFrom returns the principal attached by Principal, or nil.
func PrincipalFrom(c *fiber.Ctx) *models.Principal {
	p, _ := c.Locals(localsPrincipal).(*models.Principal)
	return p
}
