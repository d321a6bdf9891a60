package identity

import (
	"strings"

	"github.com/dukex/formflow/pkg/models"
	"github.com/gofiber/fiber/v3"
)

const submitterLocalsKey = "formflow.submitter"

// Middleware rejects requests without a valid bearer token and stores the
// submitter for handlers.
func Middleware(verifier *Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, ErrMissingToken.Error())
		}

		claims, err := verifier.Verify(strings.TrimSpace(tokenStr))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(submitterLocalsKey, claims.Submitter())

		return c.Next()
	}
}

// SubmitterFrom returns the submitter stored by Middleware.
func SubmitterFrom(c fiber.Ctx) (models.Submitter, bool) {
	submitter, ok := c.Locals(submitterLocalsKey).(models.Submitter)

	return submitter, ok
}
