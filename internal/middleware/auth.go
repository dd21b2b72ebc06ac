package middleware

import (
	"errors"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// PrincipalKey is the Fiber locals key under which the authenticated
// principal is stored.
const PrincipalKey = "principal"

// AuthRequired enforces authentication for protected routes. It verifies the
// bearer token, then re-fetches the live user row so role and identity
// changes take effect immediately rather than at token-issue time. This is
// the only place a principal is constructed.
//
// Failure modes are distinct: a missing or malformed Authorization header is
// 401, a present-but-invalid token is 403, and a valid token whose user no
// longer exists is 401.
func AuthRequired(tokens *auth.TokenService, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			observability.AuthFailures.WithLabelValues("missing_credential").Inc()
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authentication token required"))
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			observability.AuthFailures.WithLabelValues("missing_credential").Inc()
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Invalid authorization header format"))
		}

		userID, err := tokens.Verify(parts[1])
		if err != nil {
			observability.AuthFailures.WithLabelValues("invalid_token").Inc()
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Invalid or expired token"))
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				// Token is valid but the account has been deleted since issuance.
				observability.AuthFailures.WithLabelValues("user_gone").Inc()
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthenticatedError("User no longer exists"))
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}

		c.Locals(PrincipalKey, models.Principal{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		})
		// Plain user ID is kept alongside the principal for logging and tracing.
		c.Locals("userID", user.ID)

		return c.Next()
	}
}
