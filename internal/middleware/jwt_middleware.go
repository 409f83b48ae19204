package middleware

import (
	"log"
	"strings"

	"luxe/internal/apperror"
	"luxe/internal/models"
	"luxe/internal/services"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// TokenCookie is the cookie that carries the JWT for browser clients.
const TokenCookie = "token"

// tokenFrom reads the JWT from the Authorization header or the token cookie.
func tokenFrom(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer") {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Cookies(TokenCookie)
}

func authenticate(c *fiber.Ctx, authService *services.AuthService, tokenString string) (*models.User, error) {
	claims, err := authService.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.Auth("Invalid or expired token")
	}
	user, err := authService.Me(c.UserContext(), claims.UserID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Auth("User not found")
		}
		return nil, err
	}
	return user, nil
}

// AuthRequired is a Fiber middleware that rejects requests without a valid
// JWT and stores the authenticated user in the context.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFrom(c)
		if tokenString == "" {
			return apperror.Auth("Not authorized to access this route. Please login.")
		}

		user, err := authenticate(c, authService, tokenString)
		if err != nil {
			log.Printf("JWT authentication failed for %s: %v", c.Path(), err)
			return err
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets the
// request through either way.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := tokenFrom(c); tokenString != "" {
			if user, err := authenticate(c, authService, tokenString); err == nil {
				c.Locals(userKey, user)
			}
		}
		return c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return apperror.Auth("Not authorized")
		}
		if !user.IsAdmin() {
			return apperror.Forbidden("User role '%s' is not authorized to access this route", user.Role)
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
