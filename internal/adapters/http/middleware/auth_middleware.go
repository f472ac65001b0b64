package middleware

import (
	"errors"
	"strings"

	"momo-loanhub/internal/config"
	"momo-loanhub/internal/pkg/jwt"
	"momo-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoginPath is where unauthenticated browser requests are sent
const LoginPath = "/login"

// AccessTokenCookie names the admin session cookie
const AccessTokenCookie = "access_token"

// WantsHTML reports whether the caller is a browser rather than an API client
func WantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

// tokenFrom reads the session cookie, falling back to a Bearer header
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies(AccessTokenCookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// AuthMiddleware gates the admin surface.
// Browsers without a valid session are redirected to the login page, API clients get 401.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reject := func(message string) error {
			if WantsHTML(c) {
				return c.Redirect(LoginPath, fiber.StatusSeeOther)
			}
			return response.Unauthorized(c, message)
		}

		accessToken := tokenFrom(c)
		if accessToken == "" {
			return reject("Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return reject("Access token expired")
			}
			return reject("Invalid access token")
		}

		c.Locals("adminID", claims.AdminID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
}
