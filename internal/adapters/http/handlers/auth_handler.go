package handlers

import (
	"errors"
	"strings"
	"time"

	"momo-loanhub/internal/adapters/http/middleware"
	"momo-loanhub/internal/config"
	"momo-loanhub/internal/core/services"
	"momo-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardPath is where a browser lands after login
const DashboardPath = "/api/v1/dashboard"

const loginPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>MoMo LoanHub Admin</title></head>
<body>
<h1>Admin Login</h1>
<form method="post" action="/login">
<label>Username <input name="username" autocomplete="username"></label>
<label>Password <input name="password" type="password" autocomplete="current-password"></label>
<button type="submit">Login</button>
</form>
</body>
</html>`

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// LoginPage serves the browser login form
// @Summary Login page
// @Tags Auth
// @Produce html
// @Success 200 {string} string "HTML form"
// @Router /login [get]
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(loginPage)
}

// Login handles admin login
// @Summary Login admin
// @Description Authenticate the admin and set the session cookie. Accepts JSON or form data.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if strings.TrimSpace(req.Username) == "" {
		return response.BadRequest(c, "Username is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	result, err := h.authService.Login(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid username or password")
		case errors.Is(err, services.ErrAdminInactive):
			return response.Forbidden(c, "Admin account is inactive")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	h.setAuthCookie(c, result.AccessToken)

	if middleware.WantsHTML(c) {
		return c.Redirect(DashboardPath, fiber.StatusSeeOther)
	}

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": result.AccessToken,
		"expires_at":   result.ExpiresAt,
		"admin":        result.Admin,
	})
}

// Logout handles admin logout
// @Summary Logout admin
// @Description Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearAuthCookie(c)

	if middleware.WantsHTML(c) {
		return c.Redirect(middleware.LoginPath, fiber.StatusSeeOther)
	}

	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current admin
// @Summary Get current admin
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	adminID, ok := c.Locals("adminID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	admin, err := h.authService.Me(c.Context(), adminID)
	if err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			return response.NotFound(c, "Admin not found")
		}
		return response.InternalServerError(c, "Failed to get admin")
	}

	return response.Success(c, "Admin retrieved successfully", fiber.Map{
		"admin": admin,
	})
}

// setAuthCookie sets the access token cookie
func (h *AuthHandler) setAuthCookie(c *fiber.Ctx, accessToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60, // Convert minutes to seconds
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookie expires the access token cookie
func (h *AuthHandler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
