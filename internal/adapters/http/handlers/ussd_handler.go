package handlers

import (
	"momo-loanhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// USSDHandler answers the telecom gateway
type USSDHandler struct {
	ussdService *services.USSDService
}

// NewUSSDHandler creates a new USSD handler
func NewUSSDHandler(ussdService *services.USSDService) *USSDHandler {
	return &USSDHandler{ussdService: ussdService}
}

// firstNonEmpty returns the first form value present under any of keys
func firstNonEmpty(c *fiber.Ctx, keys ...string) string {
	for _, key := range keys {
		if v := c.FormValue(key); v != "" {
			return v
		}
	}
	return ""
}

// Callback handles one USSD round trip
// @Summary USSD callback
// @Description Gateway callback. Replies with plain text starting with CON (continue) or END (terminal).
// @Tags USSD
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param sessionId formData string true "Gateway session id"
// @Param phoneNumber formData string true "Caller MSISDN"
// @Param text formData string false "Accumulated input, separator delimited"
// @Success 200 {string} string "CON ... | END ..."
// @Router /ussd [post]
func (h *USSDHandler) Callback(c *fiber.Ctx) error {
	req := services.USSDRequest{
		SessionID: firstNonEmpty(c, "sessionId", "session_id"),
		Phone:     firstNonEmpty(c, "phoneNumber", "phone"),
		Text:      c.FormValue("text"),
	}

	reply := h.ussdService.Handle(c.Context(), req)

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(reply.String())
}
