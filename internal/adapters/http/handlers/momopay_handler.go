package handlers

import (
	"errors"

	"momo-loanhub/internal/core/domain"
	"momo-loanhub/internal/core/services"
	"momo-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MoMoPayHandler handles float account endpoints
type MoMoPayHandler struct {
	floatService *services.FloatAccountService
}

// NewMoMoPayHandler creates a new float account handler
func NewMoMoPayHandler(floatService *services.FloatAccountService) *MoMoPayHandler {
	return &MoMoPayHandler{floatService: floatService}
}

func floatError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrFloatAccountNotFound):
		return response.NotFound(c, "Float account not found")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}

// List returns every float account and the merged pool
// @Summary List float accounts
// @Tags MoMoPay
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/momopays [get]
func (h *MoMoPayHandler) List(c *fiber.Ctx) error {
	summary, err := h.floatService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list float accounts")
	}

	return response.Success(c, "Float accounts retrieved successfully", summary)
}

// Get returns one float account
// @Summary Get float account
// @Tags MoMoPay
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Account phone"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/momopays/{phone} [get]
func (h *MoMoPayHandler) Get(c *fiber.Ctx) error {
	account, err := h.floatService.Get(c.Context(), c.Params("phone"))
	if err != nil {
		return floatError(c, err, "Failed to get float account")
	}

	return response.Success(c, "Float account retrieved successfully", account)
}

// Upsert provisions an account or replaces its balances
// @Summary Upsert float account
// @Tags MoMoPay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpsertFloatAccountInput true "Account"
// @Success 200 {object} response.Response
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/momopays [put]
func (h *MoMoPayHandler) Upsert(c *fiber.Ctx) error {
	var input services.UpsertFloatAccountInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	_, err := h.floatService.Get(c.Context(), input.Phone)
	if err != nil && !errors.Is(err, domain.ErrFloatAccountNotFound) {
		return response.InternalServerError(c, "Failed to save float account")
	}
	created := err != nil

	account, err := h.floatService.Upsert(c.Context(), &input)
	if err != nil {
		return floatError(c, err, "Failed to save float account")
	}

	if created {
		return response.Created(c, "Float account created successfully", account)
	}
	return response.Success(c, "Float account updated successfully", account)
}

// Delete removes a float account
// @Summary Delete float account
// @Tags MoMoPay
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Account phone"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/momopays/{phone} [delete]
func (h *MoMoPayHandler) Delete(c *fiber.Ctx) error {
	if err := h.floatService.Delete(c.Context(), c.Params("phone")); err != nil {
		return floatError(c, err, "Failed to delete float account")
	}

	return response.Success(c, "Float account deleted successfully", nil)
}
