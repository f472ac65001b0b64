package handlers

import (
	"log"

	"momo-loanhub/internal/core/services"
	"momo-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SettlementHandler exposes the manual sweep
type SettlementHandler struct {
	cronService *services.CronService
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(cronService *services.CronService) *SettlementHandler {
	return &SettlementHandler{cronService: cronService}
}

// Run sweeps due installments now, then exports and mails the snapshots
// @Summary Run settlement
// @Description Same cycle as the scheduled job. Waits for a sweep already in progress.
// @Tags Settlement
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/settlement/run [post]
func (h *SettlementHandler) Run(c *fiber.Ctx) error {
	report, files, err := h.cronService.RunSettlementCycle(c.Context(), "manual")
	if err != nil {
		log.Printf("❌ Manual settlement failed: %v", err)
		return response.InternalServerError(c, "Settlement failed")
	}

	return response.Success(c, "Settlement completed", fiber.Map{
		"report":  report,
		"reports": files,
	})
}
