package handlers

import (
	"strconv"

	"momo-loanhub/internal/core/services"
	"momo-loanhub/internal/pkg/pagination"
	"momo-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetDashboard returns the summary and one page of borrowers
// @Summary Dashboard
// @Description Summary counters plus borrowers matching search, 5 per page
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or phone substring"
// @Param page query int false "Page number"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	params := pagination.NewParams(page, pagination.DashboardLimit, pagination.DashboardLimit)

	data, err := h.dashboardService.GetDashboard(c.Context(), c.Query("search"), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}

// GetSummary returns the summary counters only
// @Summary Dashboard summary
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.dashboardService.GetSummary(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get summary")
	}

	return response.Success(c, "Summary retrieved successfully", summary)
}
