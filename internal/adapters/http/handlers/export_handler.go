package handlers

import (
	"bytes"

	"momo-loanhub/internal/core/services"
	"momo-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ExportHandler serves user snapshots
type ExportHandler struct {
	exportService *services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// UsersCSV downloads the users table as CSV
// @Summary Export users (CSV)
// @Tags Export
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 401 {object} response.Response
// @Router /api/v1/export/users.csv [get]
func (h *ExportHandler) UsersCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.exportService.WriteUsersCSV(c.Context(), &buf); err != nil {
		return response.InternalServerError(c, "Failed to export users")
	}

	c.Attachment("users_export.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// UsersXLSX downloads the users table as a workbook
// @Summary Export users (XLSX)
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 401 {object} response.Response
// @Router /api/v1/export/users.xlsx [get]
func (h *ExportHandler) UsersXLSX(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.exportService.WriteUsersXLSX(c.Context(), &buf); err != nil {
		return response.InternalServerError(c, "Failed to export users")
	}

	c.Attachment("users_export.xlsx")
	c.Set(fiber.HeaderContentType, services.XLSXContentType)
	return c.Send(buf.Bytes())
}
