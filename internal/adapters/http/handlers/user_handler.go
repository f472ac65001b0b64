package handlers

import (
	"errors"
	"strconv"

	"momo-loanhub/internal/core/domain"
	"momo-loanhub/internal/core/services"
	"momo-loanhub/internal/pkg/pagination"
	"momo-loanhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// userListLimit is the default page size of the borrower list
const userListLimit = 20

// UserHandler handles borrower endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// parseID reads a numeric path parameter
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// borrowerError maps service errors onto responses
func borrowerError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, domain.ErrInstallmentNotFound):
		return response.NotFound(c, "Repayment not found")
	case errors.Is(err, domain.ErrPhoneAlreadyRegistered):
		return response.Conflict(c, "Phone already registered")
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}

// ListUsers searches borrowers
// @Summary List borrowers
// @Description Borrowers whose name or phone contains search, in registration order
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or phone substring"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page (max 100)"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c, userListLimit)

	users, err := h.userService.Search(c.Context(), c.Query("search"))
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	start, end := params.Window(len(users))
	return response.Success(c, "Users retrieved successfully",
		pagination.NewResponse(users[start:end], params, int64(len(users))))
}

// GetUser returns a borrower with schedule and totals
// @Summary Get borrower detail
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	detail, err := h.userService.Detail(c.Context(), id)
	if err != nil {
		return borrowerError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", detail)
}

// GetRepayments returns a borrower's installments with derived status
// @Summary Get borrower repayments
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id}/repayments [get]
func (h *UserHandler) GetRepayments(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if _, err := h.userService.GetByID(c.Context(), id); err != nil {
		return borrowerError(c, err, "Failed to get repayments")
	}

	installments, err := h.userService.Installments(c.Context(), id)
	if err != nil {
		return borrowerError(c, err, "Failed to get repayments")
	}

	return response.Success(c, "Repayments retrieved successfully", installments)
}

// UpdateUser edits borrower fields
// @Summary Edit borrower
// @Description Only the fields present in the body are changed. The existing schedule is kept.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.UpdateUserInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var input services.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.Update(c.Context(), id, &input)
	if err != nil {
		return borrowerError(c, err, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", user)
}

// DeleteUser removes a borrower and its schedule
// @Summary Delete borrower
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.Delete(c.Context(), id); err != nil {
		return borrowerError(c, err, "Failed to delete user")
	}

	return response.Success(c, "User deleted successfully", nil)
}

// MarkPaid flips an installment to paid without any debit
// @Summary Mark repayment paid
// @Description Status flip only. Repeating it on a paid installment changes nothing.
// @Tags Repayments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Repayment ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/repayments/{id}/mark-paid [post]
func (h *UserHandler) MarkPaid(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid repayment ID")
	}

	repayment, err := h.userService.MarkPaid(c.Context(), id)
	if err != nil {
		return borrowerError(c, err, "Failed to mark repayment paid")
	}

	return response.Success(c, "Repayment marked as paid", repayment)
}
