package handlers

import (
	"donorhub/internal/core/domain"
	"donorhub/internal/core/services"
	"donorhub/internal/pkg/pagination"
	"donorhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers handles listing all users (Admin only)
// @Summary List all users
// @Description Get a paginated list of all users (Admin only)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.userService.ListUsers(c.UserContext(), &services.ListUsersInput{
		Page:  params.Page,
		Limit: params.Limit,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Users retrieved successfully", pagination.NewResponse(result.Users, params, result.Total))
}

// GetUser handles getting a user by ID (organization tier)
// @Summary Get user by ID
// @Description Get a specific user by ID (ADMIN or ORGANIZATION)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, domain.NewError(domain.KindInvalidInput, "Invalid user ID"))
	}

	user, err := h.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "User retrieved successfully", user)
}

// ListRoles handles listing the role catalog (audit tier)
// @Summary List roles
// @Description Get the role catalog (ADMIN, ORGANIZATION or AUDITOR)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /roles [get]
func (h *UserHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.userService.ListRoles(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Roles retrieved successfully", roles)
}
