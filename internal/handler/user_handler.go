package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/service"
	"github.com/CrownAlter/task-management-api/pkg/response"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

// UserHandler handles user profile and administration requests
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Profile handles GET /api/v1/users/me
func (h *UserHandler) Profile(c *gin.Context) {
	result, err := h.userService.Profile(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// UpdateProfile handles PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.update_profile")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.userService.UpdateProfile(ctx, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// ChangePassword handles PUT /api/v1/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.change_password")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.userService.ChangePassword(ctx, &req); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Password changed successfully"}))
}

// Get handles GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// List handles GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var query dto.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.userService.List(c.Request.Context(), &query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(page.Items, page.Page, page.Size, page.Total))
}

// Statistics handles GET /api/v1/users/:id/stats
func (h *UserHandler) Statistics(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.userService.Statistics(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Activate handles PATCH /api/v1/users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	h.toggle(c, "handler.user.activate", h.userService.Activate)
}

// Deactivate handles PATCH /api/v1/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.toggle(c, "handler.user.deactivate", h.userService.Deactivate)
}

func (h *UserHandler) toggle(c *gin.Context, spanName string, apply func(ctx context.Context, id int64) (*dto.UserResponse, error)) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), spanName)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := apply(ctx, id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// UpdateRoles handles PUT /api/v1/users/:id/roles
func (h *UserHandler) UpdateRoles(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.update_roles")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	var req dto.UpdateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.userService.UpdateRoles(ctx, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.user.delete")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.userService.Delete(ctx, id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
