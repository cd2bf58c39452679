package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/service"
	"github.com/CrownAlter/task-management-api/pkg/response"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

// TaskHandler handles task HTTP requests
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// Create handles POST /api/v1/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.task.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.taskService.Create(ctx, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(result))
}

// Get handles GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.task.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.taskService.Get(ctx, id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Update handles PUT /api/v1/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.task.update")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.taskService.Update(ctx, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Delete handles DELETE /api/v1/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.task.delete")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.taskService.Delete(ctx, id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /api/v1/tasks
func (h *TaskHandler) List(c *gin.Context) {
	h.list(c, "handler.task.list", h.taskService.List)
}

// ListMine handles GET /api/v1/tasks/mine
func (h *TaskHandler) ListMine(c *gin.Context) {
	h.list(c, "handler.task.list_mine", h.taskService.ListMine)
}

// ListCreated handles GET /api/v1/tasks/created
func (h *TaskHandler) ListCreated(c *gin.Context) {
	h.list(c, "handler.task.list_created", h.taskService.ListCreated)
}

type taskLister func(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error)

func (h *TaskHandler) list(c *gin.Context, spanName string, find taskLister) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), spanName)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.ListTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		handleError(c, err)
		return
	}

	page, err := find(ctx, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(page.Items, page.Page, page.Size, page.Total))
}

// UpdateStatus handles PATCH /api/v1/tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.task.update_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.taskService.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Assign handles PUT /api/v1/tasks/:id/assign/:userId
func (h *TaskHandler) Assign(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.task.assign")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.taskService.Assign(ctx, id, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Unassign handles DELETE /api/v1/tasks/:id/assign
func (h *TaskHandler) Unassign(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.task.unassign")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := pathID(c, "id")
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.taskService.Unassign(ctx, id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}
