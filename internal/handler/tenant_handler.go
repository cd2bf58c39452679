package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/service"
	"github.com/CrownAlter/task-management-api/pkg/response"
)

// TenantHandler handles requests about the caller's own tenant
type TenantHandler struct {
	tenantService service.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Current handles GET /api/v1/tenant
func (h *TenantHandler) Current(c *gin.Context) {
	result, err := h.tenantService.Current(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Deactivate handles PATCH /api/v1/tenant/deactivate
func (h *TenantHandler) Deactivate(c *gin.Context) {
	result, err := h.tenantService.Deactivate(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}
