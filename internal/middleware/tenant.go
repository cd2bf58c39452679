package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/tenant"
	"github.com/CrownAlter/task-management-api/pkg/response"
)

// DefaultTenantHeader carries the tenant id of a request
const DefaultTenantHeader = "X-Tenant-ID"

// TenantResolution binds the tenant named by header to the request context.
// A missing header leaves the request without a tenant; a malformed one is
// rejected with 400. The tenant-free request is restored on every exit path.
func TenantResolution(header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultTenantHeader
	}
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(header))
		if raw == "" {
			c.Next()
			return
		}

		tenantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tenantID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.BadRequest("Invalid tenant identifier"))
			return
		}

		original := c.Request
		defer func() { c.Request = original }()

		c.Request = original.WithContext(tenant.WithTenant(original.Context(), tenantID))
		c.Next()
	}
}
