package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/service"
	"github.com/CrownAlter/task-management-api/pkg/response"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AuditHandler serves the audit trail of the caller's tenant
type AuditHandler struct {
	auditService service.AuditService
	now          func() time.Time
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService, now: time.Now}
}

// List handles GET /api/v1/audit-logs
func (h *AuditHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.audit.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.auditService.List(ctx, query.ToFilter())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(page.Items, page.Page, page.Size, page.Total))
}

// Export handles GET /api/v1/audit-logs/export. The workbook is built in
// memory so a failure still produces a JSON error instead of a truncated file.
func (h *AuditHandler) Export(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.audit.export")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var query dto.AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.auditService.Export(ctx, query.ToFilter(), &buf); err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("audit-logs-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
