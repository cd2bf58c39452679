package dto

import (
	"strings"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// AuditLogQuery represents query parameters for the audit log
type AuditLogQuery struct {
	EntityType string `form:"entity_type"`
	EntityID   *int64 `form:"entity_id"`
	UserID     *int64 `form:"user_id"`
	Action     string `form:"action"`
	Page       int    `form:"page"`
	Size       int    `form:"size"`
}

// ToFilter converts the query into a domain filter
func (q *AuditLogQuery) ToFilter() domain.AuditFilter {
	return domain.AuditFilter{
		EntityType: strings.ToUpper(strings.TrimSpace(q.EntityType)),
		EntityID:   q.EntityID,
		UserID:     q.UserID,
		Action:     strings.ToUpper(strings.TrimSpace(q.Action)),
		Page:       q.Page,
		Size:       q.Size,
	}
}

// AuditPage is one page of audit entries
type AuditPage struct {
	Items []*domain.AuditEntry
	Page  int
	Size  int
	Total int64
}
