package domain

import (
	"time"
)

// Audit actions recorded by the services
const (
	ActionTaskCreated       = "TASK_CREATED"
	ActionTaskUpdated       = "TASK_UPDATED"
	ActionTaskDeleted       = "TASK_DELETED"
	ActionTaskStatusChanged = "TASK_STATUS_CHANGED"
	ActionTaskAssigned      = "TASK_ASSIGNED"
	ActionTaskUnassigned    = "TASK_UNASSIGNED"
	ActionUserRegistered    = "USER_REGISTERED"
	ActionUserUpdated       = "USER_UPDATED"
	ActionUserActivated     = "USER_ACTIVATED"
	ActionUserDeactivated   = "USER_DEACTIVATED"
	ActionUserDeleted       = "USER_DELETED"
	ActionUserRolesChanged  = "USER_ROLES_CHANGED"
	ActionPasswordChanged   = "PASSWORD_CHANGED"
	ActionLogin             = "LOGIN"
	ActionTenantCreated     = "TENANT_CREATED"
	ActionTenantDeactivated = "TENANT_DEACTIVATED"
)

// Audited entity types
const (
	EntityTask   = "TASK"
	EntityUser   = "USER"
	EntityTenant = "TENANT"
)

// AuditEntry is an append-only record of an action. Never updated or deleted.
type AuditEntry struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	UserID     *int64    `json:"user_id,omitempty"`
	UserEmail  string    `json:"user_email,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditFilter narrows an audit log query within a tenant
type AuditFilter struct {
	EntityType string
	EntityID   *int64
	UserID     *int64
	Action     string
	Page       int
	Size       int
}
