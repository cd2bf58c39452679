package query

import (
	"strings"
	"time"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// Field maps a task attribute to its column and in-memory value.
// Columns are fixed identifiers and never come from user input.
type Field struct {
	Name     string
	Column   string
	sortExpr string
	value    func(t *domain.Task) any
	sortKey  func(t *domain.Task) any
}

// Value returns the attribute of t, or nil for SQL NULL
func (f Field) Value(t *domain.Task) any {
	return normalize(f.value(t))
}

func (f Field) orderExpr() string {
	if f.sortExpr != "" {
		return f.sortExpr
	}
	return f.Column
}

func (f Field) orderValue(t *domain.Task) any {
	if f.sortKey != nil {
		return normalize(f.sortKey(t))
	}
	return f.Value(t)
}

var (
	FieldID          = Field{Name: "id", Column: "id", value: func(t *domain.Task) any { return t.ID }}
	FieldTenantID    = Field{Name: "tenantId", Column: "tenant_id", value: func(t *domain.Task) any { return t.TenantID }}
	FieldTitle       = Field{Name: "title", Column: "title", value: func(t *domain.Task) any { return t.Title }}
	FieldDescription = Field{Name: "description", Column: "description", value: func(t *domain.Task) any { return t.Description }}
	FieldStatus      = Field{Name: "status", Column: "status", value: func(t *domain.Task) any { return string(t.Status) }}
	FieldPriority    = Field{
		Name:     "priority",
		Column:   "priority",
		sortExpr: "CASE priority WHEN 'LOW' THEN 1 WHEN 'MEDIUM' THEN 2 WHEN 'HIGH' THEN 3 WHEN 'URGENT' THEN 4 ELSE 0 END",
		value:    func(t *domain.Task) any { return string(t.Priority) },
		sortKey:  func(t *domain.Task) any { return int64(t.Priority.Rank()) },
	}
	FieldAssignedTo  = Field{Name: "assignedTo", Column: "assigned_to_id", value: func(t *domain.Task) any { return t.AssignedToID }}
	FieldCreatedBy   = Field{Name: "createdBy", Column: "created_by_id", value: func(t *domain.Task) any { return t.CreatedByID }}
	FieldDueDate     = Field{Name: "dueDate", Column: "due_date", value: func(t *domain.Task) any { return t.DueDate }}
	FieldTags        = Field{Name: "tags", Column: "tags", value: func(t *domain.Task) any { return t.Tags }}
	FieldCompletedAt = Field{Name: "completedAt", Column: "completed_at", value: func(t *domain.Task) any { return t.CompletedAt }}
	FieldCreatedAt   = Field{Name: "createdAt", Column: "created_at", value: func(t *domain.Task) any { return t.CreatedAt }}
	FieldUpdatedAt   = Field{Name: "updatedAt", Column: "updated_at", value: func(t *domain.Task) any { return t.UpdatedAt }}
	FieldDeletedAt   = Field{Name: "deletedAt", Column: "deleted_at", value: func(t *domain.Task) any { return t.DeletedAt }}
)

// sortFields whitelists the fields a caller may sort by
var sortFields = map[string]Field{
	FieldCreatedAt.Name:   FieldCreatedAt,
	FieldUpdatedAt.Name:   FieldUpdatedAt,
	FieldDueDate.Name:     FieldDueDate,
	FieldPriority.Name:    FieldPriority,
	FieldStatus.Name:      FieldStatus,
	FieldTitle.Name:       FieldTitle,
	FieldCompletedAt.Name: FieldCompletedAt,
}

// SortFieldNames lists the accepted sortBy values
func SortFieldNames() []string {
	names := make([]string, 0, len(sortFields))
	for name := range sortFields {
		names = append(names, name)
	}
	return names
}

// normalize dereferences pointers and maps nil pointers to nil
func normalize(v any) any {
	switch x := v.(type) {
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case domain.TaskStatus:
		return string(x)
	case domain.TaskPriority:
		return string(x)
	case int:
		return int64(x)
	}
	return v
}

// compare orders two non-nil values of the same kind
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case int64:
		y, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}
