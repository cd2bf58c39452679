package dto

import (
	"strings"
	"time"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	Status       string     `json:"status" binding:"required"`
	Priority     string     `json:"priority" binding:"required"`
	DueDate      *time.Time `json:"due_date"`
	AssignedToID *int64     `json:"assigned_to_id"`
	Tags         string     `json:"tags"`
}

// UpdateTaskRequest replaces every editable field of a task
type UpdateTaskRequest CreateTaskRequest

// UpdateStatusRequest moves a task to another status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID           int64      `json:"id"`
	TenantID     int64      `json:"tenant_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CreatedByID  int64      `json:"created_by_id"`
	AssignedToID *int64     `json:"assigned_to_id,omitempty"`
	Tags         []string   `json:"tags"`
	Overdue      bool       `json:"overdue"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewTaskResponse converts a domain task
func NewTaskResponse(t *domain.Task, now time.Time) *TaskResponse {
	tags := []string{}
	if t.Tags != "" {
		tags = strings.Split(t.Tags, ",")
	}
	return &TaskResponse{
		ID:           t.ID,
		TenantID:     t.TenantID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		DueDate:      t.DueDate,
		CreatedByID:  t.CreatedByID,
		AssignedToID: t.AssignedToID,
		Tags:         tags,
		Overdue:      t.IsOverdue(now),
		CompletedAt:  t.CompletedAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ListTasksQuery represents query parameters for listing tasks.
// status and priority accept repeated keys or comma-separated values.
type ListTasksQuery struct {
	Status        []string   `form:"status"`
	Priority      []string   `form:"priority"`
	AssignedToID  *int64     `form:"assigned_to_id"`
	CreatedByID   *int64     `form:"created_by_id"`
	Search        string     `form:"search"`
	DueDateFrom   *time.Time `form:"due_date_from" time_format:"2006-01-02T15:04:05Z07:00"`
	DueDateTo     *time.Time `form:"due_date_to" time_format:"2006-01-02T15:04:05Z07:00"`
	Tags          string     `form:"tags"`
	Overdue       *bool      `form:"overdue"`
	Completed     *bool      `form:"completed"`
	Page          int        `form:"page"`
	Size          int        `form:"size"`
	SortBy        string     `form:"sort_by"`
	SortDirection string     `form:"sort_direction"`
}

// ToFilter parses the enum values and converts the query into a domain filter
func (q *ListTasksQuery) ToFilter() (domain.TaskFilter, error) {
	f := domain.TaskFilter{
		AssignedToID:  q.AssignedToID,
		CreatedByID:   q.CreatedByID,
		Search:        q.Search,
		DueDateFrom:   q.DueDateFrom,
		DueDateTo:     q.DueDateTo,
		Tags:          q.Tags,
		Overdue:       q.Overdue,
		Completed:     q.Completed,
		Page:          q.Page,
		Size:          q.Size,
		SortBy:        q.SortBy,
		SortDirection: q.SortDirection,
	}
	for _, s := range splitValues(q.Status) {
		status, err := domain.ParseTaskStatus(s)
		if err != nil {
			return domain.TaskFilter{}, err
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, p := range splitValues(q.Priority) {
		priority, err := domain.ParseTaskPriority(p)
		if err != nil {
			return domain.TaskFilter{}, err
		}
		f.Priorities = append(f.Priorities, priority)
	}
	return f, nil
}

func splitValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// TaskPage is one page of tasks
type TaskPage struct {
	Items []*TaskResponse
	Page  int
	Size  int
	Total int64
}
