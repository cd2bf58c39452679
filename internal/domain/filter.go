package domain

import (
	"time"
)

// Filter defaults
const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	DefaultSortBy    = "createdAt"
	DefaultDirection = "desc"
)

// TaskFilter carries the optional criteria of a task list query.
// Zero values mean "not applied".
type TaskFilter struct {
	Statuses      []TaskStatus
	Priorities    []TaskPriority
	AssignedToID  *int64
	CreatedByID   *int64
	Search        string
	DueDateFrom   *time.Time
	DueDateTo     *time.Time
	Tags          string
	Overdue       *bool
	Completed     *bool
	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// Page is one page of results
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
}

// TotalPages returns the number of pages for the page size
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalItems + int64(p.Size) - 1) / int64(p.Size))
}
