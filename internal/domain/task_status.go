package domain

import (
	"fmt"
	"strings"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusCancelled  TaskStatus = "CANCELLED"
)

// AllStatuses lists every task status in declaration order
var AllStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusInReview, StatusCompleted, StatusCancelled}

// validTransitions defines allowed status transitions.
// Key is current status, value is the list of allowed next statuses.
// COMPLETED may be reopened but never cancelled; CANCELLED may be reopened but
// never completed directly.
var validTransitions = map[TaskStatus][]TaskStatus{
	StatusTodo:       {StatusInProgress, StatusInReview, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusTodo, StatusInReview, StatusCompleted, StatusCancelled},
	StatusInReview:   {StatusTodo, StatusInProgress, StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusTodo, StatusInProgress, StatusInReview},
	StatusCancelled:  {StatusTodo, StatusInProgress, StatusInReview},
}

// ParseTaskStatus parses a status name case-insensitively
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown task status %q", s))
	}
	return status, nil
}

// IsValid returns true if the status is a known task status
func (s TaskStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// IsClosed returns true for statuses that no longer accept assignment
func (s TaskStatus) IsClosed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo returns true if transition to the target status is allowed
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}

// ValidateTransition returns a ValidationError when from -> to is not allowed.
// Self-transitions are always rejected.
func ValidateTransition(from, to TaskStatus) error {
	if !to.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown task status %q", to))
	}
	if from == to {
		return NewValidationError("status", fmt.Sprintf("task is already %s", to))
	}
	if !from.CanTransitionTo(to) {
		return NewValidationError("status", fmt.Sprintf("invalid status transition from %s to %s", from, to))
	}
	return nil
}

// TaskPriority represents task urgency
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// priorityRank orders priorities for sorting
var priorityRank = map[TaskPriority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

// ParseTaskPriority parses a priority name case-insensitively
func ParseTaskPriority(s string) (TaskPriority, error) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", NewValidationError("priority", fmt.Sprintf("unknown task priority %q", s))
	}
	return p, nil
}

// IsValid returns true if the priority is known
func (p TaskPriority) IsValid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank returns the sort rank of the priority, 0 for unknown values
func (p TaskPriority) Rank() int {
	return priorityRank[p]
}
