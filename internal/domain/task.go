package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	TitleMinLength       = 3
	TitleMaxLength       = 200
	DescriptionMaxLength = 5000
	TagsMaxLength        = 500
)

var tagPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// Task is a unit of work owned by exactly one tenant
type Task struct {
	ID           int64        `json:"id"`
	TenantID     int64        `json:"tenant_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	CreatedByID  int64        `json:"created_by_id"`
	AssignedToID *int64       `json:"assigned_to_id,omitempty"`
	Tags         string       `json:"tags,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
}

// NewTask builds a task in the given tenant. A task created directly in
// COMPLETED gets its completion timestamp at creation.
func NewTask(tenantID, createdBy int64, title, description string, status TaskStatus, priority TaskPriority, dueDate *time.Time, tags string, now time.Time) *Task {
	t := &Task{
		TenantID:    tenantID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedByID: createdBy,
		Tags:        NormalizeTags(tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == StatusCompleted {
		completed := now
		t.CompletedAt = &completed
	}
	return t
}

// TransitionTo moves the task to a new status and maintains CompletedAt:
// set when entering COMPLETED, cleared when leaving it.
func (t *Task) TransitionTo(to TaskStatus, now time.Time) error {
	if err := ValidateTransition(t.Status, to); err != nil {
		return err
	}
	from := t.Status
	t.Status = to
	switch {
	case to == StatusCompleted:
		completed := now
		t.CompletedAt = &completed
	case from == StatusCompleted:
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
	return nil
}

// AssignTo assigns the task to a user of the same tenant.
func (t *Task) AssignTo(user *User, now time.Time) error {
	if user == nil || user.TenantID != t.TenantID || user.IsDeleted() {
		id := int64(0)
		if user != nil {
			id = user.ID
		}
		return NewNotFoundError("User", id)
	}
	if t.Status.IsClosed() {
		return NewValidationError("status", fmt.Sprintf("cannot assign a %s task", strings.ToLower(string(t.Status))))
	}
	if !user.Active {
		return NewValidationError("assignee", "cannot assign task to inactive user")
	}
	id := user.ID
	t.AssignedToID = &id
	t.UpdatedAt = now
	return nil
}

// Unassign clears the assignee
func (t *Task) Unassign(now time.Time) {
	t.AssignedToID = nil
	t.UpdatedAt = now
}

// IsOverdue reports whether the due date has passed on an unfinished task
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// IsDeleted reports whether the task was soft deleted
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// ValidateTaskFields checks title, description, due date and tags.
func ValidateTaskFields(title, description string, dueDate *time.Time, tags string, now time.Time) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return NewValidationError("title", "title is required")
	}
	if n < TitleMinLength || n > TitleMaxLength {
		return NewValidationError("title", fmt.Sprintf("title must be between %d and %d characters", TitleMinLength, TitleMaxLength))
	}
	if utf8.RuneCountInString(description) > DescriptionMaxLength {
		return NewValidationError("description", fmt.Sprintf("description must not exceed %d characters", DescriptionMaxLength))
	}
	if dueDate != nil && dueDate.Before(now.Add(-24*time.Hour)) {
		return NewValidationError("dueDate", "due date cannot be in the past")
	}
	return ValidateTags(tags)
}

// ValidateTags checks a comma-separated tag list. Empty is allowed.
func ValidateTags(tags string) error {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	if len(tags) > TagsMaxLength {
		return NewValidationError("tags", fmt.Sprintf("tags must not exceed %d characters", TagsMaxLength))
	}
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !tagPattern.MatchString(tag) {
			return NewValidationError("tags", fmt.Sprintf("invalid tag format: %s", tag))
		}
	}
	return nil
}

// NormalizeTags trims each tag and drops empty entries
func NormalizeTags(tags string) string {
	if tags == "" {
		return ""
	}
	parts := strings.Split(tags, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
