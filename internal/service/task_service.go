package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/query"
	"github.com/CrownAlter/task-management-api/internal/repository"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

// TaskService defines task operations within the current tenant
type TaskService interface {
	// Create creates a task owned by the current principal
	Create(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	// Get returns a task of the current tenant
	Get(ctx context.Context, id int64) (*dto.TaskResponse, error)
	// Update replaces the editable fields of a task
	Update(ctx context.Context, id int64, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	// Delete soft deletes a task
	Delete(ctx context.Context, id int64) error
	// List returns the tasks matching the filter
	List(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error)
	// ListMine returns tasks assigned to the current principal
	ListMine(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error)
	// ListCreated returns tasks created by the current principal
	ListCreated(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error)
	// UpdateStatus moves a task through the state machine
	UpdateStatus(ctx context.Context, id int64, status string) (*dto.TaskResponse, error)
	// Assign assigns a task to a user of the same tenant
	Assign(ctx context.Context, id, userID int64) (*dto.TaskResponse, error)
	// Unassign clears the assignee
	Unassign(ctx context.Context, id int64) (*dto.TaskResponse, error)
}

type taskService struct {
	tasks       repository.TaskRepository
	users       repository.UserRepository
	audit       AuditRecorder
	now         Clock
	transitions *telemetry.Counter
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, audit AuditRecorder) TaskService {
	return &taskService{
		tasks: tasks,
		users: users,
		audit: audit,
		now:   utcNow,
		transitions: telemetry.MustCounter(telemetry.MetricOpts{
			Name:        telemetry.MetricTaskTransitions,
			Description: "Accepted task status transitions",
		}),
	}
}

func (s *taskService) Create(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	tenantID, p, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	status, priority, err := parseStatusPriority(req.Status, req.Priority)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTaskFields(req.Title, req.Description, req.DueDate, req.Tags, now); err != nil {
		return nil, err
	}

	task := domain.NewTask(tenantID, p.UserID(), req.Title, req.Description, status, priority, req.DueDate, req.Tags, now)
	if req.AssignedToID != nil {
		if err := s.assign(ctx, task, *req.AssignedToID, now); err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.audit.Record(ctx, domain.ActionTaskCreated, domain.EntityTask, task.ID, fmt.Sprintf("Created task: %s", task.Title), "")
	return dto.NewTaskResponse(task, now), nil
}

func (s *taskService) Get(ctx context.Context, id int64) (*dto.TaskResponse, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewTaskResponse(task, s.now()), nil
}

func (s *taskService) Update(ctx context.Context, id int64, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	status, priority, err := parseStatusPriority(req.Status, req.Priority)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTaskFields(req.Title, req.Description, req.DueDate, req.Tags, now); err != nil {
		return nil, err
	}

	from := task.Status
	if status != task.Status {
		if err := task.TransitionTo(status, now); err != nil {
			return nil, err
		}
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = req.Description
	task.Priority = priority
	task.DueDate = req.DueDate
	task.Tags = domain.NormalizeTags(req.Tags)
	task.UpdatedAt = now

	switch {
	case req.AssignedToID == nil:
		task.Unassign(now)
	case task.AssignedToID == nil || *task.AssignedToID != *req.AssignedToID:
		if err := s.assign(ctx, task, *req.AssignedToID, now); err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if from != task.Status {
		s.transitions.Inc(ctx, telemetry.TransitionAttrs(string(from), string(task.Status))...)
	}
	s.audit.Record(ctx, domain.ActionTaskUpdated, domain.EntityTask, task.ID, fmt.Sprintf("Updated task: %s", task.Title), "")
	return dto.NewTaskResponse(task, now), nil
}

func (s *taskService) Delete(ctx context.Context, id int64) error {
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	now := s.now()
	task.DeletedAt = &now
	task.UpdatedAt = now
	if err := s.tasks.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.audit.Record(ctx, domain.ActionTaskDeleted, domain.EntityTask, task.ID, fmt.Sprintf("Deleted task: %s", task.Title), "")
	return nil
}

func (s *taskService) List(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error) {
	if _, _, err := scope(ctx); err != nil {
		return nil, err
	}
	return s.find(ctx, f)
}

func (s *taskService) ListMine(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error) {
	_, p, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	me := p.UserID()
	f.AssignedToID = &me
	return s.find(ctx, f)
}

func (s *taskService) ListCreated(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error) {
	_, p, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	me := p.UserID()
	f.CreatedByID = &me
	return s.find(ctx, f)
}

func (s *taskService) UpdateStatus(ctx context.Context, id int64, status string) (*dto.TaskResponse, error) {
	to, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	from := task.Status
	if err := task.TransitionTo(to, now); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	s.transitions.Inc(ctx, telemetry.TransitionAttrs(string(from), string(to))...)
	s.audit.Record(ctx, domain.ActionTaskStatusChanged, domain.EntityTask, task.ID,
		fmt.Sprintf("Changed status from %s to %s", from, to), "")
	return dto.NewTaskResponse(task, now), nil
}

func (s *taskService) Assign(ctx context.Context, id, userID int64) (*dto.TaskResponse, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.assign(ctx, task, userID, now); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}
	s.audit.Record(ctx, domain.ActionTaskAssigned, domain.EntityTask, task.ID,
		fmt.Sprintf("Assigned task to user %d", userID), "")
	return dto.NewTaskResponse(task, now), nil
}

func (s *taskService) Unassign(ctx context.Context, id int64) (*dto.TaskResponse, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	task.Unassign(now)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to unassign task: %w", err)
	}
	s.audit.Record(ctx, domain.ActionTaskUnassigned, domain.EntityTask, task.ID, "Removed task assignee", "")
	return dto.NewTaskResponse(task, now), nil
}

// load returns the task with id in the current tenant. A task of another
// tenant is reported exactly like a missing one.
func (s *taskService) load(ctx context.Context, id int64) (*domain.Task, error) {
	tenantID, _, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, domain.NewNotFoundError("Task", id)
	}
	return task, nil
}

func (s *taskService) assign(ctx context.Context, task *domain.Task, userID int64, now time.Time) error {
	user, err := s.users.GetByID(ctx, task.TenantID, userID)
	if err != nil {
		return fmt.Errorf("failed to load assignee: %w", err)
	}
	if user == nil {
		return domain.NewNotFoundError("User", userID)
	}
	return task.AssignTo(user, now)
}

func (s *taskService) find(ctx context.Context, f domain.TaskFilter) (*dto.TaskPage, error) {
	now := s.now()
	plan, err := query.BuildFromContext(ctx, f, now)
	if err != nil {
		return nil, err
	}
	tasks, total, err := s.tasks.Find(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	items := make([]*dto.TaskResponse, len(tasks))
	for i, t := range tasks {
		items[i] = dto.NewTaskResponse(t, now)
	}
	return &dto.TaskPage{Items: items, Page: plan.Page, Size: plan.Size, Total: total}, nil
}

func parseStatusPriority(status, priority string) (domain.TaskStatus, domain.TaskPriority, error) {
	s, err := domain.ParseTaskStatus(status)
	if err != nil {
		return "", "", err
	}
	p, err := domain.ParseTaskPriority(priority)
	if err != nil {
		return "", "", err
	}
	return s, p, nil
}
