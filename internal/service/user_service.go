package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/dto"
	"github.com/CrownAlter/task-management-api/internal/query"
	"github.com/CrownAlter/task-management-api/internal/repository"
)

// UserService defines user management within the current tenant
type UserService interface {
	// Profile returns the current user
	Profile(ctx context.Context) (*dto.UserResponse, error)
	// UpdateProfile updates the current user's name, email and phone
	UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	// ChangePassword changes the current user's password
	ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error
	// Get returns a user of the current tenant
	Get(ctx context.Context, id int64) (*dto.UserResponse, error)
	// List searches users of the current tenant
	List(ctx context.Context, q *dto.ListUsersQuery) (*dto.UserPage, error)
	// Activate re-enables a user. ADMIN only.
	Activate(ctx context.Context, id int64) (*dto.UserResponse, error)
	// Deactivate disables a user other than the caller. ADMIN only.
	Deactivate(ctx context.Context, id int64) (*dto.UserResponse, error)
	// Delete soft deletes a user other than the caller. ADMIN only.
	Delete(ctx context.Context, id int64) error
	// UpdateRoles replaces a user's roles. ADMIN only.
	UpdateRoles(ctx context.Context, id int64, req *dto.UpdateRolesRequest) (*dto.UserResponse, error)
	// Statistics counts the tasks related to a user
	Statistics(ctx context.Context, id int64) (*domain.UserStatistics, error)
}

type userService struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	hasher auth.PasswordHasher
	audit  AuditRecorder
	now    Clock
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository, tasks repository.TaskRepository, hasher auth.PasswordHasher, audit AuditRecorder) UserService {
	return &userService{users: users, tasks: tasks, hasher: hasher, audit: audit, now: utcNow}
}

func (s *userService) Profile(ctx context.Context) (*dto.UserResponse, error) {
	user, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.EqualFold(email, user.Email) {
		taken, err := s.users.ExistsByEmail(ctx, user.TenantID, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, &domain.ConflictError{Field: "email", Value: email}
		}
	}

	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Email = email
	user.Phone = req.Phone
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.audit.Record(ctx, domain.ActionUserUpdated, domain.EntityUser, user.ID, "Updated profile", "")
	return dto.NewUserResponse(user), nil
}

func (s *userService) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return domain.NewValidationError("confirm_password", "passwords do not match")
	}
	if err := ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.current(ctx)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return domain.NewValidationError("current_password", "current password is incorrect")
		}
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.audit.Record(ctx, domain.ActionPasswordChanged, domain.EntityUser, user.ID, "Changed password", "")
	return nil
}

func (s *userService) Get(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, q *dto.ListUsersQuery) (*dto.UserPage, error) {
	tenantID, _, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	q.SetDefaults()

	users, total, err := s.users.List(ctx, tenantID, q.Search, q.Page, q.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	items := make([]*dto.UserResponse, len(users))
	for i, u := range users {
		items[i] = dto.NewUserResponse(u)
	}
	return &dto.UserPage{Items: items, Page: q.Page, Size: q.Size, Total: total}, nil
}

func (s *userService) Activate(ctx context.Context, id int64) (*dto.UserResponse, error) {
	return s.setActive(ctx, id, true)
}

func (s *userService) Deactivate(ctx context.Context, id int64) (*dto.UserResponse, error) {
	return s.setActive(ctx, id, false)
}

func (s *userService) setActive(ctx context.Context, id int64, active bool) (*dto.UserResponse, error) {
	admin, err := auth.RequireFromContext(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !active && admin.UserID() == id {
		return nil, domain.NewValidationError("id", "you cannot deactivate your own account")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Active = active
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	action, details := domain.ActionUserActivated, "Activated user: "
	if !active {
		action, details = domain.ActionUserDeactivated, "Deactivated user: "
	}
	s.audit.Record(ctx, action, domain.EntityUser, user.ID, details+user.Email, "")
	return dto.NewUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	admin, err := auth.RequireFromContext(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if admin.UserID() == id {
		return domain.NewValidationError("id", "you cannot delete your own account")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	user.DeletedAt = &now
	user.Active = false
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.audit.Record(ctx, domain.ActionUserDeleted, domain.EntityUser, user.ID, "Deleted user: "+user.Email, "")
	return nil
}

func (s *userService) UpdateRoles(ctx context.Context, id int64, req *dto.UpdateRolesRequest) (*dto.UserResponse, error) {
	if _, err := auth.RequireFromContext(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	roles, err := parseRoles(req.Roles)
	if err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Roles = roles
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update roles: %w", err)
	}

	s.audit.Record(ctx, domain.ActionUserRolesChanged, domain.EntityUser, user.ID,
		fmt.Sprintf("Updated roles to %s", strings.Join(domain.RoleNames(roles), ",")), "")
	return dto.NewUserResponse(user), nil
}

// parseRoles parses and de-duplicates role names, keeping their order
func parseRoles(names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return nil, domain.NewValidationError("roles", "at least one role is required")
	}
	seen := make(map[domain.Role]bool, len(names))
	roles := make([]domain.Role, 0, len(names))
	for _, n := range names {
		r, err := domain.ParseRole(n)
		if err != nil {
			return nil, err
		}
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	return roles, nil
}

func (s *userService) Statistics(ctx context.Context, id int64) (*domain.UserStatistics, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	yes, no := true, false
	uid := user.ID
	stats := &domain.UserStatistics{UserID: uid}
	counts := []struct {
		dst    *int
		filter domain.TaskFilter
	}{
		{&stats.CreatedTasks, domain.TaskFilter{CreatedByID: &uid}},
		{&stats.AssignedTasks, domain.TaskFilter{AssignedToID: &uid}},
		{&stats.CompletedTasks, domain.TaskFilter{AssignedToID: &uid, Completed: &yes}},
		{&stats.PendingTasks, domain.TaskFilter{AssignedToID: &uid, Completed: &no}},
		{&stats.OverdueTasks, domain.TaskFilter{AssignedToID: &uid, Overdue: &yes}},
	}

	now := s.now()
	for _, c := range counts {
		plan, err := query.Build(user.TenantID, c.filter, now)
		if err != nil {
			return nil, err
		}
		n, err := s.tasks.Count(ctx, plan)
		if err != nil {
			return nil, fmt.Errorf("failed to count tasks: %w", err)
		}
		*c.dst = int(n)
	}
	return stats, nil
}

func (s *userService) current(ctx context.Context) (*domain.User, error) {
	_, p, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p.UserID())
}

// load returns the user with id in the current tenant, or NotFound
func (s *userService) load(ctx context.Context, id int64) (*domain.User, error) {
	tenantID, _, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User", id)
	}
	return user, nil
}
