package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/dto"
)

func TestUserService_AdminOperationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.tasks, f.hasher, f.recorder)
	ctx := f.as(f.member)

	_, err := svc.Deactivate(ctx, f.admin.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Activate(ctx, f.idle.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, f.admin.ID), domain.ErrForbidden)
	_, err = svc.UpdateRoles(ctx, f.member.ID, &dto.UpdateRolesRequest{Roles: []string{"ADMIN"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.Empty(t, f.recorded(t))
}

func TestUserService_AdminCannotTargetSelf(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.tasks, f.hasher, f.recorder)
	ctx := f.as(f.admin)

	_, err := svc.Deactivate(ctx, f.admin.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, svc.Delete(ctx, f.admin.ID), domain.ErrValidation)
}

func TestUserService_ActivateDeactivateDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.tasks, f.hasher, f.recorder)
	ctx := f.as(f.admin)

	activated, err := svc.Activate(ctx, f.idle.ID)
	require.NoError(t, err)
	assert.True(t, activated.Active)

	deactivated, err := svc.Deactivate(ctx, f.member.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)

	_, err = svc.Deactivate(ctx, f.alien.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "users of another tenant are invisible")

	require.NoError(t, svc.Delete(ctx, f.idle.ID))
	_, err = svc.Get(ctx, f.idle.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{
		domain.ActionUserActivated,
		domain.ActionUserDeactivated,
		domain.ActionUserDeleted,
	}, actions(f.recorded(t)))
}

func TestUserService_UpdateRoles(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.tasks, f.hasher, f.recorder)
	ctx := f.as(f.admin)

	updated, err := svc.UpdateRoles(ctx, f.member.ID, &dto.UpdateRolesRequest{Roles: []string{"manager", "ROLE_USER", "MANAGER"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"MANAGER", "USER"}, updated.Roles)

	_, err = svc.UpdateRoles(ctx, f.member.ID, &dto.UpdateRolesRequest{Roles: []string{"OWNER"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Profile(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.tasks, f.hasher, f.recorder)
	ctx := f.as(f.member)

	_, err := svc.UpdateProfile(ctx, &dto.UpdateProfileRequest{FirstName: "M", LastName: "Ember", Email: "ADMIN@acme.test"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// an email taken in another tenant is fine
	updated, err := svc.UpdateProfile(ctx, &dto.UpdateProfileRequest{FirstName: "M", LastName: "Ember", Email: "Alien@Globex.test"})
	require.NoError(t, err)
	assert.Equal(t, "alien@globex.test", updated.Email)
	assert.Equal(t, "M Ember", updated.FullName)

	profile, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alien@globex.test", profile.Email)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.tasks, f.hasher, f.recorder)
	ctx := f.as(f.member)

	tests := []struct {
		name string
		req  dto.ChangePasswordRequest
	}{
		{"mismatch", dto.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd?"}},
		{"weak", dto.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "weakpass", ConfirmPassword: "weakpass"}},
		{"wrong current", dto.ChangePasswordRequest{CurrentPassword: "Wr0ng!Pass", NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.ChangePassword(ctx, &tt.req), domain.ErrValidation)
		})
	}

	require.NoError(t, svc.ChangePassword(ctx, &dto.ChangePasswordRequest{
		CurrentPassword: testPassword, NewPassword: "N3w!Passw0rd", ConfirmPassword: "N3w!Passw0rd",
	}))
	stored, err := f.users.GetByID(context.Background(), f.org.ID, f.member.ID)
	require.NoError(t, err)
	assert.NoError(t, f.hasher.Compare(stored.PasswordHash, "N3w!Passw0rd"))
}

func TestUserService_ListAndStatistics(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.users, f.tasks, f.hasher, f.recorder)
	tasks := NewTaskService(f.tasks, f.users, f.recorder)
	ctx := f.as(f.admin)

	page, err := users.List(ctx, &dto.ListUsersQuery{Search: "acme.test"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, domain.DefaultPageSize, page.Size)

	yesterday := time.Now().Add(-12 * time.Hour)
	overdue := newTaskRequest("Overdue work")
	overdue.Status = "IN_PROGRESS"
	overdue.DueDate = &yesterday
	overdue.AssignedToID = &f.member.ID
	_, err = tasks.Create(ctx, overdue)
	require.NoError(t, err)

	done := newTaskRequest("Finished work")
	done.AssignedToID = &f.member.ID
	finished, err := tasks.Create(ctx, done)
	require.NoError(t, err)
	_, err = tasks.UpdateStatus(ctx, finished.ID, "COMPLETED")
	require.NoError(t, err)

	_, err = tasks.Create(f.as(f.member), newTaskRequest("Own work"))
	require.NoError(t, err)

	stats, err := users.Statistics(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatistics{
		UserID:         f.member.ID,
		CreatedTasks:   1,
		AssignedTasks:  2,
		CompletedTasks: 1,
		PendingTasks:   1,
		OverdueTasks:   1,
	}, *stats)

	_, err = users.Statistics(ctx, f.alien.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
