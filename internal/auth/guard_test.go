package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

func TestRequire(t *testing.T) {
	admin := domain.NewPrincipal(1, 1, "a@x", []domain.Role{domain.RoleAdmin}, true)
	user := domain.NewPrincipal(2, 1, "u@x", []domain.Role{domain.RoleUser}, true)
	disabledAdmin := domain.NewPrincipal(3, 1, "d@x", []domain.Role{domain.RoleAdmin}, false)

	assert.NoError(t, Require(admin, domain.RoleAdmin))

	err := Require(user, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	var authzErr *AuthorizationError
	require.True(t, errors.As(err, &authzErr))
	assert.Equal(t, domain.RoleAdmin, authzErr.Required)

	assert.ErrorIs(t, Require(disabledAdmin, domain.RoleAdmin), domain.ErrForbidden)
	assert.ErrorIs(t, Require(nil, domain.RoleUser), domain.ErrUnauthenticated)
}

func TestRequireFromContext(t *testing.T) {
	_, err := RequireFromContext(context.Background(), domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	p := domain.NewPrincipal(1, 1, "a@x", []domain.Role{domain.RoleUser}, true)
	ctx := WithPrincipal(context.Background(), p)

	got, err := RequireFromContext(ctx, domain.RoleUser)
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = RequireFromContext(ctx, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	current, err := CurrentPrincipal(ctx)
	require.NoError(t, err)
	assert.Same(t, p, current)
}

func TestMemoryThrottle(t *testing.T) {
	ctx := context.Background()
	throttle := NewMemoryThrottle(3, time.Minute)
	now := time.Now()
	throttle.now = func() time.Time { return now }
	key := ThrottleKey(1, " Alice@Acme.test ")
	assert.Equal(t, "1:alice@acme.test", key)

	for i := 0; i < 3; i++ {
		require.NoError(t, throttle.Check(ctx, key))
		require.NoError(t, throttle.Fail(ctx, key))
	}
	assert.ErrorIs(t, throttle.Check(ctx, key), domain.ErrTooManyAttempts)

	// other keys are unaffected
	assert.NoError(t, throttle.Check(ctx, ThrottleKey(2, "alice@acme.test")))

	// window expiry
	now = now.Add(2 * time.Minute)
	assert.NoError(t, throttle.Check(ctx, key))

	require.NoError(t, throttle.Fail(ctx, key))
	require.NoError(t, throttle.Reset(ctx, key))
	assert.NoError(t, throttle.Check(ctx, key))
}
