package tenant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

func TestSetGetClear(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)

	ctx = WithTenant(ctx, 42)
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	cleared := Clear(ctx)
	_, ok = FromContext(cleared)
	assert.False(t, ok)

	// parent is unaffected
	id, ok = FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestFromContextNil(t *testing.T) {
	_, ok := FromContext(nil)
	assert.False(t, ok)
}

func TestRequire(t *testing.T) {
	_, err := Require(context.Background())
	assert.ErrorIs(t, err, domain.ErrTenantRequired)

	_, err = Require(WithTenant(context.Background(), 0))
	assert.ErrorIs(t, err, domain.ErrTenantRequired)

	id, err := Require(WithTenant(context.Background(), 7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestRun(t *testing.T) {
	var seen int64
	err := Run(context.Background(), 9, func(ctx context.Context) error {
		seen, _ = FromContext(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), seen)

	sentinel := errors.New("boom")
	err = Run(context.Background(), 9, func(ctx context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	err = Run(context.Background(), 0, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, domain.ErrTenantRequired)
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := int64(1); i <= 100; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			ctx := WithTenant(base, id)
			for j := 0; j < 100; j++ {
				got, _ := FromContext(ctx)
				if got != id {
					errs <- errors.New("tenant leaked between requests")
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}
