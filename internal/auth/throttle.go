package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CrownAlter/task-management-api/internal/domain"
)

// LoginThrottle limits failed login attempts per key
type LoginThrottle interface {
	// Check returns domain.ErrTooManyAttempts once the limit is reached
	Check(ctx context.Context, key string) error
	// Fail records one failed attempt
	Fail(ctx context.Context, key string) error
	// Reset forgets failures after a successful login
	Reset(ctx context.Context, key string) error
}

// ThrottleKey builds the throttle key for a login attempt
func ThrottleKey(tenantID int64, email string) string {
	return fmt.Sprintf("%d:%s", tenantID, strings.ToLower(strings.TrimSpace(email)))
}

// RedisThrottle counts failures in Redis with a fixed expiry window
type RedisThrottle struct {
	client      redis.Cmdable
	maxAttempts int64
	window      time.Duration
	prefix      string
}

// NewRedisThrottle creates a RedisThrottle
func NewRedisThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
		prefix:      "login_attempts:",
	}
}

func (t *RedisThrottle) Check(ctx context.Context, key string) error {
	n, err := t.client.Get(ctx, t.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to read login attempts: %w", err)
	}
	if n >= t.maxAttempts {
		return domain.ErrTooManyAttempts
	}
	return nil
}

// failScript increments the counter and starts the window on the first
// failure atomically
var failScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func (t *RedisThrottle) Fail(ctx context.Context, key string) error {
	if err := failScript.Run(ctx, t.client, []string{t.prefix + key}, t.window.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.prefix+key).Err()
}

// MemoryThrottle is an in-process LoginThrottle for tests and single-node runs
type MemoryThrottle struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	attempts    map[string]*attemptWindow
}

type attemptWindow struct {
	count   int
	expires time.Time
}

// NewMemoryThrottle creates a MemoryThrottle
func NewMemoryThrottle(maxAttempts int, window time.Duration) *MemoryThrottle {
	return &MemoryThrottle{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		attempts:    make(map[string]*attemptWindow),
	}
}

func (t *MemoryThrottle) Check(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.current(key)
	if w != nil && w.count >= t.maxAttempts {
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (t *MemoryThrottle) Fail(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.current(key)
	if w == nil {
		w = &attemptWindow{expires: t.now().Add(t.window)}
		t.attempts[key] = w
	}
	w.count++
	return nil
}

func (t *MemoryThrottle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, key)
	return nil
}

// current returns the live window for key; caller holds mu
func (t *MemoryThrottle) current(key string) *attemptWindow {
	w, ok := t.attempts[key]
	if !ok {
		return nil
	}
	if !t.now().Before(w.expires) {
		delete(t.attempts, key)
		return nil
	}
	return w
}
