package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", ServiceName: "task-api-test", OutputPath: path})
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	l.WithContext(ctx).WithTenant(42).Info("task created")
	l.Debug("hidden at info level")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `"message":"task created"`)
	assert.Contains(t, out, `"service":"task-api-test"`)
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"tenant_id":42`)
	assert.False(t, strings.Contains(out, "hidden at info level"))
	assert.Equal(t, "task-api-test", l.ServiceName())
}

func TestWithContextWithoutValues(t *testing.T) {
	l := NewNop()
	assert.Same(t, l, l.WithContext(context.Background()))
	assert.Same(t, l, l.WithContext(nil))
}
