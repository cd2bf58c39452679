package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestMetrics_Disabled(t *testing.T) {
	_, err := Init(context.Background(), &Config{Enabled: false, ServiceName: "task-api-test"})
	require.NoError(t, err)
	ctx := context.Background()

	counter, err := NewCounter(MetricOpts{Name: MetricAuditWritten, Description: "audit entries written", Unit: "1"})
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		counter.Inc(ctx, ActionAttr("TASK_CREATED"))
		counter.Add(ctx, 5, TenantIDAttr(1))
	})

	hist, err := NewHistogram(MetricOpts{Name: MetricRequestDurationMs, Unit: "ms"})
	require.NoError(t, err)
	assert.NotPanics(t, func() { hist.Record(ctx, 12.5, MethodAttr("GET")) })

	assert.NotPanics(t, func() { MustCounter(MetricOpts{Name: MetricLoginFailures}) })
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		kv   attribute.KeyValue
		key  string
	}{
		{"method", MethodAttr("GET"), AttrMethod},
		{"path", PathAttr("/api/v1/tasks"), AttrPath},
		{"status", StatusCodeAttr(200), AttrStatusCode},
		{"tenant", TenantIDAttr(3), AttrTenantID},
		{"user", UserIDAttr(9), AttrUserID},
		{"reason", ReasonAttr("BAD_CREDENTIALS"), AttrReason},
		{"action", ActionAttr("LOGIN"), AttrAction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, string(tt.kv.Key))
		})
	}

	attrs := TransitionAttrs("TODO", "IN_PROGRESS")
	require.Len(t, attrs, 2)
	assert.Equal(t, "TODO", attrs[0].Value.AsString())
	assert.Equal(t, "IN_PROGRESS", attrs[1].Value.AsString())
}
