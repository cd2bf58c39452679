package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	tel, err := Init(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, tel.Tracer())
	assert.NotNil(t, tel.Meter())

	cfg := &Config{Enabled: false, ServiceName: "task-api-test"}
	tel, err = Init(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, tel.config)
	assert.Nil(t, tel.tracerProvider)
	assert.Same(t, tel, Get())
}

func TestInit_EnabledAppliesDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping exporter setup in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := &Config{
		Enabled:       true,
		ServiceName:   "task-api-test",
		Environment:   "test",
		CollectorAddr: "localhost:4317",
	}
	tel, err := Init(ctx, cfg)
	require.NoError(t, err)
	assert.NotNil(t, tel.tracerProvider)
	assert.NotNil(t, tel.meterProvider)
	assert.NotNil(t, tel.resource)
	assert.Equal(t, 15*time.Second, cfg.MetricInterval)
	assert.Equal(t, 1.0, cfg.SampleRatio)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	_ = Shutdown(shutdownCtx)
}

func TestShutdown_NilGlobal(t *testing.T) {
	globalTelemetry = nil
	assert.NoError(t, Shutdown(context.Background()))
}

func TestStartSpan_NilGlobal(t *testing.T) {
	globalTelemetry = nil
	ctx := context.Background()
	newCtx, span := StartSpan(ctx, "noop")
	assert.Equal(t, ctx, newCtx)
	assert.NotNil(t, span)
	span.End()
	assert.Empty(t, GetTraceID(ctx))
}

func TestSpanHelpersRecordOnSampledSpan(t *testing.T) {
	provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer provider.Shutdown(context.Background())

	globalTelemetry = &Telemetry{tracer: provider.Tracer("test")}
	defer func() { globalTelemetry = nil }()

	ctx, span := StartSpan(context.Background(), "task.create")
	defer span.End()

	assert.Len(t, GetTraceID(ctx), 32)
	SetSpanAttributes(ctx, attribute.Int64(AttrTenantID, 7))
	SetSpanError(ctx, errors.New("boom"))
	SetSpanError(ctx, nil)

	ro, ok := span.(sdktrace.ReadOnlySpan)
	require.True(t, ok)
	assert.Contains(t, ro.Attributes(), attribute.Int64(AttrTenantID, 7))
	assert.Len(t, ro.Events(), 1)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), sampler(0.25).Description())
}

func TestCreateResource(t *testing.T) {
	res := createResource(&Config{ServiceName: "task-api", ServiceVersion: "1.2.3", Environment: "test"})

	values := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		values[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "task-api", values["service.name"])
	assert.Equal(t, "1.2.3", values["service.version"])
	assert.Equal(t, Namespace, values["service.namespace"])
}
