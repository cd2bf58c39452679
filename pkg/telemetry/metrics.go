package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts holds options for creating metrics
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an OTel counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter on the global meter
func NewCounter(opts MetricOpts) (*Counter, error) {
	counter, err := GetMeter().Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: counter}, nil
}

// MustCounter is NewCounter for package-level instruments. Creation only
// fails on an invalid instrument name, which is a programming error.
func MustCounter(opts MetricOpts) *Counter {
	c, err := NewCounter(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Add increments the counter by value
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps an OTel histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a histogram on the global meter
func NewHistogram(opts MetricOpts) (*Histogram, error) {
	histogram, err := GetMeter().Float64Histogram(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: histogram}, nil
}

// Record records a value
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Metric names
const (
	MetricAuditDropped      = "audit_entries_dropped_total"
	MetricAuditWritten      = "audit_entries_written_total"
	MetricLoginFailures     = "auth_login_failures_total"
	MetricTaskTransitions   = "task_transitions_total"
	MetricRequestDurationMs = "http_request_duration_ms"
)

// Common attribute keys
const (
	AttrMethod     = "http.method"
	AttrPath       = "http.path"
	AttrStatusCode = "http.status_code"
	AttrTenantID   = "tenant.id"
	AttrUserID     = "user.id"
	AttrReason     = "auth.failure_reason"
	AttrFromStatus = "task.status.from"
	AttrToStatus   = "task.status.to"
	AttrAction     = "audit.action"
)

func MethodAttr(method string) attribute.KeyValue {
	return attribute.String(AttrMethod, method)
}

func PathAttr(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

func StatusCodeAttr(code int) attribute.KeyValue {
	return attribute.Int(AttrStatusCode, code)
}

func TenantIDAttr(id int64) attribute.KeyValue {
	return attribute.Int64(AttrTenantID, id)
}

func UserIDAttr(id int64) attribute.KeyValue {
	return attribute.Int64(AttrUserID, id)
}

func ReasonAttr(reason string) attribute.KeyValue {
	return attribute.String(AttrReason, reason)
}

// TransitionAttrs describes a task status change
func TransitionAttrs(from, to string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrFromStatus, from),
		attribute.String(AttrToStatus, to),
	}
}

func ActionAttr(action string) attribute.KeyValue {
	return attribute.String(AttrAction, action)
}
