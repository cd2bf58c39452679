// Package audit records mutating actions off the request path.
//
// Record captures the tenant and principal from the caller's context
// synchronously, then hands a finished entry to a buffered background
// worker. Delivery is best-effort and at-most-once: entries are dropped
// when the buffer is full, when no tenant is in scope, or when the sink
// fails, and none of these outcomes reach the caller.
package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/tenant"
	"github.com/CrownAlter/task-management-api/pkg/logger"
	"github.com/CrownAlter/task-management-api/pkg/telemetry"
)

// Sink is an append-only destination for audit entries
type Sink interface {
	Write(ctx context.Context, entries []*domain.AuditEntry) error
}

// Config tunes the background worker
type Config struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	WriteTimeout  time.Duration
}

// DefaultConfig returns the default worker settings
func DefaultConfig() Config {
	return Config{
		BufferSize:    1000,
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
		WriteTimeout:  30 * time.Second,
	}
}

// Recorder buffers audit entries and writes them in batches
type Recorder struct {
	cfg    Config
	sink   Sink
	log    *logger.Logger
	now    func() time.Time
	buffer chan *domain.AuditEntry
	wg     sync.WaitGroup

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	dropped *telemetry.Counter
	written *telemetry.Counter

	testMode    bool
	testEntries []*domain.AuditEntry
	testMu      sync.Mutex
}

// NewRecorder starts a recorder writing to sink
func NewRecorder(cfg Config, sink Sink, log *logger.Logger) *Recorder {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	r := &Recorder{
		cfg:    cfg,
		sink:   sink,
		log:    log,
		now:    time.Now,
		buffer: make(chan *domain.AuditEntry, cfg.BufferSize),
		dropped: telemetry.MustCounter(telemetry.MetricOpts{
			Name:        telemetry.MetricAuditDropped,
			Description: "Audit entries dropped before reaching a sink",
		}),
		written: telemetry.MustCounter(telemetry.MetricOpts{
			Name:        telemetry.MetricAuditWritten,
			Description: "Audit entries written to the sink",
		}),
	}

	r.wg.Add(1)
	go r.worker()
	return r
}

// Record enqueues an audit entry for the tenant and principal in ctx.
// entityID 0 means the entry has no entity. ip falls back to the client IP
// stored in ctx. Record never blocks and never fails.
func (r *Recorder) Record(ctx context.Context, action, entityType string, entityID int64, details, ip string) {
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		r.log.WithContext(ctx).Warn("audit entry dropped: no tenant in context",
			zap.String("action", action),
			zap.String("entity_type", entityType),
		)
		r.dropped.Inc(ctx, telemetry.ActionAttr(action))
		return
	}

	entry := &domain.AuditEntry{
		TenantID:   tenantID,
		Action:     action,
		EntityType: entityType,
		Details:    details,
		IPAddress:  ip,
		Timestamp:  r.now().UTC(),
	}
	if entityID != 0 {
		entry.EntityID = &entityID
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		userID := p.UserID()
		entry.UserID = &userID
		entry.UserEmail = p.Email()
	}
	if entry.IPAddress == "" {
		entry.IPAddress = ClientIPFromContext(ctx)
	}

	r.enqueue(ctx, entry)
}

func (r *Recorder) enqueue(ctx context.Context, entry *domain.AuditEntry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Inc(ctx, telemetry.ActionAttr(entry.Action))
		return
	}

	select {
	case r.buffer <- entry:
	default:
		r.dropped.Inc(ctx, telemetry.ActionAttr(entry.Action))
		r.log.WithContext(ctx).Warn("audit buffer full, entry dropped",
			zap.String("action", entry.Action),
			zap.Int64("tenant_id", entry.TenantID),
		)
	}
}

// Close stops accepting entries, drains the buffer and flushes it
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.buffer)
		r.mu.Unlock()
		r.wg.Wait()
	})
	return nil
}

// SetTestMode collects flushed entries in memory instead of writing them
func (r *Recorder) SetTestMode(enabled bool) {
	r.testMu.Lock()
	defer r.testMu.Unlock()
	r.testMode = enabled
	r.testEntries = nil
}

// TestEntries returns the entries collected in test mode
func (r *Recorder) TestEntries() []*domain.AuditEntry {
	r.testMu.Lock()
	defer r.testMu.Unlock()
	out := make([]*domain.AuditEntry, len(r.testEntries))
	copy(out, r.testEntries)
	return out
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]*domain.AuditEntry, 0, r.cfg.BatchSize)
	for {
		select {
		case entry, ok := <-r.buffer:
			if !ok {
				r.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= r.cfg.BatchSize {
				r.flush(batch)
				batch = make([]*domain.AuditEntry, 0, r.cfg.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = make([]*domain.AuditEntry, 0, r.cfg.BatchSize)
			}
		}
	}
}

func (r *Recorder) flush(entries []*domain.AuditEntry) {
	if len(entries) == 0 {
		return
	}

	r.testMu.Lock()
	if r.testMode {
		r.testEntries = append(r.testEntries, entries...)
		r.testMu.Unlock()
		return
	}
	r.testMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	if r.sink == nil {
		r.dropped.Add(ctx, int64(len(entries)))
		return
	}
	if err := r.sink.Write(ctx, entries); err != nil {
		r.dropped.Add(ctx, int64(len(entries)))
		r.log.Warn("failed to write audit entries",
			zap.Int("count", len(entries)),
			zap.Error(err),
		)
		return
	}
	r.written.Add(ctx, int64(len(entries)))
}
