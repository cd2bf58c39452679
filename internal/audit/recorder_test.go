package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/CrownAlter/task-management-api/internal/auth"
	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/tenant"
	"github.com/CrownAlter/task-management-api/pkg/kafka"
)

type captureSink struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
	err     error
	entered chan struct{}
	release chan struct{}
}

func (s *captureSink) Write(_ context.Context, entries []*domain.AuditEntry) error {
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return s.err
}

func (s *captureSink) all() []*domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AuditEntry(nil), s.entries...)
}

func requestContext(tenantID, userID int64) context.Context {
	p := domain.NewPrincipal(userID, tenantID, "alice@acme.test", []domain.Role{domain.RoleUser}, true)
	ctx := auth.WithPrincipal(context.Background(), p)
	ctx = WithClientIP(ctx, "10.0.0.7")
	return tenant.WithTenant(ctx, tenantID)
}

func TestRecord_CapturesTenantAndPrincipalAtCallSite(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(Config{FlushInterval: time.Hour}, sink, nil)

	ctx := requestContext(7, 42)
	r.Record(ctx, domain.ActionTaskCreated, domain.EntityTask, 99, "Task created: Write docs", "")
	// the request ends and its tenant scope is cleared before the worker runs
	_ = tenant.Clear(ctx)
	r.Record(context.Background(), domain.ActionTaskDeleted, domain.EntityTask, 99, "", "")

	require.NoError(t, r.Close())

	entries := sink.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, int64(7), e.TenantID)
	require.NotNil(t, e.UserID)
	assert.Equal(t, int64(42), *e.UserID)
	assert.Equal(t, "alice@acme.test", e.UserEmail)
	assert.Equal(t, domain.ActionTaskCreated, e.Action)
	require.NotNil(t, e.EntityID)
	assert.Equal(t, int64(99), *e.EntityID)
	assert.Equal(t, "10.0.0.7", e.IPAddress)
	assert.False(t, e.Timestamp.IsZero())
}

func TestRecord_SystemActionHasNoUser(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(Config{}, sink, nil)

	r.Record(tenant.WithTenant(context.Background(), 3), domain.ActionTenantCreated, domain.EntityTenant, 0, "", "127.0.0.1")
	require.NoError(t, r.Close())

	entries := sink.all()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)
	assert.Nil(t, entries[0].EntityID)
	assert.Equal(t, "127.0.0.1", entries[0].IPAddress)
}

func TestRecord_DropsWhenBufferFull(t *testing.T) {
	sink := &captureSink{entered: make(chan struct{}), release: make(chan struct{})}
	r := NewRecorder(Config{BufferSize: 1, BatchSize: 1, FlushInterval: time.Hour}, sink, nil)
	ctx := requestContext(1, 1)

	r.Record(ctx, "FIRST", domain.EntityTask, 1, "", "")
	<-sink.entered // worker is now stuck writing FIRST

	r.Record(ctx, "SECOND", domain.EntityTask, 2, "", "")
	r.Record(ctx, "THIRD", domain.EntityTask, 3, "", "")

	close(sink.release)
	go func() {
		for range sink.entered {
		}
	}()
	require.NoError(t, r.Close())
	close(sink.entered)

	var actions []string
	for _, e := range sink.all() {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"FIRST", "SECOND"}, actions)
}

func TestRecord_SinkFailureIsSwallowed(t *testing.T) {
	sink := &captureSink{err: errors.New("database unavailable")}
	r := NewRecorder(Config{}, sink, nil)

	assert.NotPanics(t, func() {
		r.Record(requestContext(1, 1), domain.ActionLogin, domain.EntityUser, 1, "", "")
		require.NoError(t, r.Close())
	})
	assert.NotPanics(t, func() {
		r.Record(requestContext(1, 1), domain.ActionLogin, domain.EntityUser, 1, "", "")
		require.NoError(t, r.Close())
	})
}

func TestRecord_TestMode(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(Config{}, sink, nil)
	r.SetTestMode(true)

	r.Record(requestContext(5, 6), domain.ActionTaskAssigned, domain.EntityTask, 10, "", "")
	require.NoError(t, r.Close())

	assert.Len(t, r.TestEntries(), 1)
	assert.Empty(t, sink.all())
}

func TestRecord_FlushesOnInterval(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(Config{FlushInterval: 10 * time.Millisecond}, sink, nil)
	defer r.Close()

	r.Record(requestContext(1, 1), domain.ActionTaskUpdated, domain.EntityTask, 1, "", "")

	assert.Eventually(t, func() bool { return len(sink.all()) == 1 }, time.Second, 5*time.Millisecond)
}

type fakeProducer struct {
	msgs []kafka.Message
	err  error
}

func (p *fakeProducer) Produce(_ context.Context, msgs ...kafka.Message) error {
	p.msgs = append(p.msgs, msgs...)
	return p.err
}

func (p *fakeProducer) Close() {}

func TestKafkaSink(t *testing.T) {
	producer := &fakeProducer{}
	sink := NewKafkaSink(producer, "task-audit-log")
	uid := int64(4)

	err := sink.Write(context.Background(), []*domain.AuditEntry{
		{TenantID: 9, UserID: &uid, Action: domain.ActionTaskCreated, EntityType: domain.EntityTask},
	})
	require.NoError(t, err)
	require.Len(t, producer.msgs, 1)

	msg := producer.msgs[0]
	assert.Equal(t, "task-audit-log", msg.Topic)
	assert.Equal(t, []byte("9"), msg.Key)
	assert.Equal(t, domain.ActionTaskCreated, msg.Headers["action"])
	assert.NotEmpty(t, msg.Headers["event_id"])

	var decoded domain.AuditEntry
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, int64(9), decoded.TenantID)
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	ok := &captureSink{}
	failing := &captureSink{err: errors.New("broker down")}
	entries := []*domain.AuditEntry{{TenantID: 1, Action: domain.ActionLogin}}

	err := MultiSink{failing, ok}.Write(context.Background(), entries)
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, ok.all(), 1)
}

func TestWriteXLSX(t *testing.T) {
	uid, eid := int64(2), int64(30)
	entries := []*domain.AuditEntry{
		{ID: 1, TenantID: 1, UserID: &uid, UserEmail: "a@acme.test", Action: domain.ActionTaskCreated,
			EntityType: domain.EntityTask, EntityID: &eid, Details: "created", IPAddress: "10.0.0.1",
			Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: 2, TenantID: 1, Action: domain.ActionTenantCreated, EntityType: domain.EntityTenant},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, entries))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, "2026-01-02T03:04:05Z", rows[1][1])
	assert.Equal(t, "a@acme.test", rows[1][3])
	assert.Equal(t, domain.ActionTenantCreated, rows[2][4])
}
