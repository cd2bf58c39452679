package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/pkg/kafka"
)

// EntryStore persists audit entries in bulk
type EntryStore interface {
	InsertBatch(ctx context.Context, entries []*domain.AuditEntry) error
}

// StoreSink writes entries through an EntryStore
type StoreSink struct {
	store EntryStore
}

// NewStoreSink creates a StoreSink
func NewStoreSink(store EntryStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Write(ctx context.Context, entries []*domain.AuditEntry) error {
	return s.store.InsertBatch(ctx, entries)
}

// KafkaSink publishes entries as JSON, keyed by tenant so a tenant's
// entries land on one partition
type KafkaSink struct {
	producer kafka.Producer
	topic    string
}

// NewKafkaSink creates a KafkaSink
func NewKafkaSink(producer kafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Write(ctx context.Context, entries []*domain.AuditEntry) error {
	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode audit entry: %w", err)
		}
		tenantID := strconv.FormatInt(e.TenantID, 10)
		msgs = append(msgs, kafka.Message{
			Topic: s.topic,
			Key:   []byte(tenantID),
			Value: value,
			Headers: map[string]string{
				"event_id":  uuid.NewString(),
				"action":    e.Action,
				"tenant_id": tenantID,
			},
		})
	}
	return s.producer.Produce(ctx, msgs...)
}

// MultiSink writes every batch to each sink in turn
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, entries []*domain.AuditEntry) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
