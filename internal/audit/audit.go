// Package audit is the fire-and-forget audit sink. Handlers call Record
// after a successful commit; publishing happens on a separate goroutine and
// failures are logged, never surfaced to the caller.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/quanh29/e-sweety-cake-sub000/internal/stores/kafka"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/logkey"
)

type Sink struct {
	k *kafka.Conf
}

// NewSink wraps the Kafka producer. A nil producer yields a sink that drops
// events, so the service keeps working without a broker.
func NewSink(k *kafka.Conf) *Sink {
	return &Sink{k: k}
}

// OrderCreated notifies downstream consumers of a new order. Fire and forget,
// same delivery contract as Record.
func (s *Sink) OrderCreated(traceId, orderID string, total int64) {
	if s.k == nil {
		return
	}

	event := kafka.OrderCreatedEvent{
		OrderID:   orderID,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}

	go func() {
		jsonData, err := json.Marshal(event)
		if err != nil {
			slog.Error("failed to marshal order created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.k.ProduceMessage(ctx, kafka.TopicOrderCreated, []byte(orderID), jsonData); err != nil {
			slog.Error("failed to produce order created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}()
}

// Record publishes one audit event keyed by resource id. Fire and forget.
func (s *Sink) Record(traceId, actorID, action, resourceType, resourceID string, oldData, newData any) {
	if s.k == nil {
		return
	}

	event := kafka.AuditEvent{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ActorID:      actorID,
		OldData:      oldData,
		NewData:      newData,
		CreatedAt:    time.Now().UTC(),
	}

	go func() {
		jsonData, err := json.Marshal(event)
		if err != nil {
			slog.Error("failed to marshal audit event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.k.ProduceMessage(ctx, kafka.TopicAuditLog, []byte(resourceID), jsonData); err != nil {
			slog.Error("failed to produce audit event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}()
}
