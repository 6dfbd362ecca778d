package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"cellar/internal/models"
)

// Routing keys of the change events.
const (
	RoutingRecordSaved   = "cellar.record.saved"
	RoutingRecordDeleted = "cellar.record.deleted"
	RoutingPicklistSaved = "cellar.picklist.saved"
)

// EventPublisher delivers change events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// RecordEvent announces a saved or deleted cellar record.
type RecordEvent struct {
	Type       string                 `json:"type"`
	Key        models.RecordKey       `json:"key"`
	Record     *models.BeverageOutput `json:"record,omitempty"`
	OccurredAt string                 `json:"occurredAt"`
}

// PicklistEvent announces a saved picklist.
type PicklistEvent struct {
	Type       string                `json:"type"`
	Picklist   models.PicklistOutput `json:"picklist"`
	OccurredAt string                `json:"occurredAt"`
}

// notifier publishes events after the store write succeeded. Failures are
// logged and swallowed.
type notifier struct {
	publisher EventPublisher
	logger    *slog.Logger
}

func (n notifier) publish(ctx context.Context, routingKey string, event any) {
	if n.publisher == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal event", "routing_key", routingKey, "error", err)
		return
	}
	if err := n.publisher.Publish(ctx, routingKey, body); err != nil {
		n.logger.Warn("Failed to publish event", "routing_key", routingKey, "error", err)
	}
}

func (n notifier) recordSaved(ctx context.Context, rec *models.BeverageRecord, now time.Time) {
	out := models.ProjectBeverage(rec, false)
	n.publish(ctx, RoutingRecordSaved, RecordEvent{
		Type:       RoutingRecordSaved,
		Key:        rec.Key(),
		Record:     &out,
		OccurredAt: models.FormatTimestamp(now),
	})
}

func (n notifier) recordDeleted(ctx context.Context, key models.RecordKey, now time.Time) {
	n.publish(ctx, RoutingRecordDeleted, RecordEvent{
		Type:       RoutingRecordDeleted,
		Key:        key,
		OccurredAt: models.FormatTimestamp(now),
	})
}

func (n notifier) picklistSaved(ctx context.Context, p *models.Picklist, now time.Time) {
	n.publish(ctx, RoutingPicklistSaved, PicklistEvent{
		Type:       RoutingPicklistSaved,
		Picklist:   models.ProjectPicklist(p, false),
		OccurredAt: models.FormatTimestamp(now),
	})
}
