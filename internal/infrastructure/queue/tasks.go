// Package queue runs Stripe webhook processing in the background with asynq.
// The HTTP handler verifies and enqueues an event; cmd/worker applies it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/telemetry"
)

// Task types
const (
	TypeStripeWebhook = "stripe:webhook"
)

// Queue names and weights
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// EventApplier applies a verified webhook event to local state
type EventApplier interface {
	ApplyEvent(ctx context.Context, event *billing.WebhookEvent) error
}

// NewWebhookTask encodes an event as a task
func NewWebhookTask(event *billing.WebhookEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeStripeWebhook, data), nil
}

// WebhookHandler decodes webhook tasks and passes them to an applier. A
// payload that cannot be decoded is not retried.
func WebhookHandler(applier EventApplier) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event billing.WebhookEvent
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}

		ctx, span := telemetry.StartServiceSpan(ctx, "queue", "stripe_webhook",
			"stripe.event_id", event.ID,
			"stripe.event_type", event.Type)
		defer span.End()

		if err := applier.ApplyEvent(ctx, &event); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		return nil
	}
}
