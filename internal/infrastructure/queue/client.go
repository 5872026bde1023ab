package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
)

// Client enqueues tasks
type Client struct {
	client *asynq.Client
}

// RedisOpt converts the Redis settings to asynq connection options
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewClient creates a client. No connection is made until the first enqueue.
func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

// Close closes the client
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueWebhook schedules an event for processing. The Stripe event id is
// the task id, so enqueueing a redelivered event is a no-op.
func (c *Client) EnqueueWebhook(ctx context.Context, event *billing.WebhookEvent) error {
	task, err := NewWebhookTask(event)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(event.ID),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(8),
		asynq.Timeout(30*time.Second),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeStripeWebhook, err)
	}
	return nil
}
