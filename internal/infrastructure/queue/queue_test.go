package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockApplier struct {
	mock.Mock
}

func (m *mockApplier) ApplyEvent(ctx context.Context, event *billing.WebhookEvent) error {
	return m.Called(ctx, event).Error(0)
}

func TestWebhookHandler(t *testing.T) {
	event := &billing.WebhookEvent{
		ID:         "evt_1",
		Type:       billing.EventSubscriptionDeleted,
		CustomerID: "cus_1",
		Subscription: &billing.SubscriptionOutput{
			SubscriptionID: "sub_1",
			Status:         billing.SubscriptionStatusCanceled,
		},
	}
	task, err := NewWebhookTask(event)
	require.NoError(t, err)
	assert.Equal(t, TypeStripeWebhook, task.Type())

	applier := new(mockApplier)
	applier.On("ApplyEvent", mock.Anything, mock.MatchedBy(func(e *billing.WebhookEvent) bool {
		return e.ID == "evt_1" && e.Subscription != nil &&
			e.Subscription.Status == billing.SubscriptionStatusCanceled
	})).Return(nil)

	require.NoError(t, WebhookHandler(applier).ProcessTask(context.Background(), task))
	applier.AssertExpectations(t)
}

func TestWebhookHandler_PropagatesFailure(t *testing.T) {
	task, err := NewWebhookTask(&billing.WebhookEvent{ID: "evt_2"})
	require.NoError(t, err)

	applier := new(mockApplier)
	applier.On("ApplyEvent", mock.Anything, mock.Anything).Return(errors.New("database down"))

	err = WebhookHandler(applier).ProcessTask(context.Background(), task)
	assert.EqualError(t, err, "database down")
}

func TestWebhookHandler_BadPayloadSkipsRetry(t *testing.T) {
	applier := new(mockApplier)
	err := WebhookHandler(applier).ProcessTask(context.Background(), asynq.NewTask(TypeStripeWebhook, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	applier.AssertNotCalled(t, "ApplyEvent", mock.Anything, mock.Anything)
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(config.RedisConfig{Host: "redis", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "redis:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func TestHandlersRegistry(t *testing.T) {
	r := NewHandlersRegistry()
	called := false
	r.Register(TypeStripeWebhook, asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		called = true
		return nil
	}))
	require.NoError(t, r.Mux().ProcessTask(context.Background(), asynq.NewTask(TypeStripeWebhook, nil)))
	assert.True(t, called)
}
