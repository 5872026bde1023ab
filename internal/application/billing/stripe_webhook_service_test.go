package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubParser struct {
	event *billing.WebhookEvent
	err   error
}

func (p stubParser) ParseWebhook([]byte, string) (*billing.WebhookEvent, error) {
	return p.event, p.err
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueWebhook(ctx context.Context, event *billing.WebhookEvent) error {
	return m.Called(ctx, event).Error(0)
}

func newWebhookService(t *testing.T, parser WebhookParser, queue Enqueuer) (*StripeWebhookService, *MockProfileRepository) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	profiles := new(MockProfileRepository)
	cfg := StripeWebhookServiceConfig{
		Parser:      parser,
		Profiles:    profiles,
		Store:       store,
		Idempotency: shared.DefaultIdempotencyConfig(),
		Logger:      zap.NewNop(),
	}
	if queue != nil {
		cfg.Queue = queue
	}
	return NewStripeWebhookService(cfg), profiles
}

func subscriptionEvent(id, eventType string, sub *billing.SubscriptionOutput) *billing.WebhookEvent {
	return &billing.WebhookEvent{
		ID:           id,
		Type:         eventType,
		CustomerID:   sub.CustomerID,
		Created:      time.Now().UTC(),
		Subscription: sub,
	}
}

func TestStripeWebhookService_InvalidSignature(t *testing.T) {
	svc, _ := newWebhookService(t, stubParser{err: billing.ErrInvalidSignature}, nil)

	_, err := svc.HandleWebhook(context.Background(), []byte(`{}`), "bad")
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)
}

func TestStripeWebhookService_UnhandledEvent(t *testing.T) {
	event := &billing.WebhookEvent{ID: "evt_1", Type: "charge.refunded"}
	svc, profiles := newWebhookService(t, stubParser{event: event}, nil)

	res, err := svc.HandleWebhook(context.Background(), nil, "sig")
	require.NoError(t, err)
	assert.False(t, res.Processed)
	assert.Equal(t, "Event type not handled", res.Message)
	profiles.AssertNotCalled(t, "FindByStripeCustomerID", mock.Anything, mock.Anything)
}

func TestStripeWebhookService_SubscriptionUpdated(t *testing.T) {
	ctx := context.Background()
	periodEnd := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	event := subscriptionEvent("evt_1", billing.EventSubscriptionUpdated, &billing.SubscriptionOutput{
		SubscriptionID:    "sub_1",
		CustomerID:        "cus_1",
		Status:            billing.SubscriptionStatusActive,
		PriceID:           "price_pro",
		CurrentPeriodEnd:  periodEnd,
		CancelAtPeriodEnd: true,
	})
	svc, profiles := newWebhookService(t, stubParser{event: event}, nil)

	profile := testProfile()
	profile.StripeCustomerID = "cus_1"
	profiles.On("FindByStripeCustomerID", ctx, "cus_1").Return(profile, nil)
	profiles.On("UpdateBilling", ctx, profile.ID, identity.BillingState{
		SubscriptionID:     "sub_1",
		SubscriptionStatus: "active",
		PriceID:            "price_pro",
		CurrentPeriodEnd:   &periodEnd,
		CancelAtPeriodEnd:  true,
	}).Return(nil).Once()

	res, err := svc.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.True(t, res.Processed)

	// Redelivery of the same event is skipped
	res, err = svc.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.Processed)
	profiles.AssertNumberOfCalls(t, "UpdateBilling", 1)
}

func TestStripeWebhookService_SubscriptionDeleted(t *testing.T) {
	ctx := context.Background()

	t.Run("current subscription is canceled", func(t *testing.T) {
		event := subscriptionEvent("evt_del", billing.EventSubscriptionDeleted, &billing.SubscriptionOutput{
			SubscriptionID:    "sub_1",
			CustomerID:        "cus_1",
			Status:            billing.SubscriptionStatusActive,
			CancelAtPeriodEnd: true,
		})
		svc, profiles := newWebhookService(t, stubParser{event: event}, nil)
		profile := testProfile()
		profile.ApplyBilling(identity.BillingState{SubscriptionID: "sub_1", SubscriptionStatus: "active"})
		profiles.On("FindByStripeCustomerID", ctx, "cus_1").Return(profile, nil)
		profiles.On("UpdateBilling", ctx, profile.ID, mock.MatchedBy(func(s identity.BillingState) bool {
			return s.SubscriptionStatus == "canceled" && !s.CancelAtPeriodEnd
		})).Return(nil)

		require.NoError(t, svc.ApplyEvent(ctx, event))
		profiles.AssertExpectations(t)
	})

	t.Run("replaced subscription is ignored", func(t *testing.T) {
		event := subscriptionEvent("evt_old", billing.EventSubscriptionDeleted, &billing.SubscriptionOutput{
			SubscriptionID: "sub_old",
			CustomerID:     "cus_1",
		})
		svc, profiles := newWebhookService(t, stubParser{event: event}, nil)
		profile := testProfile()
		profile.ApplyBilling(identity.BillingState{SubscriptionID: "sub_new", SubscriptionStatus: "active"})
		profiles.On("FindByStripeCustomerID", ctx, "cus_1").Return(profile, nil)

		require.NoError(t, svc.ApplyEvent(ctx, event))
		profiles.AssertNotCalled(t, "UpdateBilling", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStripeWebhookService_Invoices(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		eventType string
		expected  string
	}{
		{billing.EventInvoicePaid, "active"},
		{billing.EventInvoicePaymentFail, "past_due"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			event := &billing.WebhookEvent{
				ID:             "evt_" + tt.expected,
				Type:           tt.eventType,
				CustomerID:     "cus_1",
				SubscriptionID: "sub_1",
				InvoiceID:      "in_1",
			}
			svc, profiles := newWebhookService(t, stubParser{event: event}, nil)
			profile := testProfile()
			profile.ApplyBilling(identity.BillingState{SubscriptionID: "sub_1", SubscriptionStatus: "incomplete", PriceID: "price_pro"})
			profiles.On("FindByStripeCustomerID", ctx, "cus_1").Return(profile, nil)
			profiles.On("UpdateBilling", ctx, profile.ID, identity.BillingState{
				SubscriptionID:     "sub_1",
				SubscriptionStatus: tt.expected,
				PriceID:            "price_pro",
			}).Return(nil)

			require.NoError(t, svc.ApplyEvent(ctx, event))
			profiles.AssertExpectations(t)
		})
	}
}

func TestStripeWebhookService_UnknownCustomer(t *testing.T) {
	ctx := context.Background()
	event := subscriptionEvent("evt_1", billing.EventSubscriptionCreated, &billing.SubscriptionOutput{
		SubscriptionID: "sub_1",
		CustomerID:     "cus_unknown",
	})
	svc, profiles := newWebhookService(t, stubParser{event: event}, nil)
	profiles.On("FindByStripeCustomerID", ctx, "cus_unknown").Return(nil, shared.ErrNotFound)

	res, err := svc.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.True(t, res.Processed)
	profiles.AssertNotCalled(t, "UpdateBilling", mock.Anything, mock.Anything, mock.Anything)
}

func TestStripeWebhookService_FailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	event := subscriptionEvent("evt_retry", billing.EventSubscriptionUpdated, &billing.SubscriptionOutput{
		SubscriptionID: "sub_1",
		CustomerID:     "cus_1",
		Status:         billing.SubscriptionStatusActive,
	})
	svc, profiles := newWebhookService(t, stubParser{event: event}, nil)
	profile := testProfile()
	profiles.On("FindByStripeCustomerID", ctx, "cus_1").Return(profile, nil)
	profiles.On("UpdateBilling", ctx, profile.ID, mock.Anything).Return(errors.New("connection reset")).Once()
	profiles.On("UpdateBilling", ctx, profile.ID, mock.Anything).Return(nil).Once()

	_, err := svc.HandleWebhook(ctx, nil, "sig")
	require.Error(t, err)

	res, err := svc.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.True(t, res.Processed)
	profiles.AssertNumberOfCalls(t, "UpdateBilling", 2)
}

func TestStripeWebhookService_Queued(t *testing.T) {
	ctx := context.Background()
	event := subscriptionEvent("evt_q", billing.EventSubscriptionCreated, &billing.SubscriptionOutput{
		SubscriptionID: "sub_1",
		CustomerID:     "cus_1",
	})
	queue := new(MockEnqueuer)
	queue.On("EnqueueWebhook", ctx, event).Return(nil)
	svc, profiles := newWebhookService(t, stubParser{event: event}, queue)

	res, err := svc.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.False(t, res.Processed)
	queue.AssertExpectations(t)
	profiles.AssertNotCalled(t, "FindByStripeCustomerID", mock.Anything, mock.Anything)
}
