package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"go.uber.org/zap"
)

// WebhookParser verifies and decodes a Stripe webhook delivery
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*billing.WebhookEvent, error)
}

// Enqueuer hands a verified event to the background worker
type Enqueuer interface {
	EnqueueWebhook(ctx context.Context, event *billing.WebhookEvent) error
}

// StripeWebhookService handles Stripe webhook events
type StripeWebhookService struct {
	parser      WebhookParser
	profiles    identity.ProfileRepository
	store       shared.IdempotencyStore
	idempotency shared.IdempotencyConfig
	queue       Enqueuer
	logger      *zap.Logger
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	Parser   WebhookParser
	Profiles identity.ProfileRepository
	// Store deduplicates redelivered events. Nil disables deduplication.
	Store       shared.IdempotencyStore
	Idempotency shared.IdempotencyConfig
	// Queue, when set, moves event processing to the worker
	Queue  Enqueuer
	Logger *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	idem := cfg.Idempotency
	if idem.TTL == 0 {
		idem = shared.DefaultIdempotencyConfig()
	}
	return &StripeWebhookService{
		parser:      cfg.Parser,
		profiles:    cfg.Profiles,
		store:       cfg.Store,
		idempotency: idem,
		queue:       cfg.Queue,
		logger:      log,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Queued    bool   `json:"queued,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleWebhook verifies a delivery and applies it, or queues it when a
// worker is configured. Signature failures wrap billing.ErrInvalidSignature.
func (s *StripeWebhookService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.parser.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	result := &WebhookResult{EventID: event.ID, EventType: event.Type}
	if !event.Handled() {
		s.logger.Debug("Unhandled webhook event type", zap.String("event_type", event.Type))
		result.Message = "Event type not handled"
		return result, nil
	}

	if s.queue != nil {
		if err := s.queue.EnqueueWebhook(ctx, event); err != nil {
			return nil, fmt.Errorf("queue webhook %s: %w", event.ID, err)
		}
		result.Queued = true
		return result, nil
	}

	duplicate, err := s.apply(ctx, event)
	if err != nil {
		result.Message = err.Error()
		return result, err
	}
	result.Processed = !duplicate
	result.Duplicate = duplicate
	return result, nil
}

// ApplyEvent applies a verified event once. A failed event is forgotten so
// that Stripe's retry runs it again.
func (s *StripeWebhookService) ApplyEvent(ctx context.Context, event *billing.WebhookEvent) error {
	_, err := s.apply(ctx, event)
	return err
}

func (s *StripeWebhookService) apply(ctx context.Context, event *billing.WebhookEvent) (bool, error) {
	dedupe := s.store != nil && s.idempotency.Enabled && event.ID != ""
	if dedupe {
		fresh, err := s.store.MarkProcessed(ctx, event.ID, s.idempotency.TTL)
		if err != nil {
			return false, fmt.Errorf("mark event %s: %w", event.ID, err)
		}
		if !fresh {
			s.logger.Info("Skipping duplicate webhook event",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type))
			return true, nil
		}
	}

	err := s.dispatch(ctx, event)
	if err == nil {
		return false, nil
	}

	s.logger.Error("Failed to process webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Error(err))
	if dedupe {
		if uerr := s.store.Unmark(ctx, event.ID); uerr != nil {
			s.logger.Warn("Failed to unmark webhook event",
				zap.String("event_id", event.ID),
				zap.Error(uerr))
		}
	}
	return false, err
}

func (s *StripeWebhookService) dispatch(ctx context.Context, event *billing.WebhookEvent) error {
	switch event.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		return s.handleSubscription(ctx, event)
	case billing.EventInvoicePaid:
		return s.handleInvoice(ctx, event, billing.SubscriptionStatusActive)
	case billing.EventInvoicePaymentFail:
		return s.handleInvoice(ctx, event, billing.SubscriptionStatusPastDue)
	default:
		s.logger.Debug("Unhandled webhook event type", zap.String("event_type", event.Type))
		return nil
	}
}

func (s *StripeWebhookService) handleSubscription(ctx context.Context, event *billing.WebhookEvent) error {
	sub := event.Subscription
	if sub == nil || sub.CustomerID == "" {
		s.logger.Warn("Subscription event has no customer, skipping", zap.String("event_id", event.ID))
		return nil
	}

	profile, err := s.findProfile(ctx, sub.CustomerID)
	if profile == nil || err != nil {
		return err
	}

	state := BillingStateOf(sub)
	if event.Type == billing.EventSubscriptionDeleted {
		// A deleted subscription that was already replaced leaves the profile alone
		if profile.SubscriptionID != "" && profile.SubscriptionID != sub.SubscriptionID {
			s.logger.Info("Ignoring deletion of a replaced subscription",
				zap.String("subscription_id", sub.SubscriptionID),
				zap.String("current_subscription_id", profile.SubscriptionID))
			return nil
		}
		state.SubscriptionStatus = billing.SubscriptionStatusCanceled.String()
		state.CancelAtPeriodEnd = false
	}

	if err := s.profiles.UpdateBilling(ctx, profile.ID, state); err != nil {
		return fmt.Errorf("update billing of profile %s: %w", profile.ID, err)
	}
	s.logger.Info("Subscription state applied",
		zap.String("profile_id", profile.ID.String()),
		zap.String("subscription_id", state.SubscriptionID),
		zap.String("status", state.SubscriptionStatus))
	return nil
}

func (s *StripeWebhookService) handleInvoice(ctx context.Context, event *billing.WebhookEvent, status billing.SubscriptionStatus) error {
	if event.CustomerID == "" || event.SubscriptionID == "" {
		return nil
	}

	profile, err := s.findProfile(ctx, event.CustomerID)
	if profile == nil || err != nil {
		return err
	}
	if profile.SubscriptionID != event.SubscriptionID {
		s.logger.Info("Invoice belongs to another subscription, skipping",
			zap.String("invoice_id", event.InvoiceID),
			zap.String("subscription_id", event.SubscriptionID))
		return nil
	}

	state := identity.BillingState{
		SubscriptionID:     profile.SubscriptionID,
		SubscriptionStatus: status.String(),
		PriceID:            profile.PriceID,
		CurrentPeriodEnd:   profile.CurrentPeriodEnd,
		CancelAtPeriodEnd:  profile.CancelAtPeriodEnd,
	}
	if err := s.profiles.UpdateBilling(ctx, profile.ID, state); err != nil {
		return fmt.Errorf("update billing of profile %s: %w", profile.ID, err)
	}
	s.logger.Info("Invoice state applied",
		zap.String("profile_id", profile.ID.String()),
		zap.String("invoice_id", event.InvoiceID),
		zap.String("status", state.SubscriptionStatus))
	return nil
}

// findProfile returns nil without error for customers unknown to the portal
func (s *StripeWebhookService) findProfile(ctx context.Context, customerID string) (*identity.Profile, error) {
	profile, err := s.profiles.FindByStripeCustomerID(ctx, customerID)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Profile not found for Stripe customer", zap.String("customer_id", customerID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile of customer %s: %w", customerID, err)
	}
	return profile, nil
}
