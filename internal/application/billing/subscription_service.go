// Package billing connects profiles to Stripe customers and subscriptions.
// Every change made through Stripe is copied onto the profile before the
// call returns, so the portal never waits for a webhook to see it.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Gateway is the subset of the Stripe adapter used by the services
type Gateway interface {
	CreateCustomer(ctx context.Context, input billing.CreateCustomerInput) (*billing.CustomerOutput, error)
	CreateSubscription(ctx context.Context, input billing.CreateSubscriptionInput) (*billing.SubscriptionOutput, error)
	UpdateSubscription(ctx context.Context, input billing.UpdateSubscriptionInput) (*billing.SubscriptionOutput, error)
	CancelSubscription(ctx context.Context, input billing.CancelSubscriptionInput) (*billing.SubscriptionOutput, error)
	GetPrice(ctx context.Context, priceID string) (*billing.PriceOutput, error)
	PlanPrices(ctx context.Context) ([]*billing.PriceOutput, error)
}

// SubscriptionService manages the Stripe customer and subscription of a profile
type SubscriptionService struct {
	gateway  Gateway
	profiles identity.ProfileRepository
	logger   *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(gateway Gateway, profiles identity.ProfileRepository, log *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		gateway:  gateway,
		profiles: profiles,
		logger:   log,
	}
}

// CustomerResult is returned by EnsureCustomer
type CustomerResult struct {
	CustomerID string `json:"customer_id"`
	Created    bool   `json:"created"`
}

// SubscriptionResult is the billing state of a profile after a change
type SubscriptionResult struct {
	SubscriptionID    string `json:"subscription_id"`
	CustomerID        string `json:"customer_id"`
	Status            string `json:"status"`
	PriceID           string `json:"price_id"`
	CurrentPeriodEnd  string `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	ClientSecret      string `json:"client_secret,omitempty"`
}

// EnsureCustomer returns the Stripe customer of the profile, creating it
// on first use
func (s *SubscriptionService) EnsureCustomer(ctx context.Context, profile *identity.Profile) (*CustomerResult, error) {
	if profile.StripeCustomerID != "" {
		return &CustomerResult{CustomerID: profile.StripeCustomerID}, nil
	}

	customer, err := s.gateway.CreateCustomer(ctx, billing.CreateCustomerInput{
		ProfileID:    profile.ID,
		EnterpriseID: profile.EnterpriseID,
		Email:        profile.Email,
		Name:         profile.FullName,
	})
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SetStripeCustomerID(ctx, profile.ID, customer.CustomerID); err != nil {
		return nil, err
	}
	profile.StripeCustomerID = customer.CustomerID

	logger.Enrich(ctx, s.logger).Info("Stripe customer created",
		zap.String("profile_id", profile.ID.String()),
		zap.String("customer_id", customer.CustomerID))
	return &CustomerResult{CustomerID: customer.CustomerID, Created: true}, nil
}

// Subscribe starts a subscription to priceID. A profile holds at most one
// live subscription; use ChangePlan to switch prices.
func (s *SubscriptionService) Subscribe(ctx context.Context, profile *identity.Profile, priceID string) (*SubscriptionResult, error) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, priceRequired()
	}
	if profile.SubscriptionID != "" && profile.HasActiveSubscription() {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Profile already has an active subscription")
	}

	customer, err := s.EnsureCustomer(ctx, profile)
	if err != nil {
		return nil, err
	}
	sub, err := s.gateway.CreateSubscription(ctx, billing.CreateSubscriptionInput{
		ProfileID:  profile.ID,
		CustomerID: customer.CustomerID,
		PriceID:    priceID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, profile, sub); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Subscription created",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("price_id", sub.PriceID),
		zap.String("status", sub.Status.String()))
	return toResult(sub), nil
}

// ChangePlan moves the profile's subscription to another price with proration
func (s *SubscriptionService) ChangePlan(ctx context.Context, profile *identity.Profile, priceID string) (*SubscriptionResult, error) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, priceRequired()
	}
	if profile.SubscriptionID == "" {
		return nil, noSubscription()
	}

	sub, err := s.gateway.UpdateSubscription(ctx, billing.UpdateSubscriptionInput{
		ProfileID:         profile.ID,
		SubscriptionID:    profile.SubscriptionID,
		NewPriceID:        priceID,
		ProrationBehavior: "create_prorations",
	})
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, profile, sub); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Subscription plan changed",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("price_id", sub.PriceID))
	return toResult(sub), nil
}

// Cancel cancels the profile's subscription at the end of the period, or
// at once when immediately is set
func (s *SubscriptionService) Cancel(ctx context.Context, profile *identity.Profile, immediately bool) (*SubscriptionResult, error) {
	if profile.SubscriptionID == "" {
		return nil, noSubscription()
	}

	sub, err := s.gateway.CancelSubscription(ctx, billing.CancelSubscriptionInput{
		ProfileID:         profile.ID,
		SubscriptionID:    profile.SubscriptionID,
		CancelAtPeriodEnd: !immediately,
	})
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, profile, sub); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Subscription canceled",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.Bool("immediately", immediately))
	return toResult(sub), nil
}

// GetPrice returns one Stripe price
func (s *SubscriptionService) GetPrice(ctx context.Context, priceID string) (*billing.PriceOutput, error) {
	if strings.TrimSpace(priceID) == "" {
		return nil, priceRequired()
	}
	return s.gateway.GetPrice(ctx, priceID)
}

// ListPrices returns the prices of the configured plans
func (s *SubscriptionService) ListPrices(ctx context.Context) ([]*billing.PriceOutput, error) {
	return s.gateway.PlanPrices(ctx)
}

func (s *SubscriptionService) persist(ctx context.Context, profile *identity.Profile, sub *billing.SubscriptionOutput) error {
	state := BillingStateOf(sub)
	if err := s.profiles.UpdateBilling(ctx, profile.ID, state); err != nil {
		return fmt.Errorf("persist subscription %s: %w", sub.SubscriptionID, err)
	}
	profile.ApplyBilling(state)
	return nil
}

// BillingStateOf converts a Stripe subscription to the snapshot stored on
// profiles
func BillingStateOf(sub *billing.SubscriptionOutput) identity.BillingState {
	state := identity.BillingState{
		SubscriptionID:     sub.SubscriptionID,
		SubscriptionStatus: sub.Status.String(),
		PriceID:            sub.PriceID,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd.UTC()
		state.CurrentPeriodEnd = &end
	}
	return state
}

func toResult(sub *billing.SubscriptionOutput) *SubscriptionResult {
	out := &SubscriptionResult{
		SubscriptionID:    sub.SubscriptionID,
		CustomerID:        sub.CustomerID,
		Status:            sub.Status.String(),
		PriceID:           sub.PriceID,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		ClientSecret:      sub.ClientSecret,
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		out.CurrentPeriodEnd = sub.CurrentPeriodEnd.UTC().Format(time.RFC3339)
	}
	return out
}

func priceRequired() error {
	return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "price_id", Message: "This field is required"})
}

func noSubscription() error {
	return shared.NewDomainError("INVALID_STATE", "Profile has no subscription")
}
