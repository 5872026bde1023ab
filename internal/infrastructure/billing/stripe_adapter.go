package billing

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/price"
	"github.com/stripe/stripe-go/v81/subscription"
	"go.uber.org/zap"
)

// StripeAdapter wraps the Stripe SDK calls the billing glue needs
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// Config returns the adapter configuration
func (a *StripeAdapter) Config() *StripeConfig {
	return a.config
}

// CreateCustomer creates a new customer in Stripe
func (a *StripeAdapter) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CustomerOutput, error) {
	a.logger.Debug("Creating Stripe customer",
		zap.String("profile_id", input.ProfileID.String()),
		zap.String("email", input.Email))

	params := &stripe.CustomerParams{
		Email: stripe.String(input.Email),
	}
	params.Context = ctx
	if input.Name != "" {
		params.Name = stripe.String(input.Name)
	}

	params.Metadata = map[string]string{
		"profile_id": input.ProfileID.String(),
	}
	if input.EnterpriseID != nil {
		params.Metadata["enterprise_id"] = input.EnterpriseID.String()
	}
	maps.Copy(params.Metadata, input.Metadata)

	cust, err := customer.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe customer",
			zap.String("profile_id", input.ProfileID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	a.logger.Info("Created Stripe customer",
		zap.String("profile_id", input.ProfileID.String()),
		zap.String("customer_id", cust.ID))

	return customerOutput(cust), nil
}

// GetCustomer retrieves a customer from Stripe
func (a *StripeAdapter) GetCustomer(ctx context.Context, customerID string) (*CustomerOutput, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := customer.Get(customerID, params)
	if err != nil {
		a.logger.Error("Failed to get Stripe customer",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get customer: %w", err)
	}

	return customerOutput(cust), nil
}

// ListCustomers lists customers, newest first. A limit of zero lists all of them.
func (a *StripeAdapter) ListCustomers(ctx context.Context, limit int) ([]*CustomerOutput, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var customers []*CustomerOutput
	iter := customer.List(params)
	for iter.Next() {
		customers = append(customers, customerOutput(iter.Customer()))
		if limit > 0 && len(customers) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		a.logger.Error("Failed to list Stripe customers", zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to list customers: %w", err)
	}

	return customers, nil
}

// CreateSubscription creates a new subscription in Stripe
func (a *StripeAdapter) CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*SubscriptionOutput, error) {
	a.logger.Debug("Creating Stripe subscription",
		zap.String("profile_id", input.ProfileID.String()),
		zap.String("customer_id", input.CustomerID),
		zap.String("plan_id", input.PlanID))

	priceID := input.PriceID
	if priceID == "" {
		var err error
		priceID, err = a.config.GetPriceID(input.PlanID)
		if err != nil {
			return nil, err
		}
	}

	// Free plan doesn't need a Stripe subscription
	if priceID == "" && input.PlanID == PlanFree {
		return &SubscriptionOutput{
			CustomerID: input.CustomerID,
			Status:     SubscriptionStatusActive,
		}, nil
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(input.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{
				Price: stripe.String(priceID),
			},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	trialDays := input.TrialDays
	if trialDays == 0 {
		trialDays = a.config.TrialDays
	}
	if trialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(int64(trialDays))
	}
	if input.PaymentMethod != "" {
		params.DefaultPaymentMethod = stripe.String(input.PaymentMethod)
	}

	params.Metadata = map[string]string{
		"profile_id": input.ProfileID.String(),
	}
	if plan := a.config.PlanForPrice(priceID); plan != "" {
		params.Metadata["plan_id"] = plan
	}

	sub, err := subscription.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe subscription",
			zap.String("profile_id", input.ProfileID.String()),
			zap.String("customer_id", input.CustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create subscription: %w", err)
	}

	a.logger.Info("Created Stripe subscription",
		zap.String("profile_id", input.ProfileID.String()),
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))

	output := subscriptionOutput(sub)
	if output.PriceID == "" {
		output.PriceID = priceID
	}
	if output.CustomerID == "" {
		output.CustomerID = input.CustomerID
	}
	return output, nil
}

// GetSubscription retrieves the current state of a subscription
func (a *StripeAdapter) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionOutput, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		a.logger.Error("Failed to get Stripe subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}
	return subscriptionOutput(sub), nil
}

// UpdateSubscription moves a subscription to another price (upgrade/downgrade)
func (a *StripeAdapter) UpdateSubscription(ctx context.Context, input UpdateSubscriptionInput) (*SubscriptionOutput, error) {
	a.logger.Debug("Updating Stripe subscription",
		zap.String("profile_id", input.ProfileID.String()),
		zap.String("subscription_id", input.SubscriptionID),
		zap.String("new_price_id", input.NewPriceID))

	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := subscription.Get(input.SubscriptionID, getParams)
	if err != nil {
		a.logger.Error("Failed to get Stripe subscription",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}

	// Subscriptions carry a single item
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, fmt.Errorf("stripe: subscription has no items")
	}
	itemID := sub.Items.Data[0].ID
	previousPriceID := ""
	if sub.Items.Data[0].Price != nil {
		previousPriceID = sub.Items.Data[0].Price.ID
	}

	newPriceID := input.NewPriceID
	if newPriceID == "" {
		newPriceID, err = a.config.GetPriceID(input.NewPlanID)
		if err != nil {
			return nil, err
		}
	}
	if newPriceID == "" {
		return nil, fmt.Errorf("stripe: a price is required to change plans")
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(newPriceID),
			},
		},
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	params.Context = ctx
	if input.ProrationBehavior != "" {
		params.ProrationBehavior = stripe.String(input.ProrationBehavior)
	} else {
		params.ProrationBehavior = stripe.String("create_prorations")
	}
	if plan := a.config.PlanForPrice(newPriceID); plan != "" {
		params.Metadata = map[string]string{"plan_id": plan}
	}

	updated, err := subscription.Update(input.SubscriptionID, params)
	if err != nil {
		a.logger.Error("Failed to update Stripe subscription",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to update subscription: %w", err)
	}

	a.logger.Info("Updated Stripe subscription",
		zap.String("subscription_id", updated.ID),
		zap.String("previous_price", previousPriceID),
		zap.String("new_price", newPriceID))

	output := subscriptionOutput(updated)
	if output.PriceID == "" {
		output.PriceID = newPriceID
	}
	return output, nil
}

// CancelSubscription cancels a subscription at period end or immediately
func (a *StripeAdapter) CancelSubscription(ctx context.Context, input CancelSubscriptionInput) (*SubscriptionOutput, error) {
	a.logger.Debug("Canceling Stripe subscription",
		zap.String("profile_id", input.ProfileID.String()),
		zap.String("subscription_id", input.SubscriptionID),
		zap.Bool("cancel_at_period_end", input.CancelAtPeriodEnd))

	var sub *stripe.Subscription
	var err error

	if input.CancelAtPeriodEnd {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		}
		params.Context = ctx
		if input.Reason != "" {
			params.CancellationDetails = &stripe.SubscriptionCancellationDetailsParams{
				Comment: stripe.String(input.Reason),
			}
		}
		sub, err = subscription.Update(input.SubscriptionID, params)
	} else {
		params := &stripe.SubscriptionCancelParams{}
		params.Context = ctx
		if input.Reason != "" {
			params.CancellationDetails = &stripe.SubscriptionCancelCancellationDetailsParams{
				Comment: stripe.String(input.Reason),
			}
		}
		sub, err = subscription.Cancel(input.SubscriptionID, params)
	}

	if err != nil {
		a.logger.Error("Failed to cancel Stripe subscription",
			zap.String("subscription_id", input.SubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to cancel subscription: %w", err)
	}

	a.logger.Info("Canceled Stripe subscription",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)),
		zap.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd))

	return subscriptionOutput(sub), nil
}

// ListSubscriptions lists the subscriptions of a customer that are not yet canceled
func (a *StripeAdapter) ListSubscriptions(ctx context.Context, customerID string) ([]*SubscriptionOutput, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	var subscriptions []*SubscriptionOutput
	iter := subscription.List(params)
	for iter.Next() {
		subscriptions = append(subscriptions, subscriptionOutput(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		a.logger.Error("Failed to list Stripe subscriptions",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to list subscriptions: %w", err)
	}

	return subscriptions, nil
}

// GetPrice retrieves a price with its product
func (a *StripeAdapter) GetPrice(ctx context.Context, priceID string) (*PriceOutput, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	params.AddExpand("product")

	p, err := price.Get(priceID, params)
	if err != nil {
		a.logger.Error("Failed to get Stripe price",
			zap.String("price_id", priceID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get price: %w", err)
	}

	output := &PriceOutput{
		PriceID:    p.ID,
		Plan:       a.config.PlanForPrice(p.ID),
		Nickname:   p.Nickname,
		Currency:   string(p.Currency),
		UnitAmount: p.UnitAmount,
		Active:     p.Active,
	}
	if p.Product != nil {
		output.ProductID = p.Product.ID
		output.ProductName = p.Product.Name
	}
	if p.Recurring != nil {
		output.Interval = string(p.Recurring.Interval)
		output.IntervalCount = p.Recurring.IntervalCount
	}
	return output, nil
}

// PlanPrices retrieves the price of every configured paid plan
func (a *StripeAdapter) PlanPrices(ctx context.Context) ([]*PriceOutput, error) {
	plans := a.config.Plans()
	prices := make([]*PriceOutput, 0, len(plans))
	for _, plan := range plans {
		p, err := a.GetPrice(ctx, a.config.PriceIDs[plan])
		if err != nil {
			return nil, err
		}
		p.Plan = plan
		prices = append(prices, p)
	}
	return prices, nil
}

func customerOutput(cust *stripe.Customer) *CustomerOutput {
	return &CustomerOutput{
		CustomerID: cust.ID,
		Email:      cust.Email,
		Name:       cust.Name,
		ProfileID:  cust.Metadata["profile_id"],
		CreatedAt:  time.Unix(cust.Created, 0),
	}
}

func subscriptionOutput(sub *stripe.Subscription) *SubscriptionOutput {
	output := &SubscriptionOutput{
		SubscriptionID:     sub.ID,
		Status:             mapStripeSubscriptionStatus(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		output.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		output.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0)
		output.CanceledAt = &t
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0)
		output.TrialEnd = &t
	}
	if sub.LatestInvoice != nil {
		output.LatestInvoiceID = sub.LatestInvoice.ID
		if sub.LatestInvoice.PaymentIntent != nil {
			output.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
		}
	}
	return output
}

// mapStripeSubscriptionStatus maps Stripe subscription status to our internal status
func mapStripeSubscriptionStatus(status stripe.SubscriptionStatus) SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue:
		return SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return SubscriptionStatusCanceled
	case stripe.SubscriptionStatusIncomplete:
		return SubscriptionStatusIncomplete
	case stripe.SubscriptionStatusIncompleteExpired:
		return SubscriptionStatusIncompleteExpired
	case stripe.SubscriptionStatusTrialing:
		return SubscriptionStatusTrialing
	case stripe.SubscriptionStatusUnpaid:
		return SubscriptionStatusUnpaid
	case stripe.SubscriptionStatusPaused:
		return SubscriptionStatusPaused
	default:
		return SubscriptionStatus(status)
	}
}
