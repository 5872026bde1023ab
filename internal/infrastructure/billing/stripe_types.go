package billing

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the status of a Stripe subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// String returns the string representation of the status
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsActive returns true if the subscription grants access
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// CreateCustomerInput contains the data needed to create a Stripe customer
type CreateCustomerInput struct {
	ProfileID    uuid.UUID
	EnterpriseID *uuid.UUID
	Email        string
	Name         string
	Metadata     map[string]string
}

// CustomerOutput is the customer data the application keeps
type CustomerOutput struct {
	CustomerID string
	Email      string
	Name       string
	ProfileID  string
	CreatedAt  time.Time
}

// CreateSubscriptionInput contains the data needed to create a subscription
type CreateSubscriptionInput struct {
	ProfileID  uuid.UUID
	CustomerID string
	// PriceID takes precedence over PlanID
	PriceID       string
	PlanID        string
	TrialDays     int
	PaymentMethod string
}

// SubscriptionOutput is the subscription snapshot persisted to profiles
type SubscriptionOutput struct {
	SubscriptionID     string
	CustomerID         string
	Status             SubscriptionStatus
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
	TrialEnd           *time.Time
	LatestInvoiceID    string
	// ClientSecret confirms the first payment of an incomplete subscription
	ClientSecret string
}

// UpdateSubscriptionInput contains the data needed to change a subscription's plan
type UpdateSubscriptionInput struct {
	ProfileID      uuid.UUID
	SubscriptionID string
	NewPriceID     string
	NewPlanID      string
	// ProrationBehavior is create_prorations, none or always_invoice
	ProrationBehavior string
}

// CancelSubscriptionInput contains the data needed to cancel a subscription
type CancelSubscriptionInput struct {
	ProfileID         uuid.UUID
	SubscriptionID    string
	CancelAtPeriodEnd bool
	Reason            string
}

// PriceOutput describes a Stripe price
type PriceOutput struct {
	PriceID       string `json:"id"`
	Plan          string `json:"plan,omitempty"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name,omitempty"`
	Nickname      string `json:"nickname,omitempty"`
	Currency      string `json:"currency"`
	UnitAmount    int64  `json:"unit_amount"`
	Interval      string `json:"interval,omitempty"`
	IntervalCount int64  `json:"interval_count,omitempty"`
	Active        bool   `json:"active"`
}
