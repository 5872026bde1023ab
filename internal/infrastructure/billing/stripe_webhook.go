package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// Webhook event types that change a profile's billing state
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.paid"
	EventInvoicePaymentFail  = "invoice.payment_failed"
)

var (
	ErrInvalidSignature = errors.New("stripe: invalid webhook signature")
	ErrWebhookSecret    = errors.New("stripe: webhook secret is not configured")
)

// WebhookEvent is the part of a Stripe event the application acts on. It is
// JSON-encoded as the payload of the background task.
type WebhookEvent struct {
	ID           string              `json:"id"`
	Type         string              `json:"type"`
	CustomerID   string              `json:"customer_id"`
	Created      time.Time           `json:"created"`
	Subscription *SubscriptionOutput `json:"subscription,omitempty"`
	// SubscriptionID is set for invoice events
	SubscriptionID string `json:"subscription_id,omitempty"`
	InvoiceID      string `json:"invoice_id,omitempty"`
}

// Handled reports whether the event type changes billing state
func (e *WebhookEvent) Handled() bool {
	switch e.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted,
		EventInvoicePaid, EventInvoicePaymentFail:
		return true
	}
	return false
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
func (c *StripeConfig) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if c.WebhookSecret == "" {
		return nil, ErrWebhookSecret
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (*WebhookEvent, error) {
	out := &WebhookEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("stripe: failed to decode subscription: %w", err)
		}
		out.Subscription = subscriptionOutput(&sub)
		out.CustomerID = out.Subscription.CustomerID
	case EventInvoicePaid, EventInvoicePaymentFail:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("stripe: failed to decode invoice: %w", err)
		}
		out.InvoiceID = inv.ID
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	}
	return out, nil
}
