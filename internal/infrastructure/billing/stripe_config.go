package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for Stripe integration
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// WebhookSecret is the secret for verifying webhook signatures
	WebhookSecret string `json:"webhook_secret" mapstructure:"webhook_secret"`

	// IsTestMode indicates if using Stripe test mode
	IsTestMode bool `json:"is_test_mode" mapstructure:"is_test_mode"`

	// DefaultCurrency is the currency new customers are billed in
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency"`

	// PriceIDs maps plan names to Stripe Price IDs
	PriceIDs map[string]string `json:"price_ids" mapstructure:"price_ids"`

	// TrialDays is applied to new subscriptions when greater than zero
	TrialDays int `json:"trial_days" mapstructure:"trial_days"`
}

// PlanFree has no Stripe price
const PlanFree = "free"

// DefaultStripeConfig returns a default configuration for development/testing
func DefaultStripeConfig() *StripeConfig {
	return &StripeConfig{
		IsTestMode:      true,
		DefaultCurrency: "sar",
		PriceIDs: map[string]string{
			PlanFree:   "",
			"starter":  "price_starter_monthly",
			"pro":      "price_pro_monthly",
			"business": "price_business_monthly",
		},
	}
}

// FromConfig builds the Stripe configuration from application settings
func FromConfig(cfg config.StripeConfig) *StripeConfig {
	prices := make(map[string]string, len(cfg.PriceIDs)+1)
	prices[PlanFree] = ""
	for plan, id := range cfg.PriceIDs {
		prices[plan] = id
	}
	return &StripeConfig{
		SecretKey:       cfg.SecretKey,
		WebhookSecret:   cfg.WebhookSecret,
		IsTestMode:      cfg.IsTestMode(),
		DefaultCurrency: cfg.DefaultCurrency,
		PriceIDs:        prices,
		TrialDays:       cfg.TrialDays,
	}
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}

	if c.IsTestMode {
		if !strings.HasPrefix(c.SecretKey, "sk_test") && !strings.HasPrefix(c.SecretKey, "rk_test") {
			return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
		}
	} else {
		if !strings.HasPrefix(c.SecretKey, "sk_live") && !strings.HasPrefix(c.SecretKey, "rk_live") {
			return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
		}
	}

	if c.DefaultCurrency == "" {
		return fmt.Errorf("stripe: default currency is required")
	}

	return nil
}

// GetPriceID returns the Stripe Price ID for a given plan
func (c *StripeConfig) GetPriceID(plan string) (string, error) {
	priceID, exists := c.PriceIDs[plan]
	if !exists {
		return "", fmt.Errorf("stripe: no price ID configured for plan: %s", plan)
	}
	if priceID == "" && plan != PlanFree {
		return "", fmt.Errorf("stripe: price ID not set for plan: %s", plan)
	}
	return priceID, nil
}

// PlanForPrice returns the plan a price belongs to, or "" when it is not configured
func (c *StripeConfig) PlanForPrice(priceID string) string {
	for plan, id := range c.PriceIDs {
		if id != "" && id == priceID {
			return plan
		}
	}
	return ""
}

// Plans returns the configured paid plans in name order
func (c *StripeConfig) Plans() []string {
	plans := make([]string, 0, len(c.PriceIDs))
	for plan, id := range c.PriceIDs {
		if id != "" {
			plans = append(plans, plan)
		}
	}
	sort.Strings(plans)
	return plans
}

// InitStripeClient initializes the Stripe client with the configured API key
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
