package identity

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository defines the interface for profile persistence
type ProfileRepository interface {
	// FindByID finds a profile by user ID
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// FindByStripeCustomerID finds the profile billed to a Stripe customer
	FindByStripeCustomerID(ctx context.Context, customerID string) (*Profile, error)

	// Save creates or updates a profile
	Save(ctx context.Context, profile *Profile) error

	// SetStripeCustomerID stores the Stripe customer of a profile
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error

	// UpdateBilling writes the subscription snapshot of a profile
	UpdateBilling(ctx context.Context, id uuid.UUID, state BillingState) error

	// FindWithStripeCustomer lists profiles that have a Stripe customer
	FindWithStripeCustomer(ctx context.Context) ([]Profile, error)
}

// EnterpriseRepository defines the interface for enterprise persistence
type EnterpriseRepository interface {
	// FindByID finds an enterprise by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Enterprise, error)

	// Save creates or updates an enterprise
	Save(ctx context.Context, enterprise *Enterprise) error

	// CreateWithOwner creates an enterprise and links the owner's profile in one transaction
	CreateWithOwner(ctx context.Context, enterprise *Enterprise, owner *Profile) error
}
