package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"gorm.io/gorm"
)

// GormProfileRepository implements identity.ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByID finds a profile by user ID
func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	var profile identity.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &profile, nil
}

// FindByStripeCustomerID finds the profile billed to a Stripe customer
func (r *GormProfileRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Profile, error) {
	var profile identity.Profile
	if err := r.db.WithContext(ctx).First(&profile, "stripe_customer_id = ?", customerID).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &profile, nil
}

// Save creates or updates a profile
func (r *GormProfileRepository) Save(ctx context.Context, profile *identity.Profile) error {
	return TranslateError(r.db.WithContext(ctx).Save(profile).Error)
}

// SetStripeCustomerID stores the Stripe customer of a profile
func (r *GormProfileRepository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"stripe_customer_id": customerID,
		"updated_at":         time.Now().UTC(),
	})
}

// UpdateBilling writes the subscription snapshot of a profile
func (r *GormProfileRepository) UpdateBilling(ctx context.Context, id uuid.UUID, state identity.BillingState) error {
	return r.updateColumns(ctx, id, map[string]any{
		"subscription_id":      state.SubscriptionID,
		"subscription_status":  state.SubscriptionStatus,
		"price_id":             state.PriceID,
		"current_period_end":   state.CurrentPeriodEnd,
		"cancel_at_period_end": state.CancelAtPeriodEnd,
		"updated_at":           time.Now().UTC(),
	})
}

// FindWithStripeCustomer lists profiles that have a Stripe customer
func (r *GormProfileRepository) FindWithStripeCustomer(ctx context.Context) ([]identity.Profile, error) {
	var profiles []identity.Profile
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id IS NOT NULL AND stripe_customer_id <> ''").
		Order("created_at").
		Find(&profiles).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return profiles, nil
}

func (r *GormProfileRepository) updateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&identity.Profile{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return TranslateError(gorm.ErrRecordNotFound)
	}
	return nil
}

// GormEnterpriseRepository implements identity.EnterpriseRepository using GORM
type GormEnterpriseRepository struct {
	db *gorm.DB
}

// NewGormEnterpriseRepository creates a new GormEnterpriseRepository
func NewGormEnterpriseRepository(db *gorm.DB) *GormEnterpriseRepository {
	return &GormEnterpriseRepository{db: db}
}

// FindByID finds an enterprise by ID
func (r *GormEnterpriseRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Enterprise, error) {
	var enterprise identity.Enterprise
	if err := r.db.WithContext(ctx).First(&enterprise, "id = ?", id).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &enterprise, nil
}

// Save creates or updates an enterprise
func (r *GormEnterpriseRepository) Save(ctx context.Context, enterprise *identity.Enterprise) error {
	return TranslateError(r.db.WithContext(ctx).Save(enterprise).Error)
}

// CreateWithOwner creates an enterprise and links the owner's profile in one transaction
func (r *GormEnterpriseRepository) CreateWithOwner(ctx context.Context, enterprise *identity.Enterprise, owner *identity.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enterprise).Error; err != nil {
			return err
		}
		owner.JoinEnterprise(enterprise.ID, identity.RoleOwner)
		return tx.Save(owner).Error
	})
	return TranslateError(err)
}
