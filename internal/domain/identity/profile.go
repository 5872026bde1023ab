package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// Profile is the application record of an authenticated user. Its ID is the
// user id issued by Supabase Auth.
type Profile struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EnterpriseID *uuid.UUID `gorm:"type:uuid;index" json:"enterprise_id"`
	Email        string     `gorm:"type:varchar(200)" json:"email"`
	FullName     string     `gorm:"type:varchar(200)" json:"full_name" validate:"max=200"`
	AvatarURL    string     `gorm:"type:varchar(500)" json:"avatar_url" validate:"omitempty,url"`
	Role         string     `gorm:"type:varchar(50);not null" json:"role"`

	StripeCustomerID   string     `gorm:"type:varchar(100);index" json:"stripe_customer_id"`
	SubscriptionID     string     `gorm:"type:varchar(100)" json:"subscription_id"`
	SubscriptionStatus string     `gorm:"type:varchar(50)" json:"subscription_status"`
	PriceID            string     `gorm:"type:varchar(100)" json:"price_id"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `gorm:"not null" json:"cancel_at_period_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// ProfileRole values
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// NewProfile creates the profile of a user seen for the first time
func NewProfile(userID uuid.UUID, email string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:        userID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Scope returns the request scope of the profile. It fails when the profile
// has not joined an enterprise yet.
func (p *Profile) Scope() (shared.Scope, error) {
	if p.EnterpriseID == nil || *p.EnterpriseID == uuid.Nil {
		return shared.Scope{}, shared.ErrNoEnterprise
	}
	return shared.Scope{EnterpriseID: *p.EnterpriseID, UserID: p.ID}, nil
}

// JoinEnterprise links the profile to an enterprise with a role
func (p *Profile) JoinEnterprise(enterpriseID uuid.UUID, role string) {
	p.EnterpriseID = &enterpriseID
	p.Role = role
	p.UpdatedAt = time.Now().UTC()
}

// BillingState is the subscription snapshot copied from Stripe onto a profile
type BillingState struct {
	SubscriptionID     string
	SubscriptionStatus string
	PriceID            string
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// ApplyBilling copies a billing snapshot onto the profile
func (p *Profile) ApplyBilling(state BillingState) {
	p.SubscriptionID = state.SubscriptionID
	p.SubscriptionStatus = state.SubscriptionStatus
	p.PriceID = state.PriceID
	p.CurrentPeriodEnd = state.CurrentPeriodEnd
	p.CancelAtPeriodEnd = state.CancelAtPeriodEnd
	p.UpdatedAt = time.Now().UTC()
}

// HasActiveSubscription reports whether the profile's subscription grants access
func (p *Profile) HasActiveSubscription() bool {
	return p.SubscriptionStatus == "active" || p.SubscriptionStatus == "trialing"
}
