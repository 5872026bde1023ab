package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Profile, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *identity.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileRepository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return m.Called(ctx, id, customerID).Error(0)
}

func (m *MockProfileRepository) UpdateBilling(ctx context.Context, id uuid.UUID, state identity.BillingState) error {
	return m.Called(ctx, id, state).Error(0)
}

func (m *MockProfileRepository) FindWithStripeCustomer(ctx context.Context) ([]identity.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]identity.Profile), args.Error(1)
}

type MockEnterpriseRepository struct {
	mock.Mock
}

func (m *MockEnterpriseRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Enterprise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Enterprise), args.Error(1)
}

func (m *MockEnterpriseRepository) Save(ctx context.Context, enterprise *identity.Enterprise) error {
	return m.Called(ctx, enterprise).Error(0)
}

func (m *MockEnterpriseRepository) CreateWithOwner(ctx context.Context, enterprise *identity.Enterprise, owner *identity.Profile) error {
	args := m.Called(ctx, enterprise, owner)
	if args.Error(0) == nil {
		owner.JoinEnterprise(enterprise.ID, identity.RoleOwner)
	}
	return args.Error(0)
}

func newTestService() (*ProfileService, *MockProfileRepository, *MockEnterpriseRepository) {
	profiles := new(MockProfileRepository)
	enterprises := new(MockEnterpriseRepository)
	return NewProfileService(profiles, enterprises, zap.NewNop()), profiles, enterprises
}

func TestProfileService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("existing profile", func(t *testing.T) {
		svc, profiles, _ := newTestService()
		existing := identity.NewProfile(uuid.New(), "a@example.com")
		profiles.On("FindByID", ctx, existing.ID).Return(existing, nil)

		got, err := svc.Resolve(ctx, existing.ID, "a@example.com")
		require.NoError(t, err)
		assert.Same(t, existing, got)
		profiles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("first sign-in creates the profile", func(t *testing.T) {
		svc, profiles, _ := newTestService()
		id := uuid.New()
		profiles.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)
		profiles.On("Save", ctx, mock.MatchedBy(func(p *identity.Profile) bool {
			return p.ID == id && p.Email == "new@example.com" && p.EnterpriseID == nil
		})).Return(nil)

		got, err := svc.Resolve(ctx, id, " New@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		profiles.AssertExpectations(t)
	})

	t.Run("database failure is returned", func(t *testing.T) {
		svc, profiles, _ := newTestService()
		id := uuid.New()
		profiles.On("FindByID", ctx, id).Return(nil, assert.AnError)

		_, err := svc.Resolve(ctx, id, "x@example.com")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestProfileService_CreateEnterprise(t *testing.T) {
	ctx := context.Background()

	t.Run("owner joins the new enterprise", func(t *testing.T) {
		svc, profiles, enterprises := newTestService()
		profile := identity.NewProfile(uuid.New(), "owner@example.com")
		profiles.On("FindByID", ctx, profile.ID).Return(profile, nil)
		enterprises.On("CreateWithOwner", ctx, mock.AnythingOfType("*identity.Enterprise"), profile).Return(nil)

		ent, err := svc.CreateEnterprise(ctx, profile.ID, EnterpriseRequest{
			Name:      " Tanad Trading ",
			VATNumber: "300000000000003",
			Industry:  "Retail",
		})
		require.NoError(t, err)
		assert.Equal(t, "Tanad Trading", ent.Name)
		assert.Equal(t, "Retail", ent.Industry)
		require.NotNil(t, profile.EnterpriseID)
		assert.Equal(t, ent.ID, *profile.EnterpriseID)
		assert.Equal(t, identity.RoleOwner, profile.Role)
	})

	t.Run("profile already has an enterprise", func(t *testing.T) {
		svc, profiles, enterprises := newTestService()
		profile := identity.NewProfile(uuid.New(), "owner@example.com")
		profile.JoinEnterprise(uuid.New(), identity.RoleMember)
		profiles.On("FindByID", ctx, profile.ID).Return(profile, nil)

		_, err := svc.CreateEnterprise(ctx, profile.ID, EnterpriseRequest{Name: "Other"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		enterprises.AssertNotCalled(t, "CreateWithOwner", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid VAT number", func(t *testing.T) {
		svc, profiles, _ := newTestService()
		profile := identity.NewProfile(uuid.New(), "owner@example.com")
		profiles.On("FindByID", ctx, profile.ID).Return(profile, nil)

		_, err := svc.CreateEnterprise(ctx, profile.ID, EnterpriseRequest{Name: "Tanad", VATNumber: "12"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	})
}

func TestProfileService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, profiles, _ := newTestService()
	profile := identity.NewProfile(uuid.New(), "a@example.com")
	profile.AvatarURL = "https://cdn.example.com/old.png"
	profiles.On("FindByID", ctx, profile.ID).Return(profile, nil)
	profiles.On("Save", ctx, profile).Return(nil)

	name := "  Sara Ahmed "
	got, err := svc.UpdateProfile(ctx, profile.ID, UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Sara Ahmed", got.FullName)
	assert.Equal(t, "https://cdn.example.com/old.png", got.AvatarURL)

	bad := "not a url"
	_, err = svc.UpdateProfile(ctx, profile.ID, UpdateProfileRequest{AvatarURL: &bad})
	assert.Error(t, err)
}

func TestProfileService_UpdateEnterprise(t *testing.T) {
	ctx := context.Background()
	svc, _, enterprises := newTestService()
	ent, err := identity.NewEnterprise("Tanad", "", "")
	require.NoError(t, err)
	scope := shared.Scope{EnterpriseID: ent.ID, UserID: uuid.New()}
	enterprises.On("FindByID", ctx, ent.ID).Return(ent, nil)
	enterprises.On("Save", ctx, ent).Return(nil)

	got, err := svc.UpdateEnterprise(ctx, scope, EnterpriseRequest{
		Name:      "Tanad Holding",
		Email:     "Billing@Tanad.test",
		VATNumber: "300000000000003",
		Address:   "Riyadh",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tanad Holding", got.Name)
	assert.Equal(t, "billing@tanad.test", got.Email)
	assert.True(t, got.CanIssueTaxInvoices())
}
