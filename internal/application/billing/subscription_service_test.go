package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProfileRepository is a mock implementation of identity.ProfileRepository
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

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCustomer(ctx context.Context, input billing.CreateCustomerInput) (*billing.CustomerOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CustomerOutput), args.Error(1)
}

func (m *MockGateway) CreateSubscription(ctx context.Context, input billing.CreateSubscriptionInput) (*billing.SubscriptionOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionOutput), args.Error(1)
}

func (m *MockGateway) UpdateSubscription(ctx context.Context, input billing.UpdateSubscriptionInput) (*billing.SubscriptionOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionOutput), args.Error(1)
}

func (m *MockGateway) CancelSubscription(ctx context.Context, input billing.CancelSubscriptionInput) (*billing.SubscriptionOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionOutput), args.Error(1)
}

func (m *MockGateway) GetPrice(ctx context.Context, priceID string) (*billing.PriceOutput, error) {
	args := m.Called(ctx, priceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PriceOutput), args.Error(1)
}

func (m *MockGateway) PlanPrices(ctx context.Context) ([]*billing.PriceOutput, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.PriceOutput), args.Error(1)
}

func newSubscriptionService() (*SubscriptionService, *MockGateway, *MockProfileRepository) {
	gateway := new(MockGateway)
	profiles := new(MockProfileRepository)
	return NewSubscriptionService(gateway, profiles, zap.NewNop()), gateway, profiles
}

func testProfile() *identity.Profile {
	p := identity.NewProfile(uuid.New(), "owner@example.com")
	p.JoinEnterprise(uuid.New(), identity.RoleOwner)
	return p
}

func TestSubscriptionService_EnsureCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("existing customer is reused", func(t *testing.T) {
		svc, gateway, _ := newSubscriptionService()
		profile := testProfile()
		profile.StripeCustomerID = "cus_existing"

		res, err := svc.EnsureCustomer(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "cus_existing", res.CustomerID)
		assert.False(t, res.Created)
		gateway.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("new customer is persisted", func(t *testing.T) {
		svc, gateway, profiles := newSubscriptionService()
		profile := testProfile()
		gateway.On("CreateCustomer", ctx, mock.MatchedBy(func(in billing.CreateCustomerInput) bool {
			return in.ProfileID == profile.ID && in.Email == "owner@example.com"
		})).Return(&billing.CustomerOutput{CustomerID: "cus_new"}, nil)
		profiles.On("SetStripeCustomerID", ctx, profile.ID, "cus_new").Return(nil)

		res, err := svc.EnsureCustomer(ctx, profile)
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, "cus_new", profile.StripeCustomerID)
		profiles.AssertExpectations(t)
	})

	t.Run("stripe failure is returned", func(t *testing.T) {
		svc, gateway, profiles := newSubscriptionService()
		gateway.On("CreateCustomer", ctx, mock.Anything).Return(nil, assert.AnError)

		_, err := svc.EnsureCustomer(ctx, testProfile())
		assert.ErrorIs(t, err, assert.AnError)
		profiles.AssertNotCalled(t, "SetStripeCustomerID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	ctx := context.Background()
	periodEnd := time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC)

	t.Run("persists the subscription before returning", func(t *testing.T) {
		svc, gateway, profiles := newSubscriptionService()
		profile := testProfile()
		profile.StripeCustomerID = "cus_1"
		gateway.On("CreateSubscription", ctx, billing.CreateSubscriptionInput{
			ProfileID:  profile.ID,
			CustomerID: "cus_1",
			PriceID:    "price_pro",
		}).Return(&billing.SubscriptionOutput{
			SubscriptionID:   "sub_1",
			CustomerID:       "cus_1",
			Status:           billing.SubscriptionStatusActive,
			PriceID:          "price_pro",
			CurrentPeriodEnd: periodEnd,
		}, nil)
		profiles.On("UpdateBilling", ctx, profile.ID, identity.BillingState{
			SubscriptionID:     "sub_1",
			SubscriptionStatus: "active",
			PriceID:            "price_pro",
			CurrentPeriodEnd:   &periodEnd,
		}).Return(nil)

		res, err := svc.Subscribe(ctx, profile, " price_pro ")
		require.NoError(t, err)
		assert.Equal(t, "sub_1", res.SubscriptionID)
		assert.Equal(t, "2026-11-16T00:00:00Z", res.CurrentPeriodEnd)
		assert.Equal(t, "sub_1", profile.SubscriptionID)
		assert.True(t, profile.HasActiveSubscription())
		profiles.AssertExpectations(t)
	})

	t.Run("price is required", func(t *testing.T) {
		svc, _, _ := newSubscriptionService()
		_, err := svc.Subscribe(ctx, testProfile(), "  ")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	})

	t.Run("active subscription blocks a second one", func(t *testing.T) {
		svc, gateway, _ := newSubscriptionService()
		profile := testProfile()
		profile.ApplyBilling(identity.BillingState{SubscriptionID: "sub_1", SubscriptionStatus: "active"})

		_, err := svc.Subscribe(ctx, profile, "price_pro")
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		gateway.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	})
}

func TestSubscriptionService_ChangePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("prorates to the new price", func(t *testing.T) {
		svc, gateway, profiles := newSubscriptionService()
		profile := testProfile()
		profile.ApplyBilling(identity.BillingState{SubscriptionID: "sub_1", SubscriptionStatus: "active", PriceID: "price_basic"})
		gateway.On("UpdateSubscription", ctx, billing.UpdateSubscriptionInput{
			ProfileID:         profile.ID,
			SubscriptionID:    "sub_1",
			NewPriceID:        "price_pro",
			ProrationBehavior: "create_prorations",
		}).Return(&billing.SubscriptionOutput{SubscriptionID: "sub_1", Status: billing.SubscriptionStatusActive, PriceID: "price_pro"}, nil)
		profiles.On("UpdateBilling", ctx, profile.ID, mock.Anything).Return(nil)

		res, err := svc.ChangePlan(ctx, profile, "price_pro")
		require.NoError(t, err)
		assert.Equal(t, "price_pro", res.PriceID)
		assert.Equal(t, "price_pro", profile.PriceID)
	})

	t.Run("no subscription", func(t *testing.T) {
		svc, _, _ := newSubscriptionService()
		_, err := svc.ChangePlan(ctx, testProfile(), "price_pro")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestSubscriptionService_Cancel(t *testing.T) {
	ctx := context.Background()

	for _, immediately := range []bool{false, true} {
		svc, gateway, profiles := newSubscriptionService()
		profile := testProfile()
		profile.ApplyBilling(identity.BillingState{SubscriptionID: "sub_1", SubscriptionStatus: "active"})

		status := billing.SubscriptionStatusActive
		if immediately {
			status = billing.SubscriptionStatusCanceled
		}
		gateway.On("CancelSubscription", ctx, billing.CancelSubscriptionInput{
			ProfileID:         profile.ID,
			SubscriptionID:    "sub_1",
			CancelAtPeriodEnd: !immediately,
		}).Return(&billing.SubscriptionOutput{SubscriptionID: "sub_1", Status: status, CancelAtPeriodEnd: !immediately}, nil)
		profiles.On("UpdateBilling", ctx, profile.ID, mock.Anything).Return(nil)

		res, err := svc.Cancel(ctx, profile, immediately)
		require.NoError(t, err)
		assert.Equal(t, !immediately, res.CancelAtPeriodEnd)
		assert.Equal(t, string(status), profile.SubscriptionStatus)
		gateway.AssertExpectations(t)
	}
}

func TestSubscriptionService_Prices(t *testing.T) {
	ctx := context.Background()
	svc, gateway, _ := newSubscriptionService()
	gateway.On("GetPrice", ctx, "price_pro").Return(&billing.PriceOutput{PriceID: "price_pro", UnitAmount: 9900}, nil)
	gateway.On("PlanPrices", ctx).Return([]*billing.PriceOutput{{PriceID: "price_basic"}, {PriceID: "price_pro"}}, nil)

	price, err := svc.GetPrice(ctx, "price_pro")
	require.NoError(t, err)
	assert.Equal(t, int64(9900), price.UnitAmount)

	prices, err := svc.ListPrices(ctx)
	require.NoError(t, err)
	assert.Len(t, prices, 2)

	_, err = svc.GetPrice(ctx, "")
	assert.Error(t, err)
}
