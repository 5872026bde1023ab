package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ProfileService resolves the profile behind a session and handles
// enterprise onboarding
type ProfileService struct {
	profiles    identity.ProfileRepository
	enterprises identity.EnterpriseRepository
	logger      *zap.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(profiles identity.ProfileRepository, enterprises identity.EnterpriseRepository, log *zap.Logger) *ProfileService {
	return &ProfileService{
		profiles:    profiles,
		enterprises: enterprises,
		logger:      log,
	}
}

// Resolve returns the profile of an authenticated user, creating it the
// first time the user is seen
func (s *ProfileService) Resolve(ctx context.Context, userID uuid.UUID, email string) (*identity.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	profile = identity.NewProfile(userID, email)
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Profile created", zap.String("profile_id", userID.String()))
	return profile, nil
}

// Get returns a profile
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*identity.Profile, error) {
	return s.profiles.FindByID(ctx, userID)
}

// UpdateProfile changes the display fields of a profile
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*identity.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		profile.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = strings.TrimSpace(*req.AvatarURL)
	}
	if err := shared.ValidateStruct(profile); err != nil {
		return nil, err
	}
	profile.UpdatedAt = time.Now().UTC()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateEnterprise creates an enterprise owned by the user. A profile
// belongs to at most one enterprise.
func (s *ProfileService) CreateEnterprise(ctx context.Context, userID uuid.UUID, req EnterpriseRequest) (*identity.Enterprise, error) {
	profile, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.EnterpriseID != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Profile already belongs to an enterprise")
	}

	enterprise, err := identity.NewEnterprise(req.Name, req.Email, req.VATNumber)
	if err != nil {
		return nil, err
	}
	enterprise.Industry = strings.TrimSpace(req.Industry)
	enterprise.Size = strings.TrimSpace(req.Size)
	enterprise.Address = strings.TrimSpace(req.Address)
	if err := enterprise.Validate(); err != nil {
		return nil, err
	}

	if err := s.enterprises.CreateWithOwner(ctx, enterprise, profile); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Enterprise created",
		zap.String("enterprise_id", enterprise.ID.String()),
		zap.String("owner_id", userID.String()))
	return enterprise, nil
}

// GetEnterprise returns the enterprise of the scope
func (s *ProfileService) GetEnterprise(ctx context.Context, scope shared.Scope) (*identity.Enterprise, error) {
	return s.enterprises.FindByID(ctx, scope.EnterpriseID)
}

// UpdateEnterprise replaces the editable fields of the scope's enterprise
func (s *ProfileService) UpdateEnterprise(ctx context.Context, scope shared.Scope, req EnterpriseRequest) (*identity.Enterprise, error) {
	enterprise, err := s.enterprises.FindByID(ctx, scope.EnterpriseID)
	if err != nil {
		return nil, err
	}
	enterprise.Name = strings.TrimSpace(req.Name)
	enterprise.Email = strings.ToLower(strings.TrimSpace(req.Email))
	enterprise.VATNumber = strings.TrimSpace(req.VATNumber)
	enterprise.Industry = strings.TrimSpace(req.Industry)
	enterprise.Size = strings.TrimSpace(req.Size)
	enterprise.Address = strings.TrimSpace(req.Address)
	if err := enterprise.Validate(); err != nil {
		return nil, err
	}
	enterprise.UpdatedAt = time.Now().UTC()
	if err := s.enterprises.Save(ctx, enterprise); err != nil {
		return nil, err
	}
	return enterprise, nil
}
