// Package partner holds the company operations outside the generic
// resource endpoints.
package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/application/media"
	"github.com/sikka-software/Tanad-sub009/internal/domain/partner"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogoService uploads company logos
type LogoService struct {
	companies shared.ResourceRepository[partner.Company]
	uploader  *media.Uploader
	logger    *zap.Logger
}

// NewLogoService creates a new LogoService
func NewLogoService(companies shared.ResourceRepository[partner.Company], uploader *media.Uploader, log *zap.Logger) *LogoService {
	return &LogoService{
		companies: companies,
		uploader:  uploader,
		logger:    log,
	}
}

// UploadLogo stores a new logo for a company and removes the previous one
func (s *LogoService) UploadLogo(ctx context.Context, scope shared.Scope, id uuid.UUID, data []byte) (*partner.Company, error) {
	company, err := s.companies.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	previous := company.LogoURL
	url, err := s.uploader.Upload(ctx, media.KindLogo, scope.EnterpriseID, data)
	if err != nil {
		return nil, err
	}

	company.LogoURL = url
	company.Touch()
	if err := s.companies.Update(ctx, scope, company, []string{"logo_url"}); err != nil {
		s.uploader.Remove(ctx, url)
		return nil, err
	}
	if previous != "" && previous != url {
		s.uploader.Remove(ctx, previous)
	}

	logger.Enrich(ctx, s.logger).Info("Company logo updated", zap.String("company_id", id.String()))
	return company, nil
}
