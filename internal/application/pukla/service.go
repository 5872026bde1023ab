// Package pukla implements the link-in-bio operations that go beyond the
// generic resource endpoints: link replacement, themes, the public page and
// avatar uploads.
package pukla

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/application/media"
	"github.com/sikka-software/Tanad-sub009/internal/application/resource"
	"github.com/sikka-software/Tanad-sub009/internal/domain/pukla"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// maxSlugAttempts bounds the suffixes tried for a duplicated page
const maxSlugAttempts = 50

// PageService is the generic resource service of pukla pages
type PageService = resource.Service[pukla.Pukla, *pukla.Pukla]

// Service handles pukla operations
type Service struct {
	pages    *PageService
	repo     pukla.PuklaRepository
	uploader *media.Uploader
	appURL   string
	logger   *zap.Logger
}

// NewService creates a new pukla Service
func NewService(pages *PageService, repo pukla.PuklaRepository, uploader *media.Uploader, appURL string, log *zap.Logger) *Service {
	return &Service{
		pages:    pages,
		repo:     repo,
		uploader: uploader,
		appURL:   appURL,
		logger:   log,
	}
}

// UniqueSlug rejects a slug used by another page. A duplicated page gets
// the first free "-N" suffix instead.
func UniqueSlug(repo pukla.PuklaRepository) resource.Hook[pukla.Pukla] {
	return func(ctx context.Context, _ shared.Scope, page *pukla.Pukla, op resource.Operation) error {
		base := page.Slug
		candidate := base
		for i := 2; i < maxSlugAttempts+2; i++ {
			taken, err := repo.SlugTaken(ctx, candidate, page.ID)
			if err != nil {
				return err
			}
			if !taken {
				page.Slug = candidate
				return nil
			}
			if op != resource.OpDuplicate {
				return &shared.DomainError{
					Code:    "ALREADY_EXISTS",
					Message: "Slug is already taken",
					Details: []shared.FieldProblem{{Field: "slug", Message: "Slug is already taken"}},
				}
			}
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		return shared.NewDomainError("ALREADY_EXISTS", "No free slug found for "+base)
	}
}

// LinkInput is one link of a replacement list. Links keep the order they
// are sent in.
type LinkInput struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	IsEnabled *bool  `json:"is_enabled"`
}

// ReplaceLinks replaces the ordered link list of a page
func (s *Service) ReplaceLinks(ctx context.Context, scope shared.Scope, id uuid.UUID, links []LinkInput) (*pukla.Pukla, error) {
	rows := make([]pukla.Link, len(links))
	for i, l := range links {
		enabled := true
		if l.IsEnabled != nil {
			enabled = *l.IsEnabled
		}
		rows[i] = pukla.Link{
			ID:        uuid.New(),
			PuklaID:   id,
			Title:     strings.TrimSpace(l.Title),
			URL:       strings.TrimSpace(l.URL),
			Position:  i,
			IsEnabled: enabled,
		}
	}
	body, err := json.Marshal(map[string]any{"links": rows})
	if err != nil {
		return nil, err
	}
	return s.pages.Update(ctx, scope, id, body)
}

// Themes returns the built-in themes
func (s *Service) Themes() []pukla.Theme {
	return pukla.Themes()
}

// PublicPage returns the anonymous view of a public page
func (s *Service) PublicPage(ctx context.Context, slug string) (*pukla.PublicPage, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, shared.ErrNotFound
	}
	page, err := s.repo.FindPublicBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	public := page.Public(s.appURL)
	return &public, nil
}

// UploadAvatar stores a new avatar for a page and removes the previous one
func (s *Service) UploadAvatar(ctx context.Context, scope shared.Scope, id uuid.UUID, data []byte) (*pukla.Pukla, error) {
	page, err := s.pages.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, media.KindAvatar, page.ID, data)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetAvatarURL(ctx, scope.UserID, page.ID, url); err != nil {
		s.uploader.Remove(ctx, url)
		return nil, err
	}
	if page.AvatarURL != "" && page.AvatarURL != url {
		s.uploader.Remove(ctx, page.AvatarURL)
	}

	logger.Enrich(ctx, s.logger).Info("Pukla avatar updated", zap.String("id", id.String()))
	return s.pages.Get(ctx, scope, id)
}
