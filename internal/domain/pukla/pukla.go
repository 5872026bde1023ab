// Package pukla models link-in-bio pages: a public profile with an ordered
// list of links, rendered with one of the built-in themes.
package pukla

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/pkg/slug"
)

// Pukla is a link-in-bio page owned by one user
type Pukla struct {
	shared.OwnedEntity
	Title     string `gorm:"type:varchar(100);not null" json:"title" validate:"required,max=100"`
	Slug      string `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug" validate:"required,max=100"`
	Bio       string `gorm:"type:varchar(500)" json:"bio" validate:"max=500"`
	AvatarURL string `gorm:"type:varchar(500)" json:"avatar_url" validate:"omitempty,url"`
	ThemeID   string `gorm:"type:varchar(50);not null" json:"theme_id"`
	IsPublic  bool   `gorm:"not null" json:"is_public"`
	Links     []Link `gorm:"foreignKey:PuklaID" json:"links" validate:"dive"`
}

// Link is one button of a pukla page
type Link struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PuklaID   uuid.UUID `gorm:"type:uuid;not null;index" json:"pukla_id"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title" validate:"required,max=100"`
	URL       string    `gorm:"column:url;type:varchar(1000);not null" json:"url" validate:"required,url,max=1000"`
	Position  int       `gorm:"not null" json:"position" validate:"gte=0"`
	IsEnabled bool      `gorm:"not null" json:"is_enabled"`
}

// TableName returns the table name for GORM
func (Link) TableName() string {
	return "pukla_links"
}

// TableName returns the table name for GORM
func (Pukla) TableName() string {
	return "puklas"
}

// AssignIdentity gives the page and its links fresh ids
func (p *Pukla) AssignIdentity(scope shared.Scope) {
	p.OwnedEntity.AssignIdentity(scope)
	for i := range p.Links {
		p.Links[i].ID = uuid.New()
		p.Links[i].PuklaID = p.ID
	}
}

// Normalize derives the slug, applies the default theme and renumbers links
// in their current order
func (p *Pukla) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slug.Make(p.Title)
	} else {
		p.Slug = slug.Make(p.Slug)
	}
	if p.ThemeID == "" {
		p.ThemeID = DefaultThemeID
	}
	sort.SliceStable(p.Links, func(i, j int) bool {
		return p.Links[i].Position < p.Links[j].Position
	})
	for i := range p.Links {
		if p.Links[i].ID == uuid.Nil {
			p.Links[i].ID = uuid.New()
		}
		p.Links[i].PuklaID = p.ID
		p.Links[i].Position = i
	}
}

// Validate checks field constraints and the theme
func (p *Pukla) Validate() error {
	if _, ok := FindTheme(p.ThemeID); !ok {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "theme_id", Message: "Unknown theme"})
	}
	if p.Slug == "" {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "slug", Message: "This field is required"})
	}
	return shared.ValidateStruct(p)
}

// PrepareDuplicate gives the copy a distinct slug and keeps it private
func (p *Pukla) PrepareDuplicate() {
	p.Title = p.Title + " (copy)"
	p.Slug = p.Slug + "-copy"
	p.IsPublic = false
}

// Preloads returns the associations loaded with a pukla
func (Pukla) Preloads() []string {
	return []string{"Links"}
}

// SearchFields returns the columns covered by free-text search
func (Pukla) SearchFields() []string {
	return []string{"title", "slug", "bio"}
}

// EnabledLinks returns the enabled links in position order
func (p *Pukla) EnabledLinks() []Link {
	out := make([]Link, 0, len(p.Links))
	for _, l := range p.Links {
		if l.IsEnabled {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// ShareURL returns the public address of the page under appURL
func (p *Pukla) ShareURL(appURL string) string {
	return strings.TrimRight(appURL, "/") + "/p/" + p.Slug
}

// PublicPage is the read model served to anonymous visitors
type PublicPage struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
	Theme     Theme  `json:"theme"`
	Links     []Link `json:"links"`
	ShareURL  string `json:"share_url"`
}

// Public builds the anonymous view of the page
func (p *Pukla) Public(appURL string) PublicPage {
	theme, ok := FindTheme(p.ThemeID)
	if !ok {
		theme, _ = FindTheme(DefaultThemeID)
	}
	return PublicPage{
		Title:     p.Title,
		Slug:      p.Slug,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		Theme:     theme,
		Links:     p.EnabledLinks(),
		ShareURL:  p.ShareURL(appURL),
	}
}

// ScopeColumn partitions pages by owner
func (Pukla) ScopeColumn() shared.ScopeColumn {
	return shared.ScopeByUser
}
