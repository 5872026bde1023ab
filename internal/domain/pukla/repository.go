package pukla

import (
	"context"

	"github.com/google/uuid"
)

// PuklaRepository holds the lookups that are not covered by the generic
// resource repository
type PuklaRepository interface {
	// FindPublicBySlug returns a public page with its links
	FindPublicBySlug(ctx context.Context, slug string) (*Pukla, error)
	// SlugTaken reports whether another page already uses slug
	SlugTaken(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error)
	// SetAvatarURL stores the avatar of a page owned by userID
	SetAvatarURL(ctx context.Context, userID, id uuid.UUID, url string) error
}
