package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/pukla"
	"gorm.io/gorm"
)

// GormPuklaRepository implements pukla.PuklaRepository using GORM
type GormPuklaRepository struct {
	db *gorm.DB
}

// NewGormPuklaRepository creates a new GormPuklaRepository
func NewGormPuklaRepository(db *gorm.DB) *GormPuklaRepository {
	return &GormPuklaRepository{db: db}
}

// FindPublicBySlug returns a public page with its links in position order
func (r *GormPuklaRepository) FindPublicBySlug(ctx context.Context, slug string) (*pukla.Pukla, error) {
	var page pukla.Pukla
	err := r.db.WithContext(ctx).
		Preload("Links", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("slug = ? AND is_public = ?", slug, true).
		First(&page).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &page, nil
}

// SlugTaken reports whether a page other than exceptID uses slug. Slugs are
// unique across all users since they form the public URL.
func (r *GormPuklaRepository) SlugTaken(ctx context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&pukla.Pukla{}).Where("slug = ?", slug)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, TranslateError(err)
	}
	return count > 0, nil
}

// SetAvatarURL stores the avatar of a page owned by userID
func (r *GormPuklaRepository) SetAvatarURL(ctx context.Context, userID, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).Model(&pukla.Pukla{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"avatar_url": url, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return TranslateError(gorm.ErrRecordNotFound)
	}
	return nil
}
