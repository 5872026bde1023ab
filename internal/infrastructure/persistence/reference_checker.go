package persistence

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReferenceChecker implements shared.ReferenceChecker
type GormReferenceChecker struct {
	db *gorm.DB
}

// NewGormReferenceChecker creates a new reference checker
func NewGormReferenceChecker(db *gorm.DB) *GormReferenceChecker {
	return &GormReferenceChecker{db: db}
}

// Missing returns the ids of ref without a row in the scope's enterprise.
// Nil ids are left to validation.
func (c *GormReferenceChecker) Missing(ctx context.Context, scope shared.Scope, ref shared.Reference) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(ref.IDs))
	for _, id := range ref.IDs {
		if id != uuid.Nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var found []uuid.UUID
	err := c.db.WithContext(ctx).Table(ref.Table).
		Where("enterprise_id = ? AND id IN ?", scope.EnterpriseID, ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, TranslateError(err)
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if !slices.Contains(found, id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
