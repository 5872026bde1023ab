package facility

import (
	"strings"

	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// Branch is a customer-facing site of the enterprise
type Branch struct {
	shared.OwnedEntity
	Code     string `gorm:"type:varchar(50);not null" json:"code"`
	Name     string `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Address  string `gorm:"type:text" json:"address"`
	City     string `gorm:"type:varchar(100)" json:"city" validate:"max=100"`
	Manager  string `gorm:"type:varchar(100)" json:"manager" validate:"max=100"`
	Phone    string `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	Email    string `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email"`
	IsActive bool   `gorm:"not null" json:"is_active"`
	Notes    string `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Branch) TableName() string {
	return "branches"
}

// Normalize fills defaults
func (b *Branch) Normalize() {
	b.Code = strings.ToUpper(strings.TrimSpace(b.Code))
	b.Name = strings.TrimSpace(b.Name)
}

// Validate checks field constraints
func (b *Branch) Validate() error {
	if err := validateSiteCode("code", b.Code); err != nil {
		return err
	}
	return shared.ValidateStruct(b)
}

// PrepareDuplicate gives the copy a distinct code
func (b *Branch) PrepareDuplicate() {
	b.Code = copyCode(b.Code)
	b.Name = b.Name + " (copy)"
}

// SearchFields returns the columns covered by free-text search
func (Branch) SearchFields() []string {
	return []string{"code", "name", "city", "manager"}
}

// Validation functions

func validateSiteCode(field, code string) error {
	if code == "" {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: field, Message: "This field is required"})
	}
	if len(code) > 50 {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: field, Message: "Must be at most 50"})
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError("Validation failed", shared.FieldProblem{
				Field:   field,
				Message: "Can only contain letters, numbers, underscores, and hyphens",
			})
		}
	}
	return nil
}

// copyCode derives a code for a duplicated site, staying within 50 characters
func copyCode(code string) string {
	const suffix = "-COPY"
	if len(code)+len(suffix) > 50 {
		code = code[:50-len(suffix)]
	}
	return code + suffix
}
