package facility

import (
	"strings"

	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// Office is an administrative site of the enterprise
type Office struct {
	shared.OwnedEntity
	Code     string `gorm:"type:varchar(50);not null" json:"code"`
	Name     string `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Address  string `gorm:"type:text" json:"address"`
	City     string `gorm:"type:varchar(100)" json:"city" validate:"max=100"`
	Phone    string `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	Email    string `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

// TableName returns the table name for GORM
func (Office) TableName() string {
	return "offices"
}

// Normalize fills defaults
func (o *Office) Normalize() {
	o.Code = strings.ToUpper(strings.TrimSpace(o.Code))
	o.Name = strings.TrimSpace(o.Name)
}

// Validate checks field constraints
func (o *Office) Validate() error {
	if err := validateSiteCode("code", o.Code); err != nil {
		return err
	}
	return shared.ValidateStruct(o)
}

// PrepareDuplicate gives the copy a distinct code
func (o *Office) PrepareDuplicate() {
	o.Code = copyCode(o.Code)
	o.Name = o.Name + " (copy)"
}

// SearchFields returns the columns covered by free-text search
func (Office) SearchFields() []string {
	return []string{"code", "name", "city"}
}
