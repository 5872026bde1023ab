package partner

import (
	"strings"

	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// CompanySize is the headcount bracket of a company
type CompanySize string

const (
	CompanySizeSmall  CompanySize = "1-10"
	CompanySizeMedium CompanySize = "11-50"
	CompanySizeLarge  CompanySize = "51-200"
	CompanySizeXLarge CompanySize = "200+"
)

// Company is an organisation the enterprise does business with
type Company struct {
	shared.OwnedEntity
	Name      string      `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Email     string      `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email,max=200"`
	Phone     string      `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	Website   string      `gorm:"type:varchar(255)" json:"website" validate:"omitempty,url,max=255"`
	Industry  string      `gorm:"type:varchar(100)" json:"industry" validate:"max=100"`
	Size      CompanySize `gorm:"type:varchar(20)" json:"size" validate:"omitempty,oneof=1-10 11-50 51-200 200+"`
	TaxNumber string      `gorm:"type:varchar(50)" json:"tax_number" validate:"max=50"`
	Address   string      `gorm:"type:text" json:"address"`
	City      string      `gorm:"type:varchar(100)" json:"city" validate:"max=100"`
	LogoURL   string      `gorm:"type:varchar(500)" json:"logo_url" validate:"omitempty,url"`
	IsActive  bool        `gorm:"not null" json:"is_active"`
	Notes     string      `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// Validate checks field constraints
func (c *Company) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	return shared.ValidateStruct(c)
}

// SearchFields returns the columns covered by free-text search
func (Company) SearchFields() []string {
	return []string{"name", "email", "industry", "city"}
}
