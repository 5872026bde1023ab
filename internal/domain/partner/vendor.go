package partner

import (
	"strings"

	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// Vendor is a supplier of goods or services to the enterprise
type Vendor struct {
	shared.OwnedEntity
	Name    string `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Email   string `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email,max=200"`
	Phone   string `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	Company string `gorm:"type:varchar(200)" json:"company" validate:"max=200"`
	Address string `gorm:"type:text" json:"address"`
	City    string `gorm:"type:varchar(100)" json:"city" validate:"max=100"`
	ZipCode string `gorm:"type:varchar(20)" json:"zip_code" validate:"max=20"`
	Notes   string `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return "vendors"
}

// Validate checks field constraints
func (v *Vendor) Validate() error {
	v.Name = strings.TrimSpace(v.Name)
	return shared.ValidateStruct(v)
}

// SearchFields returns the columns covered by free-text search
func (Vendor) SearchFields() []string {
	return []string{"name", "email", "company"}
}
