package partner

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// Client is a customer of the enterprise. It may belong to a Company.
type Client struct {
	shared.OwnedEntity
	Name      string     `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Email     string     `gorm:"type:varchar(200);index" json:"email" validate:"omitempty,email,max=200"`
	Phone     string     `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Company   *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Address   string     `gorm:"type:text" json:"address"`
	City      string     `gorm:"type:varchar(100)" json:"city" validate:"max=100"`
	State     string     `gorm:"type:varchar(100)" json:"state" validate:"max=100"`
	ZipCode   string     `gorm:"type:varchar(20)" json:"zip_code" validate:"max=20"`
	Notes     string     `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// Validate checks field constraints
func (c *Client) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	return shared.ValidateStruct(c)
}

// Preloads returns the associations loaded with a client
func (Client) Preloads() []string {
	return []string{"Company"}
}

// SearchFields returns the columns covered by free-text search
func (Client) SearchFields() []string {
	return []string{"name", "email", "phone", "city"}
}
