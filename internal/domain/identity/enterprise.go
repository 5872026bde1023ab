package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// Enterprise is a tenant: the business whose records a group of users manage
type Enterprise struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Email     string    `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email"`
	VATNumber string    `gorm:"column:vat_number;type:varchar(20)" json:"vat_number" validate:"omitempty,numeric,len=15"`
	Industry  string    `gorm:"type:varchar(100)" json:"industry" validate:"max=100"`
	Size      string    `gorm:"type:varchar(20)" json:"size" validate:"max=20"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Enterprise) TableName() string {
	return "enterprises"
}

// NewEnterprise creates an enterprise
func NewEnterprise(name, email, vatNumber string) (*Enterprise, error) {
	now := time.Now().UTC()
	e := &Enterprise{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		VATNumber: strings.TrimSpace(vatNumber),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks field constraints. Saudi VAT numbers are 15 digits.
func (e *Enterprise) Validate() error {
	return shared.ValidateStruct(e)
}

// CanIssueTaxInvoices reports whether ZATCA QR codes can be generated
func (e *Enterprise) CanIssueTaxInvoices() bool {
	return e.VATNumber != ""
}
