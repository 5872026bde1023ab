package facility

import (
	"strings"

	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// WarehouseType represents the type of warehouse
type WarehouseType string

const (
	WarehouseTypePhysical WarehouseType = "physical" // Physical warehouse
	WarehouseTypeVirtual  WarehouseType = "virtual"  // Virtual/logical warehouse
	WarehouseTypeConsign  WarehouseType = "consign"  // Consignment warehouse
	WarehouseTypeTransit  WarehouseType = "transit"  // Transit/in-transit warehouse
)

// Warehouse is a storage site of the enterprise
type Warehouse struct {
	shared.OwnedEntity
	Code        string        `gorm:"type:varchar(50);not null" json:"code"`
	Name        string        `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Type        WarehouseType `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=physical virtual consign transit"`
	ContactName string        `gorm:"type:varchar(100)" json:"contact_name" validate:"max=100"`
	Phone       string        `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	Email       string        `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email"`
	Address     string        `gorm:"type:text" json:"address"`
	City        string        `gorm:"type:varchar(100)" json:"city" validate:"max=100"`
	Capacity    int           `gorm:"not null" json:"capacity" validate:"gte=0"`
	IsActive    bool          `gorm:"not null" json:"is_active"`
	Notes       string        `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// Normalize fills defaults
func (w *Warehouse) Normalize() {
	w.Code = strings.ToUpper(strings.TrimSpace(w.Code))
	w.Name = strings.TrimSpace(w.Name)
	if w.Type == "" {
		w.Type = WarehouseTypePhysical
	}
}

// Validate checks field constraints
func (w *Warehouse) Validate() error {
	if err := validateSiteCode("code", w.Code); err != nil {
		return err
	}
	return shared.ValidateStruct(w)
}

// PrepareDuplicate gives the copy a distinct code
func (w *Warehouse) PrepareDuplicate() {
	w.Code = copyCode(w.Code)
	w.Name = w.Name + " (copy)"
}

// SearchFields returns the columns covered by free-text search
func (Warehouse) SearchFields() []string {
	return []string{"code", "name", "city"}
}
