package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product represents a product/SKU sold by the enterprise
type Product struct {
	shared.OwnedEntity
	Name          string          `gorm:"type:varchar(200);not null" json:"name" validate:"required,max=200"`
	Description   string          `gorm:"type:text" json:"description"`
	SKU           string          `gorm:"column:sku;type:varchar(50);index" json:"sku" validate:"max=50"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price" validate:"gte=0"`
	Cost          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"cost" validate:"gte=0"`
	StockQuantity int             `gorm:"not null" json:"stock_quantity" validate:"gte=0"`
	Unit          string          `gorm:"type:varchar(20)" json:"unit" validate:"max=20"`
	Status        ProductStatus   `gorm:"type:varchar(20);not null" json:"status" validate:"oneof=active inactive discontinued"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Normalize fills defaults
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	if p.Status == "" {
		p.Status = ProductStatusActive
	}
}

// Validate checks field constraints
func (p *Product) Validate() error {
	return shared.ValidateStruct(p)
}

// PrepareDuplicate clears the SKU, which identifies a single product
func (p *Product) PrepareDuplicate() {
	p.SKU = ""
	p.Name = p.Name + " (copy)"
}

// SearchFields returns the columns covered by free-text search
func (Product) SearchFields() []string {
	return []string{"name", "sku", "description"}
}

