package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one priced line of an invoice or quote
type LineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid" json:"product_id"`
	Description string          `gorm:"type:varchar(500);not null" json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price" validate:"gte=0"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
}

// Totals are the derived money fields of a priced document
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// computeTotals sets each line's amount and returns the document totals.
// taxRate is a percentage, e.g. 15 for Saudi VAT.
func computeTotals(items []*LineItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		item.Amount = item.Quantity.Mul(item.UnitPrice).Round(2)
		subtotal = subtotal.Add(item.Amount)
	}
	tax := subtotal.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}

func rekey(item *LineItem) {
	item.ID = uuid.New()
}
