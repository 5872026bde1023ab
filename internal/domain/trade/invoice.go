package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/partner"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is a bill issued to a client
type Invoice struct {
	shared.OwnedEntity
	InvoiceNumber string          `gorm:"type:varchar(50);not null;index" json:"invoice_number" validate:"required,max=50"`
	ClientID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client        *partner.Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	IssueDate     time.Time       `gorm:"not null" json:"issue_date" validate:"required"`
	DueDate       time.Time       `gorm:"not null" json:"due_date" validate:"required,gtefield=IssueDate"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null" json:"status" validate:"oneof=draft sent paid overdue cancelled"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate" validate:"gte=0,lte=100"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	Total         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items" validate:"dive"`
}

// InvoiceItem is a line of an invoice
type InvoiceItem struct {
	LineItem
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// AssignIdentity gives the invoice and its items fresh ids
func (i *Invoice) AssignIdentity(scope shared.Scope) {
	i.OwnedEntity.AssignIdentity(scope)
	i.rekeyItems()
}

// Normalize fills defaults and recomputes line amounts and totals
func (i *Invoice) Normalize() {
	i.InvoiceNumber = strings.TrimSpace(i.InvoiceNumber)
	if i.Status == "" {
		i.Status = InvoiceStatusDraft
	}
	for k := range i.Items {
		if i.Items[k].ID == uuid.Nil {
			rekey(&i.Items[k].LineItem)
		}
		i.Items[k].InvoiceID = i.ID
	}
	totals := i.totals()
	i.Subtotal, i.TaxAmount, i.Total = totals.Subtotal, totals.TaxAmount, totals.Total
}

// Validate checks field constraints
func (i *Invoice) Validate() error {
	if i.ClientID == uuid.Nil {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "client_id", Message: "This field is required"})
	}
	return shared.ValidateStruct(i)
}

// DerivedFields returns the totals recomputed by Normalize
func (Invoice) DerivedFields() []string {
	return []string{"subtotal", "tax_amount", "total"}
}

// PrepareDuplicate resets the copy to a draft with a marked number
func (i *Invoice) PrepareDuplicate() {
	i.InvoiceNumber = i.InvoiceNumber + "-COPY"
	i.Status = InvoiceStatusDraft
	i.Client = nil
}

// Preloads returns the associations loaded with an invoice
func (Invoice) Preloads() []string {
	return []string{"Client", "Items"}
}

// SearchFields returns the columns covered by free-text search
func (Invoice) SearchFields() []string {
	return []string{"invoice_number", "notes"}
}

func (i *Invoice) rekeyItems() {
	for k := range i.Items {
		rekey(&i.Items[k].LineItem)
		i.Items[k].InvoiceID = i.ID
	}
}

// totals keeps a manually entered subtotal when the invoice has no items
func (i *Invoice) totals() Totals {
	if len(i.Items) == 0 {
		tax := i.Subtotal.Mul(i.TaxRate).Div(hundred).Round(2)
		return Totals{Subtotal: i.Subtotal, TaxAmount: tax, Total: i.Subtotal.Add(tax)}
	}
	lines := make([]*LineItem, len(i.Items))
	for k := range i.Items {
		lines[k] = &i.Items[k].LineItem
	}
	return computeTotals(lines, i.TaxRate)
}

// References returns the client the invoice is billed to
func (i *Invoice) References() []shared.Reference {
	return []shared.Reference{{Field: "client_id", Table: partner.Client{}.TableName(), IDs: []uuid.UUID{i.ClientID}}}
}
