package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/partner"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// QuoteStatus represents the lifecycle state of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// Quote is a priced offer sent to a client
type Quote struct {
	shared.OwnedEntity
	QuoteNumber string          `gorm:"type:varchar(50);not null;index" json:"quote_number" validate:"required,max=50"`
	ClientID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client      *partner.Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	IssueDate   time.Time       `gorm:"not null" json:"issue_date" validate:"required"`
	ExpiryDate  time.Time       `gorm:"not null" json:"expiry_date" validate:"required,gtefield=IssueDate"`
	Status      QuoteStatus     `gorm:"type:varchar(20);not null" json:"status" validate:"oneof=draft sent accepted rejected expired"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate" validate:"gte=0,lte=100"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	Notes       string          `gorm:"type:text" json:"notes"`
	Items       []QuoteItem     `gorm:"foreignKey:QuoteID" json:"items" validate:"dive"`
}

// QuoteItem is a line of a quote
type QuoteItem struct {
	LineItem
	QuoteID uuid.UUID `gorm:"type:uuid;not null;index" json:"quote_id"`
}

// TableName returns the table name for GORM
func (QuoteItem) TableName() string {
	return "quote_items"
}

// TableName returns the table name for GORM
func (Quote) TableName() string {
	return "quotes"
}

// AssignIdentity gives the quote and its items fresh ids
func (q *Quote) AssignIdentity(scope shared.Scope) {
	q.OwnedEntity.AssignIdentity(scope)
	for k := range q.Items {
		rekey(&q.Items[k].LineItem)
		q.Items[k].QuoteID = q.ID
	}
}

// Normalize fills defaults and recomputes line amounts and totals
func (q *Quote) Normalize() {
	q.QuoteNumber = strings.TrimSpace(q.QuoteNumber)
	if q.Status == "" {
		q.Status = QuoteStatusDraft
	}
	lines := make([]*LineItem, len(q.Items))
	for k := range q.Items {
		if q.Items[k].ID == uuid.Nil {
			rekey(&q.Items[k].LineItem)
		}
		q.Items[k].QuoteID = q.ID
		lines[k] = &q.Items[k].LineItem
	}
	var totals Totals
	if len(lines) == 0 {
		tax := q.Subtotal.Mul(q.TaxRate).Div(hundred).Round(2)
		totals = Totals{Subtotal: q.Subtotal, TaxAmount: tax, Total: q.Subtotal.Add(tax)}
	} else {
		totals = computeTotals(lines, q.TaxRate)
	}
	q.Subtotal, q.TaxAmount, q.Total = totals.Subtotal, totals.TaxAmount, totals.Total
}

// Validate checks field constraints
func (q *Quote) Validate() error {
	if q.ClientID == uuid.Nil {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "client_id", Message: "This field is required"})
	}
	return shared.ValidateStruct(q)
}

// DerivedFields returns the totals recomputed by Normalize
func (Quote) DerivedFields() []string {
	return []string{"subtotal", "tax_amount", "total"}
}

// PrepareDuplicate resets the copy to a draft with a marked number
func (q *Quote) PrepareDuplicate() {
	q.QuoteNumber = q.QuoteNumber + "-COPY"
	q.Status = QuoteStatusDraft
	q.Client = nil
}

// Preloads returns the associations loaded with a quote
func (Quote) Preloads() []string {
	return []string{"Client", "Items"}
}

// SearchFields returns the columns covered by free-text search
func (Quote) SearchFields() []string {
	return []string{"quote_number", "notes"}
}

// IsExpired reports whether the quote is past its expiry date at now
func (q *Quote) IsExpired(now time.Time) bool {
	return q.Status != QuoteStatusAccepted && now.After(q.ExpiryDate)
}

// References returns the client the quote is addressed to
func (q *Quote) References() []shared.Reference {
	return []shared.Reference{{Field: "client_id", Table: partner.Client{}.TableName(), IDs: []uuid.UUID{q.ClientID}}}
}
