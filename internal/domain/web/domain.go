// Package web holds the internet-facing assets an enterprise manages.
package web

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// PaymentCycle is how often a domain registration is paid
type PaymentCycle string

const (
	PaymentCycleMonthly PaymentCycle = "monthly"
	PaymentCycleAnnual  PaymentCycle = "annual"
)

// DomainStatus is the registration state of a domain
type DomainStatus string

const (
	DomainStatusActive    DomainStatus = "active"
	DomainStatusExpired   DomainStatus = "expired"
	DomainStatusPending   DomainStatus = "pending"
	DomainStatusCancelled DomainStatus = "cancelled"
)

// Domain is an internet domain name registered by the enterprise
type Domain struct {
	shared.OwnedEntity
	DomainName   string          `gorm:"type:varchar(253);not null;index" json:"domain_name" validate:"required,fqdn,max=253"`
	Registrar    string          `gorm:"type:varchar(100)" json:"registrar" validate:"max=100"`
	MonthlyCost  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"monthly_cost" validate:"gte=0"`
	AnnualCost   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"annual_cost" validate:"gte=0"`
	PaymentCycle PaymentCycle    `gorm:"type:varchar(20);not null" json:"payment_cycle" validate:"oneof=monthly annual"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	Status       DomainStatus    `gorm:"type:varchar(20);not null" json:"status" validate:"oneof=active expired pending cancelled"`
	Notes        string          `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Domain) TableName() string {
	return "domains"
}

// Normalize lower-cases the name and fills defaults
func (d *Domain) Normalize() {
	d.DomainName = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d.DomainName)), ".")
	if d.PaymentCycle == "" {
		d.PaymentCycle = PaymentCycleAnnual
	}
	if d.Status == "" {
		d.Status = DomainStatusActive
	}
}

// Validate checks field constraints
func (d *Domain) Validate() error {
	return shared.ValidateStruct(d)
}

// SearchFields returns the columns covered by free-text search
func (Domain) SearchFields() []string {
	return []string{"domain_name", "registrar"}
}

// YearlyCost returns the cost of one year of the registration
func (d *Domain) YearlyCost() decimal.Decimal {
	if d.PaymentCycle == PaymentCycleMonthly {
		return d.MonthlyCost.Mul(decimal.NewFromInt(12))
	}
	return d.AnnualCost
}
