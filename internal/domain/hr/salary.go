package hr

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// Salary is one payroll payment to an employee
type Salary struct {
	shared.OwnedEntity
	EmployeeID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee       *Employee       `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	PayPeriodStart time.Time       `gorm:"type:date;not null" json:"pay_period_start" validate:"required"`
	PayPeriodEnd   time.Time       `gorm:"type:date;not null" json:"pay_period_end" validate:"required,gtefield=PayPeriodStart"`
	PaymentDate    time.Time       `gorm:"type:date;not null" json:"payment_date" validate:"required"`
	GrossAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"gross_amount" validate:"gte=0"`
	Deductions     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"deductions" validate:"gte=0"`
	NetAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"net_amount"`
	Notes          string          `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Salary) TableName() string {
	return "salaries"
}

// Normalize derives the net amount
func (s *Salary) Normalize() {
	s.NetAmount = s.GrossAmount.Sub(s.Deductions)
}

// Validate checks field constraints
func (s *Salary) Validate() error {
	if s.EmployeeID == uuid.Nil {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "employee_id", Message: "This field is required"})
	}
	if s.Deductions.GreaterThan(s.GrossAmount) {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "deductions", Message: "Deductions exceed the gross amount"})
	}
	return shared.ValidateStruct(s)
}

// DerivedFields returns the net amount recomputed by Normalize
func (Salary) DerivedFields() []string {
	return []string{"net_amount"}
}

// Preloads returns the associations loaded with a salary
func (Salary) Preloads() []string {
	return []string{"Employee"}
}

// SearchFields returns the columns covered by free-text search
func (Salary) SearchFields() []string {
	return []string{"notes"}
}

// References returns the salary's employee
func (s *Salary) References() []shared.Reference {
	return []shared.Reference{{Field: "employee_id", Table: Employee{}.TableName(), IDs: []uuid.UUID{s.EmployeeID}}}
}
