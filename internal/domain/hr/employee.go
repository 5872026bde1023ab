package hr

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// EmployeeStatus represents the employment state of an employee
type EmployeeStatus string

const (
	EmployeeStatusActive     EmployeeStatus = "active"
	EmployeeStatusInactive   EmployeeStatus = "inactive"
	EmployeeStatusOnLeave    EmployeeStatus = "on_leave"
	EmployeeStatusTerminated EmployeeStatus = "terminated"
)

// Employee is a person employed by the enterprise
type Employee struct {
	shared.OwnedEntity
	FirstName    string          `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,max=100"`
	LastName     string          `gorm:"type:varchar(100);not null" json:"last_name" validate:"required,max=100"`
	Email        string          `gorm:"type:varchar(200);index" json:"email" validate:"required,email,max=200"`
	Phone        string          `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	Position     string          `gorm:"type:varchar(100)" json:"position" validate:"max=100"`
	DepartmentID *uuid.UUID      `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department     `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	HireDate     *time.Time      `json:"hire_date"`
	Salary       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"salary" validate:"gte=0"`
	Status       EmployeeStatus  `gorm:"type:varchar(20);not null" json:"status" validate:"oneof=active inactive on_leave terminated"`
	Notes        string          `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Employee) TableName() string {
	return "employees"
}

// Normalize fills defaults
func (e *Employee) Normalize() {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	if e.Status == "" {
		e.Status = EmployeeStatusActive
	}
}

// Validate checks field constraints
func (e *Employee) Validate() error {
	return shared.ValidateStruct(e)
}

// FullName returns first and last name
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Preloads returns the associations loaded with an employee
func (Employee) Preloads() []string {
	return []string{"Department"}
}

// SearchFields returns the columns covered by free-text search
func (Employee) SearchFields() []string {
	return []string{"first_name", "last_name", "email", "position"}
}

// References returns the employee's department, if any
func (e *Employee) References() []shared.Reference {
	if e.DepartmentID == nil {
		return nil
	}
	return []shared.Reference{{Field: "department_id", Table: Department{}.TableName(), IDs: []uuid.UUID{*e.DepartmentID}}}
}
