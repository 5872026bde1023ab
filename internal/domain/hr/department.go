package hr

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/facility"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// LocationType is the kind of site a department is attached to
type LocationType string

const (
	LocationTypeOffice    LocationType = "office"
	LocationTypeBranch    LocationType = "branch"
	LocationTypeWarehouse LocationType = "warehouse"
)

// Department groups employees and is attached to one or more sites.
// Its locations live in department_locations and are written and deleted
// together with the department.
type Department struct {
	shared.OwnedEntity
	Name        string               `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	Description string               `gorm:"type:text" json:"description"`
	IsActive    bool                 `gorm:"not null" json:"is_active"`
	Locations   []DepartmentLocation `gorm:"foreignKey:DepartmentID" json:"locations" validate:"dive"`
}

// DepartmentLocation links a department to an office, branch or warehouse
type DepartmentLocation struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	DepartmentID uuid.UUID    `gorm:"type:uuid;not null;index" json:"department_id"`
	LocationType LocationType `gorm:"type:varchar(20);not null" json:"location_type" validate:"oneof=office branch warehouse"`
	LocationID   uuid.UUID    `gorm:"type:uuid;not null" json:"location_id"`
}

// TableName returns the table name for GORM
func (DepartmentLocation) TableName() string {
	return "department_locations"
}

// TableName returns the table name for GORM
func (Department) TableName() string {
	return "departments"
}

// AssignIdentity gives the department and its locations fresh ids
func (d *Department) AssignIdentity(scope shared.Scope) {
	d.OwnedEntity.AssignIdentity(scope)
	for i := range d.Locations {
		d.Locations[i].ID = uuid.New()
		d.Locations[i].DepartmentID = d.ID
	}
}

// Normalize links locations to the department
func (d *Department) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	for i := range d.Locations {
		if d.Locations[i].ID == uuid.Nil {
			d.Locations[i].ID = uuid.New()
		}
		d.Locations[i].DepartmentID = d.ID
	}
}

// Validate checks field constraints and rejects a site listed twice
func (d *Department) Validate() error {
	seen := make(map[uuid.UUID]bool, len(d.Locations))
	for _, loc := range d.Locations {
		if loc.LocationID == uuid.Nil {
			return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "locations", Message: "location_id is required"})
		}
		if seen[loc.LocationID] {
			return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "locations", Message: "Location listed more than once"})
		}
		seen[loc.LocationID] = true
	}
	return shared.ValidateStruct(d)
}

// PrepareDuplicate marks the copy's name
func (d *Department) PrepareDuplicate() {
	d.Name = d.Name + " (copy)"
}

// Preloads returns the associations loaded with a department
func (Department) Preloads() []string {
	return []string{"Locations"}
}

// SearchFields returns the columns covered by free-text search
func (Department) SearchFields() []string {
	return []string{"name", "description"}
}

// References returns the department's sites grouped by table
func (d *Department) References() []shared.Reference {
	tables := map[LocationType]string{
		LocationTypeOffice:    facility.Office{}.TableName(),
		LocationTypeBranch:    facility.Branch{}.TableName(),
		LocationTypeWarehouse: facility.Warehouse{}.TableName(),
	}
	byType := make(map[LocationType][]uuid.UUID)
	for _, loc := range d.Locations {
		byType[loc.LocationType] = append(byType[loc.LocationType], loc.LocationID)
	}
	refs := make([]shared.Reference, 0, len(byType))
	for _, t := range []LocationType{LocationTypeOffice, LocationTypeBranch, LocationTypeWarehouse} {
		if ids := byType[t]; len(ids) > 0 {
			refs = append(refs, shared.Reference{Field: "locations", Table: tables[t], IDs: ids})
		}
	}
	return refs
}
