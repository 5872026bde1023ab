package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnedEntity is the base of every enterprise resource. EnterpriseID is the
// tenant; UserID records the user that created the row.
type OwnedEntity struct {
	BaseEntity
	EnterpriseID uuid.UUID `gorm:"type:uuid;not null;index" json:"enterprise_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
}

// AssignIdentity gives the entity a fresh id, timestamps and owner.
// Any id or owner sent by the client is overwritten.
func (e *OwnedEntity) AssignIdentity(scope Scope) {
	e.BaseEntity = NewBaseEntity()
	e.EnterpriseID = scope.EnterpriseID
	e.UserID = scope.UserID
}

// Touch sets UpdatedAt to now
func (e *OwnedEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// Resource is implemented by every entity managed through the generic
// resource endpoints.
type Resource interface {
	Entity
	TableName() string
	AssignIdentity(scope Scope)
	Touch()
	Validate() error
}

// Duplicable is implemented by resources that need to adjust themselves when
// copied, e.g. to clear unique fields or re-key child rows.
type Duplicable interface {
	PrepareDuplicate()
}

// Normalizer is implemented by resources that fill defaults or derived fields
// (totals, slugs) before validation.
type Normalizer interface {
	Normalize()
}

// Derived lists json fields computed by Normalize. They are written on every
// update, whichever fields the client changed.
type Derived interface {
	DerivedFields() []string
}

// Preloader lists the associations loaded with a resource's detail view.
type Preloader interface {
	Preloads() []string
}

// Searchable lists the columns covered by a free-text search.
type Searchable interface {
	SearchFields() []string
}
