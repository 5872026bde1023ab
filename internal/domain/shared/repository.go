package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/pkg/listing"
)

// ScopeColumn names the column a resource is partitioned by
type ScopeColumn string

const (
	ScopeByEnterprise ScopeColumn = "enterprise_id"
	ScopeByUser       ScopeColumn = "user_id"
)

// Scope identifies the caller of a request. Every read and write of a
// resource is restricted to the rows matching the resource's scope column.
type Scope struct {
	EnterpriseID uuid.UUID
	UserID       uuid.UUID
}

// Value returns the scope id matching the column
func (s Scope) Value(column ScopeColumn) uuid.UUID {
	if column == ScopeByUser {
		return s.UserID
	}
	return s.EnterpriseID
}

// Scoped is implemented by resources partitioned by a column other than
// enterprise_id
type Scoped interface {
	ScopeColumn() ScopeColumn
}

// ScopeColumnOf returns the scope column of a resource type
func ScopeColumnOf(resource any) ScopeColumn {
	if s, ok := resource.(Scoped); ok {
		return s.ScopeColumn()
	}
	return ScopeByEnterprise
}

// FieldSet describes the json fields of a resource as seen by clients
type FieldSet struct {
	// Columns maps every json field stored on the resource's table to its column
	Columns map[string]string
	// Writable holds the fields a client may set on create and update
	Writable map[string]bool
	// Children holds has-many relations, written by replacing all rows
	Children map[string]bool
}

// Column returns the column of a json field
func (f FieldSet) Column(field string) (string, bool) {
	col, ok := f.Columns[field]
	return col, ok
}

// ResourceRepository is the persistence contract of the generic resource endpoints
type ResourceRepository[T any] interface {
	FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context, scope Scope, filter Filter) ([]T, int64, error)
	Create(ctx context.Context, entity *T) error
	// Update writes the named json fields of entity. Child relations among
	// fields are replaced in the same transaction.
	Update(ctx context.Context, scope Scope, entity *T, fields []string) error
	Delete(ctx context.Context, scope Scope, id uuid.UUID) error
	// DeleteByIDs deletes every id or none of them
	DeleteByIDs(ctx context.Context, scope Scope, ids []uuid.UUID) (int64, error)
	Fields() FieldSet
}

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	Query    listing.Query
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		Query: listing.Query{
			Sorts: []listing.SortRule{{Field: "created_at", Direction: listing.Desc}},
		},
	}
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
