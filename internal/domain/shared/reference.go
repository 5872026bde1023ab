package shared

import (
	"context"

	"github.com/google/uuid"
)

// Reference is a set of ids a resource points at in another enterprise table
type Reference struct {
	// Field is the json field reported when an id is not found
	Field string
	Table string
	IDs   []uuid.UUID
}

// Referrer is implemented by resources holding ids of other enterprise
// records. Every id must belong to the writer's enterprise.
type Referrer interface {
	References() []Reference
}

// ReferenceChecker looks up referenced ids within an enterprise
type ReferenceChecker interface {
	// Missing returns the ids of ref that are not rows of the scope's enterprise
	Missing(ctx context.Context, scope Scope, ref Reference) ([]uuid.UUID, error)
}
