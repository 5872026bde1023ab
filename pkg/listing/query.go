// Package listing implements the sort, filter and search rules shared by list
// endpoints and client-side stores.
//
// A Query is evaluated in memory with Filter, Sort and Apply, or translated to
// SQL by the persistence layer. Both paths use the same operator set so a list
// fetched from the server and re-filtered locally stays consistent.
package listing

import (
	"errors"
	"fmt"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// Operator is a filter comparison operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

var operators = map[Operator]struct{}{
	OpEquals:      {},
	OpNotEquals:   {},
	OpContains:    {},
	OpNotContains: {},
	OpStartsWith:  {},
	OpEndsWith:    {},
	OpGreaterThan: {},
	OpLessThan:    {},
	OpIsEmpty:     {},
	OpIsNotEmpty:  {},
}

// IsValid reports whether o is a known operator.
func (o Operator) IsValid() bool {
	_, ok := operators[o]
	return ok
}

// NeedsValue reports whether the operator compares against a literal.
func (o Operator) NeedsValue() bool {
	return o != OpIsEmpty && o != OpIsNotEmpty
}

// SortRule orders rows by one field.
type SortRule struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// FilterCondition restricts rows to those whose field satisfies the operator.
type FilterCondition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
}

// Query is the full set of list rules. Conditions are combined with AND; the
// search term matches when any search field contains it.
type Query struct {
	Sorts         []SortRule        `json:"sorts,omitempty"`
	Filters       []FilterCondition `json:"filters,omitempty"`
	Search        string            `json:"search,omitempty"`
	SearchFields  []string          `json:"search_fields,omitempty"`
	CaseSensitive bool              `json:"case_sensitive,omitempty"`
}

// ErrUnknownField is returned by Validate for a field outside the allowed set.
var ErrUnknownField = errors.New("listing: unknown field")

// ErrUnknownOperator is returned for an operator outside the supported set.
var ErrUnknownOperator = errors.New("listing: unknown operator")

// IsEmpty reports whether the query neither filters nor sorts.
func (q Query) IsEmpty() bool {
	return len(q.Sorts) == 0 && len(q.Filters) == 0 && q.Search == ""
}

// Validate checks every referenced field against allowed and every operator
// and direction against the supported sets.
func (q Query) Validate(allowed func(field string) bool) error {
	for _, s := range q.Sorts {
		if !allowed(s.Field) {
			return fmt.Errorf("%w: %q", ErrUnknownField, s.Field)
		}
		if !s.Direction.IsValid() {
			return fmt.Errorf("listing: invalid sort direction %q", s.Direction)
		}
	}
	for _, f := range q.Filters {
		if !allowed(f.Field) {
			return fmt.Errorf("%w: %q", ErrUnknownField, f.Field)
		}
		if !f.Operator.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownOperator, f.Operator)
		}
	}
	for _, field := range q.SearchFields {
		if !allowed(field) {
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	return nil
}
