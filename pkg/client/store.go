package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sikka-software/Tanad-sub009/pkg/listing"
)

// Service is the remote side of a Store. *Resource satisfies it.
type Service[T any] interface {
	List(ctx context.Context, opts ListOptions) (*Page[T], error)
	Create(ctx context.Context, body any) (*T, error)
	Update(ctx context.Context, id string, patch map[string]any) (*T, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	Duplicate(ctx context.Context, id string) (*T, error)
}

// Dialog names the dialogs a resource page opens
type Dialog string

const (
	DialogCreate Dialog = "create"
	DialogEdit   Dialog = "edit"
	DialogDelete Dialog = "delete"
)

// FetchPageSize is the page size Fetch asks for
const FetchPageSize = 100

// CellError is returned by EditCell when a value fails its column rule
type CellError struct {
	Row     string
	Column  string
	Message string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("%s: %s", e.Column, e.Message)
}

// StoreConfig configures a Store
type StoreConfig[T any] struct {
	Service Service[T]
	// Accessor reads fields by name. Defaults to the json field names of T.
	Accessor listing.Accessor[T]
	// Columns maps an editable column to its validator tag, e.g.
	// "email": "omitempty,email". Columns missing here cannot be edited.
	Columns map[string]string
	// SearchFields are the columns the search term is matched against
	SearchFields []string
}

// Store holds the local state of one resource list: the records, the
// loading and error state, the selection, the list rules and the open
// dialogs. Mutations call the service, then patch the local records.
// A Store is safe for concurrent use.
type Store[T any] struct {
	svc      Service[T]
	get      listing.Accessor[T]
	columns  map[string]string
	search   []string
	validate *validator.Validate

	mu            sync.RWMutex
	data          []T
	loading       bool
	err           string
	selected      map[string]bool
	sorts         []listing.SortRule
	filters       []listing.FilterCondition
	query         string
	caseSensitive bool
	dialogs       map[Dialog]bool
}

// NewStore creates an empty Store
func NewStore[T any](cfg StoreConfig[T]) *Store[T] {
	get := cfg.Accessor
	if get == nil {
		get = listing.FieldAccessor[T]()
	}
	return &Store[T]{
		svc:      cfg.Service,
		get:      get,
		columns:  cfg.Columns,
		search:   cfg.SearchFields,
		validate: validator.New(),
		selected: make(map[string]bool),
		dialogs:  make(map[Dialog]bool),
	}
}

func (s *Store[T]) idOf(item T) string {
	v, ok := s.get(item, "id")
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// begin marks a request in flight
func (s *Store[T]) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

// end records the outcome of a request. patch runs under the lock when err
// is nil.
func (s *Store[T]) end(err error, patch func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = errorMessage(err)
		return err
	}
	if patch != nil {
		patch()
	}
	return nil
}

func errorMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Fetch replaces the local records with every record of the resource
func (s *Store[T]) Fetch(ctx context.Context) error {
	s.begin()
	var all []T
	var err error
	for page := 1; ; page++ {
		var p *Page[T]
		p, err = s.svc.List(ctx, ListOptions{Page: page, PageSize: FetchPageSize})
		if err != nil {
			break
		}
		all = append(all, p.Items...)
		if page >= p.Meta.TotalPages || len(p.Items) == 0 {
			break
		}
	}
	return s.end(err, func() {
		s.data = all
		for id := range s.selected {
			if !s.containsLocked(id) {
				delete(s.selected, id)
			}
		}
	})
}

func (s *Store[T]) containsLocked(id string) bool {
	return slices.ContainsFunc(s.data, func(item T) bool { return s.idOf(item) == id })
}

// Create creates a record and appends it
func (s *Store[T]) Create(ctx context.Context, body any) (*T, error) {
	s.begin()
	item, err := s.svc.Create(ctx, body)
	err = s.end(err, func() {
		s.data = append(s.data, *item)
	})
	return item, err
}

// Update changes a record and replaces the local copy
func (s *Store[T]) Update(ctx context.Context, id string, patch map[string]any) (*T, error) {
	s.begin()
	item, err := s.svc.Update(ctx, id, patch)
	err = s.end(err, func() {
		for i := range s.data {
			if s.idOf(s.data[i]) == id {
				s.data[i] = *item
				return
			}
		}
	})
	return item, err
}

// Delete removes a record
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	s.begin()
	err := s.svc.Delete(ctx, id)
	return s.end(err, func() {
		s.removeLocked(map[string]bool{id: true})
	})
}

// DeleteSelected removes every selected record and clears the selection
func (s *Store[T]) DeleteSelected(ctx context.Context) (int64, error) {
	ids := s.SelectedIDs()
	if len(ids) == 0 {
		return 0, nil
	}
	return s.BulkDelete(ctx, ids)
}

// BulkDelete removes every record in ids, or none of them
func (s *Store[T]) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	s.begin()
	n, err := s.svc.DeleteMany(ctx, ids)
	err = s.end(err, func() {
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		s.removeLocked(set)
	})
	return n, err
}

func (s *Store[T]) removeLocked(ids map[string]bool) {
	s.data = slices.DeleteFunc(s.data, func(item T) bool { return ids[s.idOf(item)] })
	for id := range ids {
		delete(s.selected, id)
	}
}

// Duplicate copies a record and appends the copy
func (s *Store[T]) Duplicate(ctx context.Context, id string) (*T, error) {
	s.begin()
	item, err := s.svc.Duplicate(ctx, id)
	err = s.end(err, func() {
		s.data = append(s.data, *item)
	})
	return item, err
}

// EditCell validates value against the column's rule and saves it. An
// invalid value is reported as a *CellError without calling the service.
func (s *Store[T]) EditCell(ctx context.Context, rowID, column string, value any) (*T, error) {
	rule, ok := s.columns[column]
	if !ok {
		return nil, &CellError{Row: rowID, Column: column, Message: "column is not editable"}
	}
	if rule != "" {
		if err := s.validate.Var(value, rule); err != nil {
			return nil, &CellError{Row: rowID, Column: column, Message: cellMessage(err)}
		}
	}
	return s.Update(ctx, rowID, map[string]any{column: value})
}

func cellMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
	return err.Error()
}

// Data returns a copy of the local records
func (s *Store[T]) Data() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data)
}

// Loading reports whether a request is in flight
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the message of the last failed request, or ""
func (s *Store[T]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Query returns the current list rules
func (s *Store[T]) Query() listing.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLocked()
}

func (s *Store[T]) queryLocked() listing.Query {
	return listing.Query{
		Sorts:         slices.Clone(s.sorts),
		Filters:       slices.Clone(s.filters),
		Search:        s.query,
		SearchFields:  s.search,
		CaseSensitive: s.caseSensitive,
	}
}

// FilteredData returns the records matching the filter conditions and the
// search term, in local order
func (s *Store[T]) FilteredData() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listing.Filter(s.data, s.queryLocked(), s.get)
}

// SortedData returns FilteredData ordered by the sort rules
func (s *Store[T]) SortedData() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listing.Apply(s.data, s.queryLocked(), s.get)
}

// SetSortRules replaces the sort rules
func (s *Store[T]) SetSortRules(rules []listing.SortRule) {
	s.mu.Lock()
	s.sorts = slices.Clone(rules)
	s.mu.Unlock()
}

// SetFilterConditions replaces the filter conditions
func (s *Store[T]) SetFilterConditions(conds []listing.FilterCondition) {
	s.mu.Lock()
	s.filters = slices.Clone(conds)
	s.mu.Unlock()
}

// SetSearchQuery sets the search term
func (s *Store[T]) SetSearchQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

// SetCaseSensitive sets whether search, filters and sorting match case
func (s *Store[T]) SetCaseSensitive(v bool) {
	s.mu.Lock()
	s.caseSensitive = v
	s.mu.Unlock()
}

// ToggleSelect flips the selection of a row
func (s *Store[T]) ToggleSelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[id] {
		delete(s.selected, id)
		return
	}
	s.selected[id] = true
}

// SelectAll selects every row of FilteredData
func (s *Store[T]) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range listing.Filter(s.data, s.queryLocked(), s.get) {
		s.selected[s.idOf(item)] = true
	}
}

// ClearSelection deselects every row
func (s *Store[T]) ClearSelection() {
	s.mu.Lock()
	clear(s.selected)
	s.mu.Unlock()
}

// SelectedIDs returns the selected ids in local order
func (s *Store[T]) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.selected))
	for _, item := range s.data {
		if id := s.idOf(item); s.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetDialog opens or closes a dialog
func (s *Store[T]) SetDialog(d Dialog, open bool) {
	s.mu.Lock()
	s.dialogs[d] = open
	s.mu.Unlock()
}

// DialogOpen reports whether a dialog is open
func (s *Store[T]) DialogOpen(d Dialog) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dialogs[d]
}
