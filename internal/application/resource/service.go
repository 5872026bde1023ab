// Package resource implements the generic CRUD operations shared by every
// tenant-scoped entity: list, get, create, partial update, delete, bulk
// delete and duplicate.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Model is satisfied by a pointer to an entity managed as a resource
type Model[T any] interface {
	*T
	shared.Resource
}

// Operation identifies the write a hook runs for
type Operation string

const (
	OpCreate    Operation = "create"
	OpUpdate    Operation = "update"
	OpDuplicate Operation = "duplicate"
)

// Hook runs after normalisation and before validation of a write. Returning
// an error aborts the write.
type Hook[T any] func(ctx context.Context, scope shared.Scope, entity *T, op Operation) error

// Option configures a Service
type Option[T any] func(*options[T])

type options[T any] struct {
	beforeSave []Hook[T]
}

// WithBeforeSave adds a hook run before every create, update and duplicate
func WithBeforeSave[T any](hook Hook[T]) Option[T] {
	return func(o *options[T]) {
		o.beforeSave = append(o.beforeSave, hook)
	}
}

// Service handles the resource operations of one entity type
type Service[T any, PT Model[T]] struct {
	name   string
	repo   shared.ResourceRepository[T]
	logger *zap.Logger
	hooks  []Hook[T]
}

// NewService creates a new resource Service. name is the plural resource name
// used in URLs and logs, e.g. "clients".
func NewService[T any, PT Model[T]](name string, repo shared.ResourceRepository[T], log *zap.Logger, opts ...Option[T]) *Service[T, PT] {
	o := &options[T]{}
	for _, opt := range opts {
		opt(o)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service[T, PT]{
		name:   name,
		repo:   repo,
		logger: log.With(zap.String("resource", name)),
		hooks:  o.beforeSave,
	}
}

// Name returns the resource name
func (s *Service[T, PT]) Name() string {
	return s.name
}

// List returns one page of the scope's records
func (s *Service[T, PT]) List(ctx context.Context, scope shared.Scope, filter shared.Filter) (shared.Paginated[T], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	items, total, err := s.repo.FindAll(ctx, scope, filter)
	if err != nil {
		return shared.Paginated[T]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Get returns one record of the scope with its relations
func (s *Service[T, PT]) Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (*T, error) {
	return s.repo.FindByID(ctx, scope, id)
}

// Create decodes body into a new record owned by scope. Ids, owners and
// timestamps in the body are ignored.
func (s *Service[T, PT]) Create(ctx context.Context, scope shared.Scope, body []byte) (*T, error) {
	keys, err := decodeKeys(body)
	if err != nil {
		return nil, err
	}
	fields := s.repo.Fields()
	var unknown []string
	for key := range keys {
		if _, ok := fields.Columns[key]; !ok && !fields.Children[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return nil, fieldsError("Unknown field", unknown)
	}

	entity := new(T)
	if err := decodeInto(body, entity); err != nil {
		return nil, err
	}
	PT(entity).AssignIdentity(scope)

	if err := s.prepare(ctx, scope, entity, OpCreate); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Resource created",
		zap.String("id", PT(entity).GetID().String()))
	return s.repo.FindByID(ctx, scope, PT(entity).GetID())
}

// Update applies a partial update. Only the keys present in body are
// changed; a child collection key replaces the whole collection. Unknown
// and read-only keys are rejected.
func (s *Service[T, PT]) Update(ctx context.Context, scope shared.Scope, id uuid.UUID, body []byte) (*T, error) {
	keys, err := decodeKeys(body)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No fields to update")
	}

	fields := s.repo.Fields()
	var rejected []string
	names := make([]string, 0, len(keys))
	for key := range keys {
		if !fields.Writable[key] {
			rejected = append(rejected, key)
			continue
		}
		names = append(names, key)
	}
	if len(rejected) > 0 {
		return nil, fieldsError("Unknown or read-only field", rejected)
	}
	sort.Strings(names)

	entity, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if fields.Children[name] {
			clearJSONField(reflect.ValueOf(entity).Elem(), name)
		}
	}
	if err := decodeInto(body, entity); err != nil {
		return nil, err
	}

	if err := s.prepare(ctx, scope, entity, OpUpdate); err != nil {
		return nil, err
	}
	PT(entity).Touch()
	if err := s.repo.Update(ctx, scope, entity, names); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Resource updated",
		zap.String("id", id.String()),
		zap.Strings("fields", names))
	return s.repo.FindByID(ctx, scope, id)
}

// Delete removes one record and its child rows
func (s *Service[T, PT]) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return err
	}
	logger.Enrich(ctx, s.logger).Info("Resource deleted", zap.String("id", id.String()))
	return nil
}

// DeleteMany removes every record in ids, or none of them when one is
// missing from the scope
func (s *Service[T, PT]) DeleteMany(ctx context.Context, scope shared.Scope, ids []uuid.UUID) (int64, error) {
	deleted, err := s.repo.DeleteByIDs(ctx, scope, ids)
	if err != nil {
		return 0, err
	}
	logger.Enrich(ctx, s.logger).Info("Resources deleted", zap.Int64("count", deleted))
	return deleted, nil
}

// Duplicate copies a record, with its child rows, under a new id
func (s *Service[T, PT]) Duplicate(ctx context.Context, scope shared.Scope, id uuid.UUID) (*T, error) {
	source, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if d, ok := any(source).(shared.Duplicable); ok {
		d.PrepareDuplicate()
	}
	PT(source).AssignIdentity(scope)

	if err := s.prepare(ctx, scope, source, OpDuplicate); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, source); err != nil {
		return nil, err
	}

	copyID := PT(source).GetID()
	logger.Enrich(ctx, s.logger).Info("Resource duplicated",
		zap.String("source_id", id.String()),
		zap.String("id", copyID.String()))
	return s.repo.FindByID(ctx, scope, copyID)
}

func (s *Service[T, PT]) prepare(ctx context.Context, scope shared.Scope, entity *T, op Operation) error {
	if n, ok := any(entity).(shared.Normalizer); ok {
		n.Normalize()
	}
	for _, hook := range s.hooks {
		if err := hook(ctx, scope, entity, op); err != nil {
			return err
		}
	}
	return PT(entity).Validate()
}

// decodeKeys returns the top-level keys of a JSON object body
func decodeKeys(body []byte) (map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Request body is required")
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil || keys == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Request body must be a JSON object")
	}
	return keys, nil
}

// decodeInto merges body into entity and reports type mismatches per field
func decodeInto(body []byte, entity any) error {
	err := json.Unmarshal(body, entity)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return shared.NewValidationError("Validation failed", shared.FieldProblem{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Must be a %s", typeErr.Type.String()),
		})
	}
	return shared.NewDomainError("INVALID_INPUT", "Invalid request body: "+err.Error())
}

func fieldsError(message string, names []string) error {
	sort.Strings(names)
	details := make([]shared.FieldProblem, 0, len(names))
	for _, n := range names {
		details = append(details, shared.FieldProblem{Field: n, Message: message})
	}
	return shared.NewValidationError(message+": "+strings.Join(names, ", "), details...)
}

// clearJSONField zeroes the struct field serialised as name, looking
// through embedded structs. Decoding a JSON array into a non-empty slice
// would otherwise merge into the old elements.
func clearJSONField(v reflect.Value, name string) bool {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if clearJSONField(v.Field(i), name) {
				return true
			}
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name || (tag == "" && f.Name == name) {
			v.Field(i).Set(reflect.Zero(f.Type))
			return true
		}
	}
	return false
}
