package persistence

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var schemaCache = &sync.Map{}

// Fields managed by the server, never written from client input
var readOnlyFields = map[string]bool{
	"id":            true,
	"enterprise_id": true,
	"user_id":       true,
	"created_at":    true,
	"updated_at":    true,
}

type columnKind int

const (
	kindText columnKind = iota
	kindNumber
	kindBool
	kindTime
	kindUUID
)

type column struct {
	name     string
	kind     columnKind
	nullable bool
}

// childRelation is a has-many association replaced as a whole on write
type childRelation struct {
	field      string // json name on the parent
	name       string // GORM association name
	foreignKey string // column on the child table
	order      string // position column the rows are loaded by, if any
	model      reflect.Type
}

// GormResourceRepository implements shared.ResourceRepository for any GORM
// model. Columns, child tables and belongs-to relations are read from the
// model's schema, so the same code serves every resource.
type GormResourceRepository[T any] struct {
	db          *gorm.DB
	table       string
	scopeColumn shared.ScopeColumn
	columns     map[string]column
	fields      shared.FieldSet
	children    []childRelation
	belongsTo   []string
	preloads    []string
	search      []string
	derived     []string
}

// NewResourceRepository parses the schema of T and returns its repository
func NewResourceRepository[T any](db *gorm.DB) (*GormResourceRepository[T], error) {
	model := new(T)
	sch, err := schema.Parse(model, schemaCache, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse schema of %T: %w", model, err)
	}

	r := &GormResourceRepository[T]{
		db:          db,
		table:       sch.Table,
		scopeColumn: shared.ScopeColumnOf(*model),
		columns:     make(map[string]column),
		fields: shared.FieldSet{
			Columns:  make(map[string]string),
			Writable: make(map[string]bool),
			Children: make(map[string]bool),
		},
	}
	if d, ok := any(model).(shared.Derived); ok {
		r.derived = d.DerivedFields()
	}
	derived := make(map[string]bool, len(r.derived))
	for _, f := range r.derived {
		derived[f] = true
	}

	for _, field := range sch.Fields {
		name := jsonName(field.Tag, field.Name)
		if field.DBName == "" || name == "" {
			continue
		}
		r.columns[name] = column{
			name:     field.DBName,
			kind:     kindOf(field.IndirectFieldType),
			nullable: isNullable(field.FieldType),
		}
		r.fields.Columns[name] = field.DBName
		if !readOnlyFields[name] && !derived[name] {
			r.fields.Writable[name] = true
		}
	}

	for _, rel := range sch.Relationships.HasMany {
		name := jsonName(rel.Field.Tag, rel.Name)
		if name == "" {
			continue
		}
		var fk string
		for _, ref := range rel.References {
			if ref.OwnPrimaryKey {
				fk = ref.ForeignKey.DBName
			}
		}
		if fk == "" {
			continue
		}
		child := childRelation{
			field:      name,
			name:       rel.Name,
			foreignKey: fk,
			model:      rel.FieldSchema.ModelType,
		}
		if pos := rel.FieldSchema.LookUpField("position"); pos != nil {
			child.order = pos.DBName
		}
		r.children = append(r.children, child)
		r.fields.Writable[name] = true
		r.fields.Children[name] = true
	}
	for _, rel := range sch.Relationships.BelongsTo {
		r.belongsTo = append(r.belongsTo, rel.Name)
	}

	if p, ok := any(model).(shared.Preloader); ok {
		r.preloads = p.Preloads()
	}
	if s, ok := any(model).(shared.Searchable); ok {
		r.search = s.SearchFields()
	}
	return r, nil
}

func jsonName(tag reflect.StructTag, fallback string) string {
	name, _, _ := strings.Cut(tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fallback
	}
	return name
}

func kindOf(t reflect.Type) columnKind {
	switch t {
	case reflect.TypeOf(time.Time{}):
		return kindTime
	case reflect.TypeOf(decimal.Decimal{}):
		return kindNumber
	case reflect.TypeOf(uuid.UUID{}):
		return kindUUID
	}
	switch t.Kind() {
	case reflect.Bool:
		return kindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindNumber
	}
	return kindText
}

// isNullable reports whether a Go field type can hold SQL NULL
func isNullable(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer || t == reflect.TypeOf(decimal.NullDecimal{})
}

// Fields returns the json fields of the resource
func (r *GormResourceRepository[T]) Fields() shared.FieldSet {
	return r.fields
}

// Table returns the table the resource is stored in
func (r *GormResourceRepository[T]) Table() string {
	return r.table
}

func (r *GormResourceRepository[T]) scoped(ctx context.Context, scope shared.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).
		Where(string(r.scopeColumn)+" = ?", scope.Value(r.scopeColumn))
}

// FindByID loads one record of the scope with its preloaded relations
func (r *GormResourceRepository[T]) FindByID(ctx context.Context, scope shared.Scope, id uuid.UUID) (*T, error) {
	var entity T
	q := r.withPreloads(r.scoped(ctx, scope).Where("id = ?", id), scope)
	if err := q.First(&entity).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &entity, nil
}

// FindAll lists one page of the scope's records matching the filter and
// returns the total number of matching records
func (r *GormResourceRepository[T]) FindAll(ctx context.Context, scope shared.Scope, filter shared.Filter) ([]T, int64, error) {
	q, err := r.applyQuery(r.scoped(ctx, scope), filter.Query)
	if err != nil {
		return nil, 0, err
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}

	page := q
	for _, order := range r.orderBy(filter.Query) {
		page = page.Order(order)
	}
	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		page = page.Offset(offset).Limit(filter.PageSize)
	}
	page = r.withPreloads(page, scope)

	items := make([]T, 0)
	if err := page.Find(&items).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return items, total, nil
}

// Create inserts the record and its child rows in one transaction.
// Belongs-to relations are references and are never written.
func (r *GormResourceRepository[T]) Create(ctx context.Context, entity *T) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if len(r.belongsTo) > 0 {
			q = q.Omit(r.belongsTo...)
		}
		return q.Create(entity).Error
	})
	return TranslateError(err)
}

// Update writes the named fields, the derived fields and updated_at. Named
// child relations are replaced: old rows are deleted and the entity's rows
// inserted, in the same transaction as the parent update.
func (r *GormResourceRepository[T]) Update(ctx context.Context, scope shared.Scope, entity *T, fields []string) error {
	cols := make([]string, 0, len(fields)+len(r.derived)+1)
	var replace []childRelation
	for _, f := range fields {
		if r.fields.Children[f] {
			replace = append(replace, r.child(f))
			continue
		}
		if col, ok := r.columns[f]; ok && r.fields.Writable[f] {
			cols = append(cols, col.name)
		}
	}
	for _, f := range r.derived {
		if col, ok := r.columns[f]; ok {
			cols = append(cols, col.name)
		}
	}
	cols = append(cols, "updated_at")

	id, err := r.idOf(entity)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(entity).
			Where(string(r.scopeColumn)+" = ?", scope.Value(r.scopeColumn)).
			Select(cols).
			Omit(clause.Associations).
			Updates(entity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		for _, child := range replace {
			if err := tx.Where(child.foreignKey+" = ?", id).Delete(reflect.New(child.model).Interface()).Error; err != nil {
				return err
			}
			rows, err := r.childRows(entity, child)
			if err != nil {
				return err
			}
			if rows == nil {
				continue
			}
			if err := tx.Create(rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return TranslateError(err)
}

// Delete removes one record of the scope and its child rows
func (r *GormResourceRepository[T]) Delete(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	_, err := r.DeleteByIDs(ctx, scope, []uuid.UUID{id})
	return err
}

// DeleteByIDs removes the records and their child rows in one transaction.
// If any id is missing from the scope nothing is deleted and ErrNotFound is
// returned.
func (r *GormResourceRepository[T]) DeleteByIDs(ctx context.Context, scope shared.Scope, ids []uuid.UUID) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", "ids must not be empty")
	}

	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(new(T)).
			Where(string(r.scopeColumn)+" = ?", scope.Value(r.scopeColumn)).
			Where("id IN ?", ids).
			Count(&found).Error; err != nil {
			return err
		}
		if found != int64(len(ids)) {
			return shared.ErrNotFound
		}

		for _, child := range r.children {
			if err := tx.Where(child.foreignKey+" IN ?", ids).Delete(reflect.New(child.model).Interface()).Error; err != nil {
				return err
			}
		}

		res := tx.Where(string(r.scopeColumn)+" = ?", scope.Value(r.scopeColumn)).
			Where("id IN ?", ids).
			Delete(new(T))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return shared.ErrNotFound
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, TranslateError(err)
	}
	return deleted, nil
}

// withPreloads loads the detail relations. Referenced records are only
// returned when they belong to the caller's enterprise; child rows with a
// position come back in position order.
func (r *GormResourceRepository[T]) withPreloads(q *gorm.DB, scope shared.Scope) *gorm.DB {
	for _, p := range r.preloads {
		if slices.Contains(r.belongsTo, p) {
			q = q.Preload(p, "enterprise_id = ?", scope.EnterpriseID)
			continue
		}
		if order := r.childOrder(p); order != "" {
			q = q.Preload(p, func(db *gorm.DB) *gorm.DB {
				return db.Order(clause.OrderByColumn{Column: clause.Column{Name: order}})
			})
			continue
		}
		q = q.Preload(p)
	}
	return q
}

func (r *GormResourceRepository[T]) childOrder(association string) string {
	for _, c := range r.children {
		if c.name == association {
			return c.order
		}
	}
	return ""
}

func (r *GormResourceRepository[T]) child(field string) childRelation {
	for _, c := range r.children {
		if c.field == field {
			return c
		}
	}
	return childRelation{}
}

// childRows returns a pointer to the entity's slice of child rows, or nil
// when it is empty
func (r *GormResourceRepository[T]) childRows(entity *T, child childRelation) (any, error) {
	v := reflect.ValueOf(entity).Elem().FieldByName(child.name)
	if !v.IsValid() || v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s has no child relation %s", r.table, child.name)
	}
	if v.Len() == 0 {
		return nil, nil
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr.Interface(), nil
}

func (r *GormResourceRepository[T]) idOf(entity *T) (uuid.UUID, error) {
	if e, ok := any(entity).(shared.Entity); ok {
		return e.GetID(), nil
	}
	return uuid.Nil, fmt.Errorf("%T does not expose an id", entity)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
