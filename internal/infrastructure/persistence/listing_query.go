package persistence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/pkg/listing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const likeEscape = `\`

func invalidQuery(format string, args ...any) error {
	return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf(format, args...))
}

// applyQuery adds the filter conditions and the search term of q to db.
// Every field must be a column of the resource.
func (r *GormResourceRepository[T]) applyQuery(db *gorm.DB, q listing.Query) (*gorm.DB, error) {
	if err := q.Validate(func(field string) bool {
		_, ok := r.columns[field]
		return ok
	}); err != nil {
		return nil, invalidQuery("%s", err.Error())
	}

	for _, cond := range q.Filters {
		sql, args, err := r.condition(cond, q.CaseSensitive)
		if err != nil {
			return nil, err
		}
		db = db.Where(sql, args...)
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		fields := q.SearchFields
		if len(fields) == 0 {
			fields = r.searchFields()
		}
		parts := make([]string, 0, len(fields))
		args := make([]any, 0, len(fields))
		for _, f := range fields {
			col, ok := r.columns[f]
			if !ok {
				continue
			}
			parts = append(parts, likeExpr(col, q.CaseSensitive, false))
			args = append(args, "%"+escapeLike(term)+"%")
		}
		if len(parts) > 0 {
			db = db.Where("("+strings.Join(parts, " OR ")+")", args...)
		}
	}
	return db, nil
}

// searchFields falls back to every text column when the resource declares none
func (r *GormResourceRepository[T]) searchFields() []string {
	if len(r.search) > 0 {
		return r.search
	}
	var out []string
	for field, col := range r.columns {
		if col.kind == kindText {
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}

// orderBy returns the sort rules as ORDER BY columns. Without rules records
// are listed newest first; id is always the last key so pages are stable.
// NULLs come first in ascending order and last in descending order, as in
// listing.Sort; dialect defaults differ, so nullable columns get an explicit
// IS NULL key.
func (r *GormResourceRepository[T]) orderBy(q listing.Query) []clause.OrderByColumn {
	rules := q.Sorts
	if len(rules) == 0 {
		rules = []listing.SortRule{{Field: "created_at", Direction: listing.Desc}}
	}
	out := make([]clause.OrderByColumn, 0, 2*len(rules)+1)
	hasID := false
	for _, rule := range rules {
		col, ok := r.columns[rule.Field]
		if !ok {
			continue
		}
		if col.nullable {
			out = append(out, clause.OrderByColumn{
				Column: clause.Column{Name: "(" + col.name + " IS NULL)", Raw: true},
				Desc:   rule.Direction != listing.Desc,
			})
		}
		name := col.name
		raw := false
		if col.kind == kindText && !q.CaseSensitive {
			name = "LOWER(" + col.name + ")"
			raw = true
		}
		out = append(out, clause.OrderByColumn{
			Column: clause.Column{Name: name, Raw: raw},
			Desc:   rule.Direction == listing.Desc,
		})
		if col.name == "id" {
			hasID = true
		}
	}
	if !hasID {
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return out
}

// condition translates one filter condition to a WHERE fragment
func (r *GormResourceRepository[T]) condition(c listing.FilterCondition, caseSensitive bool) (string, []any, error) {
	col := r.columns[c.Field]
	name := col.name

	switch c.Operator {
	case listing.OpIsEmpty:
		if col.kind == kindText {
			return fmt.Sprintf("(%s IS NULL OR %s = '')", name, name), nil, nil
		}
		return name + " IS NULL", nil, nil
	case listing.OpIsNotEmpty:
		if col.kind == kindText {
			return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", name, name), nil, nil
		}
		return name + " IS NOT NULL", nil, nil
	case listing.OpContains:
		return likeExpr(col, caseSensitive, false), []any{"%" + escapeLike(c.Value) + "%"}, nil
	case listing.OpNotContains:
		return fmt.Sprintf("(%s IS NULL OR %s)", name, likeExpr(col, caseSensitive, true)), []any{"%" + escapeLike(c.Value) + "%"}, nil
	case listing.OpStartsWith:
		return likeExpr(col, caseSensitive, false), []any{escapeLike(c.Value) + "%"}, nil
	case listing.OpEndsWith:
		return likeExpr(col, caseSensitive, false), []any{"%" + escapeLike(c.Value)}, nil
	}

	if col.kind == kindText {
		lhs, rhs := name, "?"
		if !caseSensitive {
			lhs, rhs = "LOWER("+name+")", "LOWER(?)"
		}
		switch c.Operator {
		case listing.OpEquals:
			return lhs + " = " + rhs, []any{c.Value}, nil
		case listing.OpNotEquals:
			return fmt.Sprintf("(%s <> %s OR %s IS NULL)", lhs, rhs, name), []any{c.Value}, nil
		case listing.OpGreaterThan:
			return lhs + " > " + rhs, []any{c.Value}, nil
		case listing.OpLessThan:
			return lhs + " < " + rhs, []any{c.Value}, nil
		}
	}

	value, err := literal(col, c)
	if err != nil {
		return "", nil, err
	}
	switch c.Operator {
	case listing.OpEquals:
		return name + " = ?", []any{value}, nil
	case listing.OpNotEquals:
		return fmt.Sprintf("(%s <> ? OR %s IS NULL)", name, name), []any{value}, nil
	case listing.OpGreaterThan, listing.OpLessThan:
		if col.kind == kindBool || col.kind == kindUUID {
			return "", nil, invalidQuery("operator %s is not supported for field %s", c.Operator, c.Field)
		}
		op := ">"
		if c.Operator == listing.OpLessThan {
			op = "<"
		}
		return fmt.Sprintf("%s %s ?", name, op), []any{value}, nil
	}
	return "", nil, invalidQuery("unsupported operator %s", c.Operator)
}

// literal converts a filter value to the column's type
func literal(col column, c listing.FilterCondition) (any, error) {
	v := strings.TrimSpace(c.Value)
	switch col.kind {
	case kindNumber:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, invalidQuery("field %s expects a number", c.Field)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, invalidQuery("field %s expects true or false", c.Field)
		}
		return b, nil
	case kindTime:
		t, err := listing.ParseTime(v)
		if err != nil {
			return nil, invalidQuery("field %s expects a date or RFC 3339 time", c.Field)
		}
		return t, nil
	case kindUUID:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, invalidQuery("field %s expects a UUID", c.Field)
		}
		return id, nil
	}
	return c.Value, nil
}

// likeExpr matches a text rendering of the column against a LIKE pattern
func likeExpr(col column, caseSensitive, negate bool) string {
	expr := col.name
	if col.kind != kindText {
		expr = "CAST(" + col.name + " AS TEXT)"
	}
	pattern := "?"
	if !caseSensitive {
		expr, pattern = "LOWER("+expr+")", "LOWER(?)"
	}
	op := "LIKE"
	if negate {
		op = "NOT LIKE"
	}
	return fmt.Sprintf("%s %s %s ESCAPE '%s'", expr, op, pattern, likeEscape)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}
