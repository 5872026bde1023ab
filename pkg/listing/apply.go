package listing

import (
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Accessor returns the value of a named field of item. ok is false when the
// item has no such field.
type Accessor[T any] func(item T, field string) (value any, ok bool)

// Filter returns the items that satisfy every condition and the search term.
// With no conditions and no search the result is a copy of items.
func Filter[T any](items []T, q Query, get Accessor[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matches(item, q, get) {
			out = append(out, item)
		}
	}
	return out
}

// Sort returns a copy of items ordered by rules. The sort is stable, so
// sorting an already sorted slice leaves it unchanged.
func Sort[T any](items []T, rules []SortRule, caseSensitive bool, get Accessor[T]) []T {
	out := slices.Clone(items)
	if len(rules) == 0 {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		for _, rule := range rules {
			av, _ := get(a, rule.Field)
			bv, _ := get(b, rule.Field)
			c := compareValues(normalize(av), normalize(bv), caseSensitive)
			if rule.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

// Apply filters then sorts.
func Apply[T any](items []T, q Query, get Accessor[T]) []T {
	return Sort(Filter(items, q, get), q.Sorts, q.CaseSensitive, get)
}

func matches[T any](item T, q Query, get Accessor[T]) bool {
	for _, cond := range q.Filters {
		v, _ := get(item, cond.Field)
		if !cond.Matches(v, q.CaseSensitive) {
			return false
		}
	}
	if q.Search == "" || len(q.SearchFields) == 0 {
		return true
	}
	for _, field := range q.SearchFields {
		v, _ := get(item, field)
		if containsText(textOf(normalize(v)), q.Search, q.CaseSensitive) {
			return true
		}
	}
	return false
}

// Matches evaluates the condition against a single field value.
func (c FilterCondition) Matches(value any, caseSensitive bool) bool {
	v := normalize(value)
	switch c.Operator {
	case OpIsEmpty:
		return isEmpty(v)
	case OpIsNotEmpty:
		return !isEmpty(v)
	}

	if v == nil {
		return c.Operator == OpNotEquals || c.Operator == OpNotContains
	}

	text := textOf(v)
	switch c.Operator {
	case OpEquals:
		cmp, ok := compareLiteral(v, c.Value, caseSensitive)
		return ok && cmp == 0
	case OpNotEquals:
		cmp, ok := compareLiteral(v, c.Value, caseSensitive)
		return !ok || cmp != 0
	case OpGreaterThan:
		cmp, ok := compareLiteral(v, c.Value, caseSensitive)
		return ok && cmp > 0
	case OpLessThan:
		cmp, ok := compareLiteral(v, c.Value, caseSensitive)
		return ok && cmp < 0
	case OpContains:
		return containsText(text, c.Value, caseSensitive)
	case OpNotContains:
		return !containsText(text, c.Value, caseSensitive)
	case OpStartsWith:
		return strings.HasPrefix(fold(text, caseSensitive), fold(c.Value, caseSensitive))
	case OpEndsWith:
		return strings.HasSuffix(fold(text, caseSensitive), fold(c.Value, caseSensitive))
	}
	return false
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func containsText(text, term string, caseSensitive bool) bool {
	return strings.Contains(fold(text, caseSensitive), fold(term, caseSensitive))
}

func fold(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

var fieldIndexCache sync.Map // reflect.Type -> map[string][]int

// FieldAccessor resolves fields of a struct (or pointer to struct) by their
// json tag name, descending into embedded structs.
func FieldAccessor[T any]() Accessor[T] {
	return func(item T, field string) (any, bool) {
		rv := reflect.ValueOf(item)
		for rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, false
			}
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.Map {
			val := rv.MapIndex(reflect.ValueOf(field))
			if !val.IsValid() {
				return nil, false
			}
			return val.Interface(), true
		}
		if rv.Kind() != reflect.Struct {
			return nil, false
		}
		index, ok := jsonFieldIndex(rv.Type())[field]
		if !ok {
			return nil, false
		}
		fv, err := rv.FieldByIndexErr(index)
		if err != nil {
			return nil, false
		}
		return fv.Interface(), true
	}
}

func jsonFieldIndex(t reflect.Type) map[string][]int {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(map[string][]int)
	}
	index := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if _, exists := index[name]; !exists {
			index[name] = f.Index
		}
	}
	fieldIndexCache.Store(t, index)
	return index
}
