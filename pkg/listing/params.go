package listing

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query string parameters understood by Parse and produced by Encode.
//
//	sort=name:asc,created_at:desc   (a leading "-" also means desc)
//	filter[status]=active           (equals)
//	filter[total][greater_than]=100
//	search=acme&case_sensitive=true
const (
	ParamSort          = "sort"
	ParamSearch        = "search"
	ParamCaseSensitive = "case_sensitive"
	filterPrefix       = "filter["
)

// Parse reads a Query from URL values. Unknown operators and directions are
// rejected; field names are left for the caller to validate.
func Parse(values url.Values) (Query, error) {
	var q Query

	for _, raw := range values[ParamSort] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			rule, err := parseSortRule(part)
			if err != nil {
				return Query{}, err
			}
			q.Sorts = append(q.Sorts, rule)
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if strings.HasPrefix(key, filterPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		field, op, err := parseFilterKey(key)
		if err != nil {
			return Query{}, err
		}
		for _, value := range values[key] {
			q.Filters = append(q.Filters, FilterCondition{Field: field, Operator: op, Value: value})
		}
	}

	q.Search = strings.TrimSpace(values.Get(ParamSearch))
	if raw := values.Get(ParamCaseSensitive); raw != "" {
		cs, err := strconv.ParseBool(raw)
		if err != nil {
			return Query{}, fmt.Errorf("listing: invalid %s value %q", ParamCaseSensitive, raw)
		}
		q.CaseSensitive = cs
	}
	return q, nil
}

// Encode writes q into URL values in the form Parse reads. Search fields are
// not encoded; the server decides which columns a search covers.
func Encode(q Query) url.Values {
	values := url.Values{}
	if len(q.Sorts) > 0 {
		parts := make([]string, 0, len(q.Sorts))
		for _, s := range q.Sorts {
			dir := s.Direction
			if dir == "" {
				dir = Asc
			}
			parts = append(parts, s.Field+":"+string(dir))
		}
		values.Set(ParamSort, strings.Join(parts, ","))
	}
	for _, f := range q.Filters {
		values.Add(fmt.Sprintf("filter[%s][%s]", f.Field, f.Operator), f.Value)
	}
	if q.Search != "" {
		values.Set(ParamSearch, q.Search)
	}
	if q.CaseSensitive {
		values.Set(ParamCaseSensitive, "true")
	}
	return values
}

func parseSortRule(part string) (SortRule, error) {
	if strings.HasPrefix(part, "-") {
		return SortRule{Field: part[1:], Direction: Desc}, nil
	}
	field, dir, found := strings.Cut(part, ":")
	rule := SortRule{Field: field, Direction: Asc}
	if found {
		rule.Direction = Direction(strings.ToLower(dir))
	}
	if rule.Field == "" || !rule.Direction.IsValid() {
		return SortRule{}, fmt.Errorf("listing: invalid sort rule %q", part)
	}
	return rule, nil
}

// parseFilterKey splits "filter[field]" or "filter[field][op]".
func parseFilterKey(key string) (string, Operator, error) {
	rest := strings.TrimPrefix(key, filterPrefix)
	field, rest, ok := strings.Cut(rest, "]")
	if !ok || field == "" {
		return "", "", fmt.Errorf("listing: malformed filter key %q", key)
	}
	if rest == "" {
		return field, OpEquals, nil
	}
	if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") {
		return "", "", fmt.Errorf("listing: malformed filter key %q", key)
	}
	op := Operator(rest[1 : len(rest)-1])
	if !op.IsValid() {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
	return field, op, nil
}
