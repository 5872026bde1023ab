package listing

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// normalize collapses a field value into one of: nil, float64, decimal.Decimal,
// time.Time, bool or string.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	v = rv.Interface()

	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case decimal.NullDecimal:
		if !x.Valid {
			return nil
		}
		return x.Decimal
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x
	case string:
		return x
	case bool:
		return x
	case fmt.Stringer:
		return x.String()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return fmt.Sprint(v)
}

// compareValues orders two normalized values. nil sorts before everything.
// Values of different kinds fall back to comparing their text.
func compareValues(a, b any, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return compareFloat(x, y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBool(x, y)
		}
	}
	return compareText(textOf(a), textOf(b), caseSensitive)
}

// compareLiteral compares a normalized value with a literal parsed into the
// value's own kind. ok is false when the literal cannot be parsed.
func compareLiteral(v any, literal string, caseSensitive bool) (cmp int, ok bool) {
	switch x := v.(type) {
	case float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(literal), 64)
		if err != nil {
			return 0, false
		}
		return compareFloat(x, f), true
	case decimal.Decimal:
		d, err := decimal.NewFromString(strings.TrimSpace(literal))
		if err != nil {
			return 0, false
		}
		return x.Cmp(d), true
	case time.Time:
		t, err := ParseTime(literal)
		if err != nil {
			return 0, false
		}
		return x.Compare(t), true
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(literal))
		if err != nil {
			return 0, false
		}
		return compareBool(x, b), true
	}
	return compareText(textOf(v), literal, caseSensitive), true
}

// ParseTime accepts RFC 3339 timestamps and plain dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func compareText(a, b string, caseSensitive bool) int {
	if !caseSensitive {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	return strings.Compare(a, b)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
