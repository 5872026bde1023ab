package listing

import (
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Quantity  int             `json:"quantity"`
	Email     *string         `json:"email"`
	CreatedAt time.Time       `json:"created_at"`
	Active    bool            `json:"is_active"`
}

func strPtr(s string) *string { return &s }

func sampleRows() []row {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []row{
		{Name: "beta", Status: "active", Amount: decimal.NewFromInt(20), Quantity: 3, Email: strPtr("b@x.io"), CreatedAt: base.Add(2 * time.Hour), Active: true},
		{Name: "Alpha", Status: "inactive", Amount: decimal.NewFromInt(5), Quantity: 1, CreatedAt: base, Active: false},
		{Name: "gamma", Status: "active", Amount: decimal.RequireFromString("12.5"), Quantity: 3, Email: strPtr("g@x.io"), CreatedAt: base.Add(time.Hour), Active: true},
		{Name: "delta", Status: "pending", Amount: decimal.NewFromInt(20), Quantity: 2, Email: strPtr(""), CreatedAt: base.Add(3 * time.Hour), Active: false},
	}
}

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestFilter(t *testing.T) {
	get := FieldAccessor[row]()
	rows := sampleRows()

	t.Run("empty query returns input unchanged", func(t *testing.T) {
		out := Filter(rows, Query{}, get)
		assert.Equal(t, rows, out)
	})

	t.Run("equals on string", func(t *testing.T) {
		out := Filter(rows, Query{Filters: []FilterCondition{{Field: "status", Operator: OpEquals, Value: "active"}}}, get)
		assert.Equal(t, []string{"beta", "gamma"}, names(out))
	})

	t.Run("greater_than on decimal", func(t *testing.T) {
		out := Filter(rows, Query{Filters: []FilterCondition{{Field: "amount", Operator: OpGreaterThan, Value: "10"}}}, get)
		assert.Equal(t, []string{"beta", "gamma", "delta"}, names(out))
	})

	t.Run("less_than on time", func(t *testing.T) {
		out := Filter(rows, Query{Filters: []FilterCondition{{Field: "created_at", Operator: OpLessThan, Value: "2024-01-01T01:30:00Z"}}}, get)
		assert.Equal(t, []string{"Alpha", "gamma"}, names(out))
	})

	t.Run("conditions combine with AND", func(t *testing.T) {
		out := Filter(rows, Query{Filters: []FilterCondition{
			{Field: "quantity", Operator: OpEquals, Value: "3"},
			{Field: "amount", Operator: OpLessThan, Value: "15"},
		}}, get)
		assert.Equal(t, []string{"gamma"}, names(out))
	})

	t.Run("is_empty treats nil and blank as empty", func(t *testing.T) {
		out := Filter(rows, Query{Filters: []FilterCondition{{Field: "email", Operator: OpIsEmpty}}}, get)
		assert.Equal(t, []string{"Alpha", "delta"}, names(out))
	})

	t.Run("case insensitive contains by default", func(t *testing.T) {
		out := Filter(rows, Query{Filters: []FilterCondition{{Field: "name", Operator: OpContains, Value: "ALP"}}}, get)
		assert.Equal(t, []string{"Alpha"}, names(out))
	})

	t.Run("case sensitive contains", func(t *testing.T) {
		q := Query{CaseSensitive: true, Filters: []FilterCondition{{Field: "name", Operator: OpStartsWith, Value: "alp"}}}
		assert.Empty(t, Filter(rows, q, get))
	})

	t.Run("search matches any search field", func(t *testing.T) {
		q := Query{Search: "x.io", SearchFields: []string{"name", "email"}}
		assert.Equal(t, []string{"beta", "gamma"}, names(Filter(rows, q, get)))
	})

	t.Run("search without fields is ignored", func(t *testing.T) {
		q := Query{Search: "nothing-matches"}
		assert.Len(t, Filter(rows, q, get), len(rows))
	})

	t.Run("bool equals", func(t *testing.T) {
		out := Filter(rows, Query{Filters: []FilterCondition{{Field: "is_active", Operator: OpEquals, Value: "true"}}}, get)
		assert.Equal(t, []string{"beta", "gamma"}, names(out))
	})
}

func TestSort(t *testing.T) {
	get := FieldAccessor[row]()
	rows := sampleRows()

	t.Run("no rules keeps order", func(t *testing.T) {
		assert.Equal(t, rows, Sort(rows, nil, false, get))
	})

	t.Run("string asc is case insensitive by default", func(t *testing.T) {
		out := Sort(rows, []SortRule{{Field: "name", Direction: Asc}}, false, get)
		assert.Equal(t, []string{"Alpha", "beta", "delta", "gamma"}, names(out))
	})

	t.Run("case sensitive orders by byte value", func(t *testing.T) {
		out := Sort(rows, []SortRule{{Field: "name", Direction: Desc}}, true, get)
		assert.Equal(t, []string{"gamma", "delta", "beta", "Alpha"}, names(out))
	})

	t.Run("multi key with stable ties", func(t *testing.T) {
		out := Sort(rows, []SortRule{{Field: "amount", Direction: Desc}, {Field: "created_at", Direction: Asc}}, false, get)
		assert.Equal(t, []string{"beta", "delta", "gamma", "Alpha"}, names(out))
	})

	t.Run("nil values sort first ascending", func(t *testing.T) {
		out := Sort(rows, []SortRule{{Field: "email", Direction: Asc}}, false, get)
		assert.Equal(t, "Alpha", out[0].Name)
	})

	t.Run("sorting is idempotent", func(t *testing.T) {
		rules := []SortRule{{Field: "quantity", Direction: Desc}, {Field: "name", Direction: Asc}}
		once := Sort(rows, rules, false, get)
		twice := Sort(once, rules, false, get)
		assert.Equal(t, once, twice)
	})

	t.Run("input is not modified", func(t *testing.T) {
		before := names(rows)
		_ = Sort(rows, []SortRule{{Field: "name", Direction: Asc}}, false, get)
		assert.Equal(t, before, names(rows))
	})
}

func TestApply(t *testing.T) {
	get := FieldAccessor[row]()
	q := Query{
		Filters: []FilterCondition{{Field: "status", Operator: OpNotEquals, Value: "inactive"}},
		Sorts:   []SortRule{{Field: "created_at", Direction: Desc}},
	}
	out := Apply(sampleRows(), q, get)
	assert.Equal(t, []string{"delta", "beta", "gamma"}, names(out))
}

func TestFieldAccessor_Map(t *testing.T) {
	get := FieldAccessor[map[string]any]()
	v, ok := get(map[string]any{"name": "x"}, "name")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = get(map[string]any{}, "missing")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	t.Run("parses sort filter and search", func(t *testing.T) {
		values, err := url.ParseQuery("sort=name:asc,-created_at&filter[status]=active&filter[total][greater_than]=10&search=acme&case_sensitive=true")
		require.NoError(t, err)

		q, err := Parse(values)
		require.NoError(t, err)

		assert.Equal(t, []SortRule{{Field: "name", Direction: Asc}, {Field: "created_at", Direction: Desc}}, q.Sorts)
		assert.ElementsMatch(t, []FilterCondition{
			{Field: "status", Operator: OpEquals, Value: "active"},
			{Field: "total", Operator: OpGreaterThan, Value: "10"},
		}, q.Filters)
		assert.Equal(t, "acme", q.Search)
		assert.True(t, q.CaseSensitive)
	})

	t.Run("rejects unknown operator", func(t *testing.T) {
		_, err := Parse(url.Values{"filter[name][like]": {"x"}})
		assert.ErrorIs(t, err, ErrUnknownOperator)
	})

	t.Run("rejects bad direction", func(t *testing.T) {
		_, err := Parse(url.Values{"sort": {"name:up"}})
		assert.Error(t, err)
	})

	t.Run("encode then parse keeps the query", func(t *testing.T) {
		q := Query{
			Sorts:         []SortRule{{Field: "name", Direction: Desc}},
			Filters:       []FilterCondition{{Field: "status", Operator: OpContains, Value: "act"}},
			Search:        "foo",
			CaseSensitive: true,
		}
		parsed, err := Parse(Encode(q))
		require.NoError(t, err)
		assert.Equal(t, q, parsed)
	})
}

func TestQuery_Validate(t *testing.T) {
	allowed := func(f string) bool { return f == "name" || f == "status" }

	assert.NoError(t, Query{Sorts: []SortRule{{Field: "name", Direction: Asc}}}.Validate(allowed))
	assert.ErrorIs(t, Query{Filters: []FilterCondition{{Field: "password", Operator: OpEquals}}}.Validate(allowed), ErrUnknownField)
	assert.ErrorIs(t, Query{Filters: []FilterCondition{{Field: "name", Operator: "regex"}}}.Validate(allowed), ErrUnknownOperator)
}
