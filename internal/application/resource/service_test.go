package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/hr"
	"github.com/sikka-software/Tanad-sub009/internal/domain/partner"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/persistence"
	"github.com/sikka-software/Tanad-sub009/pkg/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := persistence.NewSQLiteDatabase("file:"+uuid.NewString()+"?mode=memory&cache=shared", persistence.Options{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(persistence.Models()...))
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func newClientService(t *testing.T, opts ...Option[partner.Client]) *Service[partner.Client, *partner.Client] {
	t.Helper()
	repo, err := persistence.NewResourceRepository[partner.Client](newTestDB(t))
	require.NoError(t, err)
	return NewService[partner.Client, *partner.Client]("clients", repo, zap.NewNop(), opts...)
}

func newScope() shared.Scope {
	return shared.Scope{EnterpriseID: uuid.New(), UserID: uuid.New()}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	return domainErr.Code
}

func TestService_CreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)
	scope := newScope()
	forged := uuid.New()

	created, err := svc.Create(ctx, scope, []byte(`{
		"id": "`+forged.String()+`",
		"enterprise_id": "`+forged.String()+`",
		"name": " Noura Trading ",
		"email": "Sales@Noura.SA",
		"phone": "+966500000000",
		"city": "Jeddah",
		"zip_code": "21442",
		"notes": "VIP"
	}`))
	require.NoError(t, err)
	assert.NotEqual(t, forged, created.ID)
	assert.Equal(t, scope.EnterpriseID, created.EnterpriseID)
	assert.Equal(t, scope.UserID, created.UserID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := svc.Get(ctx, scope, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Noura Trading", fetched.Name)
	assert.Equal(t, "sales@noura.sa", fetched.Email)
	assert.Equal(t, "+966500000000", fetched.Phone)
	assert.Equal(t, "Jeddah", fetched.City)
	assert.Equal(t, "21442", fetched.ZipCode)
	assert.Equal(t, "VIP", fetched.Notes)

	_, err = svc.Get(ctx, newScope(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)
	scope := newScope()

	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty body", ``, "INVALID_INPUT"},
		{"not an object", `[1,2]`, "INVALID_INPUT"},
		{"unknown field", `{"name":"A","favourite_colour":"red"}`, "VALIDATION_ERROR"},
		{"wrong type", `{"name":42}`, "VALIDATION_ERROR"},
		{"missing required", `{"email":"a@b.co"}`, "VALIDATION_ERROR"},
		{"invalid email", `{"name":"A","email":"nope"}`, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, scope, []byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.code, domainCode(t, err))
		})
	}
}

func TestService_UpdateChangesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)
	scope := newScope()

	created, err := svc.Create(ctx, scope, []byte(`{"name":"Noura","email":"a@noura.sa","city":"Jeddah","notes":"first"}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, scope, created.ID, []byte(`{"city":"Riyadh","notes":""}`))
	require.NoError(t, err)
	assert.Equal(t, "Riyadh", updated.City)
	assert.Equal(t, "", updated.Notes)
	assert.Equal(t, "Noura", updated.Name)
	assert.Equal(t, "a@noura.sa", updated.Email)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestService_UpdateRejectsReadOnlyAndUnknown(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)
	scope := newScope()
	created, err := svc.Create(ctx, scope, []byte(`{"name":"Noura"}`))
	require.NoError(t, err)

	for _, body := range []string{
		`{"id":"` + uuid.NewString() + `"}`,
		`{"enterprise_id":"` + uuid.NewString() + `"}`,
		`{"created_at":"2020-01-01T00:00:00Z"}`,
		`{"name":"B","shoe_size":44}`,
		`{}`,
	} {
		_, err := svc.Update(ctx, scope, created.ID, []byte(body))
		assert.Error(t, err, body)
	}

	fetched, err := svc.Get(ctx, scope, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Noura", fetched.Name)

	_, err = svc.Update(ctx, scope, uuid.New(), []byte(`{"name":"Ghost"}`))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_DeleteMany(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)
	scope := newScope()

	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C"} {
		c, err := svc.Create(ctx, scope, []byte(`{"name":"`+name+`"}`))
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	_, err := svc.DeleteMany(ctx, scope, []uuid.UUID{ids[0], uuid.New()})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	page, err := svc.List(ctx, scope, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total, "failed bulk delete must not remove anything")

	deleted, err := svc.DeleteMany(ctx, scope, ids[:2])
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	page, err = svc.List(ctx, scope, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[2], page.Items[0].ID)

	require.NoError(t, svc.Delete(ctx, scope, ids[2]))
	assert.ErrorIs(t, svc.Delete(ctx, scope, ids[2]), shared.ErrNotFound)
}

func TestService_ListFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	svc := newClientService(t)
	scope := newScope()
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		_, err := svc.Create(ctx, scope, []byte(`{"name":"`+name+`","city":"Riyadh"}`))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, newScope(), []byte(`{"name":"Other tenant"}`))
	require.NoError(t, err)

	filter := shared.Filter{
		Page:     0,
		PageSize: 2,
		Query: listing.Query{
			Sorts: []listing.SortRule{{Field: "name", Direction: listing.Asc}},
		},
	}
	page, err := svc.List(ctx, scope, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha", page.Items[0].Name)
	assert.Equal(t, "Beta", page.Items[1].Name)

	filter.Query.Search = "ta"
	filter.PageSize = 10
	page, err = svc.List(ctx, scope, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total, "Beta and Delta")
}

func TestService_DuplicateCopiesChildren(t *testing.T) {
	ctx := context.Background()
	repo, err := persistence.NewResourceRepository[hr.Department](newTestDB(t))
	require.NoError(t, err)
	svc := NewService[hr.Department, *hr.Department]("departments", repo, zap.NewNop())
	scope := newScope()

	office, warehouse := uuid.New(), uuid.New()
	created, err := svc.Create(ctx, scope, []byte(`{
		"name": "Logistics",
		"is_active": true,
		"locations": [
			{"location_type": "office", "location_id": "`+office.String()+`"},
			{"location_type": "warehouse", "location_id": "`+warehouse.String()+`"}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, created.Locations, 2)

	copied, err := svc.Duplicate(ctx, scope, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, copied.ID)
	require.Len(t, copied.Locations, 2)
	for _, loc := range copied.Locations {
		assert.Equal(t, copied.ID, loc.DepartmentID)
	}

	// Replacing the locations of the copy leaves the source untouched
	updated, err := svc.Update(ctx, scope, copied.ID, []byte(`{"locations":[{"location_type":"branch","location_id":"`+uuid.NewString()+`"}]}`))
	require.NoError(t, err)
	require.Len(t, updated.Locations, 1)
	assert.Equal(t, hr.LocationTypeBranch, updated.Locations[0].LocationType)

	source, err := svc.Get(ctx, scope, created.ID)
	require.NoError(t, err)
	assert.Len(t, source.Locations, 2)
}

func TestService_BeforeSaveHook(t *testing.T) {
	ctx := context.Background()
	var ops []Operation
	svc := newClientService(t, WithBeforeSave(func(_ context.Context, _ shared.Scope, c *partner.Client, op Operation) error {
		ops = append(ops, op)
		if c.Name == "blocked" {
			return shared.NewDomainError("ALREADY_EXISTS", "Name is taken")
		}
		return nil
	}))
	scope := newScope()

	created, err := svc.Create(ctx, scope, []byte(`{"name":"open"}`))
	require.NoError(t, err)
	_, err = svc.Update(ctx, scope, created.ID, []byte(`{"name":"blocked"}`))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	_, err = svc.Duplicate(ctx, scope, created.ID)
	require.NoError(t, err)

	assert.Equal(t, []Operation{OpCreate, OpUpdate, OpDuplicate}, ops)
}

func TestService_ScopedReferences(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	employees, err := persistence.NewResourceRepository[hr.Employee](db)
	require.NoError(t, err)
	salaries, err := persistence.NewResourceRepository[hr.Salary](db)
	require.NoError(t, err)
	svc := NewService[hr.Salary, *hr.Salary]("salaries", salaries, zap.NewNop(),
		WithBeforeSave(ScopedReferences[hr.Salary](persistence.NewGormReferenceChecker(db))))

	owner, stranger := newScope(), newScope()
	employee := &hr.Employee{FirstName: "Sara", LastName: "Ali", Email: "sara@acme.sa"}
	employee.AssignIdentity(owner)
	employee.Normalize()
	require.NoError(t, employees.Create(ctx, employee))

	body := func(employeeID uuid.UUID) []byte {
		return []byte(`{"employee_id":"` + employeeID.String() + `","pay_period_start":"2026-01-01T00:00:00Z",` +
			`"pay_period_end":"2026-01-31T00:00:00Z","payment_date":"2026-02-01T00:00:00Z","gross_amount":"1000"}`)
	}

	created, err := svc.Create(ctx, owner, body(employee.ID))
	require.NoError(t, err)
	assert.Equal(t, employee.ID, created.EmployeeID)

	_, err = svc.Create(ctx, stranger, body(employee.ID))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))

	_, err = svc.Update(ctx, owner, created.ID, []byte(`{"employee_id":"`+uuid.NewString()+`"}`))
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	require.Len(t, domainErr.Details, 1)
	assert.Equal(t, "employee_id", domainErr.Details[0].Field)
}
