package router

import (
	puklaapp "github.com/sikka-software/Tanad-sub009/internal/application/pukla"
	"github.com/sikka-software/Tanad-sub009/internal/application/resource"
	"github.com/sikka-software/Tanad-sub009/internal/domain/catalog"
	"github.com/sikka-software/Tanad-sub009/internal/domain/facility"
	"github.com/sikka-software/Tanad-sub009/internal/domain/hr"
	"github.com/sikka-software/Tanad-sub009/internal/domain/partner"
	"github.com/sikka-software/Tanad-sub009/internal/domain/pukla"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/domain/trade"
	"github.com/sikka-software/Tanad-sub009/internal/domain/web"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/persistence"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/handler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resources are the resource services of every entity, with the handlers
// serving them and the repositories other services share
type Resources struct {
	Handlers  []handler.ResourceRoutes
	Companies shared.ResourceRepository[partner.Company]
	Invoices  shared.ResourceRepository[trade.Invoice]
	Puklas    *puklaapp.PageService
	PuklaRepo *persistence.GormPuklaRepository
}

// NewResources builds the resource service and handler of every entity
func NewResources(db *gorm.DB, log *zap.Logger) (*Resources, error) {
	b := &builder{db: db, log: log, res: &Resources{}, refs: persistence.NewGormReferenceChecker(db)}
	b.res.PuklaRepo = persistence.NewGormPuklaRepository(db)

	b.res.Companies = add[partner.Company](b, "companies")
	add[partner.Client](b, "clients")
	add[partner.Vendor](b, "vendors")
	add[hr.Employee](b, "employees")
	add[hr.Department](b, "departments")
	add[hr.Salary](b, "salaries")
	add[hr.Job](b, "jobs")
	add[hr.JobListing](b, "job_listings")
	add[catalog.Product](b, "products")
	b.res.Invoices = add[trade.Invoice](b, "invoices")
	add[trade.Quote](b, "quotes")
	add[facility.Warehouse](b, "warehouses")
	add[facility.Office](b, "offices")
	add[facility.Branch](b, "branches")
	add[web.Domain](b, "domains")

	puklaRepo, err := persistence.NewResourceRepository[pukla.Pukla](db)
	if err != nil {
		return nil, err
	}
	b.res.Puklas = resource.NewService[pukla.Pukla, *pukla.Pukla]("puklas", puklaRepo, log,
		resource.WithBeforeSave(puklaapp.UniqueSlug(b.res.PuklaRepo)))
	b.res.Handlers = append(b.res.Handlers, handler.NewResourceHandler(b.res.Puklas))

	if b.err != nil {
		return nil, b.err
	}
	return b.res, nil
}

type builder struct {
	db   *gorm.DB
	log  *zap.Logger
	res  *Resources
	refs shared.ReferenceChecker
	err  error
}

// add registers the resource of entity T. Entities referencing other records
// get their references checked against the caller's enterprise. The first
// schema error is kept and later calls are skipped.
func add[T any, PT resource.Model[T]](b *builder, name string) shared.ResourceRepository[T] {
	if b.err != nil {
		return nil
	}
	repo, err := persistence.NewResourceRepository[T](b.db)
	if err != nil {
		b.err = err
		return nil
	}
	var opts []resource.Option[T]
	if _, ok := any(new(T)).(shared.Referrer); ok {
		opts = append(opts, resource.WithBeforeSave(resource.ScopedReferences[T](b.refs)))
	}
	svc := resource.NewService[T, PT](name, repo, b.log, opts...)
	b.res.Handlers = append(b.res.Handlers, handler.NewResourceHandler(svc))
	return repo
}
