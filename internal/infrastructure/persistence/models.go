package persistence

import (
	"github.com/sikka-software/Tanad-sub009/internal/domain/catalog"
	"github.com/sikka-software/Tanad-sub009/internal/domain/facility"
	"github.com/sikka-software/Tanad-sub009/internal/domain/hr"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/partner"
	"github.com/sikka-software/Tanad-sub009/internal/domain/pukla"
	"github.com/sikka-software/Tanad-sub009/internal/domain/trade"
	"github.com/sikka-software/Tanad-sub009/internal/domain/web"
)

// Models returns every persisted model, parents before children
func Models() []any {
	return []any{
		&identity.Enterprise{},
		&identity.Profile{},
		&partner.Company{},
		&partner.Client{},
		&partner.Vendor{},
		&hr.Department{},
		&hr.DepartmentLocation{},
		&hr.Employee{},
		&hr.Salary{},
		&hr.Job{},
		&hr.JobListing{},
		&hr.JobListingJob{},
		&catalog.Product{},
		&trade.Invoice{},
		&trade.InvoiceItem{},
		&trade.Quote{},
		&trade.QuoteItem{},
		&facility.Warehouse{},
		&facility.Office{},
		&facility.Branch{},
		&web.Domain{},
		&pukla.Pukla{},
		&pukla.Link{},
	}
}
