package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/handler"
)

// Handlers are the handlers of the Tanad API. Nil handlers are not mounted.
type Handlers struct {
	System    *handler.SystemHandler
	Profile   *handler.ProfileHandler
	Billing   *handler.BillingHandler
	Pukla     *handler.PuklaHandler
	Invoices  *handler.InvoiceDocumentHandler
	Companies *handler.CompanyLogoHandler
	Resources []handler.ResourceRoutes
}

// registrarFunc adapts a function to RouteRegistrar
type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

// Mount registers the Tanad API on r:
//
//	public   /system/info, /system/health, /public/pukla/:slug, /stripe/webhook
//	session  /resource/<name>, /<name>, /profile, /enterprise, /stripe/*,
//	         /puklas/*, /invoices/:id/{zatca,pdf}, /companies/:id/logo
func Mount(r *Router, h Handlers) {
	if h.System != nil {
		r.Public("", NewDomainGroup("system", "/system").
			GET("/info", h.System.GetSystemInfo).
			GET("/health", h.System.Health))
	}
	if h.Pukla != nil {
		r.Public("/public", registrarFunc(h.Pukla.RegisterPublicRoutes))
		r.Register("/puklas", h.Pukla)
	}
	if h.Billing != nil {
		r.Public("/stripe", registrarFunc(h.Billing.RegisterWebhook))
		r.Register("/stripe", h.Billing)
	}
	if h.Profile != nil {
		r.Register("", h.Profile)
	}
	if h.Invoices != nil {
		r.Register("/invoices", h.Invoices)
	}
	if h.Companies != nil {
		r.Register("/companies", h.Companies)
	}
	for _, res := range h.Resources {
		r.Resource(res)
	}
}
