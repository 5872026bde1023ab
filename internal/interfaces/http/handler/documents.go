package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	partnerapp "github.com/sikka-software/Tanad-sub009/internal/application/partner"
	tradeapp "github.com/sikka-software/Tanad-sub009/internal/application/trade"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// InvoiceDocumentHandler serves the ZATCA QR and PDF of invoices
type InvoiceDocumentHandler struct {
	BaseHandler
	documents *tradeapp.DocumentService
}

// NewInvoiceDocumentHandler creates a new InvoiceDocumentHandler
func NewInvoiceDocumentHandler(documents *tradeapp.DocumentService) *InvoiceDocumentHandler {
	return &InvoiceDocumentHandler{documents: documents}
}

// RegisterRoutes registers the routes on rg (/api/invoices)
func (h *InvoiceDocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/zatca", h.Zatca)
	rg.GET("/:id/pdf", h.PDF)
}

// Zatca handles GET /api/invoices/:id/zatca
func (h *InvoiceDocumentHandler) Zatca(c *gin.Context) {
	scope, ok := h.scope(c, shared.ScopeByEnterprise)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	res, err := h.documents.Zatca(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// PDF handles GET /api/invoices/:id/pdf
func (h *InvoiceDocumentHandler) PDF(c *gin.Context) {
	scope, ok := h.scope(c, shared.ScopeByEnterprise)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	doc, err := h.documents.PDF(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Data)
}

// CompanyLogoHandler serves company logo uploads
type CompanyLogoHandler struct {
	BaseHandler
	logos     *partnerapp.LogoService
	maxUpload int64
}

// NewCompanyLogoHandler creates a new CompanyLogoHandler
func NewCompanyLogoHandler(logos *partnerapp.LogoService, maxUpload int64) *CompanyLogoHandler {
	return &CompanyLogoHandler{logos: logos, maxUpload: maxUpload}
}

// RegisterRoutes registers the routes on rg (/api/companies)
func (h *CompanyLogoHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/logo", h.UploadLogo)
}

// UploadLogo handles POST /api/companies/:id/logo (multipart "file")
func (h *CompanyLogoHandler) UploadLogo(c *gin.Context) {
	scope, ok := h.scope(c, shared.ScopeByEnterprise)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	data, ok := h.upload(c, h.maxUpload)
	if !ok {
		return
	}
	company, err := h.logos.UploadLogo(c.Request.Context(), scope, id, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, company)
}
