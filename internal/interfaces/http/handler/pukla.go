package handler

import (
	"github.com/gin-gonic/gin"
	puklaapp "github.com/sikka-software/Tanad-sub009/internal/application/pukla"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// PuklaHandler serves the link-in-bio routes that are not plain CRUD
type PuklaHandler struct {
	BaseHandler
	svc       *puklaapp.Service
	maxUpload int64
}

// NewPuklaHandler creates a new PuklaHandler. maxUpload caps avatar files.
func NewPuklaHandler(svc *puklaapp.Service, maxUpload int64) *PuklaHandler {
	return &PuklaHandler{svc: svc, maxUpload: maxUpload}
}

// LinksRequest is the body of a link list replacement
type LinksRequest struct {
	Links []puklaapp.LinkInput `json:"links"`
}

// RegisterRoutes registers the session routes on rg (/api/puklas)
func (h *PuklaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/themes", h.Themes)
	rg.PUT("/:id/links", h.ReplaceLinks)
	rg.POST("/:id/avatar", h.UploadAvatar)
}

// RegisterPublicRoutes registers the anonymous routes on rg (/api/public)
func (h *PuklaHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/pukla/:slug", h.PublicPage)
}

// Themes handles GET /api/puklas/themes
func (h *PuklaHandler) Themes(c *gin.Context) {
	h.Success(c, h.svc.Themes())
}

// ReplaceLinks handles PUT /api/puklas/:id/links
func (h *PuklaHandler) ReplaceLinks(c *gin.Context) {
	scope, ok := h.scope(c, shared.ScopeByUser)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req LinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	page, err := h.svc.ReplaceLinks(c.Request.Context(), scope, id, req.Links)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// UploadAvatar handles POST /api/puklas/:id/avatar (multipart "file")
func (h *PuklaHandler) UploadAvatar(c *gin.Context) {
	scope, ok := h.scope(c, shared.ScopeByUser)
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
	page, err := h.svc.UploadAvatar(c.Request.Context(), scope, id, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// PublicPage handles GET /api/public/pukla/:slug
func (h *PuklaHandler) PublicPage(c *gin.Context) {
	page, err := h.svc.PublicPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=60")
	h.Success(c, page)
}
