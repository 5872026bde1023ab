package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/sikka-software/Tanad-sub009/internal/application/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
)

// ProfileHandler serves the caller's profile and enterprise
type ProfileHandler struct {
	BaseHandler
	profiles *identityapp.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles *identityapp.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes registers the routes on rg (/api)
func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.GetProfile)
	rg.PUT("/profile", h.UpdateProfile)
	rg.GET("/enterprise", h.GetEnterprise)
	rg.POST("/enterprise", h.CreateEnterprise)
	rg.PUT("/enterprise", h.UpdateEnterprise)
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, ok := h.profile(c)
	if !ok {
		return
	}
	h.Success(c, profile)
}

// UpdateProfile handles PUT /api/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	profile, ok := h.profile(c)
	if !ok {
		return
	}
	var req identityapp.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	updated, err := h.profiles.UpdateProfile(c.Request.Context(), profile.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, updated)
}

// GetEnterprise handles GET /api/enterprise
func (h *ProfileHandler) GetEnterprise(c *gin.Context) {
	scope, ok := h.scope(c, shared.ScopeByEnterprise)
	if !ok {
		return
	}
	enterprise, err := h.profiles.GetEnterprise(c.Request.Context(), scope)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, enterprise)
}

// CreateEnterprise handles POST /api/enterprise
func (h *ProfileHandler) CreateEnterprise(c *gin.Context) {
	profile, ok := h.profile(c)
	if !ok {
		return
	}
	var req identityapp.EnterpriseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, shared.NewValidationError("name is required",
			shared.FieldProblem{Field: "name", Message: "name is required"}))
		return
	}
	enterprise, err := h.profiles.CreateEnterprise(c.Request.Context(), profile.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, enterprise)
}

// UpdateEnterprise handles PUT /api/enterprise
func (h *ProfileHandler) UpdateEnterprise(c *gin.Context) {
	scope, ok := h.scope(c, shared.ScopeByEnterprise)
	if !ok {
		return
	}
	var req identityapp.EnterpriseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, shared.NewValidationError("name is required",
			shared.FieldProblem{Field: "name", Message: "name is required"}))
		return
	}
	enterprise, err := h.profiles.UpdateEnterprise(c.Request.Context(), scope, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, enterprise)
}
