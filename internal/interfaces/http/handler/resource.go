package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/application/resource"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/dto"
	"github.com/sikka-software/Tanad-sub009/pkg/listing"
)

// MaxPageSize caps the page_size query parameter
const MaxPageSize = 100

// ResourceRoutes is a handler serving the CRUD routes of one resource
type ResourceRoutes interface {
	Name() string
	RegisterRoutes(rg *gin.RouterGroup)
}

// ResourceHandler serves the generic CRUD routes of a resource:
//
//	GET    /            list (page, page_size, sort, filter[..], search, case_sensitive)
//	POST   /            create
//	DELETE /            bulk delete {"ids": [...]}
//	GET    /:id         detail
//	PUT    /:id         partial update (PATCH too)
//	DELETE /:id         delete
//	POST   /:id/duplicate
type ResourceHandler[T any, PT resource.Model[T]] struct {
	BaseHandler
	svc    *resource.Service[T, PT]
	column shared.ScopeColumn
}

// NewResourceHandler creates a handler for svc
func NewResourceHandler[T any, PT resource.Model[T]](svc *resource.Service[T, PT]) *ResourceHandler[T, PT] {
	return &ResourceHandler[T, PT]{
		svc:    svc,
		column: shared.ScopeColumnOf(PT(new(T))),
	}
}

// Name returns the resource name used in URLs
func (h *ResourceHandler[T, PT]) Name() string {
	return h.svc.Name()
}

// RegisterRoutes registers the CRUD routes on rg
func (h *ResourceHandler[T, PT]) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("", h.DeleteMany)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/duplicate", h.Duplicate)
}

// List returns one page of records
func (h *ResourceHandler[T, PT]) List(c *gin.Context) {
	scope, ok := h.scope(c, h.column)
	if !ok {
		return
	}
	filter, err := listFilter(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), scope, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Get returns one record with its relations
func (h *ResourceHandler[T, PT]) Get(c *gin.Context) {
	scope, ok := h.scope(c, h.column)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	entity, err := h.svc.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entity)
}

// Create creates a record from the JSON body
func (h *ResourceHandler[T, PT]) Create(c *gin.Context) {
	scope, ok := h.scope(c, h.column)
	if !ok {
		return
	}
	body, ok := h.body(c)
	if !ok {
		return
	}
	entity, err := h.svc.Create(c.Request.Context(), scope, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entity)
}

// Update applies the keys of the JSON body to a record
func (h *ResourceHandler[T, PT]) Update(c *gin.Context) {
	scope, ok := h.scope(c, h.column)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	body, ok := h.body(c)
	if !ok {
		return
	}
	entity, err := h.svc.Update(c.Request.Context(), scope, id, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entity)
}

// Delete removes one record
func (h *ResourceHandler[T, PT]) Delete(c *gin.Context) {
	scope, ok := h.scope(c, h.column)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteMany removes every record listed in the body, or none
func (h *ResourceHandler[T, PT]) DeleteMany(c *gin.Context) {
	scope, ok := h.scope(c, h.column)
	if !ok {
		return
	}
	invalid := shared.NewValidationError("ids must be a non-empty list of UUIDs",
		shared.FieldProblem{Field: "ids", Message: "ids must be a non-empty list of UUIDs"})
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, invalid)
		return
	}
	// uuid.Parse accepts any letter case, unlike the validator's uuid tag
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.HandleError(c, invalid)
			return
		}
		ids = append(ids, id)
	}
	deleted, err := h.svc.DeleteMany(c.Request.Context(), scope, ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.BulkDeleteResponse{Deleted: deleted})
}

// Duplicate copies a record and its child rows
func (h *ResourceHandler[T, PT]) Duplicate(c *gin.Context) {
	scope, ok := h.scope(c, h.column)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	entity, err := h.svc.Duplicate(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entity)
}

// listFilter reads paging and the listing query from the query string
func listFilter(c *gin.Context) (shared.Filter, error) {
	filter := shared.DefaultFilter()

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, shared.NewDomainError("INVALID_INPUT", "page must be a positive integer")
		}
		filter.Page = n
	}
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageSize {
			return filter, shared.NewDomainError("INVALID_INPUT",
				"page_size must be between 1 and "+strconv.Itoa(MaxPageSize))
		}
		filter.PageSize = n
	}

	q, err := listing.Parse(c.Request.URL.Query())
	if err != nil {
		return filter, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if len(q.Sorts) == 0 {
		q.Sorts = filter.Query.Sorts
	}
	filter.Query = q
	return filter, nil
}
