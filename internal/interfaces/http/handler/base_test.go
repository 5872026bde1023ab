package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/persistence"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/dto"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/middleware"
	"github.com/sikka-software/Tanad-sub009/pkg/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

// withProfile simulates a request that passed SessionAuth
func withProfile(c *gin.Context, enterpriseID *uuid.UUID) *identity.Profile {
	p := identity.NewProfile(uuid.New(), "owner@tanad.test")
	p.EnterpriseID = enterpriseID
	c.Set(middleware.ProfileKey, p)
	return p
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("success", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.Success(c, gin.H{"name": "Acme"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"name":"Acme"}}`, w.Body.String())
	})

	t.Run("created", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/")
		h.Created(c, gin.H{"id": "1"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("no content", func(t *testing.T) {
		c, w := newTestContext(http.MethodDelete, "/")
		h.NoContent(c)
		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("unauthorized", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Set(middleware.RequestIDKey, "req-1")
		h.Unauthorized(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":{"code":"UNAUTHORIZED"}}`, w.Body.String())
	})

	t.Run("bad request carries request id", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Set(middleware.RequestIDKey, "req-2")
		h.BadRequest(c, "Invalid id")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
		assert.Equal(t, "req-2", resp.Error.RequestID)
	})
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, shared.ErrNotFound.Message},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists, shared.ErrAlreadyExists.Message},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput, shared.ErrInvalidInput.Message},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden, shared.ErrForbidden.Message},
		{"no enterprise", shared.ErrNoEnterprise, http.StatusForbidden, dto.ErrCodeNoEnterprise, shared.ErrNoEnterprise.Message},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, shared.ErrInvalidState.Message},
		{"wrapped domain error", fmt.Errorf("load client: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound, shared.ErrNotFound.Message},
		{"unmapped domain code", shared.NewDomainError("ERR_NOT_FOUND", "gone"), http.StatusInternalServerError, dto.ErrCodeInternal, "An internal error occurred"},
		{"database failure", fmt.Errorf("%w: pq: relation \"clients\" does not exist", persistence.ErrDatabase), http.StatusInternalServerError, dto.ErrCodeInternal, "An internal error occurred"},
		{"unknown error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal, "An internal error occurred"},
		{"domain error with server status", shared.NewDomainError("INTERNAL_ERROR", "stripe key missing"), http.StatusInternalServerError, dto.ErrCodeInternal, "An internal error occurred"},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.NotContains(t, w.Body.String(), "pq:")
			assert.NotContains(t, w.Body.String(), "stripe key")
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/")
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})

	t.Run("internal errors are attached to the context", func(t *testing.T) {
		h := &BaseHandler{}
		c, _ := newTestContext(http.MethodGet, "/")
		h.HandleError(c, assert.AnError)
		require.Len(t, c.Errors, 1)
		assert.ErrorIs(t, c.Errors[0].Err, assert.AnError)
	})
}

func TestBaseHandler_HandleError_ValidationDetails(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.HandleError(c, shared.NewValidationError("Validation failed",
		shared.FieldProblem{Field: "name", Message: "name is required"},
		shared.FieldProblem{Field: "email", Message: "email must be a valid email"},
	))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "name", resp.Error.Details[0].Field)
	assert.Equal(t, "email", resp.Error.Details[1].Field)
}

func TestBaseHandler_Scope(t *testing.T) {
	h := &BaseHandler{}
	enterpriseID := uuid.New()

	t.Run("no session", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		_, ok := h.scope(c, shared.ScopeByEnterprise)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("enterprise scope without enterprise", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		withProfile(c, nil)
		_, ok := h.scope(c, shared.ScopeByEnterprise)
		assert.False(t, ok)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeNoEnterprise, decode(t, w).Error.Code)
	})

	t.Run("enterprise scope", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		p := withProfile(c, &enterpriseID)
		s, ok := h.scope(c, shared.ScopeByEnterprise)
		require.True(t, ok)
		assert.Equal(t, enterpriseID, s.EnterpriseID)
		assert.Equal(t, p.ID, s.UserID)
	})

	t.Run("user scope without enterprise", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		p := withProfile(c, nil)
		s, ok := h.scope(c, shared.ScopeByUser)
		require.True(t, ok)
		assert.Equal(t, p.ID, s.UserID)
		assert.Equal(t, uuid.Nil, s.EnterpriseID)
	})

	t.Run("user scope keeps enterprise", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		withProfile(c, &enterpriseID)
		s, ok := h.scope(c, shared.ScopeByUser)
		require.True(t, ok)
		assert.Equal(t, enterpriseID, s.EnterpriseID)
	})
}

func TestBaseHandler_PathID(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok := h.pathID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid id", decode(t, w).Error.Message)

	id := uuid.New()
	c, _ = newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.pathID(c)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func multipartRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "logo.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBaseHandler_Upload(t *testing.T) {
	h := &BaseHandler{}

	t.Run("reads the file", func(t *testing.T) {
		c, _ := newTestContext(http.MethodPost, "/")
		c.Request = multipartRequest(t, "file", []byte("\x89PNG\r\n\x1a\npayload"))
		data, ok := h.upload(c, 1024)
		require.True(t, ok)
		assert.Equal(t, []byte("\x89PNG\r\n\x1a\npayload"), data)
	})

	t.Run("missing file", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/")
		c.Request = multipartRequest(t, "", nil)
		_, ok := h.upload(c, 1024)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "file", resp.Error.Details[0].Field)
	})

	t.Run("too large", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/")
		c.Request = multipartRequest(t, "file", bytes.Repeat([]byte("x"), 64))
		_, ok := h.upload(c, 16)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "File is too large", decode(t, w).Error.Message)
	})
}

func TestListFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(t *testing.T, f shared.Filter)
	}{
		{
			name:  "defaults",
			query: "",
			check: func(t *testing.T, f shared.Filter) {
				assert.Equal(t, 1, f.Page)
				assert.Equal(t, 20, f.PageSize)
				require.Len(t, f.Query.Sorts, 1)
				assert.Equal(t, "created_at", f.Query.Sorts[0].Field)
				assert.Equal(t, listing.Desc, f.Query.Sorts[0].Direction)
			},
		},
		{
			name:  "paging sort filter and search",
			query: "page=3&page_size=50&sort=name:asc&filter[status]=active&search=acme",
			check: func(t *testing.T, f shared.Filter) {
				assert.Equal(t, 3, f.Page)
				assert.Equal(t, 50, f.PageSize)
				require.Len(t, f.Query.Sorts, 1)
				assert.Equal(t, "name", f.Query.Sorts[0].Field)
				assert.Equal(t, listing.Asc, f.Query.Sorts[0].Direction)
				require.Len(t, f.Query.Filters, 1)
				assert.Equal(t, "status", f.Query.Filters[0].Field)
				assert.Equal(t, "active", f.Query.Filters[0].Value)
				assert.Equal(t, "acme", f.Query.Search)
			},
		},
		{name: "negative page", query: "page=-1", wantErr: true},
		{name: "non numeric page", query: "page=two", wantErr: true},
		{name: "page size zero", query: "page_size=0", wantErr: true},
		{name: "page size over max", query: "page_size=101", wantErr: true},
		{name: "bad case sensitivity", query: "search=a&case_sensitive=maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/api/clients?"+tt.query)
			f, err := listFilter(c)
			if tt.wantErr {
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, "INVALID_INPUT", de.Code)
				return
			}
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}
