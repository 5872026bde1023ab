package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikka-software/Tanad-sub009/internal/domain/identity"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/internal/infrastructure/logger"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/dto"
	"github.com/sikka-software/Tanad-sub009/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// internalErrorMessage is the only message clients see for unexpected failures
const internalErrorMessage = "An internal error occurred"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, "", ""))
}

// HandleError converts an error into a response. Domain errors keep their
// code and message; anything else is logged and reported as a 500 with a
// fixed message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := domainErr.Code
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			h.internalError(c, err)
			return
		}
		c.JSON(status, dto.NewValidationErrorResponse(code, domainErr.Message, requestID, domainErr.Details))
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}

	h.internalError(c, err)
}

func (h *BaseHandler) internalError(c *gin.Context, err error) {
	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, internalErrorMessage)
}

// profile returns the caller's profile, answering 401 when there is none
func (h *BaseHandler) profile(c *gin.Context) (*identity.Profile, bool) {
	p := middleware.GetProfile(c)
	if p == nil {
		h.Unauthorized(c)
		return nil, false
	}
	return p, true
}

// scope returns the caller's scope for a resource partitioned by column.
// Enterprise resources need a profile that has joined an enterprise.
func (h *BaseHandler) scope(c *gin.Context, column shared.ScopeColumn) (shared.Scope, bool) {
	p, ok := h.profile(c)
	if !ok {
		return shared.Scope{}, false
	}
	if column == shared.ScopeByUser {
		s := shared.Scope{UserID: p.ID}
		if p.EnterpriseID != nil {
			s.EnterpriseID = *p.EnterpriseID
		}
		return s, true
	}
	s, err := p.Scope()
	if err != nil {
		h.HandleError(c, err)
		return shared.Scope{}, false
	}
	return s, true
}

// pathID parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// body reads the raw request body
func (h *BaseHandler) body(c *gin.Context) ([]byte, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return data, true
}

// upload reads the "file" part of a multipart request
func (h *BaseHandler) upload(c *gin.Context, maxSize int64) ([]byte, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.HandleError(c, err)
			return nil, false
		}
		h.HandleError(c, shared.NewValidationError("A file is required",
			shared.FieldProblem{Field: "file", Message: "A file is required"}))
		return nil, false
	}
	if header.Size > maxSize {
		h.HandleError(c, shared.NewValidationError("File is too large",
			shared.FieldProblem{Field: "file", Message: "File is too large"}))
		return nil, false
	}
	f, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return data, true
}
