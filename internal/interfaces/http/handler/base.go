package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/Marusmurong/mall-sub000/internal/domain/site"
	"github.com/Marusmurong/mall-sub000/internal/infrastructure/logger"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/dto"
	"github.com/Marusmurong/mall-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

func (h *BaseHandler) log() *zap.Logger {
	if h.logger == nil {
		return zap.NewNop()
	}
	return h.logger
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	page, pageSize = dto.NormalizePage(page, pageSize)
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// HandleError maps domain errors to their API code and status. Anything
// else is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.For(c.Request.Context(), h.log()).Error("Unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	h.InternalError(c)
}

// bindJSON decodes the body; validation failures list the offending fields
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// bindQuery decodes query parameters
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		middleware.HandleValidationError(c, verrs)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
}

// pathUUID parses a UUID path parameter
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentSite returns the site resolved for this request
func (h *BaseHandler) currentSite(c *gin.Context) (*site.Site, bool) {
	st := middleware.GetSite(c)
	if st == nil {
		h.NotFound(c, "Site not found")
		return nil, false
	}
	return st, true
}

// currentUserID returns the authenticated user
func (h *BaseHandler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetJWTUserID(c)
	if id == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUserID returns the user for routes that also serve guests
func optionalUserID(c *gin.Context) *uuid.UUID {
	id := middleware.GetJWTUserID(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// reply writes v, or maps err through HandleError
func reply[T any](h *BaseHandler, c *gin.Context, v T, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// withID runs fn for the :id path parameter and writes its result
func withID[T any](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (T, error)) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	v, err := fn(c.Request.Context(), id)
	reply(h, c, v, err)
}

// withSiteAndID runs fn for the current site and the named path parameter
func withSiteAndID[T any](h *BaseHandler, c *gin.Context, param string, fn func(ctx context.Context, siteID, id uuid.UUID) (T, error)) {
	st, ok := h.currentSite(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, param)
	if !ok {
		return
	}
	v, err := fn(c.Request.Context(), st.ID, id)
	reply(h, c, v, err)
}
