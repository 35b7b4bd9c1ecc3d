// Package handler implements the gin handlers of the shop API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ecommerce/backend/internal/domain/shared"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/interfaces/http/dto"
	"github.com/ecommerce/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 envelope with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error envelope whose status derives from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 for requests that could not be parsed at all
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// BindError answers a failed ShouldBind*: field details for validator
// errors, a plain 400 otherwise.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details, ok := middleware.ValidationDetails(err); ok {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed", middleware.GetRequestID(c), details))
		return
	}
	h.BadRequest(c, "Malformed request body")
}

// HandleError maps domain failures to their status; anything else is a 500.
// Store failures are logged with their cause and reported without it.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := middleware.GetRequestID(c)

	var verrs *shared.ValidationErrors
	if errors.As(err, &verrs) && verrs.Len() > 0 {
		details := make([]dto.ValidationDetail, 0, verrs.Len())
		for _, e := range verrs.Errors {
			details = append(details, dto.ValidationDetail{Field: e.Field, Message: e.Message})
		}
		resp := dto.NewValidationErrorResponse(verrs.Errors[0].Message, requestID, details)
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		status := dto.GetHTTPStatus(de.Code)
		message := de.Message
		if status >= http.StatusInternalServerError {
			logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
			message = shared.ErrStore.Message
		}
		c.JSON(status, dto.NewFieldErrorResponse(de.Code, message, de.Field, requestID))
		return
	}

	logger.FromContext(c.Request.Context()).Error("unexpected error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal, "An unexpected error occurred", requestID))
}

// uintParam parses a positive numeric path parameter. On failure the 400
// is already written.
func (h *BaseHandler) uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		h.Error(c, dto.ErrCodeValidation, "Invalid "+name)
		return 0, false
	}
	return uint(v), true
}
