package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/domain"
	"orderflow/internal/infrastructure/http/v1/dto"
	"orderflow/internal/infrastructure/http/v1/middleware"
	"orderflow/internal/infrastructure/wire"
)

// Clock returns the current time. Invoices render overdue relative to it.
type Clock func() time.Time

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindOptionalJSON binds the body when one is present.
func (h *BaseHandler) BindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, obj)
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParamID parses the :id path parameter.
func (h *BaseHandler) ParamID(c *gin.Context) (id.ID, bool) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("id", c.Param("id")))
		return id.Nil(), false
	}
	return docID, true
}

// ListFilter binds and compiles the list query.
func (h *BaseHandler) ListFilter(c *gin.Context) (domain.ListFilter, bool) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return domain.ListFilter{}, false
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return domain.ListFilter{}, false
	}
	return f, true
}

// Error registers err on the context and aborts. The response is written by
// middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends 200 with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data)
}

// Created sends 201 with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, data)
}

func (h *BaseHandler) respond(c *gin.Context, status int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	middleware.CompleteIdempotency(c, status, raw)
	c.Data(status, "application/json; charset=utf-8", raw)
}

// byID runs op on the :id document and renders the result. Used for reads
// and for transitions without a body.
func byID[T, D any](h *BaseHandler, c *gin.Context, op func(context.Context, id.ID) (T, error), conv func(T) D) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	doc, err := op(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, conv(doc))
}

// list renders one page of a collection.
func list[T, D any](h *BaseHandler, c *gin.Context, find func(context.Context, domain.ListFilter) (domain.ListResult[T], error), conv func(T) D) {
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := find(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, wire.FromList(res, conv))
}
