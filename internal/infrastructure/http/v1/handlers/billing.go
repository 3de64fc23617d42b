package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"orderflow/internal/core/id"
	"orderflow/internal/domain"
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/pipeline"
	"orderflow/internal/infrastructure/http/v1/dto"
	"orderflow/internal/infrastructure/wire"
)

// InvoiceHandler serves /purchase/invoices and /sales/invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *pipeline.Service
	kind    billing.Type
	clock   Clock
}

func NewInvoiceHandler(base *BaseHandler, service *pipeline.Service, kind billing.Type, clock Clock) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service, kind: kind, clock: clock}
}

func (h *InvoiceHandler) render(inv *billing.Invoice) *wire.Invoice {
	return wire.FromInvoice(inv, h.clock())
}

func (h *InvoiceHandler) List(c *gin.Context) {
	list(h.BaseHandler, c, func(ctx context.Context, f domain.ListFilter) (domain.ListResult[*billing.Invoice], error) {
		return h.service.ListInvoices(ctx, h.kind, f)
	}, h.render)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, func(ctx context.Context, invID id.ID) (*billing.Invoice, error) {
		return h.service.GetInvoice(ctx, h.kind, invID)
	}, h.render)
}

func (h *InvoiceHandler) Issue(c *gin.Context) {
	byID(h.BaseHandler, c, func(ctx context.Context, invID id.ID) (*billing.Invoice, error) {
		return h.service.IssueInvoice(ctx, h.kind, invID)
	}, h.render)
}

// Pay handles POST /:id/payments
func (h *InvoiceHandler) Pay(c *gin.Context) {
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, invID id.ID) (*billing.Invoice, error) {
		return h.service.RecordPayment(ctx, h.kind, invID, req.Amount.Decimal, req.Reference)
	}, h.render)
}

func (h *InvoiceHandler) Cancel(c *gin.Context) {
	byID(h.BaseHandler, c, func(ctx context.Context, invID id.ID) (*billing.Invoice, error) {
		return h.service.CancelInvoice(ctx, h.kind, invID)
	}, h.render)
}
