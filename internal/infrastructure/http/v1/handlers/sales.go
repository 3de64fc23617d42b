package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"orderflow/internal/core/id"
	"orderflow/internal/domain/documents/sales"
	"orderflow/internal/domain/pipeline"
	"orderflow/internal/infrastructure/http/v1/dto"
	"orderflow/internal/infrastructure/wire"
)

// SalesOrderHandler serves /sales/orders.
type SalesOrderHandler struct {
	*BaseHandler
	service *pipeline.Service
	clock   Clock
}

func NewSalesOrderHandler(base *BaseHandler, service *pipeline.Service, clock Clock) *SalesOrderHandler {
	return &SalesOrderHandler{BaseHandler: base, service: service, clock: clock}
}

func (h *SalesOrderHandler) List(c *gin.Context) {
	list(h.BaseHandler, c, h.service.ListSalesOrders, wire.FromSalesOrder)
}

func (h *SalesOrderHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetSalesOrder, wire.FromSalesOrder)
}

// Create handles POST /sales/orders
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	so, err := h.service.CreateSalesOrder(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromSalesOrder(so))
}

func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.ConfirmSalesOrder, wire.FromSalesOrder)
}

func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.CancelSalesOrder, wire.FromSalesOrder)
}

func (h *SalesOrderHandler) Complete(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.CompleteSalesOrder, wire.FromSalesOrder)
}

// Picklists handles POST /sales/orders/:id/picklists. The answer is the list
// of generated picklists; it has more than one entry only when splitting by
// warehouse.
func (h *SalesOrderHandler) Picklists(c *gin.Context) {
	var req dto.GeneratePicklistRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	opts, err := req.ToOptions()
	if err != nil {
		h.Error(c, err)
		return
	}
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	pls, err := h.service.GeneratePicklist(c.Request.Context(), docID, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	out := make([]*wire.Picklist, len(pls))
	for i, pl := range pls {
		out[i] = wire.FromPicklist(pl)
	}
	h.Created(c, out)
}

// Invoice handles POST /sales/orders/:id/invoices
func (h *SalesOrderHandler) Invoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	inv, err := h.service.CreateSalesInvoice(c.Request.Context(), docID, req.Due())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromInvoice(inv, h.clock()))
}

// PicklistHandler serves /sales/picklists.
type PicklistHandler struct {
	*BaseHandler
	service *pipeline.Service
}

func NewPicklistHandler(base *BaseHandler, service *pipeline.Service) *PicklistHandler {
	return &PicklistHandler{BaseHandler: base, service: service}
}

func (h *PicklistHandler) List(c *gin.Context) {
	list(h.BaseHandler, c, h.service.ListPicklists, wire.FromPicklist)
}

func (h *PicklistHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetPicklist, wire.FromPicklist)
}

func (h *PicklistHandler) Start(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.StartPicklist, wire.FromPicklist)
}

// Pick handles POST /sales/picklists/:id/picks
func (h *PicklistHandler) Pick(c *gin.Context) {
	var req dto.RecordPickRequest
	if !h.BindJSON(c, &req) {
		return
	}
	lineID, err := dto.ParseID("lineId", req.LineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, plID id.ID) (*sales.Picklist, error) {
		return h.service.RecordPick(ctx, plID, lineID, req.Picked)
	}, wire.FromPicklist)
}

func (h *PicklistHandler) Hold(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.HoldPicklist, wire.FromPicklist)
}

func (h *PicklistHandler) Resume(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.ResumePicklist, wire.FromPicklist)
}

func (h *PicklistHandler) Complete(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.CompletePicklist, wire.FromPicklist)
}

func (h *PicklistHandler) Cancel(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.CancelPicklist, wire.FromPicklist)
}

// Dispatch handles POST /sales/picklists/:id/dispatch
func (h *PicklistHandler) Dispatch(c *gin.Context) {
	var req dto.CreateDispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	d, err := h.service.CreateDispatch(c.Request.Context(), docID, req.Carrier, req.TrackingNumber)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromDispatch(d))
}

// DispatchHandler serves /sales/dispatches.
type DispatchHandler struct {
	*BaseHandler
	service *pipeline.Service
}

func NewDispatchHandler(base *BaseHandler, service *pipeline.Service) *DispatchHandler {
	return &DispatchHandler{BaseHandler: base, service: service}
}

func (h *DispatchHandler) List(c *gin.Context) {
	list(h.BaseHandler, c, h.service.ListDispatches, wire.FromDispatch)
}

func (h *DispatchHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetDispatch, wire.FromDispatch)
}

// Tracking handles GET /sales/dispatches/:id/tracking
func (h *DispatchHandler) Tracking(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetDispatch, func(d *sales.Dispatch) []wire.TrackingEvent {
		return wire.FromTracking(d.Tracking())
	})
}

func (h *DispatchHandler) Ship(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.ShipDispatch, wire.FromDispatch)
}

func (h *DispatchHandler) Depart(c *gin.Context) {
	var req dto.DepartRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, dID id.ID) (*sales.Dispatch, error) {
		return h.service.DepartDispatch(ctx, dID, req.Location)
	}, wire.FromDispatch)
}

func (h *DispatchHandler) Track(c *gin.Context) {
	var req dto.TrackRequest
	if !h.BindJSON(c, &req) {
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, dID id.ID) (*sales.Dispatch, error) {
		return h.service.TrackDispatch(ctx, dID, req.Location, req.Note)
	}, wire.FromDispatch)
}

func (h *DispatchHandler) Deliver(c *gin.Context) {
	var req dto.NoteRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, dID id.ID) (*sales.Dispatch, error) {
		return h.service.DeliverDispatch(ctx, dID, req.Note)
	}, wire.FromDispatch)
}

func (h *DispatchHandler) Cancel(c *gin.Context) {
	var req dto.NoteRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, dID id.ID) (*sales.Dispatch, error) {
		return h.service.CancelDispatch(ctx, dID, req.Note)
	}, wire.FromDispatch)
}
