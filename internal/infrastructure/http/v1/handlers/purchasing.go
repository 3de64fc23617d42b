package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	appctx "orderflow/internal/core/context"
	"orderflow/internal/core/id"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/pipeline"
	"orderflow/internal/infrastructure/http/v1/dto"
	"orderflow/internal/infrastructure/wire"
)

// RequisitionHandler serves /purchase/requisitions.
type RequisitionHandler struct {
	*BaseHandler
	service *pipeline.Service
}

func NewRequisitionHandler(base *BaseHandler, service *pipeline.Service) *RequisitionHandler {
	return &RequisitionHandler{BaseHandler: base, service: service}
}

func (h *RequisitionHandler) List(c *gin.Context) {
	list(h.BaseHandler, c, h.service.ListRequisitions, wire.FromRequisition)
}

func (h *RequisitionHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetRequisition, wire.FromRequisition)
}

// Create handles POST /purchase/requisitions
func (h *RequisitionHandler) Create(c *gin.Context) {
	var req dto.CreateRequisitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	if in.RequestedBy == "" {
		in.RequestedBy = appctx.GetActorName(c.Request.Context())
	}
	r, err := h.service.CreateRequisition(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromRequisition(r))
}

// UpdateLines handles PUT /purchase/requisitions/:id/lines
func (h *RequisitionHandler) UpdateLines(c *gin.Context) {
	var req dto.UpdateLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	lines, err := dto.LineInputs(req.Lines)
	if err != nil {
		h.Error(c, err)
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, reqID id.ID) (*purchasing.Requisition, error) {
		return h.service.UpdateRequisitionLines(ctx, reqID, lines)
	}, wire.FromRequisition)
}

func (h *RequisitionHandler) Submit(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.SubmitRequisition, wire.FromRequisition)
}

func (h *RequisitionHandler) Approve(c *gin.Context) {
	byID(h.BaseHandler, c, func(ctx context.Context, reqID id.ID) (*purchasing.Requisition, error) {
		return h.service.ApproveRequisition(ctx, reqID, appctx.GetActorName(ctx))
	}, wire.FromRequisition)
}

func (h *RequisitionHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, reqID id.ID) (*purchasing.Requisition, error) {
		return h.service.RejectRequisition(ctx, reqID, req.Reason)
	}, wire.FromRequisition)
}

func (h *RequisitionHandler) Cancel(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.CancelRequisition, wire.FromRequisition)
}

// Convert handles POST /purchase/requisitions/:id/convert-to-po
func (h *RequisitionHandler) Convert(c *gin.Context) {
	var req dto.ConvertRequisitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	supplierID, err := dto.ParseID("supplierId", req.SupplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	po, err := h.service.ConvertRequisition(c.Request.Context(), docID, supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromPurchaseOrder(po))
}

// PurchaseOrderHandler serves /purchase/orders.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *pipeline.Service
	clock   Clock
}

func NewPurchaseOrderHandler(base *BaseHandler, service *pipeline.Service, clock Clock) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service, clock: clock}
}

func (h *PurchaseOrderHandler) List(c *gin.Context) {
	list(h.BaseHandler, c, h.service.ListPurchaseOrders, wire.FromPurchaseOrder)
}

func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetPurchaseOrder, wire.FromPurchaseOrder)
}

// Create handles POST /purchase/orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	po, err := h.service.CreatePurchaseOrder(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromPurchaseOrder(po))
}

func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.SubmitPurchaseOrder, wire.FromPurchaseOrder)
}

func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.ApprovePurchaseOrder, wire.FromPurchaseOrder)
}

func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.ConfirmPurchaseOrder, wire.FromPurchaseOrder)
}

func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.CancelPurchaseOrder, wire.FromPurchaseOrder)
}

// Invoice handles POST /purchase/orders/:id/invoices
func (h *PurchaseOrderHandler) Invoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	inv, err := h.service.CreatePurchaseInvoice(c.Request.Context(), docID, req.Due())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromInvoice(inv, h.clock()))
}

// GoodsReceiptHandler serves /purchase/receipts.
type GoodsReceiptHandler struct {
	*BaseHandler
	service *pipeline.Service
}

func NewGoodsReceiptHandler(base *BaseHandler, service *pipeline.Service) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{BaseHandler: base, service: service}
}

func (h *GoodsReceiptHandler) List(c *gin.Context) {
	list(h.BaseHandler, c, h.service.ListGoodsReceipts, wire.FromGoodsReceipt)
}

func (h *GoodsReceiptHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetGoodsReceipt, wire.FromGoodsReceipt)
}

// Create handles POST /purchase/receipts. With "complete": true the receipt
// is completed and the order's received quantities advance in one step.
func (h *GoodsReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateGoodsReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}
	poID, lines, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	var gr *purchasing.GoodsReceipt
	if req.Complete {
		gr, _, err = h.service.ReceiveGoods(c.Request.Context(), poID, lines)
	} else {
		gr, err = h.service.CreateGoodsReceipt(c.Request.Context(), poID, lines)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wire.FromGoodsReceipt(gr))
}

func (h *GoodsReceiptHandler) Start(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.StartGoodsReceipt, wire.FromGoodsReceipt)
}

// Inspect handles POST /purchase/receipts/:id/inspect
func (h *GoodsReceiptHandler) Inspect(c *gin.Context) {
	var req dto.InspectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	lineID, err := dto.ParseID("lineId", req.LineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	byID(h.BaseHandler, c, func(ctx context.Context, grID id.ID) (*purchasing.GoodsReceipt, error) {
		return h.service.InspectGoodsReceipt(ctx, grID, lineID, req.Accepted, req.Rejected)
	}, wire.FromGoodsReceipt)
}

// Complete handles POST /purchase/receipts/:id/complete. The response holds
// the receipt and the updated purchase order.
func (h *GoodsReceiptHandler) Complete(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	gr, po, err := h.service.CompleteGoodsReceipt(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ReceiptCompletion{
		Receipt:       wire.FromGoodsReceipt(gr),
		PurchaseOrder: wire.FromPurchaseOrder(po),
	})
}

func (h *GoodsReceiptHandler) Cancel(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.CancelGoodsReceipt, wire.FromGoodsReceipt)
}

// ReceiptCompletion is the answer of a completed receipt.
type ReceiptCompletion struct {
	Receipt       *wire.GoodsReceipt  `json:"receipt"`
	PurchaseOrder *wire.PurchaseOrder `json:"purchaseOrder"`
}
