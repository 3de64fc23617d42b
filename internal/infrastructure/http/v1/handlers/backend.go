package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"orderflow/internal/infrastructure/backend"
	"orderflow/internal/infrastructure/http/v1/dto"
	"orderflow/internal/infrastructure/wire"
)

// BackendHandler proxies the ERP backend. Every answer is normalized into
// the canonical documents before it is returned; request intents are
// serialized with the same normalizer. Backend ids are opaque strings.
type BackendHandler struct {
	*BaseHandler
	client     *backend.Client
	normalizer *wire.Normalizer
}

func NewBackendHandler(base *BaseHandler, client *backend.Client, normalizer *wire.Normalizer) *BackendHandler {
	return &BackendHandler{BaseHandler: base, client: client, normalizer: normalizer}
}

func (h *BackendHandler) query(c *gin.Context) backend.Query {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return backend.Query{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
}

// proxyList renders a backend list with the local list envelope.
func proxyList[D any](h *BackendHandler, c *gin.Context, find func(context.Context, backend.Query) ([]D, error)) {
	q := h.query(c)
	items, err := find(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, wire.List[D]{Items: items, TotalCount: int64(len(items)), Limit: q.Limit, Offset: q.Offset})
}

// proxyDoc calls op with the :id parameter.
func proxyDoc[D any](h *BackendHandler, c *gin.Context, op func(context.Context, string) (D, error)) {
	doc, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// --- Requisitions ---

func (h *BackendHandler) ListRequisitions(c *gin.Context) {
	proxyList(h, c, h.client.ListRequisitions)
}

func (h *BackendHandler) GetRequisition(c *gin.Context) {
	proxyDoc(h, c, h.client.GetRequisition)
}

func (h *BackendHandler) CreateRequisition(c *gin.Context) {
	var req dto.CreateRequisitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	out, err := h.normalizer.RequisitionRequest(in)
	if err != nil {
		h.Error(c, err)
		return
	}
	r, err := h.client.CreateRequisition(c.Request.Context(), out)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, r)
}

func (h *BackendHandler) ApproveRequisition(c *gin.Context) {
	proxyDoc(h, c, h.client.ApproveRequisition)
}

func (h *BackendHandler) ConvertRequisition(c *gin.Context) {
	po, err := h.client.ConvertRequisition(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, po)
}

// --- Purchase orders ---

func (h *BackendHandler) ListPurchaseOrders(c *gin.Context) {
	proxyList(h, c, h.client.ListPurchaseOrders)
}

func (h *BackendHandler) GetPurchaseOrder(c *gin.Context) {
	proxyDoc(h, c, h.client.GetPurchaseOrder)
}

func (h *BackendHandler) CreatePurchaseOrder(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	out, err := h.normalizer.PurchaseOrderRequest(in)
	if err != nil {
		h.Error(c, err)
		return
	}
	po, err := h.client.CreatePurchaseOrder(c.Request.Context(), out)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, po)
}

func (h *BackendHandler) ConfirmPurchaseOrder(c *gin.Context) {
	proxyDoc(h, c, h.client.ConfirmPurchaseOrder)
}

// --- Goods receipts ---

func (h *BackendHandler) ListGoodsReceipts(c *gin.Context) {
	proxyList(h, c, h.client.ListGoodsReceipts)
}

func (h *BackendHandler) GetGoodsReceipt(c *gin.Context) {
	proxyDoc(h, c, h.client.GetGoodsReceipt)
}

func (h *BackendHandler) CreateGoodsReceipt(c *gin.Context) {
	var req dto.CreateGoodsReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}
	poID, lines, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	gr, err := h.client.CreateGoodsReceipt(c.Request.Context(), h.normalizer.GoodsReceiptRequest(poID, lines))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, gr)
}

// --- Sales orders ---

func (h *BackendHandler) ListSalesOrders(c *gin.Context) {
	proxyList(h, c, h.client.ListSalesOrders)
}

func (h *BackendHandler) GetSalesOrder(c *gin.Context) {
	proxyDoc(h, c, h.client.GetSalesOrder)
}

func (h *BackendHandler) CreateSalesOrder(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	out, err := h.normalizer.SalesOrderRequest(in)
	if err != nil {
		h.Error(c, err)
		return
	}
	so, err := h.client.CreateSalesOrder(c.Request.Context(), out)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, so)
}

func (h *BackendHandler) ConfirmSalesOrder(c *gin.Context) {
	proxyDoc(h, c, h.client.ConfirmSalesOrder)
}
