package backend

import (
	"context"
	"net/http"
	"net/url"

	"orderflow/internal/infrastructure/wire"
)

const (
	requisitionsPath   = "/purchase/requisitions"
	purchaseOrdersPath = "/purchase/orders"
	receiptsPath       = "/purchase/receipts"
	salesOrdersPath    = "/sales/orders"
)

func docPath(base, docID string, action ...string) string {
	p := base + "/" + url.PathEscape(docID)
	for _, a := range action {
		p += "/" + a
	}
	return p
}

// --- Requisitions ---

func (c *Client) ListRequisitions(ctx context.Context, q Query) ([]*wire.Requisition, error) {
	r := request{method: http.MethodGet, path: requisitionsPath, query: q.values()}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Requisitions(r.endpoint(), body)
}

func (c *Client) GetRequisition(ctx context.Context, docID string) (*wire.Requisition, error) {
	r := request{method: http.MethodGet, path: docPath(requisitionsPath, docID), entity: "requisition", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Requisition(r.endpoint(), body)
}

func (c *Client) CreateRequisition(ctx context.Context, in *wire.RequisitionRequest) (*wire.Requisition, error) {
	r := request{method: http.MethodPost, path: requisitionsPath, body: in}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Requisition(r.endpoint(), body)
}

func (c *Client) ApproveRequisition(ctx context.Context, docID string) (*wire.Requisition, error) {
	r := request{method: http.MethodPost, path: docPath(requisitionsPath, docID, "approve"), entity: "requisition", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.Requisition(r.endpoint(), body)
}

// ConvertRequisition asks the backend to create a purchase order from an
// approved requisition. An answer that is not a purchase order is rejected.
func (c *Client) ConvertRequisition(ctx context.Context, docID string) (*wire.PurchaseOrder, error) {
	r := request{method: http.MethodPost, path: docPath(requisitionsPath, docID, "convert-to-po"), entity: "requisition", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.PurchaseOrder(r.endpoint(), body)
}

// --- Purchase orders ---

func (c *Client) ListPurchaseOrders(ctx context.Context, q Query) ([]*wire.PurchaseOrder, error) {
	r := request{method: http.MethodGet, path: purchaseOrdersPath, query: q.values()}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.PurchaseOrders(r.endpoint(), body)
}

func (c *Client) GetPurchaseOrder(ctx context.Context, docID string) (*wire.PurchaseOrder, error) {
	r := request{method: http.MethodGet, path: docPath(purchaseOrdersPath, docID), entity: "purchase order", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.PurchaseOrder(r.endpoint(), body)
}

func (c *Client) CreatePurchaseOrder(ctx context.Context, in *wire.PurchaseOrderRequest) (*wire.PurchaseOrder, error) {
	r := request{method: http.MethodPost, path: purchaseOrdersPath, body: in}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.PurchaseOrder(r.endpoint(), body)
}

func (c *Client) ConfirmPurchaseOrder(ctx context.Context, docID string) (*wire.PurchaseOrder, error) {
	r := request{method: http.MethodPost, path: docPath(purchaseOrdersPath, docID, "confirm"), entity: "purchase order", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.PurchaseOrder(r.endpoint(), body)
}

// --- Goods receipts ---

func (c *Client) ListGoodsReceipts(ctx context.Context, q Query) ([]*wire.GoodsReceipt, error) {
	r := request{method: http.MethodGet, path: receiptsPath, query: q.values()}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.GoodsReceipts(r.endpoint(), body)
}

func (c *Client) GetGoodsReceipt(ctx context.Context, docID string) (*wire.GoodsReceipt, error) {
	r := request{method: http.MethodGet, path: docPath(receiptsPath, docID), entity: "goods receipt", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.GoodsReceipt(r.endpoint(), body)
}

func (c *Client) CreateGoodsReceipt(ctx context.Context, in *wire.GoodsReceiptRequest) (*wire.GoodsReceipt, error) {
	r := request{method: http.MethodPost, path: receiptsPath, body: in}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.GoodsReceipt(r.endpoint(), body)
}

// --- Sales orders ---

func (c *Client) ListSalesOrders(ctx context.Context, q Query) ([]*wire.SalesOrder, error) {
	r := request{method: http.MethodGet, path: salesOrdersPath, query: q.values()}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.SalesOrders(r.endpoint(), body)
}

func (c *Client) GetSalesOrder(ctx context.Context, docID string) (*wire.SalesOrder, error) {
	r := request{method: http.MethodGet, path: docPath(salesOrdersPath, docID), entity: "sales order", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.SalesOrder(r.endpoint(), body)
}

func (c *Client) CreateSalesOrder(ctx context.Context, in *wire.SalesOrderRequest) (*wire.SalesOrder, error) {
	r := request{method: http.MethodPost, path: salesOrdersPath, body: in}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.SalesOrder(r.endpoint(), body)
}

func (c *Client) ConfirmSalesOrder(ctx context.Context, docID string) (*wire.SalesOrder, error) {
	r := request{method: http.MethodPost, path: docPath(salesOrdersPath, docID, "confirm"), entity: "sales order", entityID: docID}
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return c.normalizer.SalesOrder(r.endpoint(), body)
}
