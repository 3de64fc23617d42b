package wire

import (
	"time"

	"orderflow/internal/core/types"
)

// Document kinds carried in the "kind" field of every canonical DTO.
const (
	KindRequisition     = "requisition"
	KindPurchaseOrder   = "purchase_order"
	KindGoodsReceipt    = "goods_receipt"
	KindSalesOrder      = "sales_order"
	KindPicklist        = "picklist"
	KindDispatch        = "dispatch"
	KindPurchaseInvoice = "purchase_invoice"
	KindSalesInvoice    = "sales_invoice"
)

// Ref is a reference snapshot (item, party, warehouse).
type Ref struct {
	ID   string `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsZero reports a reference with nothing set.
func (r Ref) IsZero() bool { return r.ID == "" && r.Code == "" && r.Name == "" }

// Header holds the fields shared by every document.
type Header struct {
	ID         string    `json:"id" validate:"required"`
	Kind       string    `json:"kind"`
	DocumentNo string    `json:"documentNo" validate:"required"`
	Status     string    `json:"status" validate:"required"`
	Version    int       `json:"version,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Totals are document level sums.
type Totals struct {
	Subtotal Amount `json:"subtotal"`
	Discount Amount `json:"discount"`
	Tax      Amount `json:"tax"`
	Total    Amount `json:"total"`
}

// Line is a priced line.
type Line struct {
	LineID          string         `json:"lineId,omitempty"`
	LineNo          int            `json:"lineNo"`
	Item            Ref            `json:"item" validate:"required"`
	Quantity        types.Quantity `json:"quantity" validate:"gt=0"`
	UnitPrice       Amount         `json:"unitPrice"`
	DiscountPercent Amount         `json:"discountPercent"`
	TaxPercent      Amount         `json:"taxPercent"`
	DiscountAmount  Amount         `json:"discountAmount"`
	NetAmount       Amount         `json:"netAmount"`
	TaxAmount       Amount         `json:"taxAmount"`
	LineTotal       Amount         `json:"lineTotal"`
}

type Requisition struct {
	Header
	RequestedBy     string     `json:"requestedBy,omitempty"`
	Department      string     `json:"department,omitempty"`
	RequiredBy      *time.Time `json:"requiredBy,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedDate    *time.Time `json:"approvedDate,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	Lines           []Line     `json:"lines" validate:"dive"`
	Totals          Totals     `json:"totals"`
}

type PurchaseOrderLine struct {
	Line
	RequisitionLineID string         `json:"requisitionLineId,omitempty"`
	ReceivedQuantity  types.Quantity `json:"receivedQuantity"`
	AcceptedQuantity  types.Quantity `json:"acceptedQuantity"`
	RejectedQuantity  types.Quantity `json:"rejectedQuantity"`
	InvoicedQuantity  types.Quantity `json:"invoicedQuantity"`
}

type PurchaseOrder struct {
	Header
	Supplier      Ref                 `json:"supplier" validate:"required"`
	RequisitionID string              `json:"requisitionId,omitempty"`
	RequisitionNo string              `json:"requisitionNo,omitempty"`
	OrderDate     time.Time           `json:"orderDate"`
	ExpectedDate  *time.Time          `json:"expectedDate,omitempty"`
	Lines         []PurchaseOrderLine `json:"lines" validate:"min=1,dive"`
	Totals        Totals              `json:"totals"`
}

type GoodsReceiptLine struct {
	LineID           string         `json:"lineId,omitempty"`
	LineNo           int            `json:"lineNo"`
	OrderLineID      string         `json:"orderLineId,omitempty"`
	Item             Ref            `json:"item" validate:"required"`
	OrderedQuantity  types.Quantity `json:"orderedQuantity"`
	ReceivedQuantity types.Quantity `json:"receivedQuantity" validate:"gt=0"`
	AcceptedQuantity types.Quantity `json:"acceptedQuantity"`
	RejectedQuantity types.Quantity `json:"rejectedQuantity"`
	QualityStatus    string         `json:"qualityStatus,omitempty"`
	Notes            string         `json:"notes,omitempty"`
}

type GoodsReceipt struct {
	Header
	PurchaseOrderID string             `json:"purchaseOrderId" validate:"required"`
	PurchaseOrderNo string             `json:"purchaseOrderNo,omitempty"`
	Supplier        Ref                `json:"supplier"`
	ReceivedDate    time.Time          `json:"receivedDate"`
	Lines           []GoodsReceiptLine `json:"lines" validate:"min=1,dive"`
}

type SalesOrderLine struct {
	Line
	WarehouseID        string         `json:"warehouseId,omitempty"`
	PickedQuantity     types.Quantity `json:"pickedQuantity"`
	DispatchedQuantity types.Quantity `json:"dispatchedQuantity"`
	InvoicedQuantity   types.Quantity `json:"invoicedQuantity"`
}

type SalesOrder struct {
	Header
	Customer        Ref              `json:"customer" validate:"required"`
	OrderDate       time.Time        `json:"orderDate"`
	DeliveryDate    *time.Time       `json:"deliveryDate,omitempty"`
	ShippingAddress string           `json:"shippingAddress,omitempty"`
	Lines           []SalesOrderLine `json:"lines" validate:"min=1,dive"`
	Totals          Totals           `json:"totals"`
}

type PicklistLine struct {
	LineID          string          `json:"lineId"`
	LineNo          int             `json:"lineNo"`
	OrderLineID     string          `json:"orderLineId"`
	Item            Ref             `json:"item"`
	OrderedQuantity types.Quantity  `json:"orderedQuantity"`
	PickedQuantity  *types.Quantity `json:"pickedQuantity"`
	PickedAt        *time.Time      `json:"pickedAt,omitempty"`
}

type Picklist struct {
	Header
	SalesOrderID string         `json:"salesOrderId"`
	SalesOrderNo string         `json:"salesOrderNo"`
	Customer     Ref            `json:"customer"`
	Warehouse    Ref            `json:"warehouse"`
	Lines        []PicklistLine `json:"lines"`
}

type DispatchLine struct {
	LineID         string         `json:"lineId"`
	LineNo         int            `json:"lineNo"`
	PicklistLineID string         `json:"picklistLineId"`
	OrderLineID    string         `json:"orderLineId"`
	Item           Ref            `json:"item"`
	Quantity       types.Quantity `json:"quantity"`
}

type TrackingEvent struct {
	Seq      int       `json:"seq"`
	Status   string    `json:"status"`
	At       time.Time `json:"at"`
	Location string    `json:"location,omitempty"`
	Note     string    `json:"note,omitempty"`
}

type Dispatch struct {
	Header
	PicklistID     string          `json:"picklistId"`
	PicklistNo     string          `json:"picklistNo"`
	SalesOrderID   string          `json:"salesOrderId"`
	SalesOrderNo   string          `json:"salesOrderNo"`
	Customer       Ref             `json:"customer"`
	Warehouse      Ref             `json:"warehouse"`
	Carrier        string          `json:"carrier,omitempty"`
	TrackingNumber string          `json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time      `json:"deliveredAt,omitempty"`
	Lines          []DispatchLine  `json:"lines"`
	Tracking       []TrackingEvent `json:"tracking"`
}

type InvoiceLine struct {
	Line
	SourceLineID string `json:"sourceLineId"`
}

type Payment struct {
	Amount    Amount    `json:"amount"`
	At        time.Time `json:"at"`
	Reference string    `json:"reference,omitempty"`
}

// Invoice carries the effective status: overdue is derived at render time.
type Invoice struct {
	Header
	Type        string        `json:"type"`
	Party       Ref           `json:"party"`
	SourceID    string        `json:"sourceId"`
	SourceNo    string        `json:"sourceNo"`
	IssueDate   *time.Time    `json:"issueDate,omitempty"`
	DueDate     time.Time     `json:"dueDate"`
	Lines       []InvoiceLine `json:"lines"`
	Totals      Totals        `json:"totals"`
	PaidAmount  Amount        `json:"paidAmount"`
	Outstanding Amount        `json:"outstanding"`
	Payments    []Payment     `json:"payments"`
}

// List is a page of documents.
type List[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
