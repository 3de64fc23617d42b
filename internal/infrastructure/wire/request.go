package wire

import (
	"fmt"
	"time"

	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/pipeline"
)

// LineRequest is an outbound line. The unit price is sent both as a decimal
// string and in minor units.
type LineRequest struct {
	ItemID          string           `json:"itemId"`
	Quantity        types.Quantity   `json:"quantity"`
	UnitPrice       Amount           `json:"unitPrice"`
	UnitPriceMinor  types.MinorUnits `json:"unitPriceMinor"`
	DiscountPercent Amount           `json:"discountPercent"`
	TaxPercent      *Amount          `json:"taxPercent,omitempty"`
	WarehouseID     string           `json:"warehouseId,omitempty"`
}

type RequisitionRequest struct {
	RequestedBy string        `json:"requestedBy,omitempty"`
	Department  string        `json:"department,omitempty"`
	RequiredBy  *time.Time    `json:"requiredBy,omitempty"`
	Comment     string        `json:"comment,omitempty"`
	Lines       []LineRequest `json:"lines"`
}

type PurchaseOrderRequest struct {
	SupplierID    string        `json:"supplierId"`
	RequisitionID string        `json:"requisitionId,omitempty"`
	ExpectedDate  *time.Time    `json:"expectedDate,omitempty"`
	Comment       string        `json:"comment,omitempty"`
	Lines         []LineRequest `json:"lines"`
}

type ReceiptLineRequest struct {
	OrderLineID string          `json:"orderLineId"`
	Quantity    types.Quantity  `json:"quantity"`
	Accepted    *types.Quantity `json:"acceptedQuantity,omitempty"`
	Rejected    *types.Quantity `json:"rejectedQuantity,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

type GoodsReceiptRequest struct {
	PurchaseOrderID string               `json:"purchaseOrderId"`
	Lines           []ReceiptLineRequest `json:"lines"`
}

type SalesOrderRequest struct {
	CustomerID      string        `json:"customerId"`
	DeliveryDate    *time.Time    `json:"deliveryDate,omitempty"`
	ShippingAddress string        `json:"shippingAddress,omitempty"`
	Comment         string        `json:"comment,omitempty"`
	Lines           []LineRequest `json:"lines"`
}

func (n *Normalizer) lineRequest(i int, in documents.LineInput) (LineRequest, error) {
	minor, err := n.ToMinor(fmt.Sprintf("lines[%d].unitPrice", i), in.UnitPrice)
	if err != nil {
		return LineRequest{}, err
	}
	out := LineRequest{
		ItemID:          id.String(in.ItemID),
		Quantity:        in.Quantity,
		UnitPrice:       NewAmount(in.UnitPrice),
		UnitPriceMinor:  minor,
		DiscountPercent: NewAmount(in.DiscountPercent),
	}
	if in.TaxPercent != nil {
		tax := NewAmount(*in.TaxPercent)
		out.TaxPercent = &tax
	}
	return out, nil
}

func (n *Normalizer) lineRequests(inputs []documents.LineInput) ([]LineRequest, error) {
	out := make([]LineRequest, 0, len(inputs))
	for i, in := range inputs {
		l, err := n.lineRequest(i, in)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// RequisitionRequest serializes a requisition intent for the backend.
func (n *Normalizer) RequisitionRequest(in pipeline.RequisitionInput) (*RequisitionRequest, error) {
	lines, err := n.lineRequests(in.Lines)
	if err != nil {
		return nil, err
	}
	return &RequisitionRequest{
		RequestedBy: in.RequestedBy,
		Department:  in.Department,
		RequiredBy:  in.RequiredBy,
		Comment:     in.Comment,
		Lines:       lines,
	}, nil
}

// PurchaseOrderRequest serializes a purchase order intent for the backend.
func (n *Normalizer) PurchaseOrderRequest(in pipeline.PurchaseOrderInput) (*PurchaseOrderRequest, error) {
	lines, err := n.lineRequests(in.Lines)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderRequest{
		SupplierID:    id.String(in.SupplierID),
		RequisitionID: id.String(in.RequisitionID),
		ExpectedDate:  in.ExpectedDate,
		Comment:       in.Comment,
		Lines:         lines,
	}, nil
}

// GoodsReceiptRequest serializes received quantities against a purchase order.
func (n *Normalizer) GoodsReceiptRequest(poID id.ID, inputs []purchasing.ReceiptLineInput) *GoodsReceiptRequest {
	out := &GoodsReceiptRequest{
		PurchaseOrderID: poID.String(),
		Lines:           make([]ReceiptLineRequest, len(inputs)),
	}
	for i, in := range inputs {
		out.Lines[i] = ReceiptLineRequest{
			OrderLineID: in.OrderLineID.String(),
			Quantity:    in.Received,
			Accepted:    in.Accepted,
			Rejected:    in.Rejected,
			Notes:       in.Notes,
		}
	}
	return out
}

// SalesOrderRequest serializes a sales order intent for the backend.
func (n *Normalizer) SalesOrderRequest(in pipeline.SalesOrderInput) (*SalesOrderRequest, error) {
	out := &SalesOrderRequest{
		CustomerID:      id.String(in.CustomerID),
		DeliveryDate:    in.DeliveryDate,
		ShippingAddress: in.ShippingAddress,
		Comment:         in.Comment,
		Lines:           make([]LineRequest, 0, len(in.Lines)),
	}
	for i, sl := range in.Lines {
		l, err := n.lineRequest(i, sl.LineInput)
		if err != nil {
			return nil, err
		}
		l.WarehouseID = id.String(sl.WarehouseID)
		out.Lines = append(out.Lines, l)
	}
	return out, nil
}
