package dto

import (
	"time"

	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/pipeline"
)

// --- Requisitions ---

// CreateRequisitionRequest creates a draft requisition. Lines may be added
// later with UpdateLinesRequest.
type CreateRequisitionRequest struct {
	RequestedBy string        `json:"requestedBy" binding:"max=100"`
	Department  string        `json:"department" binding:"max=100"`
	RequiredBy  *time.Time    `json:"requiredBy"`
	Comment     string        `json:"comment" binding:"max=1000"`
	Lines       []LineRequest `json:"lines" binding:"omitempty,dive"`
}

func (r CreateRequisitionRequest) ToInput() (pipeline.RequisitionInput, error) {
	lines, err := LineInputs(r.Lines)
	if err != nil {
		return pipeline.RequisitionInput{}, err
	}
	return pipeline.RequisitionInput{
		RequestedBy: r.RequestedBy,
		Department:  r.Department,
		RequiredBy:  r.RequiredBy,
		Comment:     r.Comment,
		Lines:       lines,
	}, nil
}

// UpdateLinesRequest replaces the lines of a draft requisition.
type UpdateLinesRequest struct {
	Lines []LineRequest `json:"lines" binding:"dive"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ConvertRequisitionRequest names the supplier of the new purchase order.
type ConvertRequisitionRequest struct {
	SupplierID string `json:"supplierId" binding:"required,uuid"`
}

// --- Purchase orders ---

type CreatePurchaseOrderRequest struct {
	SupplierID    string        `json:"supplierId" binding:"required,uuid"`
	RequisitionID string        `json:"requisitionId" binding:"omitempty,uuid"`
	ExpectedDate  *time.Time    `json:"expectedDate"`
	Comment       string        `json:"comment" binding:"max=1000"`
	Lines         []LineRequest `json:"lines" binding:"omitempty,dive"`
}

func (r CreatePurchaseOrderRequest) ToInput() (pipeline.PurchaseOrderInput, error) {
	supplierID, err := ParseID("supplierId", r.SupplierID)
	if err != nil {
		return pipeline.PurchaseOrderInput{}, err
	}
	requisitionID, err := ParseID("requisitionId", r.RequisitionID)
	if err != nil {
		return pipeline.PurchaseOrderInput{}, err
	}
	lines, err := LineInputs(r.Lines)
	if err != nil {
		return pipeline.PurchaseOrderInput{}, err
	}
	return pipeline.PurchaseOrderInput{
		SupplierID:    supplierID,
		RequisitionID: requisitionID,
		ExpectedDate:  r.ExpectedDate,
		Comment:       r.Comment,
		Lines:         lines,
	}, nil
}

// CreateInvoiceRequest bills an order. Without a due date the party's
// payment terms apply.
type CreateInvoiceRequest struct {
	DueDate *time.Time `json:"dueDate"`
}

func (r CreateInvoiceRequest) Due() time.Time {
	if r.DueDate == nil {
		return time.Time{}
	}
	return *r.DueDate
}

// --- Goods receipts ---

type ReceiptLineRequest struct {
	OrderLineID string          `json:"orderLineId" binding:"required,uuid"`
	Quantity    types.Quantity  `json:"quantity"`
	Accepted    *types.Quantity `json:"acceptedQuantity"`
	Rejected    *types.Quantity `json:"rejectedQuantity"`
	Notes       string          `json:"notes" binding:"max=500"`
}

// CreateGoodsReceiptRequest records quantities received against a purchase
// order. With Complete set the receipt is completed in the same call.
type CreateGoodsReceiptRequest struct {
	PurchaseOrderID string               `json:"purchaseOrderId" binding:"required,uuid"`
	Lines           []ReceiptLineRequest `json:"lines" binding:"required,min=1,dive"`
	Complete        bool                 `json:"complete"`
}

func (r CreateGoodsReceiptRequest) ToInput() (id.ID, []purchasing.ReceiptLineInput, error) {
	poID, err := ParseID("purchaseOrderId", r.PurchaseOrderID)
	if err != nil {
		return id.Nil(), nil, err
	}
	lines := make([]purchasing.ReceiptLineInput, 0, len(r.Lines))
	for i, l := range r.Lines {
		lineID, err := ParseID("orderLineId", l.OrderLineID)
		if err != nil {
			return id.Nil(), nil, withLine(err, i)
		}
		lines = append(lines, purchasing.ReceiptLineInput{
			OrderLineID: lineID,
			Received:    l.Quantity,
			Accepted:    l.Accepted,
			Rejected:    l.Rejected,
			Notes:       l.Notes,
		})
	}
	return poID, lines, nil
}

// InspectRequest records the inspection outcome of one receipt line.
type InspectRequest struct {
	LineID   string         `json:"lineId" binding:"required,uuid"`
	Accepted types.Quantity `json:"acceptedQuantity"`
	Rejected types.Quantity `json:"rejectedQuantity"`
}
