package dto

import (
	"time"

	"orderflow/internal/core/types"
	"orderflow/internal/domain/pipeline"
	"orderflow/internal/infrastructure/wire"
)

// --- Sales orders ---

type SalesLineRequest struct {
	LineRequest
	WarehouseID string `json:"warehouseId" binding:"omitempty,uuid"`
}

type CreateSalesOrderRequest struct {
	CustomerID      string             `json:"customerId" binding:"required,uuid"`
	DeliveryDate    *time.Time         `json:"deliveryDate"`
	ShippingAddress string             `json:"shippingAddress" binding:"max=500"`
	Comment         string             `json:"comment" binding:"max=1000"`
	Lines           []SalesLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r CreateSalesOrderRequest) ToInput() (pipeline.SalesOrderInput, error) {
	customerID, err := ParseID("customerId", r.CustomerID)
	if err != nil {
		return pipeline.SalesOrderInput{}, err
	}
	out := pipeline.SalesOrderInput{
		CustomerID:      customerID,
		DeliveryDate:    r.DeliveryDate,
		ShippingAddress: r.ShippingAddress,
		Comment:         r.Comment,
		Lines:           make([]pipeline.SalesLineInput, 0, len(r.Lines)),
	}
	for i, l := range r.Lines {
		in, err := l.ToInput()
		if err != nil {
			return pipeline.SalesOrderInput{}, withLine(err, i)
		}
		warehouseID, err := ParseID("warehouseId", l.WarehouseID)
		if err != nil {
			return pipeline.SalesOrderInput{}, withLine(err, i)
		}
		out.Lines = append(out.Lines, pipeline.SalesLineInput{LineInput: in, WarehouseID: warehouseID})
	}
	return out, nil
}

// --- Picklists ---

// GeneratePicklistRequest is optional; an empty body uses the configured
// default warehouse and rejects multi-warehouse orders.
type GeneratePicklistRequest struct {
	DefaultWarehouseID string `json:"defaultWarehouseId" binding:"omitempty,uuid"`
	SplitByWarehouse   bool   `json:"splitByWarehouse"`
}

func (r GeneratePicklistRequest) ToOptions() (pipeline.PicklistOptions, error) {
	wh, err := ParseID("defaultWarehouseId", r.DefaultWarehouseID)
	if err != nil {
		return pipeline.PicklistOptions{}, err
	}
	return pipeline.PicklistOptions{DefaultWarehouseID: wh, SplitByWarehouse: r.SplitByWarehouse}, nil
}

type RecordPickRequest struct {
	LineID string         `json:"lineId" binding:"required,uuid"`
	Picked types.Quantity `json:"pickedQuantity"`
}

type CreateDispatchRequest struct {
	Carrier        string `json:"carrier" binding:"required,max=100"`
	TrackingNumber string `json:"trackingNumber" binding:"max=100"`
}

// --- Dispatches ---

type DepartRequest struct {
	Location string `json:"location" binding:"max=200"`
}

type TrackRequest struct {
	Location string `json:"location" binding:"max=200"`
	Note     string `json:"note" binding:"max=500"`
}

type NoteRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// --- Invoices ---

type PaymentRequest struct {
	Amount    wire.Amount `json:"amount"`
	Reference string      `json:"reference" binding:"max=100"`
}
