package catalogs

import (
	"context"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
)

// Lookup resolves reference entities by id. Implementations return a
// NOT_FOUND AppError for unknown ids.
type Lookup interface {
	Item(ctx context.Context, itemID id.ID) (Item, error)
	Warehouse(ctx context.Context, warehouseID id.ID) (Warehouse, error)
	Supplier(ctx context.Context, supplierID id.ID) (Supplier, error)
	Customer(ctx context.Context, customerID id.ID) (Customer, error)
}

// Funcs adapts plain lookup functions to Lookup. A nil function reports
// every id as not found.
type Funcs struct {
	ItemFunc      func(ctx context.Context, itemID id.ID) (Item, error)
	WarehouseFunc func(ctx context.Context, warehouseID id.ID) (Warehouse, error)
	SupplierFunc  func(ctx context.Context, supplierID id.ID) (Supplier, error)
	CustomerFunc  func(ctx context.Context, customerID id.ID) (Customer, error)
}

func (f Funcs) Item(ctx context.Context, itemID id.ID) (Item, error) {
	if f.ItemFunc == nil {
		return Item{}, apperror.NewNotFound("item", itemID.String())
	}
	return f.ItemFunc(ctx, itemID)
}

func (f Funcs) Warehouse(ctx context.Context, warehouseID id.ID) (Warehouse, error) {
	if f.WarehouseFunc == nil {
		return Warehouse{}, apperror.NewNotFound("warehouse", warehouseID.String())
	}
	return f.WarehouseFunc(ctx, warehouseID)
}

func (f Funcs) Supplier(ctx context.Context, supplierID id.ID) (Supplier, error) {
	if f.SupplierFunc == nil {
		return Supplier{}, apperror.NewNotFound("supplier", supplierID.String())
	}
	return f.SupplierFunc(ctx, supplierID)
}

func (f Funcs) Customer(ctx context.Context, customerID id.ID) (Customer, error) {
	if f.CustomerFunc == nil {
		return Customer{}, apperror.NewNotFound("customer", customerID.String())
	}
	return f.CustomerFunc(ctx, customerID)
}

var _ Lookup = Funcs{}
