package pipeline

import (
	"context"

	"orderflow/internal/core/id"
	"orderflow/internal/domain"
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/documents/sales"
)

func (s *Service) GetRequisition(ctx context.Context, docID id.ID) (*purchasing.Requisition, error) {
	return s.stores.Requisitions.Get(ctx, docID)
}

func (s *Service) ListRequisitions(ctx context.Context, f domain.ListFilter) (domain.ListResult[*purchasing.Requisition], error) {
	return s.stores.Requisitions.List(ctx, f)
}

func (s *Service) GetPurchaseOrder(ctx context.Context, docID id.ID) (*purchasing.PurchaseOrder, error) {
	return s.stores.PurchaseOrders.Get(ctx, docID)
}

func (s *Service) ListPurchaseOrders(ctx context.Context, f domain.ListFilter) (domain.ListResult[*purchasing.PurchaseOrder], error) {
	return s.stores.PurchaseOrders.List(ctx, f)
}

func (s *Service) GetGoodsReceipt(ctx context.Context, docID id.ID) (*purchasing.GoodsReceipt, error) {
	return s.stores.GoodsReceipts.Get(ctx, docID)
}

func (s *Service) ListGoodsReceipts(ctx context.Context, f domain.ListFilter) (domain.ListResult[*purchasing.GoodsReceipt], error) {
	return s.stores.GoodsReceipts.List(ctx, f)
}

func (s *Service) GetSalesOrder(ctx context.Context, docID id.ID) (*sales.SalesOrder, error) {
	return s.stores.SalesOrders.Get(ctx, docID)
}

func (s *Service) ListSalesOrders(ctx context.Context, f domain.ListFilter) (domain.ListResult[*sales.SalesOrder], error) {
	return s.stores.SalesOrders.List(ctx, f)
}

func (s *Service) GetPicklist(ctx context.Context, docID id.ID) (*sales.Picklist, error) {
	return s.stores.Picklists.Get(ctx, docID)
}

func (s *Service) ListPicklists(ctx context.Context, f domain.ListFilter) (domain.ListResult[*sales.Picklist], error) {
	return s.stores.Picklists.List(ctx, f)
}

func (s *Service) GetDispatch(ctx context.Context, docID id.ID) (*sales.Dispatch, error) {
	return s.stores.Dispatches.Get(ctx, docID)
}

func (s *Service) ListDispatches(ctx context.Context, f domain.ListFilter) (domain.ListResult[*sales.Dispatch], error) {
	return s.stores.Dispatches.List(ctx, f)
}

func (s *Service) GetInvoice(ctx context.Context, t billing.Type, docID id.ID) (*billing.Invoice, error) {
	return s.stores.invoices(t).Get(ctx, docID)
}

func (s *Service) ListInvoices(ctx context.Context, t billing.Type, f domain.ListFilter) (domain.ListResult[*billing.Invoice], error) {
	return s.stores.invoices(t).List(ctx, f)
}
