package postgres

import (
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/documents/sales"
	"orderflow/internal/domain/pipeline"
)

// NewStores creates one document store per document type over txManager.
func NewStores(txManager *TxManager, history *History) pipeline.Stores {
	return pipeline.Stores{
		Requisitions:     NewDocumentStore[purchasing.Requisition](purchasing.KindRequisition, txManager, history),
		PurchaseOrders:   NewDocumentStore[purchasing.PurchaseOrder](purchasing.KindPurchaseOrder, txManager, history),
		GoodsReceipts:    NewDocumentStore[purchasing.GoodsReceipt](purchasing.KindGoodsReceipt, txManager, history),
		SalesOrders:      NewDocumentStore[sales.SalesOrder](sales.KindSalesOrder, txManager, history),
		Picklists:        NewDocumentStore[sales.Picklist](sales.KindPicklist, txManager, history),
		Dispatches:       NewDocumentStore[sales.Dispatch](sales.KindDispatch, txManager, history),
		PurchaseInvoices: NewDocumentStore[billing.Invoice](billing.KindPurchaseInvoice, txManager, history),
		SalesInvoices:    NewDocumentStore[billing.Invoice](billing.KindSalesInvoice, txManager, history),
	}
}
