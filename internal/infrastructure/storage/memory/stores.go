package memory

import (
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/documents/sales"
	"orderflow/internal/domain/pipeline"
)

// NewStores creates one store per document type and a TxManager over all
// of them.
func NewStores() (pipeline.Stores, *TxManager) {
	var (
		requisitions     = NewStore[purchasing.Requisition](purchasing.KindRequisition)
		purchaseOrders   = NewStore[purchasing.PurchaseOrder](purchasing.KindPurchaseOrder)
		goodsReceipts    = NewStore[purchasing.GoodsReceipt](purchasing.KindGoodsReceipt)
		salesOrders      = NewStore[sales.SalesOrder](sales.KindSalesOrder)
		picklists        = NewStore[sales.Picklist](sales.KindPicklist)
		dispatches       = NewStore[sales.Dispatch](sales.KindDispatch)
		purchaseInvoices = NewStore[billing.Invoice](billing.KindPurchaseInvoice)
		salesInvoices    = NewStore[billing.Invoice](billing.KindSalesInvoice)
	)

	stores := pipeline.Stores{
		Requisitions:     requisitions,
		PurchaseOrders:   purchaseOrders,
		GoodsReceipts:    goodsReceipts,
		SalesOrders:      salesOrders,
		Picklists:        picklists,
		Dispatches:       dispatches,
		PurchaseInvoices: purchaseInvoices,
		SalesInvoices:    salesInvoices,
	}
	txm := NewTxManager(
		requisitions, purchaseOrders, goodsReceipts,
		salesOrders, picklists, dispatches,
		purchaseInvoices, salesInvoices,
	)
	return stores, txm
}
