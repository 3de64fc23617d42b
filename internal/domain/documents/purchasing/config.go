// Package purchasing provides the requisition, purchase order and goods
// receipt documents of the procurement pipeline.
package purchasing

import "orderflow/internal/core/numerator"

const (
	KindRequisition   = "requisition"
	KindPurchaseOrder = "purchase_order"
	KindGoodsReceipt  = "goods_receipt"
)

// Document number prefixes.
const (
	RequisitionPrefix   = "REQ"
	PurchaseOrderPrefix = "PO"
	GoodsReceiptPrefix  = "GRN"
)

const (
	// NumeratorStrategy defines the numbering strategy for purchasing documents.
	// They are accounting documents, so numbers have no gaps.
	NumeratorStrategy = numerator.StrategyStrict
)

// NumberConfig returns the numbering of documents with prefix.
func NumberConfig(prefix string) numerator.Config {
	return numerator.DefaultConfig(prefix)
}

// NumberOptions returns the generator options for purchasing documents.
func NumberOptions() *numerator.Options {
	return &numerator.Options{Strategy: NumeratorStrategy}
}
