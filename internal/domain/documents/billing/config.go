// Package billing provides the invoice document shared by the purchasing
// and sales pipelines.
package billing

import "orderflow/internal/core/numerator"

// Document kinds. Purchase and sales invoices share a type but are stored
// and numbered apart.
const (
	KindPurchaseInvoice = "purchase_invoice"
	KindSalesInvoice    = "sales_invoice"
)

// Document number prefixes.
const (
	PurchaseInvoicePrefix = "PINV"
	SalesInvoicePrefix    = "INV"
)

const (
	// NumeratorStrategy defines the numbering strategy for invoices.
	// Invoices are tax documents and must be numbered without gaps.
	NumeratorStrategy = numerator.StrategyStrict
)

// NumberConfig returns the numbering of invoices of type t.
func NumberConfig(t Type) numerator.Config {
	if t == TypePurchase {
		return numerator.DefaultConfig(PurchaseInvoicePrefix)
	}
	return numerator.DefaultConfig(SalesInvoicePrefix)
}

// NumberOptions returns the generator options for invoices.
func NumberOptions() *numerator.Options {
	return &numerator.Options{Strategy: NumeratorStrategy}
}
