// Package sales provides the sales order, picklist and dispatch documents of
// the fulfillment pipeline.
package sales

import "orderflow/internal/core/numerator"

const (
	KindSalesOrder = "sales_order"
	KindPicklist   = "picklist"
	KindDispatch   = "dispatch"
)

// Document number prefixes.
const (
	SalesOrderPrefix = "SO"
	PicklistPrefix   = "PL"
	DispatchPrefix   = "DSP"
)

// NumberConfig returns the numbering of documents with prefix.
func NumberConfig(prefix string) numerator.Config {
	return numerator.DefaultConfig(prefix)
}

// NumberOptions returns generator options per prefix. Sales orders are
// numbered strictly; picklists and dispatches are warehouse paperwork and
// use cached ranges.
func NumberOptions(prefix string) *numerator.Options {
	if prefix == SalesOrderPrefix {
		return &numerator.Options{Strategy: numerator.StrategyStrict}
	}
	return &numerator.Options{Strategy: numerator.StrategyCached, RangeSize: 50}
}
