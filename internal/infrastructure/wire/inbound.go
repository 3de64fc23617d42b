package wire

import (
	"fmt"
	"strings"
	"unicode"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/lifecycle"
	"orderflow/internal/domain/reconcile"
)

// Requisition normalizes a single requisition response.
func (n *Normalizer) Requisition(endpoint string, body []byte) (*Requisition, error) {
	return decodeOne(n, endpoint, body, requisition)
}

// Requisitions normalizes a requisition list response.
func (n *Normalizer) Requisitions(endpoint string, body []byte) ([]*Requisition, error) {
	return decodeMany(n, endpoint, body, requisition)
}

// PurchaseOrder normalizes a single purchase order response.
func (n *Normalizer) PurchaseOrder(endpoint string, body []byte) (*PurchaseOrder, error) {
	return decodeOne(n, endpoint, body, purchaseOrder)
}

// PurchaseOrders normalizes a purchase order list response.
func (n *Normalizer) PurchaseOrders(endpoint string, body []byte) ([]*PurchaseOrder, error) {
	return decodeMany(n, endpoint, body, purchaseOrder)
}

// GoodsReceipt normalizes a single goods receipt response.
func (n *Normalizer) GoodsReceipt(endpoint string, body []byte) (*GoodsReceipt, error) {
	return decodeOne(n, endpoint, body, goodsReceipt)
}

// GoodsReceipts normalizes a goods receipt list response.
func (n *Normalizer) GoodsReceipts(endpoint string, body []byte) ([]*GoodsReceipt, error) {
	return decodeMany(n, endpoint, body, goodsReceipt)
}

// SalesOrder normalizes a single sales order response.
func (n *Normalizer) SalesOrder(endpoint string, body []byte) (*SalesOrder, error) {
	return decodeOne(n, endpoint, body, salesOrder)
}

// SalesOrders normalizes a sales order list response.
func (n *Normalizer) SalesOrders(endpoint string, body []byte) ([]*SalesOrder, error) {
	return decodeMany(n, endpoint, body, salesOrder)
}

// InvoiceStatus normalizes a reported invoice status into the stored one.
// A reported overdue becomes pending or partially_paid; overdue is derived
// from the due date when the invoice is rendered.
func (n *Normalizer) InvoiceStatus(endpoint, raw string, paid types.Money) (lifecycle.InvoiceStatus, error) {
	status, err := lifecycle.InvoiceMachine.Parse(raw)
	if err != nil {
		return "", apperror.NewUnexpectedResponseShape(endpoint, fmt.Sprintf("status: unknown invoice status %q", raw))
	}
	return lifecycle.StoredInvoiceStatus(status, paid), nil
}

func statusOf[S ~string, A ~string, G any](m *lifecycle.Machine[S, A, G]) func(string) (string, error) {
	return func(raw string) (string, error) {
		s, err := m.Parse(raw)
		return string(s), err
	}
}

// kindKey turns "PurchaseOrder", "purchase-order" and "Purchase Order" into
// "purchase_order".
func kindKey(raw string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = true
		}
	}
	return b.String()
}

// checkKind rejects a payload that declares, or is numbered as, another
// document kind.
func (d *decoder) checkKind(o object, want, number string) {
	if raw := d.str(o, "", kindNames...); raw != "" && kindKey(raw) != want {
		d.fail("expected a %s, got kind %q", want, raw)
		return
	}
	if prefix, _, ok := strings.Cut(number, "-"); ok {
		if got, known := numberPrefixes[strings.ToUpper(prefix)]; known && got != want {
			d.fail("expected a %s, got %s number %q", want, got, number)
		}
	}
}

func (d *decoder) header(o object, kind string, parse func(string) (string, error)) Header {
	h := Header{
		ID:         d.str(o, "", "id", "uuid"),
		Kind:       kind,
		DocumentNo: d.str(o, "", documentNoNames[kind]...),
		Comment:    d.str(o, "", "comment", "remarks"),
		CreatedAt:  d.timestamp(o, "", createdNames...),
		UpdatedAt:  d.timestamp(o, "", updatedNames...),
	}
	h.Version = d.integer(o, "", "version")
	d.checkKind(o, kind, h.DocumentNo)

	if raw := d.str(o, "", "status"); raw != "" {
		status, err := parse(raw)
		if err != nil {
			d.fail("status: unknown %s status %q", kind, raw)
		}
		h.Status = status
	}
	return h
}

// line reads a priced line and recomputes its amounts. A reported line
// total that disagrees with the computed one is rejected.
func (d *decoder) line(o object, path string) (Line, reconcile.Amounts) {
	l := Line{
		LineID:   d.str(o, path, "lineId", "id"),
		Item:     d.ref(o, path, itemObject, itemIDs, itemCodes, itemNames),
		Quantity: d.quantity(o, path, quantityNames...),
	}
	price, ok := d.money(o, path, unitPriceNames...)
	if !ok {
		d.fail("%sunitPrice: missing", path)
	}
	discount := d.percent(o, path, discountNames...)
	tax := d.percent(o, path, taxNames...)
	l.UnitPrice, l.DiscountPercent, l.TaxPercent = NewAmount(price), NewAmount(discount), NewAmount(tax)
	if d.err != nil || !l.Quantity.IsPositive() {
		// the validator reports the quantity
		return l, reconcile.Amounts{}
	}

	a, err := reconcile.ComputeLineTotal(l.Quantity, price, discount, tax)
	if err != nil {
		reason := err.Error()
		if appErr, ok := apperror.AsAppError(err); ok {
			reason = appErr.Message
		}
		d.fail("%s %s", strings.TrimSuffix(path, "."), reason)
		return l, reconcile.Amounts{}
	}
	l.DiscountAmount = NewAmount(a.DiscountAmount)
	l.NetAmount = NewAmount(a.NetAmount)
	l.TaxAmount = NewAmount(a.TaxAmount)
	l.LineTotal = NewAmount(a.LineTotal)

	if reported, ok := d.money(o, path, lineTotalNames...); ok && !reported.Equal(a.LineTotal) {
		d.fail("%slineTotal: reported %s, computed %s", path, reported.String(), types.FormatMoney(a.LineTotal))
	}
	return l, a
}

// pricedLines maps the line array with extra adding the per-kind fields.
func pricedLines[L any](d *decoder, o object, extra func(l Line, o object, path string) L) ([]L, []reconcile.Amounts) {
	objs := d.array(o, "", "lines", "items")
	out := make([]L, 0, len(objs))
	amounts := make([]reconcile.Amounts, 0, len(objs))
	for i, lo := range objs {
		path := fmt.Sprintf("lines[%d].", i)
		l, a := d.line(lo, path)
		l.LineNo = i + 1
		out = append(out, extra(l, lo, path))
		amounts = append(amounts, a)
	}
	return out, amounts
}

// totals sums the line amounts and checks them against the reported
// document total, which must be present.
func (d *decoder) totals(o object, amounts []reconcile.Amounts) Totals {
	computed := reconcile.Sum(amounts)

	reported, ok := d.money(o, "", totalNames...)
	if !ok {
		if nested, isObj := o.child("totals"); isObj {
			reported, ok = d.money(nested, "totals.", totalNames...)
		}
	}
	if !ok {
		d.fail("total: missing")
		return Totals{}
	}
	if d.err == nil && !reported.Equal(computed.Total) {
		d.fail("total: reported %s, lines add up to %s", reported.String(), types.FormatMoney(computed.Total))
	}
	return fromTotals(computed)
}

func requisition(d *decoder, o object) *Requisition {
	r := &Requisition{
		Header:          d.header(o, KindRequisition, statusOf(lifecycle.RequisitionMachine)),
		RequestedBy:     d.str(o, "", "requestedBy", "requester"),
		Department:      d.str(o, "", "department"),
		RequiredBy:      d.optionalTime(o, "", "requiredBy", "scheduleDate"),
		ApprovedBy:      d.str(o, "", "approvedBy"),
		ApprovedDate:    d.optionalTime(o, "", "approvedDate", "approvedAt"),
		RejectionReason: d.str(o, "", "rejectionReason"),
	}
	var amounts []reconcile.Amounts
	r.Lines, amounts = pricedLines(d, o, func(l Line, _ object, _ string) Line { return l })
	r.Totals = d.totals(o, amounts)
	return r
}

func purchaseOrder(d *decoder, o object) *PurchaseOrder {
	po := &PurchaseOrder{
		Header: d.header(o, KindPurchaseOrder, statusOf(lifecycle.PurchaseOrderMachine)),
		Supplier: d.ref(o, "",
			[]string{"supplier", "vendor"},
			[]string{"supplierId", "vendorId"},
			[]string{"supplierCode", "vendorCode"},
			[]string{"supplierName", "vendorName"}),
		RequisitionID: d.str(o, "", "requisitionId"),
		RequisitionNo: d.str(o, "", "requisitionNo"),
		OrderDate:     d.timestamp(o, "", "orderDate", "transactionDate"),
		ExpectedDate:  d.optionalTime(o, "", "expectedDate", "scheduleDate"),
	}
	var amounts []reconcile.Amounts
	po.Lines, amounts = pricedLines(d, o, func(l Line, lo object, path string) PurchaseOrderLine {
		return PurchaseOrderLine{
			Line:              l,
			RequisitionLineID: d.str(lo, path, "requisitionLineId"),
			ReceivedQuantity:  d.quantity(lo, path, "receivedQuantity", "receivedQty"),
			AcceptedQuantity:  d.quantity(lo, path, "acceptedQuantity", "acceptedQty"),
			RejectedQuantity:  d.quantity(lo, path, "rejectedQuantity", "rejectedQty"),
			InvoicedQuantity:  d.quantity(lo, path, "invoicedQuantity", "billedQty"),
		}
	})
	po.Totals = d.totals(o, amounts)
	return po
}

func qualityOf(raw string) (lifecycle.QualityStatus, bool) {
	switch q := lifecycle.QualityStatus(kindKey(raw)); q {
	case lifecycle.QualityPending, lifecycle.QualityPassed, lifecycle.QualityFailed, lifecycle.QualityPartial:
		return q, true
	}
	return "", false
}

func goodsReceipt(d *decoder, o object) *GoodsReceipt {
	po := d.ref(o, "", []string{"purchaseOrder"}, []string{"purchaseOrderId", "poId"}, nil, nil)
	gr := &GoodsReceipt{
		Header:          d.header(o, KindGoodsReceipt, statusOf(lifecycle.GoodsReceiptMachine)),
		PurchaseOrderID: po.ID,
		PurchaseOrderNo: d.str(o, "", "purchaseOrderNo", "poNumber"),
		Supplier: d.ref(o, "",
			[]string{"supplier", "vendor"},
			[]string{"supplierId", "vendorId"},
			[]string{"supplierCode", "vendorCode"},
			[]string{"supplierName", "vendorName"}),
		ReceivedDate: d.timestamp(o, "", "receivedDate", "postingDate"),
	}

	for i, lo := range d.array(o, "", "lines", "items") {
		path := fmt.Sprintf("lines[%d].", i)
		l := GoodsReceiptLine{
			LineID:           d.str(lo, path, "lineId", "id"),
			LineNo:           i + 1,
			OrderLineID:      d.str(lo, path, "orderLineId", "purchaseOrderLineId"),
			Item:             d.ref(lo, path, itemObject, itemIDs, itemCodes, itemNames),
			OrderedQuantity:  d.quantity(lo, path, "orderedQuantity", "orderedQty"),
			ReceivedQuantity: d.quantity(lo, path, "receivedQuantity", "receivedQty", "quantity", "qty"),
			AcceptedQuantity: d.quantity(lo, path, "acceptedQuantity", "acceptedQty"),
			RejectedQuantity: d.quantity(lo, path, "rejectedQuantity", "rejectedQty"),
			Notes:            d.str(lo, path, "notes"),
		}

		quality := lifecycle.QualityPending
		if raw := d.str(lo, path, "qualityStatus"); raw != "" {
			q, ok := qualityOf(raw)
			if !ok {
				d.fail("%squalityStatus: unknown status %q", path, raw)
			}
			quality = q
		} else if !l.ReceivedQuantity.IsZero() && l.AcceptedQuantity.Add(l.RejectedQuantity) == l.ReceivedQuantity {
			quality = purchasing.QualityOf(l.AcceptedQuantity, l.RejectedQuantity)
		}
		l.QualityStatus = string(quality)

		if quality.Resolved() && d.err == nil {
			if err := reconcile.ValidateInspection(l.ReceivedQuantity, l.AcceptedQuantity, l.RejectedQuantity); err != nil {
				d.fail("%saccepted %s + rejected %s does not match received %s", path,
					l.AcceptedQuantity, l.RejectedQuantity, l.ReceivedQuantity)
			}
		}
		gr.Lines = append(gr.Lines, l)
	}
	return gr
}

func salesOrder(d *decoder, o object) *SalesOrder {
	so := &SalesOrder{
		Header: d.header(o, KindSalesOrder, statusOf(lifecycle.SalesOrderMachine)),
		Customer: d.ref(o, "",
			[]string{"customer"},
			[]string{"customerId"},
			[]string{"customerCode"},
			[]string{"customerName"}),
		OrderDate:       d.timestamp(o, "", "orderDate", "transactionDate"),
		DeliveryDate:    d.optionalTime(o, "", "deliveryDate"),
		ShippingAddress: d.str(o, "", "shippingAddress", "address"),
	}
	var amounts []reconcile.Amounts
	so.Lines, amounts = pricedLines(d, o, func(l Line, lo object, path string) SalesOrderLine {
		return SalesOrderLine{
			Line:               l,
			WarehouseID:        d.ref(lo, path, []string{"warehouse"}, []string{"warehouseId"}, nil, nil).ID,
			PickedQuantity:     d.quantity(lo, path, "pickedQuantity", "pickedQty"),
			DispatchedQuantity: d.quantity(lo, path, "dispatchedQuantity", "deliveredQty"),
			InvoicedQuantity:   d.quantity(lo, path, "invoicedQuantity", "billedQty"),
		}
	})
	so.Totals = d.totals(o, amounts)
	return so
}
