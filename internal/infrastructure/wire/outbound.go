package wire

import (
	"time"

	"orderflow/internal/core/entity"
	"orderflow/internal/core/id"
	"orderflow/internal/domain"
	"orderflow/internal/domain/catalogs"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/documents/sales"
	"orderflow/internal/domain/reconcile"
)

func fromRef(r catalogs.Ref) Ref {
	return Ref{ID: id.String(r.ID), Code: r.Code, Name: r.Name}
}

func header(b entity.BaseDocument, kind, status string) Header {
	return Header{
		ID:         b.ID.String(),
		Kind:       kind,
		DocumentNo: b.Number,
		Status:     status,
		Version:    b.Version,
		Comment:    b.Comment,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func fromTotals(t reconcile.Totals) Totals {
	return Totals{
		Subtotal: NewAmount(t.Subtotal),
		Discount: NewAmount(t.Discount),
		Tax:      NewAmount(t.Tax),
		Total:    NewAmount(t.Total),
	}
}

func fromLine(l documents.Line) Line {
	return Line{
		LineID:          l.LineID.String(),
		LineNo:          l.LineNo,
		Item:            fromRef(l.Item),
		Quantity:        l.Quantity,
		UnitPrice:       NewAmount(l.UnitPrice),
		DiscountPercent: NewAmount(l.DiscountPercent),
		TaxPercent:      NewAmount(l.TaxPercent),
		DiscountAmount:  NewAmount(l.DiscountAmount),
		NetAmount:       NewAmount(l.NetAmount),
		TaxAmount:       NewAmount(l.TaxAmount),
		LineTotal:       NewAmount(l.LineTotal),
	}
}

// FromRequisition converts a requisition to its canonical DTO.
func FromRequisition(r *purchasing.Requisition) *Requisition {
	out := &Requisition{
		Header:          header(r.BaseDocument, KindRequisition, string(r.Status)),
		RequestedBy:     r.RequestedBy,
		Department:      r.Department,
		RequiredBy:      r.RequiredBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedDate:    r.ApprovedDate,
		RejectionReason: r.RejectionReason,
		Lines:           make([]Line, len(r.Lines)),
		Totals:          fromTotals(r.Totals),
	}
	for i, l := range r.Lines {
		out.Lines[i] = fromLine(l.Line)
	}
	return out
}

// FromPurchaseOrder converts a purchase order to its canonical DTO.
func FromPurchaseOrder(po *purchasing.PurchaseOrder) *PurchaseOrder {
	out := &PurchaseOrder{
		Header:        header(po.BaseDocument, KindPurchaseOrder, string(po.Status)),
		Supplier:      fromRef(po.Supplier),
		RequisitionID: id.String(po.RequisitionID),
		RequisitionNo: po.RequisitionNumber,
		OrderDate:     po.OrderDate,
		ExpectedDate:  po.ExpectedDate,
		Lines:         make([]PurchaseOrderLine, len(po.Lines)),
		Totals:        fromTotals(po.Totals),
	}
	for i, l := range po.Lines {
		out.Lines[i] = PurchaseOrderLine{
			Line:              fromLine(l.Line),
			RequisitionLineID: id.String(l.RequisitionLineID),
			ReceivedQuantity:  l.ReceivedQuantity,
			AcceptedQuantity:  l.AcceptedQuantity,
			RejectedQuantity:  l.RejectedQuantity,
			InvoicedQuantity:  l.InvoicedQuantity,
		}
	}
	return out
}

// FromGoodsReceipt converts a goods receipt to its canonical DTO.
func FromGoodsReceipt(gr *purchasing.GoodsReceipt) *GoodsReceipt {
	out := &GoodsReceipt{
		Header:          header(gr.BaseDocument, KindGoodsReceipt, string(gr.Status)),
		PurchaseOrderID: gr.PurchaseOrderID.String(),
		PurchaseOrderNo: gr.PurchaseOrderNumber,
		Supplier:        fromRef(gr.Supplier),
		ReceivedDate:    gr.ReceivedDate,
		Lines:           make([]GoodsReceiptLine, len(gr.Lines)),
	}
	for i, l := range gr.Lines {
		out.Lines[i] = GoodsReceiptLine{
			LineID:           l.LineID.String(),
			LineNo:           l.LineNo,
			OrderLineID:      l.OrderLineID.String(),
			Item:             fromRef(l.Item),
			OrderedQuantity:  l.OrderedQuantity,
			ReceivedQuantity: l.ReceivedQuantity,
			AcceptedQuantity: l.AcceptedQuantity,
			RejectedQuantity: l.RejectedQuantity,
			QualityStatus:    string(l.QualityStatus),
			Notes:            l.Notes,
		}
	}
	return out
}

// FromSalesOrder converts a sales order to its canonical DTO.
func FromSalesOrder(so *sales.SalesOrder) *SalesOrder {
	out := &SalesOrder{
		Header:          header(so.BaseDocument, KindSalesOrder, string(so.Status)),
		Customer:        fromRef(so.Customer),
		OrderDate:       so.OrderDate,
		DeliveryDate:    so.DeliveryDate,
		ShippingAddress: so.ShippingAddress,
		Lines:           make([]SalesOrderLine, len(so.Lines)),
		Totals:          fromTotals(so.Totals),
	}
	for i, l := range so.Lines {
		out.Lines[i] = SalesOrderLine{
			Line:               fromLine(l.Line),
			WarehouseID:        id.String(l.WarehouseID),
			PickedQuantity:     l.PickedQuantity,
			DispatchedQuantity: l.DispatchedQuantity,
			InvoicedQuantity:   l.InvoicedQuantity,
		}
	}
	return out
}

// FromPicklist converts a picklist to its canonical DTO.
func FromPicklist(pl *sales.Picklist) *Picklist {
	out := &Picklist{
		Header:       header(pl.BaseDocument, KindPicklist, string(pl.Status)),
		SalesOrderID: pl.SalesOrderID.String(),
		SalesOrderNo: pl.SalesOrderNumber,
		Customer:     fromRef(pl.Customer),
		Warehouse:    fromRef(pl.Warehouse),
		Lines:        make([]PicklistLine, len(pl.Lines)),
	}
	for i, l := range pl.Lines {
		out.Lines[i] = PicklistLine{
			LineID:          l.LineID.String(),
			LineNo:          l.LineNo,
			OrderLineID:     l.OrderLineID.String(),
			Item:            fromRef(l.Item),
			OrderedQuantity: l.OrderedQuantity,
			PickedQuantity:  l.PickedQuantity,
			PickedAt:        l.PickedAt,
		}
	}
	return out
}

// FromDispatch converts a dispatch and its tracking history to a DTO.
func FromDispatch(d *sales.Dispatch) *Dispatch {
	out := &Dispatch{
		Header:         header(d.BaseDocument, KindDispatch, string(d.Status)),
		PicklistID:     d.PicklistID.String(),
		PicklistNo:     d.PicklistNumber,
		SalesOrderID:   d.SalesOrderID.String(),
		SalesOrderNo:   d.SalesOrderNumber,
		Customer:       fromRef(d.Customer),
		Warehouse:      fromRef(d.Warehouse),
		Carrier:        d.Carrier,
		TrackingNumber: d.TrackingNumber,
		ShippedAt:      d.ShippedAt,
		DeliveredAt:    d.DeliveredAt,
		Lines:          make([]DispatchLine, len(d.Lines)),
		Tracking:       FromTracking(d.Tracking()),
	}
	for i, l := range d.Lines {
		out.Lines[i] = DispatchLine{
			LineID:         l.LineID.String(),
			LineNo:         l.LineNo,
			PicklistLineID: l.PicklistLineID.String(),
			OrderLineID:    l.OrderLineID.String(),
			Item:           fromRef(l.Item),
			Quantity:       l.Quantity,
		}
	}
	return out
}

// FromTracking converts tracking events.
func FromTracking(events []sales.TrackingEvent) []TrackingEvent {
	out := make([]TrackingEvent, len(events))
	for i, ev := range events {
		out[i] = TrackingEvent{
			Seq:      ev.Seq,
			Status:   string(ev.Status),
			At:       ev.At,
			Location: ev.Location,
			Note:     ev.Note,
		}
	}
	return out
}

// FromInvoice converts an invoice. The status is the effective one at asOf,
// so an open invoice past its due date renders as overdue.
func FromInvoice(inv *billing.Invoice, asOf time.Time) *Invoice {
	out := &Invoice{
		Header:      header(inv.BaseDocument, inv.Kind(), string(inv.EffectiveStatus(asOf))),
		Type:        string(inv.Type),
		Party:       fromRef(inv.Party),
		SourceID:    inv.SourceID.String(),
		SourceNo:    inv.SourceNumber,
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
		Lines:       make([]InvoiceLine, len(inv.Lines)),
		Totals:      fromTotals(inv.Totals),
		PaidAmount:  NewAmount(inv.PaidAmount),
		Outstanding: NewAmount(inv.Balance()),
		Payments:    make([]Payment, len(inv.Payments)),
	}
	for i, l := range inv.Lines {
		out.Lines[i] = InvoiceLine{Line: fromLine(l.Line), SourceLineID: l.SourceLineID.String()}
	}
	for i, p := range inv.Payments {
		out.Payments[i] = Payment{Amount: NewAmount(p.Amount), At: p.At, Reference: p.Reference}
	}
	return out
}

// FromList converts a page of documents with conv.
func FromList[T any, D any](res domain.ListResult[T], conv func(T) D) List[D] {
	items := make([]D, len(res.Items))
	for i, doc := range res.Items {
		items[i] = conv(doc)
	}
	return List[D]{Items: items, TotalCount: res.TotalCount, Limit: res.Limit, Offset: res.Offset}
}
