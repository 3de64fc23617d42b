package pipeline

import (
	"context"
	"time"

	"orderflow/internal/core/apperror"
	appctx "orderflow/internal/core/context"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/lifecycle"
)

// RequisitionInput creates a requisition.
type RequisitionInput struct {
	RequestedBy string
	Department  string
	RequiredBy  *time.Time
	Comment     string
	Lines       []documents.LineInput
}

// PurchaseOrderInput creates a purchase order. With RequisitionID set and no
// lines, the requisition lines are carried forward.
type PurchaseOrderInput struct {
	SupplierID    id.ID
	RequisitionID id.ID
	ExpectedDate  *time.Time
	Comment       string
	Lines         []documents.LineInput
}

var (
	requisitionNumbering   = numbering{cfg: purchasing.NumberConfig(purchasing.RequisitionPrefix), opts: purchasing.NumberOptions()}
	purchaseOrderNumbering = numbering{cfg: purchasing.NumberConfig(purchasing.PurchaseOrderPrefix), opts: purchasing.NumberOptions()}
	goodsReceiptNumbering  = numbering{cfg: purchasing.NumberConfig(purchasing.GoodsReceiptPrefix), opts: purchasing.NumberOptions()}
)

func (s *Service) newLines(ctx context.Context, inputs []documents.LineInput) ([]documents.Line, error) {
	lines := make([]documents.Line, 0, len(inputs))
	for i, in := range inputs {
		l, err := documents.NewLine(ctx, s.catalog, in)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeValidation {
				return nil, appErr.WithDetail("lineNo", i+1)
			}
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (s *Service) requisitionLines(ctx context.Context, inputs []documents.LineInput) ([]purchasing.RequisitionLine, error) {
	lines, err := s.newLines(ctx, inputs)
	if err != nil {
		return nil, err
	}
	out := make([]purchasing.RequisitionLine, len(lines))
	for i, l := range lines {
		out[i] = purchasing.RequisitionLine{Line: l}
	}
	return out, nil
}

// CreateRequisition creates a draft requisition.
func (s *Service) CreateRequisition(ctx context.Context, in RequisitionInput) (*purchasing.Requisition, error) {
	now := s.now()
	r := purchasing.NewRequisition(now)
	r.RequestedBy = in.RequestedBy
	if r.RequestedBy == "" {
		r.RequestedBy = appctx.GetActorName(ctx)
	}
	r.Department = in.Department
	r.RequiredBy = in.RequiredBy
	r.Comment = in.Comment

	lines, err := s.requisitionLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}
	if err := r.SetLines(lines, now); err != nil {
		return nil, err
	}

	cs := newChangeSet("create requisition")
	stageCreate(ctx, s, cs, s.stores.Requisitions, r, requisitionNumbering)
	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRequisitionLines replaces the lines of a draft requisition.
func (s *Service) UpdateRequisitionLines(ctx context.Context, reqID id.ID, inputs []documents.LineInput) (*purchasing.Requisition, error) {
	lines, err := s.requisitionLines(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return mutate(ctx, s, "update requisition lines", s.stores.Requisitions, reqID,
		func(r *purchasing.Requisition) error {
			return r.SetLines(lines, s.now())
		})
}

func (s *Service) fireRequisition(ctx context.Context, reqID id.ID, action lifecycle.RequisitionAction) (*purchasing.Requisition, error) {
	return transition(ctx, s, string(action)+" requisition", s.stores.Requisitions, reqID,
		func(r *purchasing.Requisition) (documents.Transition, error) {
			return r.Fire(action, s.now())
		})
}

// SubmitRequisition moves a draft requisition to pending.
func (s *Service) SubmitRequisition(ctx context.Context, reqID id.ID) (*purchasing.Requisition, error) {
	return s.fireRequisition(ctx, reqID, lifecycle.RequisitionSubmit)
}

// ApproveRequisition approves a pending requisition. An empty actor falls
// back to the actor in ctx. No purchase order is created.
func (s *Service) ApproveRequisition(ctx context.Context, reqID id.ID, actor string) (*purchasing.Requisition, error) {
	if actor == "" {
		actor = appctx.GetActorName(ctx)
	}
	return transition(ctx, s, "approve requisition", s.stores.Requisitions, reqID,
		func(r *purchasing.Requisition) (documents.Transition, error) {
			return r.Approve(actor, s.now())
		})
}

// RejectRequisition rejects a pending requisition.
func (s *Service) RejectRequisition(ctx context.Context, reqID id.ID, reason string) (*purchasing.Requisition, error) {
	return transition(ctx, s, "reject requisition", s.stores.Requisitions, reqID,
		func(r *purchasing.Requisition) (documents.Transition, error) {
			return r.Reject(reason, s.now())
		})
}

// CancelRequisition cancels a requisition that is not yet rejected or cancelled.
func (s *Service) CancelRequisition(ctx context.Context, reqID id.ID) (*purchasing.Requisition, error) {
	return s.fireRequisition(ctx, reqID, lifecycle.RequisitionCancel)
}

// CreatePurchaseOrder creates a draft purchase order, optionally from an
// approved requisition.
func (s *Service) CreatePurchaseOrder(ctx context.Context, in PurchaseOrderInput) (*purchasing.PurchaseOrder, error) {
	if id.IsNil(in.SupplierID) {
		return nil, apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	supplier, err := s.catalog.Supplier(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}

	po := purchasing.NewPurchaseOrder(supplier.Ref(), s.now())
	po.ExpectedDate = in.ExpectedDate
	po.Comment = in.Comment

	var req *purchasing.Requisition
	if !id.IsNil(in.RequisitionID) {
		req, err = s.stores.Requisitions.Get(ctx, in.RequisitionID)
		if err != nil {
			return nil, err
		}
		if req.Status != lifecycle.RequisitionApproved {
			return nil, apperror.NewInvalidTransition(purchasing.KindRequisition, string(req.Status), "convert_to_po")
		}
		po.LinkRequisition(req)
	}

	switch {
	case len(in.Lines) > 0:
		lines, err := s.newLines(ctx, in.Lines)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			po.Lines = append(po.Lines, purchasing.PurchaseOrderLine{Line: l})
		}
	case req != nil:
		for _, rl := range req.Lines {
			l, err := rl.Line.Derive(rl.Quantity)
			if err != nil {
				return nil, err
			}
			po.Lines = append(po.Lines, purchasing.PurchaseOrderLine{Line: l, RequisitionLineID: rl.LineID})
		}
	}
	if err := po.Recalculate(); err != nil {
		return nil, err
	}

	cs := newChangeSet("create purchase order")
	stageCreate(ctx, s, cs, s.stores.PurchaseOrders, po, purchaseOrderNumbering)
	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return po, nil
}

// ConvertRequisition creates a purchase order from an approved requisition.
func (s *Service) ConvertRequisition(ctx context.Context, reqID, supplierID id.ID) (*purchasing.PurchaseOrder, error) {
	return s.CreatePurchaseOrder(ctx, PurchaseOrderInput{SupplierID: supplierID, RequisitionID: reqID})
}

func (s *Service) receiptsOf(ctx context.Context, poID id.ID) ([]*purchasing.GoodsReceipt, error) {
	return children(ctx, s.stores.GoodsReceipts, poID)
}

func (s *Service) firePurchaseOrder(ctx context.Context, poID id.ID, action lifecycle.PurchaseOrderAction) (*purchasing.PurchaseOrder, error) {
	return transition(ctx, s, string(action)+" purchase order", s.stores.PurchaseOrders, poID,
		func(po *purchasing.PurchaseOrder) (documents.Transition, error) {
			return po.Fire(action, po.Guard(nil), s.now())
		})
}

// SubmitPurchaseOrder moves a draft order to pending.
func (s *Service) SubmitPurchaseOrder(ctx context.Context, poID id.ID) (*purchasing.PurchaseOrder, error) {
	return s.firePurchaseOrder(ctx, poID, lifecycle.PurchaseOrderSubmit)
}

// ApprovePurchaseOrder moves a pending order to approved.
func (s *Service) ApprovePurchaseOrder(ctx context.Context, poID id.ID) (*purchasing.PurchaseOrder, error) {
	return s.firePurchaseOrder(ctx, poID, lifecycle.PurchaseOrderApprove)
}

// ConfirmPurchaseOrder sends an approved order to the supplier (ordered).
func (s *Service) ConfirmPurchaseOrder(ctx context.Context, poID id.ID) (*purchasing.PurchaseOrder, error) {
	return s.firePurchaseOrder(ctx, poID, lifecycle.PurchaseOrderConfirm)
}

// CancelPurchaseOrder cancels an order against which nothing was received
// by any non-cancelled receipt.
func (s *Service) CancelPurchaseOrder(ctx context.Context, poID id.ID) (*purchasing.PurchaseOrder, error) {
	receipts, err := s.receiptsOf(ctx, poID)
	if err != nil {
		return nil, err
	}
	received := purchasing.ReceivedByLine(receipts, purchasing.NotCancelled)
	return transition(ctx, s, "cancel purchase order", s.stores.PurchaseOrders, poID,
		func(po *purchasing.PurchaseOrder) (documents.Transition, error) {
			return po.Fire(lifecycle.PurchaseOrderCancel, po.Guard(received), s.now())
		})
}

// CreateGoodsReceipt records a pending receipt against an ordered purchase
// order. Quantities are checked against every non-cancelled receipt.
func (s *Service) CreateGoodsReceipt(ctx context.Context, poID id.ID, lines []purchasing.ReceiptLineInput) (*purchasing.GoodsReceipt, error) {
	po, err := s.stores.PurchaseOrders.Get(ctx, poID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.receiptsOf(ctx, poID)
	if err != nil {
		return nil, err
	}
	gr, err := purchasing.NewGoodsReceipt(po, lines, purchasing.ReceivedByLine(receipts, purchasing.NotCancelled), s.now())
	if err != nil {
		return nil, err
	}

	cs := newChangeSet("create goods receipt")
	stageCreate(ctx, s, cs, s.stores.GoodsReceipts, gr, goodsReceiptNumbering)
	if err := s.apply(ctx, cs); err != nil {
		return nil, err
	}
	return gr, nil
}

// StartGoodsReceipt moves a pending receipt to in_progress.
func (s *Service) StartGoodsReceipt(ctx context.Context, grID id.ID) (*purchasing.GoodsReceipt, error) {
	return transition(ctx, s, "start goods receipt", s.stores.GoodsReceipts, grID,
		func(gr *purchasing.GoodsReceipt) (documents.Transition, error) {
			return gr.Fire(lifecycle.GoodsReceiptStart, s.now())
		})
}

// InspectGoodsReceipt records accepted and rejected quantities of a line.
func (s *Service) InspectGoodsReceipt(ctx context.Context, grID, lineID id.ID, accepted, rejected types.Quantity) (*purchasing.GoodsReceipt, error) {
	return mutate(ctx, s, "inspect goods receipt", s.stores.GoodsReceipts, grID,
		func(gr *purchasing.GoodsReceipt) error {
			return gr.Inspect(lineID, accepted, rejected, s.now())
		})
}

// CancelGoodsReceipt cancels a receipt that is not completed. Its quantities
// no longer count against the order.
func (s *Service) CancelGoodsReceipt(ctx context.Context, grID id.ID) (*purchasing.GoodsReceipt, error) {
	return transition(ctx, s, "cancel goods receipt", s.stores.GoodsReceipts, grID,
		func(gr *purchasing.GoodsReceipt) (documents.Transition, error) {
			return gr.Fire(lifecycle.GoodsReceiptCancel, s.now())
		})
}

// stageReceiptCompletion fires complete on gr and recomputes its order from
// every completed receipt, gr included.
func (s *Service) stageReceiptCompletion(ctx context.Context, cs *changeSet, gr *purchasing.GoodsReceipt) (*purchasing.PurchaseOrder, error) {
	now := s.now()
	t, err := gr.Fire(lifecycle.GoodsReceiptComplete, now)
	if err != nil {
		return nil, err
	}
	cs.record(gr, t)

	po, err := s.stores.PurchaseOrders.Get(ctx, gr.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.receiptsOf(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	merged := []*purchasing.GoodsReceipt{gr}
	for _, other := range receipts {
		if other.ID != gr.ID {
			merged = append(merged, other)
		}
	}

	pt, err := po.ApplyReceipts(merged, now)
	if err != nil {
		return nil, err
	}
	cs.record(po, pt)
	return po, nil
}

// CompleteGoodsReceipt completes an inspected receipt and moves its order
// to partially_received or received in the same change set.
func (s *Service) CompleteGoodsReceipt(ctx context.Context, grID id.ID) (*purchasing.GoodsReceipt, *purchasing.PurchaseOrder, error) {
	gr, err := s.stores.GoodsReceipts.Get(ctx, grID)
	if err != nil {
		return nil, nil, err
	}

	cs := newChangeSet("complete goods receipt")
	po, err := s.stageReceiptCompletion(ctx, cs, gr)
	if err != nil {
		return nil, nil, err
	}
	stageUpdate(ctx, cs, s.stores.GoodsReceipts, gr)
	stageUpdate(ctx, cs, s.stores.PurchaseOrders, po)
	if err := s.apply(ctx, cs); err != nil {
		return nil, nil, err
	}
	return gr, po, nil
}

// ReceiveGoods creates, starts, inspects and completes a receipt in one
// change set. Lines without inspection quantities are accepted in full.
func (s *Service) ReceiveGoods(ctx context.Context, poID id.ID, lines []purchasing.ReceiptLineInput) (*purchasing.GoodsReceipt, *purchasing.PurchaseOrder, error) {
	po, err := s.stores.PurchaseOrders.Get(ctx, poID)
	if err != nil {
		return nil, nil, err
	}
	receipts, err := s.receiptsOf(ctx, poID)
	if err != nil {
		return nil, nil, err
	}

	inputs := make([]purchasing.ReceiptLineInput, len(lines))
	for i, in := range lines {
		if in.Accepted == nil && in.Rejected == nil {
			accepted, rejected := in.Received, types.Quantity(0)
			in.Accepted, in.Rejected = &accepted, &rejected
		}
		inputs[i] = in
	}

	now := s.now()
	gr, err := purchasing.NewGoodsReceipt(po, inputs, purchasing.ReceivedByLine(receipts, purchasing.NotCancelled), now)
	if err != nil {
		return nil, nil, err
	}

	cs := newChangeSet("receive goods")
	t, err := gr.Fire(lifecycle.GoodsReceiptStart, now)
	if err != nil {
		return nil, nil, err
	}
	cs.record(gr, t)
	po, err = s.stageReceiptCompletion(ctx, cs, gr)
	if err != nil {
		return nil, nil, err
	}
	stageCreate(ctx, s, cs, s.stores.GoodsReceipts, gr, goodsReceiptNumbering)
	stageUpdate(ctx, cs, s.stores.PurchaseOrders, po)
	if err := s.apply(ctx, cs); err != nil {
		return nil, nil, err
	}
	return gr, po, nil
}
