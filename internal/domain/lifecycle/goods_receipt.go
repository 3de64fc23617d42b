package lifecycle

// GoodsReceiptStatus is the closed status set of a goods receipt.
type GoodsReceiptStatus string

const (
	GoodsReceiptPending    GoodsReceiptStatus = "pending"
	GoodsReceiptInProgress GoodsReceiptStatus = "in_progress"
	GoodsReceiptCompleted  GoodsReceiptStatus = "completed"
	GoodsReceiptCancelled  GoodsReceiptStatus = "cancelled"
)

type GoodsReceiptAction string

const (
	GoodsReceiptStart    GoodsReceiptAction = "start"
	GoodsReceiptComplete GoodsReceiptAction = "complete"
	GoodsReceiptCancel   GoodsReceiptAction = "cancel"
)

// QualityStatus is the inspection outcome of a receipt line.
type QualityStatus string

const (
	QualityPending QualityStatus = "pending"
	QualityPassed  QualityStatus = "passed"
	QualityFailed  QualityStatus = "failed"
	QualityPartial QualityStatus = "partial"
)

// Resolved reports passed, failed or partial.
func (q QualityStatus) Resolved() bool {
	return q == QualityPassed || q == QualityFailed || q == QualityPartial
}

// GoodsReceiptGuard counts lines blocking completion.
type GoodsReceiptGuard struct {
	LineCount  int
	Unresolved int
}

// GoodsReceiptMachine: pending → in_progress → completed, cancel before completion.
var GoodsReceiptMachine = NewMachine[GoodsReceiptStatus, GoodsReceiptAction, GoodsReceiptGuard](
	"goods_receipt",
	[]GoodsReceiptStatus{GoodsReceiptPending, GoodsReceiptInProgress, GoodsReceiptCompleted, GoodsReceiptCancelled},
	[]GoodsReceiptAction{GoodsReceiptStart, GoodsReceiptComplete, GoodsReceiptCancel},
).
	On(GoodsReceiptStart, []GoodsReceiptStatus{GoodsReceiptPending},
		To[GoodsReceiptStatus, GoodsReceiptGuard](GoodsReceiptInProgress)).
	On(GoodsReceiptComplete, []GoodsReceiptStatus{GoodsReceiptInProgress},
		Guarded(GoodsReceiptCompleted, func(g GoodsReceiptGuard) error {
			if g.LineCount == 0 {
				return Deny("receipt has no lines")
			}
			if g.Unresolved > 0 {
				return Deny("every line needs a resolved quality status")
			}
			return nil
		})).
	On(GoodsReceiptCancel, []GoodsReceiptStatus{GoodsReceiptPending, GoodsReceiptInProgress},
		To[GoodsReceiptStatus, GoodsReceiptGuard](GoodsReceiptCancelled)).
	Terminal(GoodsReceiptCompleted, GoodsReceiptCancelled)
