package reconcile

import (
	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
)

// ValidateReceiptLine checks one goods receipt line against its order line.
// received is cumulative over every receipt of the order line, this one
// included; accepted and rejected belong to the checked receipt only when
// received is passed as that receipt's own quantity.
func ValidateReceiptLine(ordered, received, accepted, rejected types.Quantity) error {
	if received.IsNegative() || accepted.IsNegative() || rejected.IsNegative() {
		return apperror.NewValidation("receipt quantities must not be negative").
			WithDetail("received", received.String()).
			WithDetail("accepted", accepted.String()).
			WithDetail("rejected", rejected.String())
	}
	if err := ValidateCumulativeReceipt(ordered, received); err != nil {
		return err
	}
	return ValidateInspection(received, accepted, rejected)
}

// ValidateCumulativeReceipt fails with OVER_RECEIPT when received > ordered.
func ValidateCumulativeReceipt(ordered, received types.Quantity) error {
	if received > ordered {
		return apperror.NewOverReceipt(ordered.String(), received.String())
	}
	return nil
}

// ValidateInspection fails with QUANTITY_MISMATCH unless accepted + rejected == received.
func ValidateInspection(received, accepted, rejected types.Quantity) error {
	if accepted.Add(rejected) != received {
		return apperror.NewQuantityMismatch(received.String(), accepted.String(), rejected.String())
	}
	return nil
}

// ValidatePickLine fails with OVER_PICK when picked > ordered. Partial picks are legal.
func ValidatePickLine(ordered, picked types.Quantity) error {
	if picked.IsNegative() {
		return apperror.NewValidation("picked quantity must not be negative").
			WithDetail("picked", picked.String())
	}
	if picked > ordered {
		return apperror.NewOverPick(ordered.String(), picked.String())
	}
	return nil
}
