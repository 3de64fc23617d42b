// Package dto provides request bodies and query parameters of the HTTP API.
// Responses use the canonical documents of package wire.
package dto

import (
	"strings"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/filter"
	"orderflow/internal/infrastructure/wire"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// --- Listing ---

// ListQuery contains list parameters shared by every document collection.
type ListQuery struct {
	// Status is a comma-separated list of statuses
	Status   string `form:"status"`
	ParentID string `form:"parentId" binding:"omitempty,uuid"`
	Search   string `form:"search"`

	// Filter is a CEL expression, e.g. status == "ordered" && total > 1000.0
	Filter string `form:"filter"`

	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter compiles the query into a store filter.
func (q ListQuery) ToFilter() (domain.ListFilter, error) {
	f := domain.ListFilter{
		Search: strings.TrimSpace(q.Search),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	for _, s := range strings.Split(q.Status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, s)
		}
	}

	parentID, err := ParseID("parentId", q.ParentID)
	if err != nil {
		return domain.ListFilter{}, err
	}
	f.ParentID = parentID

	expr, err := filter.Compile(strings.TrimSpace(q.Filter))
	if err != nil {
		return domain.ListFilter{}, err
	}
	f.Expr = expr
	return f, nil
}

// --- Lines ---

// LineRequest is one priced line of a requisition, order or sales order.
// Item code and name are resolved from the catalog.
type LineRequest struct {
	ItemID          string         `json:"itemId" binding:"required,uuid"`
	Quantity        types.Quantity `json:"quantity"`
	UnitPrice       wire.Amount    `json:"unitPrice"`
	DiscountPercent wire.Amount    `json:"discountPercent"`
	TaxPercent      *wire.Amount   `json:"taxPercent"`
}

// ToInput converts the request line.
func (r LineRequest) ToInput() (documents.LineInput, error) {
	itemID, err := ParseID("itemId", r.ItemID)
	if err != nil {
		return documents.LineInput{}, err
	}
	in := documents.LineInput{
		ItemID:          itemID,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice.Decimal,
		DiscountPercent: r.DiscountPercent.Decimal,
	}
	if r.TaxPercent != nil {
		tax := r.TaxPercent.Decimal
		in.TaxPercent = &tax
	}
	return in, nil
}

// LineInputs converts request lines in order.
func LineInputs(lines []LineRequest) ([]documents.LineInput, error) {
	out := make([]documents.LineInput, 0, len(lines))
	for i, l := range lines {
		in, err := l.ToInput()
		if err != nil {
			return nil, withLine(err, i)
		}
		out = append(out, in)
	}
	return out, nil
}

// --- Helpers ---

// ParseID parses an optional id field. Empty yields Nil.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.ParseOptional(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}

func withLine(err error, i int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("lineNo", i+1)
	}
	return err
}

// --- Error Response ---

// ErrorBody is the error envelope of every non-2xx answer.
type ErrorBody struct {
	Error     ErrorResponse `json:"error"`
	RequestID string        `json:"request_id,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
