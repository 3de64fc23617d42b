package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents/purchasing"
	"orderflow/internal/domain/documents/sales"
)

// DefaultCurrencyScale is the number of minor unit digits (cents).
const DefaultCurrencyScale int32 = 2

// Field name variants accepted from the backend, in order of preference.
var (
	quantityNames  = []string{"quantity", "requestedQty", "orderedQty", "qty"}
	unitPriceNames = []string{"unitPrice", "estimatedPrice", "rate", "price"}
	taxNames       = []string{"taxPercent", "tax", "taxRate"}
	discountNames  = []string{"discountPercent", "discount"}
	lineTotalNames = []string{"lineTotal"}
	totalNames     = []string{"total", "totalAmount", "grandTotal"}
	createdNames   = []string{"createdAt", "created_at", "creation"}
	updatedNames   = []string{"updatedAt", "updated_at", "modified"}
	kindNames      = []string{"kind", "documentType", "docType"}

	itemObject = []string{"item", "product"}
	itemIDs    = []string{"itemId", "productId"}
	itemCodes  = []string{"itemCode", "sku"}
	itemNames  = []string{"itemName", "description"}
)

// documentNoNames lists the number fields per kind. The generic names come last.
var documentNoNames = map[string][]string{
	KindRequisition:   {"documentNo", "requisitionNo", "number"},
	KindPurchaseOrder: {"documentNo", "poNumber", "orderNo", "number"},
	KindGoodsReceipt:  {"documentNo", "receiptNo", "grnNo", "number"},
	KindSalesOrder:    {"documentNo", "orderNo", "soNumber", "number"},
}

// numberPrefixes maps the document number prefixes of this system to kinds.
var numberPrefixes = map[string]string{
	purchasing.RequisitionPrefix:   KindRequisition,
	purchasing.PurchaseOrderPrefix: KindPurchaseOrder,
	purchasing.GoodsReceiptPrefix:  KindGoodsReceipt,
	sales.SalesOrderPrefix:         KindSalesOrder,
	sales.PicklistPrefix:           KindPicklist,
	sales.DispatchPrefix:           KindDispatch,
}

// Normalizer turns backend payloads into canonical DTOs. It is safe for
// concurrent use.
type Normalizer struct {
	scale    int32
	validate *validator.Validate
}

// NewNormalizer creates a normalizer reading minor unit amounts at
// currencyScale digits.
func NewNormalizer(currencyScale int32) *Normalizer {
	if currencyScale < 0 {
		currencyScale = DefaultCurrencyScale
	}
	return &Normalizer{
		scale:    currencyScale,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Scale returns the currency scale of minor unit amounts.
func (n *Normalizer) Scale() int32 { return n.scale }

// ToMinor converts an outbound amount to minor units. An amount finer than
// the currency scale is a validation error; it is never truncated.
func (n *Normalizer) ToMinor(field string, m types.Money) (types.MinorUnits, error) {
	minor, err := types.ToMinor(m, n.scale)
	if err != nil {
		return 0, apperror.NewValidation("amount cannot be represented in minor units").
			WithDetail("field", field).
			WithDetail("value", m.String()).
			WithDetail("scale", n.scale).
			WithCause(err)
	}
	return minor, nil
}

func (n *Normalizer) check(endpoint string, dto any) error {
	err := n.validate.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return apperror.NewUnexpectedResponseShape(endpoint, "invalid fields: "+strings.Join(fields, ", ")).
			WithDetail("fields", fields)
	}
	return apperror.NewUnexpectedResponseShape(endpoint, err.Error())
}

// mapper builds one DTO out of a decoded object.
type mapper[T any] func(d *decoder, o object) *T

func decodeOne[T any](n *Normalizer, endpoint string, body []byte, build mapper[T]) (*T, error) {
	v, err := parseJSON(body)
	if err != nil {
		return nil, apperror.NewUnexpectedResponseShape(endpoint, "invalid JSON").WithCause(err)
	}
	o, ok := unwrap(v).(map[string]any)
	if !ok {
		return nil, apperror.NewUnexpectedResponseShape(endpoint, "expected a JSON object")
	}
	return buildWith(n, endpoint, object(o), build)
}

func decodeMany[T any](n *Normalizer, endpoint string, body []byte, build mapper[T]) ([]*T, error) {
	v, err := parseJSON(body)
	if err != nil {
		return nil, apperror.NewUnexpectedResponseShape(endpoint, "invalid JSON").WithCause(err)
	}
	arr, ok := items(v)
	if !ok {
		return nil, apperror.NewUnexpectedResponseShape(endpoint, "expected a list")
	}
	out := make([]*T, 0, len(arr))
	for i, el := range arr {
		o, ok := el.(map[string]any)
		if !ok {
			return nil, apperror.NewUnexpectedResponseShape(endpoint, fmt.Sprintf("item %d: expected an object", i))
		}
		doc, err := buildWith(n, endpoint, object(o), build)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func buildWith[T any](n *Normalizer, endpoint string, o object, build mapper[T]) (*T, error) {
	d := &decoder{endpoint: endpoint, scale: n.scale}
	doc := build(d, o)
	if d.err != nil {
		return nil, d.err
	}
	if err := n.check(endpoint, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
