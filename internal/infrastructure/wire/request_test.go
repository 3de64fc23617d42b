package wire

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	"orderflow/internal/core/id"
	"orderflow/internal/core/types"
	"orderflow/internal/domain/documents"
	"orderflow/internal/domain/pipeline"
)

func TestSalesOrderRequest(t *testing.T) {
	n := NewNormalizer(DefaultCurrencyScale)
	customer, item, wh := id.New(), id.New(), id.New()
	tax := decimal.NewFromInt(18)

	req, err := n.SalesOrderRequest(pipeline.SalesOrderInput{
		CustomerID: customer,
		Lines: []pipeline.SalesLineInput{{
			LineInput: documents.LineInput{
				ItemID:     item,
				Quantity:   types.NewQuantity(75),
				UnitPrice:  types.MustMoney("400"),
				TaxPercent: &tax,
			},
			WarehouseID: wh,
		}},
	})
	require.NoError(t, err)

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"customerId": "`+customer.String()+`",
		"lines": [{
			"itemId": "`+item.String()+`",
			"quantity": 75.0000,
			"unitPrice": "400.00",
			"unitPriceMinor": 40000,
			"discountPercent": "0.00",
			"taxPercent": "18.00",
			"warehouseId": "`+wh.String()+`"
		}]
	}`, string(out))
}

func TestRequisitionRequest_RejectsSubMinorPrices(t *testing.T) {
	n := NewNormalizer(DefaultCurrencyScale)

	_, err := n.RequisitionRequest(pipeline.RequisitionInput{
		Lines: []documents.LineInput{
			{ItemID: id.New(), Quantity: types.NewQuantity(1), UnitPrice: types.MustMoney("1.50")},
			{ItemID: id.New(), Quantity: types.NewQuantity(1), UnitPrice: types.MustMoney("0.125")},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "lines[1].unitPrice", appErr.Details["field"])
}
