package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	appctx "orderflow/internal/core/context"
	"orderflow/internal/infrastructure/wire"
)

const orderBody = `{"id":"po-1","poNumber":"PO-2026-00003","status":"Ordered",
	"supplier":{"id":"sup-1","name":"Acme Ltd"},
	"lines":[{"lineId":"l1","itemId":"i","quantity":2,"unitPrice":"10.00"}],
	"total":"20.00"}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig(srv.URL + "/")
	cfg.RetryBase = time.Millisecond
	return New(cfg, wire.NewNormalizer(wire.DefaultCurrencyScale))
}

func TestClient_RetriesServerErrorsWithSameIdempotencyKey(t *testing.T) {
	var (
		mu    sync.Mutex
		keys  []string
		calls int32
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/purchase/requisitions/req-1/convert-to-po", r.URL.Path)
		assert.Equal(t, "req-42", r.Header.Get("X-Request-ID"))
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()

		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, orderBody)
	})

	ctx := appctx.WithTrace(context.Background(), appctx.NewTraceContext(context.Background(), "trace-1", "req-42"))
	po, err := c.ConvertRequisition(ctx, "req-1")
	require.NoError(t, err)

	assert.Equal(t, "PO-2026-00003", po.DocumentNo)
	assert.Equal(t, "20.00", po.Totals.Total.String())
	require.Len(t, keys, 3)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, keys[0], keys[2])
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetPurchaseOrder(context.Background(), "po-1")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUpstream))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{"not found", http.StatusNotFound, `{"message":"no such order"}`, apperror.CodeNotFound, "no such order"},
		{"validation", http.StatusUnprocessableEntity, `{"error":{"message":"quantity must be positive"}}`, apperror.CodeValidation, "quantity must be positive"},
		{"conflict", http.StatusConflict, `{"error":"already confirmed"}`, apperror.CodeConflict, "already confirmed"},
		{"other", http.StatusTeapot, `not json`, apperror.CodeUpstream, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.ConfirmPurchaseOrder(context.Background(), "po-1")
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, appErr.Details["upstreamMessage"])
			}
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_ConvertRejectsRequisitionAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"req-1","documentNo":"REQ-2026-00001","status":"approved",
			"supplier":{"name":"Acme"},"lines":[{"itemId":"i","quantity":1,"unitPrice":10}],"total":10}`)
	})

	_, err := c.ConvertRequisition(context.Background(), "req-1")
	require.Error(t, err)
	assert.True(t, apperror.IsUnexpectedResponseShape(err))
}

func TestClient_MalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{"id":"so-1","status":"confirmed"}]}`)
	})

	_, err := c.ListSalesOrders(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, apperror.IsUnexpectedResponseShape(err))
}

func TestClient_ListQueryAndCreateBody(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/purchase/orders", r.URL.Path)
			assert.Equal(t, "ordered", r.URL.Query().Get("status"))
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			assert.Empty(t, r.Header.Get("Idempotency-Key"))
			_, _ = io.WriteString(w, `{"data":[`+orderBody+`]}`)
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = io.WriteString(w, orderBody)
		}
	})

	list, err := c.ListPurchaseOrders(context.Background(), Query{Status: "ordered", Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = c.CreatePurchaseOrder(context.Background(), &wire.PurchaseOrderRequest{
		SupplierID: "sup-1",
		Lines:      []wire.LineRequest{{ItemID: "i", UnitPrice: wire.MustAmount("10.00"), UnitPriceMinor: 1000}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sup-1", got["supplierId"])
	line := got["lines"].([]any)[0].(map[string]any)
	assert.Equal(t, "10.00", line["unitPrice"])
	assert.Equal(t, 1000.0, line["unitPriceMinor"])
}
