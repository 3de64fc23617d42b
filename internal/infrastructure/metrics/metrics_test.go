package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/domain/documents"
)

func TestRecorder_PipelineEvents(t *testing.T) {
	r := New()
	ctx := context.Background()

	r.Transitioned(ctx, documents.Transition{Document: "purchase_order", From: "approved", To: "ordered"})
	r.Transitioned(ctx, documents.Transition{Document: "purchase_order", From: "approved", To: "ordered"})
	r.OrchestrationFailed(ctx, "convert_requisition", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.transitions.WithLabelValues("purchase_order", "approved", "ordered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("convert_requisition")))

	r.Panicked("/api/v1/sales/orders/:id")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.panics.WithLabelValues("/api/v1/sales/orders/:id")))
}

func TestRecorder_HTTPAndScrape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New()
	r.RegisterPool(func() PoolStats { return PoolStats{Total: 4, Acquired: 1, Idle: 3, Max: 10} })

	engine := gin.New()
	engine.Use(r.Middleware())
	engine.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.GET("/metrics", r.Handler())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `orderflow_http_request_duration_seconds_count{code="204",method="GET",route="/orders/:id"} 1`)
	assert.Contains(t, body, "orderflow_db_pool_max_connections 10")
}
