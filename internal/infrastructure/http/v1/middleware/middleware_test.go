package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/apperror"
	appctx "orderflow/internal/core/context"
	"orderflow/internal/infrastructure/http/v1/dto"
)

func newEngine(hooks ...PanicHook) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Trace(), ErrorHandler(), Recovery(hooks...), Actor())
	return r
}

func TestRecovery_RendersInternalError(t *testing.T) {
	var panicked []string
	r := newEngine(func(route string) { panicked = append(panicked, route) })
	r.GET("/boom/:id", func(c *gin.Context) { panic("nil map") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom/1", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body dto.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeInternal, body.Error.Code)
	assert.NotContains(t, w.Body.String(), "nil map")
	assert.Equal(t, "rid-1", body.RequestID)
	assert.Equal(t, []string{"/boom/:id"}, panicked)
}

func TestErrorHandler_AppError(t *testing.T) {
	r := newEngine()
	r.GET("/po", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("purchase_order", "42"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/po", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

func TestActor_FromHeader(t *testing.T) {
	r := newEngine()
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetActorName(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderActor, "clerk")
	r.ServeHTTP(w, req)
	assert.Equal(t, "clerk", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, "system", w.Body.String())
}
