package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/config"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/providers/browser"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/service"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/shared/types"
)

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterMetrics(t, nil)
}

func newTestRouterMetrics(t *testing.T, metrics *monitoring.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.FetchConfig{
		UserAgent:      "test-agent",
		FallbackHost:   "example.com",
		MaxRedirects:   10,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
	}
	eng := engine.New(cfg, 0, nil)
	t.Cleanup(eng.Close)

	registry := service.NewRegistry()
	require.NoError(t, registry.Register(browser.New(eng, nil)))

	h := NewHandlers(eng, registry, metrics)
	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/load", h.Load)
	router.GET("/services", h.ListServices)
	router.POST("/services/execute", h.ExecuteService)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoad(t *testing.T) {
	router := newTestRouter(t)

	t.Run("returns decoded content", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/load",
			types.LoadRequest{URL: "data:text/plain,Hello%20World"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp types.LoadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Hello World", resp.Content)
	})

	t.Run("fetch failure is a failure result, not a 500", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/load",
			types.LoadRequest{URL: "file:///does/not/exist"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp types.LoadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("missing url is a bad request", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/load", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServiceEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("list services", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/services", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "browser.navigate")
	})

	t.Run("execute navigate", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/services/execute", types.ExecuteRequest{
			ToolID: "browser.navigate",
			Params: map[string]interface{}{"url": "data:text/plain,hi"},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var result types.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, "hi", result.Data["content"])
	})
}

func TestServiceCallMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	router := newTestRouterMetrics(t, metrics)

	w := doJSON(t, router, http.MethodPost, "/services/execute", types.ExecuteRequest{
		ToolID: "browser.navigate",
		Params: map[string]interface{}{"url": "data:text/plain,hi"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	got := testutil.ToFloat64(metrics.ServiceCalls.WithLabelValues("browser", "navigate", "success"))
	assert.Equal(t, 1.0, got)

	w = doJSON(t, router, http.MethodPost, "/services/execute", types.ExecuteRequest{
		ToolID: "nosuch.tool",
		Params: map[string]interface{}{},
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	got = testutil.ToFloat64(metrics.ServiceCalls.WithLabelValues("nosuch", "tool", "error"))
	assert.Equal(t, 1.0, got)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
