package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/service"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/shared/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	engine   *engine.Engine
	registry *service.Registry
	metrics  *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(eng *engine.Engine, registry *service.Registry, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		engine:   eng,
		registry: registry,
		metrics:  metrics,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "BrowserOS Engine",
		"version": "1.0.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":   "healthy",
		"cache":    gin.H{"entries": h.engine.Cache().Len()},
		"services": h.registry.Stats(),
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.GetSnapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// Load fetches one resource: the caller sends a URL string and receives
// either the decoded content or an error message.
func (h *Handlers) Load(c *gin.Context) {
	var req types.LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.LoadResponse{
			Success: false,
			Error:   "url field required",
		})
		return
	}

	res, err := h.engine.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusOK, types.LoadResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.LoadResponse{
		Success: true,
		Content: res.Body,
	})
}

// ListServices returns registered service definitions
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if v := c.Query("category"); v != "" {
		cat := types.Category(v)
		category = &cat
	}
	c.JSON(http.StatusOK, gin.H{"services": h.registry.List(category)})
}

// ExecuteService runs a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appCtx := &types.Context{AppID: req.AppID}

	var timer *monitoring.Timer
	if h.metrics != nil {
		svc, method, _ := strings.Cut(req.ToolID, ".")
		timer = monitoring.NewTimer(h.metrics, svc, method)
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		if timer != nil {
			timer.Stop("error")
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if timer != nil {
		status := "success"
		if !result.Success {
			status = "failure"
		}
		timer.Stop(status)
	}
	c.JSON(http.StatusOK, result)
}
