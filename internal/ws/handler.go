package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/logging"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the bridge trusts its local UI
	},
}

// Handler manages WebSocket connections
type Handler struct {
	engine  *engine.Engine
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eng *engine.Engine, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		engine:  eng,
		metrics: metrics,
		log:     log.Component("ws"),
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	reqCtx := c.Request.Context()

	h.send(conn, map[string]interface{}{
		"type":    "system",
		"message": "Connected to BrowserOS Engine",
	})

	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.log.Debug("websocket closed", zap.Error(err))
			return
		}
		if h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues("in", msg.Type).Inc()
		}

		switch msg.Type {
		case "load":
			h.handleLoad(conn, msg.URL, reqCtx)
		case "ping":
			h.send(conn, map[string]interface{}{"type": "pong"})
		default:
			h.send(conn, map[string]interface{}{
				"type":    "error",
				"message": "unknown message type: " + msg.Type,
			})
		}
	}
}

// handleLoad runs one fetch and replies with content or an error
func (h *Handler) handleLoad(conn *websocket.Conn, url string, ctx context.Context) {
	res, err := h.engine.Fetch(ctx, url)
	if err != nil {
		h.send(conn, map[string]interface{}{
			"type":    "load_result",
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.send(conn, map[string]interface{}{
		"type":    "load_result",
		"success": true,
		"content": res.Body,
	})
}

func (h *Handler) send(conn *websocket.Conn, payload map[string]interface{}) {
	if err := conn.WriteJSON(payload); err != nil {
		h.log.Warn("websocket write failed", zap.Error(err))
		return
	}
	if h.metrics != nil {
		msgType, _ := payload["type"].(string)
		h.metrics.WSMessages.WithLabelValues("out", msgType).Inc()
	}
}
