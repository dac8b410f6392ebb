package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine"
	enginehttp "github.com/GriffinCanCode/BrowserOS/engine/internal/http"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/config"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/logging"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/middleware"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/providers/browser"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/service"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	engine   *engine.Engine
	registry *service.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing BrowserOS Engine",
		zap.String("port", cfg.Server.Port),
		zap.String("user_agent", cfg.Fetch.UserAgent),
	)

	metrics := monitoring.NewMetrics()

	eng := engine.New(cfg.Fetch, cfg.Cache.SweepInterval, logger, engine.WithMetrics(metrics))

	// Register service providers
	serviceRegistry := service.NewRegistry()
	browserSvc := browser.New(eng, logger)
	if err := serviceRegistry.Register(browserSvc); err != nil {
		eng.Close()
		return nil, err
	}
	logger.Info("Service providers registered", zap.Int("count", len(serviceRegistry.List(nil))))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.Server.RateLimitEnabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.Server.RateLimitRPS),
			zap.Int("burst", cfg.Server.RateLimitBurst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		}))
	}

	handlers := enginehttp.NewHandlers(eng, serviceRegistry, metrics)
	wsHandler := ws.NewHandler(eng, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Page loading
	router.POST("/load", handlers.Load)

	// Service management
	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)

	// WebSocket
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		engine:   eng,
		registry: serviceRegistry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.engine.Close()
	return s.logger.Sync()
}
