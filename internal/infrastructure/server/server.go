package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/traceshop/backend/internal/api/http"
	"github.com/traceshop/backend/internal/api/middleware"
	"github.com/traceshop/backend/internal/domain/cart"
	"github.com/traceshop/backend/internal/domain/catalog"
	"github.com/traceshop/backend/internal/domain/checkout"
	"github.com/traceshop/backend/internal/domain/session"
	"github.com/traceshop/backend/internal/infrastructure/config"
	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/monitoring"
	"github.com/traceshop/backend/internal/infrastructure/telemetry"
	"github.com/traceshop/backend/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	telemetry  *telemetry.Provider
	sessions   *session.Manager
	handlers   *apihttp.Handlers
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a server instance with all components wired.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing TraceShop backend",
		zap.String("port", cfg.Server.Port),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	metrics := monitoring.NewMetrics()

	// Telemetry pipeline: tracer provider plus forced-flush support
	provider, err := telemetry.New(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	provider.WithMetrics(metrics)

	// Span lifecycle registry and activity tracking
	registry := tracing.NewRegistry(
		provider.Tracer("storefront"),
		provider,
		logger,
		tracing.WithMetrics(metrics),
		tracing.WithAppName(cfg.Telemetry.ServiceName),
	)
	trackers := tracing.NewTrackerFactory(registry, tracing.TrackerConfig{
		HeartbeatInterval: cfg.Activity.HeartbeatInterval,
		InactivityTimeout: cfg.Activity.InactivityTimeout,
		DebounceThreshold: cfg.Activity.DebounceThreshold,
	}, logger).WithMetrics(metrics)

	// Storefront domain
	var source catalog.Source
	if cfg.Catalog.BaseURL != "" {
		source = catalog.NewClient(cfg.Catalog)
	}
	catalogSvc := catalog.NewService(cfg.Catalog, source, logger)
	carts := cart.NewManager(logger).WithMetrics(metrics)
	sessions := session.NewManager(session.DefaultTTL, logger)
	checkoutSvc := checkout.NewService(carts, sessions, catalogSvc, logger).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(registry))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(catalogSvc, carts, checkoutSvc, sessions, registry, trackers, provider, metrics, logger)
	registerRoutes(router, handlers)

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		telemetry: provider,
		sessions:  sessions,
		handlers:  handlers,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

func registerRoutes(router *gin.Engine, handlers *apihttp.Handlers) {
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.Stats)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/products", handlers.ListProducts)
		api.GET("/products/:id", handlers.GetProduct)

		api.GET("/cart", handlers.GetCart)
		api.POST("/cart/items", handlers.AddCartItem)
		api.DELETE("/cart/items/:id", handlers.RemoveCartItem)
		api.DELETE("/cart", handlers.ClearCart)

		api.POST("/checkout", handlers.PlaceOrder)
		api.GET("/checkout/confirmation", handlers.Confirmation)
		api.GET("/orders", handlers.ListOrders)
		api.GET("/orders/:id", handlers.GetOrder)

		tr := handlers.Tracing()
		api.POST("/tracing/flows", tr.StartFlow)
		api.DELETE("/tracing/flows/:id", tr.EndFlow)
		api.POST("/tracing/spans", tr.StartSpan)
		api.DELETE("/tracing/spans/:id", tr.EndSpan)
		api.POST("/tracing/spans/:id/events", tr.AddSpanEvent)
		api.POST("/tracing/spans/:id/errors", tr.RecordSpanError)
		api.POST("/tracing/interactions", tr.RecordInteraction)
		api.POST("/tracing/actions", tr.RecordAction)
		api.POST("/tracing/flush", tr.Flush)
		api.GET("/tracing/stats", tr.StatsHandler)
	}
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server: stop accepting requests, stop
// activity trackers, drain the trace exporter, then release everything.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(err))
		}
	}

	s.handlers.Tracing().StopAll()
	s.sessions.Close()

	s.telemetry.Flush(ctx)
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Error("Telemetry shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down telemetry: %w", err)
	}

	s.logger.Sync()
	return nil
}
