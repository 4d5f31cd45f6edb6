package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/OldStager01/resource-autoscaler/api/handlers"
	"github.com/OldStager01/resource-autoscaler/api/middleware"
	"github.com/OldStager01/resource-autoscaler/api/websocket"
	"github.com/OldStager01/resource-autoscaler/internal/auth"
	"github.com/OldStager01/resource-autoscaler/pkg/config"
	"github.com/OldStager01/resource-autoscaler/pkg/database"
	"github.com/OldStager01/resource-autoscaler/pkg/database/queries"
	"github.com/gin-gonic/gin"
)

// Server exposes the diagnostics surface: health, rule-set and pending
// introspection, dispatch history, and a live event stream.
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	db          *database.DB
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	manager     handlers.ScalerManager
}

func NewServer(cfg config.APIConfig, wsCfg config.WebSocketConfig, db *database.DB, manager handlers.ScalerManager) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTDuration, cfg.JWTIssuer)
	wsHub := websocket.NewHub(wsCfg.BroadcastBuffer)

	s := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		authService: authService,
		wsHub:       wsHub,
		manager:     manager,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if manager != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, manager.SubscribeAllEvents())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) setupRoutes() {
	var requestRepo *queries.ScaleRequestRepository
	var sampleRepo *queries.UsageSampleRepository
	if s.db != nil {
		requestRepo = queries.NewScaleRequestRepository(s.db.DB)
		sampleRepo = queries.NewUsageSampleRepository(s.db.DB)
	}

	healthHandler := handlers.NewHealthHandler(s.db)
	authHandler := handlers.NewAuthHandler(s.authService, s.config.OperatorKey)
	scalerHandler := handlers.NewScalerHandler(s.manager, requestRepo, sampleRepo)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.POST("/auth/token", authHandler.Token)

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		protected.GET("/clusters", scalerHandler.ListClusters)
		protected.GET("/clusters/:id/status", scalerHandler.GetStatus)
		protected.GET("/clusters/:id/rules", scalerHandler.GetRules)
		protected.GET("/clusters/:id/pending", scalerHandler.GetPending)
		protected.GET("/clusters/:id/requests", scalerHandler.GetScaleRequests)
		protected.GET("/clusters/:id/usage", scalerHandler.GetUsageSamples)
	}
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
