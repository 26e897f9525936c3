package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/OldStager01/crop-advisor/api/handlers"
	"github.com/OldStager01/crop-advisor/api/middleware"
	"github.com/OldStager01/crop-advisor/api/websocket"
	_ "github.com/OldStager01/crop-advisor/docs"
	"github.com/OldStager01/crop-advisor/internal/auth"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/pkg/config"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

// Deps are the collaborators the HTTP surface is built from. Job and
// Events are optional; without them the admin routes and the event
// stream are not mounted.
type Deps struct {
	Mode        string
	Recommender handlers.Recommender
	Job         handlers.RefreshJob
	Auth        *auth.Service
	Events      <-chan *models.Event
	Checks      map[string]handlers.Checker
	Metrics     *metrics.Metrics
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	deps        Deps
	rateLimiter *middleware.RateLimiter
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	cancel      context.CancelFunc
}

func NewServer(cfg config.APIConfig, wsCfg config.WebSocketConfig, deps Deps) *Server {
	switch deps.Mode {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Get()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		router: gin.New(),
		config: cfg,
		deps:   deps,
		cancel: cancel,
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		s.rateLimiter.StartCleanup(10 * time.Minute)
	}

	s.wsHub = websocket.NewHub(&wsCfg, deps.Metrics.SetWebSocketClients)
	go s.wsHub.Run(ctx)

	if deps.Events != nil {
		s.wsBridge = websocket.NewEventBridge(s.wsHub, deps.Events)
		s.wsBridge.Start()
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(s.config.CORS)))
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.Metrics(s.deps.Metrics))
	s.router.Use(middleware.RateLimit(s.rateLimiter))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxBodyBytes))
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.Checks)
	recommendHandler := handlers.NewRecommendHandler(s.deps.Recommender)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.POST("/recommend", recommendHandler.Recommend)
	s.router.POST("/seasonal_crop", recommendHandler.Seasonal)
	s.router.POST("/demand", recommendHandler.Demand)
	s.router.GET("/districts", recommendHandler.Districts)
	s.router.GET("/seasons", recommendHandler.Seasons)
	s.router.GET("/demand/districts", recommendHandler.DemandDistricts)

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub, s.checkOrigin))
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.deps.Job != nil && s.deps.Auth != nil {
		adminHandler := handlers.NewAdminHandler(s.deps.Job)

		admin := s.router.Group("/admin")
		admin.Use(middleware.JWTAuth(s.deps.Auth, auth.RoleAdmin))
		{
			admin.POST("/forecasts/refresh", adminHandler.Refresh)
			admin.GET("/forecasts/status", adminHandler.Status)
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range middleware.CORSFromConfig(s.config.CORS).AllowOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
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
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.cancel()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
