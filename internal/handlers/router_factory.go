// Package handlers exposes the assistant over HTTP.
package handlers

import (
	"net/http"

	"directed/internal/config"
	"directed/internal/middleware"
	"directed/internal/observability"
	"directed/internal/serviceinterfaces"
	"directed/internal/version"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// Services groups everything the HTTP layer calls into
type Services struct {
	Assistant serviceinterfaces.AssistantRunner
	Content   serviceinterfaces.ContentService
	Profiles  serviceinterfaces.ProfileStore
	Adaptive  serviceinterfaces.AdaptiveLearner
	Pipeline  serviceinterfaces.PipelineRunner
	// SessionStore builds the per-call profile store used by /assistant/invoke
	SessionStore func() serviceinterfaces.ProfileStore
}

// NewRouter creates the gin engine with all middleware and routes
func NewRouter(cfg *config.Config, svc Services, logger *observability.Logger) *gin.Engine {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger))
	router.Use(middleware.RequestLoggingMiddleware(logger))

	// Health check endpoint (defined before tracing and rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.OpenTelemetry.ServiceName})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling(cfg.OpenTelemetry.ServiceName)...)

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	router.Use(middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, logger).Middleware())

	assistantHandler := NewAssistantHandler(svc.Assistant, svc.Adaptive, svc.Profiles, svc.SessionStore, cfg, logger)
	contentHandler := NewContentHandler(svc.Content, cfg, logger)
	pipelineHandler := NewPipelineHandler(svc.Pipeline, logger)

	router.GET("/", assistantHandler.Root)
	router.GET("/analytics/:user_id", assistantHandler.Analytics)
	router.POST("/assistant/invoke", assistantHandler.Invoke)

	api := router.Group("/api/assistant")
	{
		api.POST("/chat", assistantHandler.Chat)
		api.POST("/content/generate", contentHandler.Generate)
		api.POST("/adaptive_learning", assistantHandler.AdaptiveLearning)
		api.POST("/pipeline", pipelineHandler.Run)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, version.Current(cfg.OpenTelemetry.ServiceName))
		})
	}

	routeListing := NewRouteListingHandler(cfg.OpenTelemetry.ServiceName)
	router.GET("/docs", routeListing.GetRouteListingJSON)
	routeListing.CollectRoutes(router)

	return router
}
