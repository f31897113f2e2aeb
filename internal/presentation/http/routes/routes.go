package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pipecenter/pipecenter-api/internal/config"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/dto/response"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/handler"
	"github.com/pipecenter/pipecenter-api/internal/presentation/http/middleware"
	"github.com/sirupsen/logrus"
)

// MaxRequestBody is the largest request body the API reads
const MaxRequestBody = 1 << 20

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth          *handler.AuthHandler
	Configuration *handler.ConfigurationHandler
	Quotation     *handler.QuotationHandler
	Health        *handler.HealthHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Verifier     middleware.TokenVerifier
	Cfg          *config.Config
	Logger       *logrus.Logger
	LoginLimiter *middleware.IPRateLimiter
	Replay       *middleware.ReplayCache
}

// NewLoginLimiter builds the per-IP limiter for the login route from config
func NewLoginLimiter(cfg *config.RateLimitConfig) *middleware.IPRateLimiter {
	requests, seconds := cfg.Requests, cfg.Duration
	if requests <= 0 {
		requests = 10
	}
	if seconds <= 0 {
		seconds = 60
	}
	return middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: float64(requests) / float64(seconds),
		BurstSize:         requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))
	router.Use(middleware.Preflight(&deps.Cfg.CORS))
	router.Use(middleware.MaxBodySize(MaxRequestBody))

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, fmt.Sprintf("Endpoint not found: %s", c.Request.URL.Path))
	})
	router.NoMethod(func(c *gin.Context) {
		response.ErrorWithCode(c, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", c.Request.Method, c.Request.URL.Path))
	})

	if deps.Replay == nil {
		deps.Replay = middleware.NewReplayCache(nil)
	}

	// Routes are served both under /api and at the root
	register(router.Group("/api"), h, deps)
	register(router.Group(""), h, deps)

	return router
}

func register(group *gin.RouterGroup, h *Handlers, deps *Deps) {
	group.GET("/health", h.Health.Health)

	auth := group.Group("/auth")
	{
		login := []gin.HandlerFunc{h.Auth.Login}
		if deps.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{deps.LoginLimiter.Middleware()}, login...)
		}
		auth.POST("/login", login...)
	}

	// Protected routes (authentication required)
	protected := group.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Verifier))
	protected.Use(middleware.Idempotency(deps.Replay))

	registerConfigurationRoutes(protected, h)
	registerQuotationRoutes(protected, h)
}

func registerConfigurationRoutes(protected *gin.RouterGroup, h *Handlers) {
	configurations := protected.Group("/configurations")
	{
		configurations.GET("", h.Configuration.List)
		configurations.POST("/create", h.Configuration.Create)
		configurations.GET("/:id", h.Configuration.Get)
		configurations.DELETE("/:id", h.Configuration.Delete)
	}
}

func registerQuotationRoutes(protected *gin.RouterGroup, h *Handlers) {
	quotations := protected.Group("/quotations")
	{
		quotations.GET("", h.Quotation.List)
		quotations.POST("/create", h.Quotation.Create)
		quotations.GET("/export", h.Quotation.Export)
		quotations.POST("/purge", h.Quotation.Purge)
		quotations.GET("/pdf/:id", h.Quotation.PDF)
		quotations.GET("/:id", h.Quotation.Get)
		quotations.PUT("/:id", h.Quotation.Update)
		quotations.DELETE("/:id", h.Quotation.Delete)
	}
}
