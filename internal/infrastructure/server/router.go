package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/bg-remover/internal/adapter/handler"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/middleware"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/observability"
)

type Router struct {
	engine         *gin.Engine
	removalHandler *handler.RemovalHandler
	metrics        *observability.Metrics
	rateLimiter    *middleware.RateLimiter
	corsOrigins    []string
	logger         *zap.Logger
}

type RouterConfig struct {
	RemovalHandler *handler.RemovalHandler
	Metrics        *observability.Metrics
	RateLimiter    *middleware.RateLimiter
	CORSOrigins    []string
	Logger         *zap.Logger
	Environment    string
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:         engine,
		removalHandler: cfg.RemovalHandler,
		metrics:        cfg.Metrics,
		rateLimiter:    cfg.RateLimiter,
		corsOrigins:    cfg.CORSOrigins,
		logger:         cfg.Logger,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS(r.corsOrigins))
	if r.metrics != nil {
		r.engine.Use(middleware.Metrics(r.metrics))
	}
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	api := r.engine.Group("/api/v1")
	if r.rateLimiter != nil {
		api.Use(r.rateLimiter.Limit())
	}
	{
		api.GET("/capability", r.removalHandler.Capability)

		removals := api.Group("/removals")
		{
			removals.POST("", r.removalHandler.Remove)
			removals.POST("/preview", r.removalHandler.Preview)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
