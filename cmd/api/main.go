package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/bg-remover/internal/adapter/handler"
	"github.com/marcos-nsantos/bg-remover/internal/adapter/remover"
	adapterstorage "github.com/marcos-nsantos/bg-remover/internal/adapter/storage"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/cache"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/config"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/middleware"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/observability"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/rembg"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/server"
	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/storage"
	"github.com/marcos-nsantos/bg-remover/internal/usecase/removal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	metrics := observability.NewMetrics()

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	// Removal capability
	var capability remover.Remover
	if cfg.Remover.Enabled() {
		httpRemover, err := rembg.NewHTTPRemover(cfg.Remover, logger)
		if err != nil {
			logger.Fatal("failed to create remover", zap.Error(err))
		}
		capability = httpRemover
		logger.Info("removal capability configured",
			zap.String("engine", httpRemover.Name()),
			zap.String("url", cfg.Remover.URL),
		)
	} else {
		logger.Warn("REMOVER_URL is not set, background removal is unavailable")
	}

	// Result cache
	var resultStore adapterstorage.ResultStore
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		resultStore = cache.NewRedisResultStore(redisClient, cfg.Redis.KeyPrefix, cfg.Cache.TTL)
	case config.CacheBackendS3:
		s3Store, err := storage.NewS3ResultStore(cfg.S3)
		if err != nil {
			logger.Fatal("failed to create s3 result store", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			logger.Fatal("failed to prepare s3 bucket", zap.Error(err))
		}
		resultStore = s3Store
	}

	codec := storage.NewImageCodec(
		storage.WithMaxDimensions(cfg.Upload.MaxWidth, cfg.Upload.MaxHeight),
		storage.WithJPEGQuality(cfg.Export.JPEGQuality),
	)

	// Use cases
	adapter := removal.NewAdapter(capability, metrics, logger)
	cachedRemover, err := removal.NewCachedRemover(adapter, codec, resultStore, cfg.Cache.Capacity, metrics, logger)
	if err != nil {
		logger.Fatal("failed to create removal cache", zap.Error(err))
	}
	removalSvc := removal.NewService(codec, adapter, cachedRemover)

	// Handlers
	removalHandler := handler.NewRemovalHandler(removalSvc, cfg.Upload.MaxBytes)

	// Middleware
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(redisClient, cfg.Redis.KeyPrefix, cfg.RateLimit, logger)
	}

	// Router
	router := server.NewRouter(server.RouterConfig{
		RemovalHandler: removalHandler,
		Metrics:        metrics,
		RateLimiter:    rateLimiter,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		Logger:         logger,
		Environment:    cfg.Server.Environment,
	})

	// Server
	srv := server.NewServer(server.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Handler:         router.Engine(),
		Logger:          logger,
	})

	logger.Info("removal cache configured",
		zap.String("backend", cfg.Cache.Backend),
		zap.Int("capacity", cfg.Cache.Capacity),
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
}
