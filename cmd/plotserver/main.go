package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	plotting "github.com/Skryldev/plotting"
	"github.com/Skryldev/plotting/adapters/storage"
	"github.com/Skryldev/plotting/adapters/vips"
	"github.com/Skryldev/plotting/cache"
	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/hooks"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", ".env", "Path to environment file")
	withVips   = flag.Bool("vips", false, "Serve WebP variants through libvips")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := hooks.NewLogger(cfg.LogLevel, cfg.Debug)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caches, err := cache.NewRegistry(cfg.Caches)
	if err != nil {
		log.Zap().Fatal("Failed to build caches", zap.Error(err))
	}
	storages, err := storage.NewRegistry(ctx, cfg.Storages)
	if err != nil {
		log.Zap().Fatal("Failed to build storages", zap.Error(err))
	}
	log.Zap().Info("Backends ready",
		zap.Strings("caches", caches.Names()),
		zap.Strings("storages", storages.Names()))

	metrics := hooks.NewLatencyMetrics(0.01)

	var backend *vips.Backend
	if *withVips {
		backend = vips.NewBackend(vips.BackendConfig{DefaultQuality: 80})
		defer backend.Shutdown()
	}

	plots := newPlots(*cfg, caches, log, metrics, backend)

	if err := plotting.Prerender(ctx, cfg.PrerenderConcurrency, plots.warm()...); err != nil {
		log.Zap().Warn("Prerender failed", zap.Error(err))
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(recovery(log.Zap()), requestLogger(log.Zap()), allowEmbedding())
	plots.routes(router, storages)
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  metrics.Snapshot(),
			"latencies": metrics.AllStats(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Zap().Info("Starting plot server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Zap().Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Zap().Error("Server failed", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Zap().Error("Server forced to shutdown", zap.Error(err))
	}
	log.Zap().Info("Plot server stopped")
}

// recovery turns panics into logged 500s.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}

// allowEmbedding lets other origins fetch plot images and page fragments.
func allowEmbedding() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "HEAD", "OPTIONS", "POST"},
		AllowHeaders:    []string{"Origin", "Accept", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition", "Content-Encoding"},
		MaxAge:          time.Hour,
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
