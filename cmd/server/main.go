package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"propsearch/internal/app"
	"propsearch/internal/config"
	"propsearch/internal/handler"
	"propsearch/internal/logger"
	"propsearch/internal/metrics"
	"propsearch/internal/repository"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, err := logger.New(cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	if err := run(cfg, l); err != nil {
		l.Fatal("Server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, l *zap.Logger) error {
	l.Info("Starting property search service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)
	for _, w := range cfg.Warnings {
		l.Warn("Configuration", zap.String("warning", w))
	}

	metrics.Register()
	handler.RegisterValidation()
	gin.SetMode(cfg.Server.GinMode)

	ctx := context.Background()

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		repository.Procedures{Admin: cfg.PostgreSQL.AdminSearchProc, Guest: cfg.PostgreSQL.GuestSearchProc},
	)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()
	l.Info("Connected to PostgreSQL database")

	vocab, err := app.LoadVocabulary(cfg)
	if err != nil {
		return err
	}

	extractor, err := app.NewExtractor(ctx, cfg, vocab, l)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}
	l.Info("Extractor initialized",
		zap.String("provider", extractor.Name()),
		zap.Float64("budget_usd", cfg.Extractor.BudgetUSD),
	)

	geo, err := app.NewGeo(cfg, l)
	if err != nil {
		return fmt.Errorf("create maps client: %w", err)
	}
	defer geo.Close()

	searchService := app.NewSearchService(cfg, extractor, vocab, repo, geo, l)

	searchHandler := handler.NewSearchHandler(searchService, cfg.Search.MaxLimit)
	feedbackHandler := handler.NewFeedbackHandler(searchService)

	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(l), metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitCSV(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitCSV(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitCSV(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if err := repo.Ping(c.Request.Context()); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": "property-search",
			"version": Version,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router, searchHandler, feedbackHandler, cfg.Admin.APIKeys)
	if len(cfg.Admin.APIKeys) == 0 {
		l.Warn("ADMIN_API_KEYS not set, admin search is disabled")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	l.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	l.Info("Server stopped")
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
