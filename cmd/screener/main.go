package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token_screener/internal/app/service"
	"token_screener/internal/client"
	"token_screener/internal/config"
	"token_screener/internal/infrastructure/filecache"
	"token_screener/internal/infrastructure/restapi"
	"token_screener/internal/pkg/logger"
	"token_screener/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := config.PathFromEnv()
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	appLogger := logger.NewSlogAdapter(logger.InitSlog(zapLogger))
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace, registry)

	birdeyeClient := client.NewBirdeyeClient(client.BirdeyeClientConfig{
		BaseURL:            cfg.Birdeye.BaseURL,
		APIKey:             cfg.Birdeye.APIKey,
		Timeout:            cfg.Birdeye.RequestTimeout(),
		RateLimitPerMinute: cfg.Birdeye.RequestsPerMinute,
		MaxAttempts:        cfg.Birdeye.MaxAttempts,
		RateLimitBackoff:   cfg.Birdeye.RateLimitBackoff(),
		TransientBackoff:   cfg.Birdeye.TransientBackoff(),
	}, zapLogger, m)
	zapLogger.Info("Birdeye client initialized")

	dexScreenerClient := client.NewDEXScreenerClient(client.DEXScreenerClientConfig{
		BaseURL:             cfg.DEXScreener.BaseURL,
		ChainID:             cfg.DEXScreener.ChainID,
		Timeout:             cfg.DEXScreener.RequestTimeout(),
		MaxTokensPerRequest: cfg.DEXScreener.BatchSize,
	}, zapLogger, m)
	zapLogger.Info("DEXScreener client initialized")

	tokenCache := filecache.NewTokenCache(cfg.Cache.Dir, cfg.Cache.File, cfg.Cache.Freshness(), zapLogger)

	listingSvc := service.NewListingService(birdeyeClient, tokenCache, service.ListingConfig{
		PageSize:       cfg.Birdeye.PageSize,
		InterPageDelay: cfg.Birdeye.InterPageDelay(),
	}, appLogger, m)
	enrichmentSvc := service.NewEnrichmentService(dexScreenerClient, service.EnrichmentConfig{
		BatchSize:       cfg.DEXScreener.BatchSize,
		InterBatchDelay: cfg.DEXScreener.InterBatchDelay(),
	}, appLogger)
	snapshotSvc := service.NewSnapshotService(listingSvc, enrichmentSvc, service.SnapshotConfig{
		TotalTokens:      cfg.Birdeye.TotalTokens,
		SuspiciousSuffix: cfg.Refresh.SuspiciousSuffix,
	}, appLogger, m)
	scheduler := service.NewScheduler(snapshotSvc, cfg.Refresh.Interval(), appLogger)

	gin.SetMode(gin.ReleaseMode)
	router := restapi.SetupRouter(restapi.NewTokenHandler(snapshotSvc, zapLogger), restapi.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitMax:    cfg.Server.RateLimitMax,
		RateLimitWindow: cfg.Server.RateLimitWindow(),
		EnableMetrics:   true,
		EnablePprof:     cfg.Server.Pprof,
	}, zapLogger, m)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(ctx)
	})

	g.Go(func() error {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zapLogger.Info("Shutting down server...")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("Service exited with error", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
	zapLogger.Info("Server exiting")
}
