package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/trade-analytics-api/internal/analytics"
	"github.com/dgnsrekt/trade-analytics-api/internal/config"
	"github.com/dgnsrekt/trade-analytics-api/internal/marketdata"
	"github.com/dgnsrekt/trade-analytics-api/internal/notify"
	"github.com/dgnsrekt/trade-analytics-api/internal/server"
	"github.com/dgnsrekt/trade-analytics-api/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	// Setup logger
	logger, err := setupLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("providerMode", cfg.Provider.Mode),
		zap.Strings("symbols", cfg.Symbols),
		zap.Bool("wsEnabled", cfg.Server.WSEnabled),
		zap.Duration("wsStreamInterval", cfg.StreamInterval()),
		zap.Duration("cacheTTL", cfg.CacheTTL()),
		zap.Bool("notifyEnabled", cfg.Notify.Enabled),
	)

	// Create market data provider
	var provider marketdata.Provider
	switch cfg.Provider.Mode {
	case "http":
		provider = marketdata.NewHTTPProvider(
			cfg.Provider.BaseURL,
			cfg.Provider.APIKey,
			cfg.Provider.RatePerSecond,
			time.Duration(cfg.Provider.TimeoutSec)*time.Second,
			time.Duration(cfg.Provider.RetryDelaySec)*time.Second,
			cfg.Provider.RetryCount,
			logger,
		)
	case "file":
		provider = marketdata.NewFileProvider(cfg.Provider.ChainDir, logger)
	default:
		logger.Error("unknown provider mode", zap.String("mode", cfg.Provider.Mode))
		return 1
	}

	// Create analytics service with snapshot cache
	cache := analytics.NewSnapshotCache(cfg.CacheTTL())
	service := analytics.NewService(provider, cache, logger)

	// Create server
	srv := server.NewServer(service, cache, cfg.Symbols, cfg.Server.MaxBatchSymbols, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket components (optional)
	var hub *ws.Hub
	if cfg.Server.WSEnabled {
		hub = ws.NewHub(logger)
		go hub.Run(ctx)

		notifier := notify.New(&notify.Config{
			Enabled:  cfg.Notify.Enabled,
			Server:   cfg.Notify.Server,
			Topic:    cfg.Notify.Topic,
			Priority: cfg.Notify.Priority,
			Tags:     cfg.Notify.Tags,
			Token:    cfg.Notify.Token,
		}, logger)

		streamer, err := ws.NewStreamer(hub, service, notifier, cfg.StreamInterval(), cfg.Server.MarketHoursOnly, logger)
		if err != nil {
			logger.Error("failed to create streamer", zap.Error(err))
			return 1
		}
		go streamer.Run(ctx)

		logger.Info("WebSocket enabled",
			zap.Duration("streamInterval", cfg.StreamInterval()),
		)
	}

	// Create router
	router := server.NewRouter(srv, hub, logger)

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Cancel context to stop WebSocket components
	cancel()

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func setupLogger(level string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.DisableStacktrace = true

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	return zapConfig.Build()
}
