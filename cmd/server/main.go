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

	"github.com/user/life-rpg/config"
	"github.com/user/life-rpg/internal/game"
	"github.com/user/life-rpg/internal/httpapi"
	"github.com/user/life-rpg/internal/interfaces"
	"github.com/user/life-rpg/internal/narrator"
	"github.com/user/life-rpg/internal/storage"
	"github.com/user/life-rpg/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Server.Tracing {
		shutdown, err := setupTracing()
		if err != nil {
			logger.Fatal("Failed to set up tracing", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// Load activity catalog
	catalog, err := game.NewDataLoader(cfg.Game.DataDir).LoadActivities()
	if err != nil {
		logger.Fatal("Failed to load game data", zap.Error(err))
	}
	logger.Info("Loaded activities", zap.Int("count", len(catalog.All())))

	// Initialize storage
	documents, err := storage.OpenDocumentStore(cfg.Storage.DocumentPath, logger)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer documents.Close()

	cache, err := setupCache(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to set up local cache", zap.Error(err))
	}

	// Initialize narrator
	oracle := narrator.NewOpenAINarrator(cfg.Narrator, logger)
	if cfg.Narrator.APIKey == "" {
		logger.Warn("No narrator API key configured, using fallback text")
	}

	// Initialize game manager
	gameManager := game.NewGameManager(cfg, game.Dependencies{
		Catalog:     catalog,
		Persistence: documents,
		Cache:       cache,
		Narrator:    oracle,
		Logger:      logger,
	})
	gameManager.SetNarrationHandler(func(n types.Narration) {
		logger.Info("Narrator", zap.String("trigger", string(n.Trigger)), zap.String("text", n.Text))
	})

	if _, err := gameManager.Login(ctx); err != nil {
		logger.Fatal("Failed to log in", zap.Error(err))
	}

	// Start connectivity monitor
	prober := game.NewHTTPProber(cfg.Connectivity.ProbeURL, 5*time.Second)
	monitor := game.NewConnectivityMonitor(prober, gameManager,
		time.Duration(cfg.Connectivity.IntervalSeconds)*time.Second, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	// Set up HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: httpapi.NewHandler(gameManager, oracle, logger).Router(),
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	stop()
	gameManager.Wait()
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}

func setupTracing() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

func setupCache(ctx context.Context, cfg config.StorageConfig) (interfaces.LocalCache, error) {
	switch cfg.CacheBackend {
	case "redis":
		cache, err := storage.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return cache, nil
	case "file", "":
		cache, err := storage.NewFileCache(cfg.CachePath)
		if err != nil {
			return nil, err
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.CacheBackend)
	}
}

func waitForShutdown(logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform cleanup
	logger.Info("Shutting down")
}
