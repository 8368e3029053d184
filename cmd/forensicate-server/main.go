package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver

	"github.com/forensicate/forensicate/internal/api"
	"github.com/forensicate/forensicate/internal/auth"
	"github.com/forensicate/forensicate/internal/chread"
	"github.com/forensicate/forensicate/internal/community"
	"github.com/forensicate/forensicate/internal/config"
	"github.com/forensicate/forensicate/internal/heuristics"
	"github.com/forensicate/forensicate/internal/rules"
	"github.com/forensicate/forensicate/internal/scanner"
	"github.com/forensicate/forensicate/internal/storage"
	"github.com/forensicate/forensicate/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := config.Load()

	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting forensicate server",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("scan_timeout", cfg.ScanTimeout),
		zap.Int("default_threshold", cfg.DefaultThreshold),
	)

	catalog, err := rules.LoadBuiltinCatalog(heuristics.Registry())
	if err != nil {
		logger.Fatal("failed to load rule catalog", zap.Error(err))
	}
	logger.Info("rule catalog loaded", zap.Int("rule_count", len(catalog.Rules)))

	drv := scanner.New(catalog, nil)

	// Storage — ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	if cfg.ClickHouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer", zap.Error(err))
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no FORENSICATE_CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// ClickHouse reader (for scan-events/analytics HTTP endpoints)
	var chReader *chread.Reader
	if cfg.ClickHouseDSN != "" {
		chReader, err = chread.NewReader(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
		} else {
			defer func() { _ = chReader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	// Postgres pool (required for HTTP API — tenants, rule overrides, auth)
	if cfg.DatabaseURL == "" {
		logger.Fatal("FORENSICATE_DATABASE_URL is required")
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(context.Background()); err != nil {
		logger.Fatal("failed to ping postgres", zap.Error(err))
	}
	pgStore := store.NewStore(db)
	logger.Info("postgres connected")

	tenantStore := auth.NewSQLTenantStore(db)
	authenticator := auth.NewPostgresAuthenticator(tenantStore, cfg.AuthCacheTTL, logger)

	var communityLoader *community.Loader
	if cfg.CommunityRulesURL != "" {
		communityLoader = community.NewLoader(cfg.CommunityRulesURL, cfg.CommunityCacheTTL)
		logger.Info("community rule loader configured", zap.String("url", cfg.CommunityRulesURL))
	}

	deps := &api.Dependencies{
		Store:           pgStore,
		Scanner:         drv,
		Catalog:         catalog,
		Authenticator:   authenticator,
		Limiters:        api.NewRateLimiters(cfg.RateRPS, cfg.RateBurst),
		Writer:          writer,
		Reader:          chReader,
		CommunityLoader: communityLoader,
		ScanTimeout:     cfg.ScanTimeout,
		Logger:          logger,
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("forensicate server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
