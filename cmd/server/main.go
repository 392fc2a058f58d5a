package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kms/internal/catalog"
	"kms/internal/commons"
	"kms/internal/infrastructure/logger"
	"kms/internal/order"
	"kms/internal/payment"
	"kms/internal/server"
	"kms/internal/storage"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_FILE", "internal/config/config.yaml"), "path to the YAML config overlay")
	flag.Parse()

	if _, err := commons.LoadDotEnv(".env"); err != nil {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := commons.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	loc, err := cfg.Order.Location()
	if err != nil {
		log.Fatalf("loading timezone: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			zapLogger.Error("closing database", zap.Error(err))
		}
	}()
	zapLogger.Info("database connected", zap.String("driver", store.Driver))

	if cfg.SeedFile != "" {
		seed, err := catalog.LoadSeed(cfg.SeedFile)
		if err != nil {
			zapLogger.Fatal("loading seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
		if err := seed.Apply(ctx, store.Catalog, time.Now(), zapLogger); err != nil {
			zapLogger.Fatal("applying seed", zap.Error(err))
		}
	}

	catalogModule := catalog.NewModule(store, zapLogger)
	orderModule := order.NewModule(store, catalogModule.Service, cfg, loc, zapLogger)
	paymentCtrl := payment.NewModule(store, orderModule.StateMachine, cfg, zapLogger)

	router := server.NewRouter(server.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		WebhookSecret:  cfg.Auth.WebhookSecret,
		RequestTimeout: cfg.Server.RequestTimeout,
		Ping:           store.Ping,
	}, orderModule.Controller, paymentCtrl, catalogModule.Controller, zapLogger)

	if cfg.Auth.WebhookSecret == "" {
		zapLogger.Warn("WEBHOOK_SECRET is empty, payment webhook signatures are not verified")
	}

	srv := server.New(cfg.Server.Port, router, cfg.Server.RequestTimeout, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
		return
	}

	zapLogger.Info("server stopped gracefully")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
