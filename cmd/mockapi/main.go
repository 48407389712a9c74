package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/mockapi"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Development:       cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer func() { _ = log.Sync() }()

	secret := cfg.MockAPI.JWTSecret
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	if len(secret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters long")
	}

	store := mockapi.NewStore()
	mockapi.Seed(store)
	if cfg.MockAPI.AdminUser != "" && cfg.MockAPI.AdminPassword != "" {
		if err := mockapi.AddUser(store, cfg.MockAPI.AdminUser, cfg.MockAPI.AdminPassword, "Administrator", true); err != nil {
			log.Fatal("failed to seed admin user", zap.Error(err))
		}
		log.Info("seeded admin user", zap.String("username", cfg.MockAPI.AdminUser))
	}

	router := mockapi.NewRouter(mockapi.RouterConfig{
		Store:      store,
		JWTService: auth.NewJWTService(secret, cfg.MockAPI.TokenTTL),
		Logger:     log,
	})

	server := &http.Server{
		Addr:              cfg.MockAPI.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("mock storefront api started", zap.String("addr", cfg.MockAPI.Addr), zap.Int("products", len(store.Products())))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
