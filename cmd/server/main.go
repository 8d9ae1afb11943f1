// Package main runs the store admin block server: the dashboard and page
// builder API over the configured stores.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/storeadmin/blocklayer/internal/app"
	"github.com/storeadmin/blocklayer/internal/app/httpapi"
	"github.com/storeadmin/blocklayer/internal/app/metrics"
	pagesvc "github.com/storeadmin/blocklayer/internal/app/services/pages"
	"github.com/storeadmin/blocklayer/internal/app/storage"
	"github.com/storeadmin/blocklayer/internal/app/storage/memory"
	"github.com/storeadmin/blocklayer/internal/app/storage/postgres"
	"github.com/storeadmin/blocklayer/internal/app/storage/rediscache"
	"github.com/storeadmin/blocklayer/internal/config"
	"github.com/storeadmin/blocklayer/internal/middleware"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("server").WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	log := logger.NewDefault("server")

	var (
		stores   app.Stores
		settings storage.SettingsStore
	)
	if cfg.DatabaseURL != "" {
		store, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("open postgres store")
			os.Exit(1)
		}
		defer store.Close()
		stores = app.Stores{Settings: store, Pages: store, Stats: store}
		settings = store
		log.Info("using postgres store")
	} else {
		mem := memory.New()
		stores = app.Stores{Settings: mem, Pages: mem, Stats: mem}
		settings = mem
		log.Warn("DATABASE_URL not set; using in-memory store")
	}

	var renderCache pagesvc.RenderCache
	if cfg.RedisURL != "" {
		cache, err := rediscache.Open(cfg.RedisURL, cfg.RenderCacheTTL, log)
		if err != nil {
			log.WithError(err).Error("connect redis")
			os.Exit(1)
		}
		defer cache.Close()
		renderCache = cache
		log.Info("render cache enabled")
	} else {
		log.Warn("REDIS_URL not set; render cache disabled")
	}

	application, err := app.New(stores, app.Options{RenderCache: renderCache}, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	handler := httpapi.NewHandler(application, settings)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, log)
	rateLimiter.StartCleanup(10 * time.Minute)

	chain := metrics.InstrumentHandler(handler)
	chain = rateLimiter.Handler(chain)
	if cfg.JWTSecret != "" {
		auth := middleware.NewAuthMiddleware([]byte(cfg.JWTSecret), log, []string{"/health", "/metrics"})
		chain = auth.Handler(chain)
	} else {
		log.Warn("JWT_SECRET not set; API authentication disabled")
	}
	chain = middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins).Handler(chain)
	chain = middleware.NewRequestIDMiddleware(log).Handler(chain)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      chain,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("admin API listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}

	log.Info("server stopped")
}
