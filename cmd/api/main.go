package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/orderdesk/api/controllers"
	"github.com/angelmondragon/orderdesk/api/routes"
	"github.com/angelmondragon/orderdesk/internal/bootstrap"
	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	"github.com/angelmondragon/orderdesk/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap store", err)
		os.Exit(1)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing store", err)
		}
	}()

	readyChecks := []controllers.ReadyCheck{{Name: stores.Driver, Pinger: stores.Pinger}}

	params := routes.RouterParams{Config: cfg, Logger: logg}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		params.Idempotency = redisClient
		readyChecks = append(readyChecks, controllers.ReadyCheck{Name: "redis", Pinger: redisClient})
	} else {
		logg.Warn(ctx, "redis not configured; idempotency keys are ignored")
	}

	blob, err := bootstrap.OpenBlob(ctx, cfg.Blob, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap blob storage", err)
		os.Exit(1)
	}
	if blob != nil {
		readyChecks = append(readyChecks, controllers.ReadyCheck{Name: "blob", Pinger: blob})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := bootstrap.NewServices(bootstrap.ServicesParams{
		Config:     cfg,
		Stores:     stores,
		Blob:       blob,
		Logger:     logg,
		Registerer: registry,
	})
	if err != nil {
		logg.Error(ctx, "failed to create services", err)
		os.Exit(1)
	}

	params.ReadyChecks = readyChecks
	params.Gatherer = registry
	params.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	params.Auth = services.Auth
	params.Clients = services.Clients
	params.Products = services.Products
	params.Orders = services.Orders
	params.Transfer = services.Transfer

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"store": stores.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
