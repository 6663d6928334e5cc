package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/orderdesk/internal/bootstrap"
	"github.com/angelmondragon/orderdesk/internal/cron"
	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	"github.com/angelmondragon/orderdesk/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	blob, err := bootstrap.OpenBlob(ctx, cfg.Blob, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap blob storage", err)
		os.Exit(1)
	}
	if blob == nil {
		logg.Warn(ctx, "blob storage not configured; backups will fail until it is")
	}

	services, err := bootstrap.NewServices(bootstrap.ServicesParams{
		Config:     cfg,
		Stores:     stores,
		Blob:       blob,
		Logger:     logg,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create services", err)
		os.Exit(1)
	}

	lock, closeLock, err := newLock(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}
	defer closeLock()

	backupJob, err := cron.NewBackupJob(services.Transfer, logg)
	if err != nil {
		logg.Error(ctx, "failed to create backup job", err)
		os.Exit(1)
	}
	registry, err := cron.NewRegistry(backupJob)
	if err != nil {
		logg.Error(ctx, "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		RunAt:    cfg.Cron.RunAt,
		Location: cfg.Transfer.Location(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"runAt": cfg.Cron.RunAt,
		"store": stores.Driver,
	})

	if *once {
		logg.Info(ctx, "running cron jobs once")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron run failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// newLock prefers a redis lock so several workers can share one schedule.
func newLock(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cron.Lock, func(), error) {
	if !cfg.Redis.Enabled() {
		logg.Warn(ctx, "redis not configured; using in-process cron lock")
		return &cron.LocalLock{}, func() {}, nil
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+env), cfg.Cron.LockTTL)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return lock, closeFn, nil
}
