package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	"github.com/go-co-op/gocron"
)

const defaultRunAt = "01:00"

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	RunAt    string
	Location *time.Location
}

// Service runs the registered jobs once a day at a wall-clock time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	runAt    string
	loc      *time.Location
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{names: make(map[string]struct{})}
	}
	runAt := params.RunAt
	if runAt == "" {
		runAt = defaultRunAt
	}
	if _, err := time.Parse("15:04", runAt); err != nil {
		return nil, fmt.Errorf("invalid run time %q: %w", runAt, err)
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		runAt:    runAt,
		loc:      loc,
	}, nil
}

// Run schedules the daily cycle and blocks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scheduler := gocron.NewScheduler(s.loc)
	scheduler.SingletonModeAll()
	if _, err := scheduler.Every(1).Day().At(s.runAt).Do(func() {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule daily run: %w", err)
	}
	scheduler.StartAsync()
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"run_at": s.runAt, "location": s.loc.String()}), "cron service scheduled")

	<-ctx.Done()
	scheduler.Stop()
	s.logg.Info(ctx, "cron service context canceled")
	return ctx.Err()
}

// RunOnce runs a single cycle immediately.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	s.logg.Info(ctx, "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
}
