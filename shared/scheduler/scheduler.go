package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paraglide-stack/shared/config"
	"paraglide-stack/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler manages the execution of agents on a schedule
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	metrics *monitoring.Metrics
	logger  *slog.Logger
	agent   Agent
	cron    *cron.Cron
}

func New(cfg *config.Config, agent Agent, metrics *monitoring.Metrics, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))

	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(logger),
		metrics: metrics,
		logger:  logger,
		agent:   agent,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
	}
}

// Monitor exposes the run monitor backing the health endpoints.
func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled run failed", "agent", s.agent.Name(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, s.config.Monitoring.HealthPort, s.logger)
	healthServer.Start()

	s.logger.Info("scheduler started", "agent", s.agent.Name(), "schedule", s.config.Schedule)
	s.cron.Start()

	// Keep the scheduler running indefinitely until context is cancelled
	<-ctx.Done()
	s.logger.Info("scheduler stopped", "agent", s.agent.Name())
	<-s.cron.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("health server shutdown", "error", err)
	}
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.logger.Info("starting run", "agent", agentName)

	partial := false
	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			partial = true
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	err := s.agent.RunOnce(ctx, events)
	duration := time.Since(startTime)
	s.observe(err, partial, duration)
	if err != nil {
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}

func (s *Scheduler) observe(err error, partial bool, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case err != nil:
		outcome = "failure"
	case partial:
		outcome = "partial"
	}
	s.metrics.Runs.WithLabelValues(outcome).Inc()
	s.metrics.RunDuration.Observe(duration.Seconds())
}
