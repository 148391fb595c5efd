package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/scheduler/job"

	"github.com/robfig/cron/v3"
)

const jobTimeout = time.Minute

type Scheduler struct {
	cfg      *config.AppConfig
	cron     *cron.Cron
	presence job.PresenceReconciler
	live     job.LiveUsers
}

func New(cfg *config.AppConfig, presence job.PresenceReconciler, live job.LiveUsers) *Scheduler {
	c := cron.New()

	return &Scheduler{
		cfg:      cfg,
		cron:     c,
		presence: presence,
		live:     live,
	}
}

// Start registers the jobs, runs presence reconciliation once to clear flags
// left by a previous process, then starts the cron loop.
func (s *Scheduler) Start() error {
	slog.Info("Starting Scheduler...")

	if err := s.registerJobs(); err != nil {
		return err
	}

	s.runPresenceReconcile()

	s.cron.Start()
	slog.Info("Scheduler started successfully")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) registerJobs() error {
	_, err := s.cron.AddFunc(s.cfg.PresenceReconcileCron, s.runPresenceReconcile)
	if err != nil {
		slog.Error("Failed to register Presence Reconcile job", "error", err, "schedule", s.cfg.PresenceReconcileCron)
		return err
	}
	slog.Info("Registered Presence Reconcile Job", "schedule", s.cfg.PresenceReconcileCron)
	return nil
}

func (s *Scheduler) runPresenceReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := job.RunPresenceReconcile(ctx, s.presence, s.live); err != nil {
		slog.Error("Presence Reconcile Job failed", "error", err)
	}
}
