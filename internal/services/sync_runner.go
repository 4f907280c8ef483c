package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskmirror/backend/usecase/reconcile"
)

// SyncRunnerConfig controls the periodic reconciliation schedule.
type SyncRunnerConfig struct {
	Interval             time.Duration
	MarkExternalComplete bool
}

// SyncRunner schedules reconciliation cycles against the external source.
// Each cycle runs to completion; an in-flight cycle is never interleaved with
// the next tick because cron jobs on one schedule run sequentially.
type SyncRunner struct {
	engine *reconcile.Engine
	logger *zap.Logger
	cron   *cron.Cron
	cfg    SyncRunnerConfig
}

func NewSyncRunner(engine *reconcile.Engine, logger *zap.Logger, cfg SyncRunnerConfig) *SyncRunner {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &SyncRunner{
		engine: engine,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := r.engine.RunCycle(ctx, reconcile.TriggerScheduled, cfg.MarkExternalComplete); err != nil {
			r.logger.Error("scheduled reconciliation failed", zap.Error(err))
		}
	})

	return r
}

func (r *SyncRunner) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("sync runner started", zap.Duration("interval", r.cfg.Interval))
}

func (r *SyncRunner) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("sync runner stopped")
}
