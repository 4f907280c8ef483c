package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/internal/infrastructure/outbox"
	"github.com/taskmirror/backend/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the outbox is drained and how long
// undeliverable items are retained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxProcessor pushes buffered outbound writes to the reminder source.
type OutboxProcessor struct {
	store   *outbox.Store
	monitor ConnectionHealth
	source  usecase.ReminderSource
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	monitor ConnectionHealth,
	source usecase.ReminderSource,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &OutboxProcessor{
		store:   store,
		monitor: monitor,
		source:  source,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	if cfg.Retention > 0 {
		_, _ = p.cron.AddFunc("@every 1h", func() {
			if err := p.store.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
				p.logger.Warn("outbox cleanup failed", zap.Error(err))
			}
		})
	}

	return p
}

// Start launches the cron scheduler.
func (p *OutboxProcessor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("outbox processor started")
}

// Stop gracefully stops the scheduler.
func (p *OutboxProcessor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("outbox processor stopped")
}

// Drain pushes pending items synchronously.
func (p *OutboxProcessor) Drain(ctx context.Context) error {
	if p == nil || p.store == nil {
		return nil
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := p.store.GetBatch(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := p.processItem(ctx, item); err != nil {
			p.logger.Error("failed to process outbox item",
				zap.String("item_id", item.ID),
				zap.String("operation", item.Operation),
				zap.Error(err))

			item.Retries++
			if item.Retries >= p.cfg.MaxRetries {
				p.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				_ = p.store.Remove(item)
				continue
			}

			if err := p.store.Remove(item); err != nil {
				p.logger.Warn("failed to remove outbox item", zap.Error(err))
			}
			if err := p.store.Requeue(item); err != nil {
				p.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := p.store.Remove(item); err != nil {
			p.logger.Warn("failed to purge processed outbox item", zap.Error(err))
		}
	}
	return nil
}

// Push attempts the write immediately and falls back to persisting it.
func (p *OutboxProcessor) Push(ctx context.Context, item outbox.Item) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}

	if p.monitor == nil || p.monitor.IsOnline() {
		if err := p.processItem(ctx, item); err == nil {
			return nil
		} else {
			p.logger.Warn("immediate external write failed, buffering", zap.Error(err))
		}
	}
	return p.store.Enqueue(item)
}

// Size returns the number of pending items.
func (p *OutboxProcessor) Size() int {
	if p == nil || p.store == nil {
		return 0
	}
	size, err := p.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (p *OutboxProcessor) processItem(ctx context.Context, item outbox.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Operation {
	case outbox.OperationMarkComplete:
		err := p.source.MarkComplete(ctx, item.ExternalID)
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			// Record vanished externally: nothing left to mark.
			return nil
		}
		return err

	case outbox.OperationCreate:
		var record domain.ExternalRecord
		if err := json.Unmarshal(item.Data, &record); err != nil {
			return err
		}
		_, err := p.source.CreateRecord(ctx, &record)
		return err

	case outbox.OperationUpdate:
		var record domain.ExternalRecord
		if err := json.Unmarshal(item.Data, &record); err != nil {
			return err
		}
		err := p.source.UpdateRecord(ctx, &record)
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("unsupported operation %s", item.Operation)
	}
}
