// Package undo implements the single-slot completion undo. The slot is an
// explicit state object owned by the composition root, not hidden static
// state; a second capture before an undo overwrites the first by contract.
package undo

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
)

type snapshot struct {
	taskID      string
	nextUp      bool
	timeBlockID string
	spawnedID   string
}

// Manager holds at most one pre-completion snapshot.
type Manager struct {
	tasks  repository.TaskRepository
	logger *zap.Logger

	mu   sync.Mutex
	slot *snapshot
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		tasks:  tasks,
		logger: logger,
	}
}

// Capture must be called before the task is mutated to completed. It records
// the staging flag and time-block assignment so Undo can restore them.
func (m *Manager) Capture(task *domain.Task) {
	if task == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot = &snapshot{
		taskID:      task.ID,
		nextUp:      task.NextUp,
		timeBlockID: task.TimeBlockID,
	}
}

// RecordSpawned attaches the identifier of the instance spawned as a side
// effect of the captured completion. An empty id records "none".
func (m *Manager) RecordSpawned(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slot == nil {
		return
	}
	m.slot.spawnedID = id
}

// Undo reverses the most recent captured completion and returns the restored
// task's title. It returns an empty title when there is nothing to undo. The
// slot is cleared unconditionally.
func (m *Manager) Undo(ctx context.Context) (string, error) {
	m.mu.Lock()
	slot := m.slot
	m.slot = nil
	m.mu.Unlock()

	if slot == nil {
		return "", nil
	}

	task, err := m.tasks.GetByID(ctx, slot.taskID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return "", nil
		}
		return "", err
	}

	task.Completed = false
	task.CompletedAt = nil
	task.NextUp = slot.nextUp
	task.TimeBlockID = slot.timeBlockID

	if slot.spawnedID != "" {
		if err := m.tasks.Delete(ctx, slot.spawnedID); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return "", err
		}
		m.logger.Debug("retracted spawned instance", zap.String("task_id", slot.spawnedID))
	}

	if err := m.tasks.Update(ctx, task); err != nil {
		return "", err
	}

	m.logger.Info("completion undone", zap.String("task_id", task.ID))
	return task.Title, nil
}
