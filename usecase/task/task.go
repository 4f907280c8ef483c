package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
	"github.com/taskmirror/backend/usecase"
	"github.com/taskmirror/backend/usecase/series"
	"github.com/taskmirror/backend/usecase/undo"
)

type UseCase struct {
	tasks    repository.TaskRepository
	settings repository.SettingsRepository
	series   *series.Manager
	undo     *undo.Manager
	outbox   usecase.ExportBuffer
	logger   *zap.Logger
	now      func() time.Time
}

func New(
	tasks repository.TaskRepository,
	settings repository.SettingsRepository,
	seriesMgr *series.Manager,
	undoMgr *undo.Manager,
	outbox usecase.ExportBuffer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		settings: settings,
		series:   seriesMgr,
		undo:     undoMgr,
		outbox:   outbox,
		logger:   logger,
		now:      time.Now,
	}
}

// ListVisible returns the backlog shown to the presentation layer: templates
// and future-dated recurring occurrences stay hidden.
func (uc *UseCase) ListVisible(ctx context.Context) ([]domain.Task, error) {
	return uc.tasks.ListVisible(ctx, uc.now())
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := validate(task); err != nil {
		return nil, err
	}
	if task.IsTemplate {
		task.DueDate = nil
	}
	return uc.tasks.Create(ctx, task)
}

// Update persists user edits. Moving an already-assigned time block bumps the
// reschedule counter; templates shed any due date they were handed.
func (uc *UseCase) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := validate(task); err != nil {
		return nil, err
	}

	current, err := uc.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	task.CreatedAt = current.CreatedAt
	task.RescheduleCount = current.RescheduleCount
	if current.TimeBlockID != "" && task.TimeBlockID != current.TimeBlockID {
		task.RescheduleCount++
	}
	if task.IsTemplate {
		task.DueDate = nil
	}
	if task.GroupID == "" {
		task.GroupID = current.GroupID
	}
	// Completion transitions have their own endpoints, and identity must
	// survive external-side churn: edits never touch sync or completion state.
	task.Completed = current.Completed
	task.CompletedAt = current.CompletedAt
	task.ExternalID = current.ExternalID
	task.SourceSystem = current.SourceSystem

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if task.IsLinked() && uc.outbox != nil {
		record := &domain.ExternalRecord{
			ID:       task.ExternalID,
			Title:    task.Title,
			Priority: domain.ExternalPriorityFromImportance(task.Importance),
			DueDate:  task.DueDate,
			Notes:    task.Description,
		}
		if err := uc.outbox.BufferUpdate(ctx, record); err != nil {
			uc.logger.Warn("failed to buffer external update", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
	return task, nil
}

// Complete marks a task done, captures the undo snapshot first, and spawns
// the next occurrence for recurring tasks. Completing a template is a no-op.
func (uc *UseCase) Complete(ctx context.Context, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.IsTemplate {
		uc.logger.Warn("ignoring completion of series template", zap.String("task_id", id))
		return task, nil
	}
	if task.Completed {
		return task, nil
	}

	if uc.undo != nil {
		uc.undo.Capture(task)
	}

	completedAt := uc.now()
	task.Completed = true
	task.CompletedAt = &completedAt
	task.NextUp = false
	task.TimeBlockID = ""
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	spawnedID := ""
	if uc.series != nil && task.IsRecurring() {
		spawned, err := uc.series.SpawnNext(ctx, task)
		if err != nil {
			uc.logger.Error("failed to spawn next occurrence", zap.String("task_id", id), zap.Error(err))
		} else if spawned != nil {
			spawnedID = spawned.ID
		}
	}
	if uc.undo != nil {
		uc.undo.RecordSpawned(spawnedID)
	}

	if task.IsLinked() && uc.outbox != nil {
		settings, err := uc.settings.Get(ctx)
		if err != nil {
			uc.logger.Warn("failed to load settings", zap.Error(err))
		} else if settings.MarkExternalComplete {
			if err := uc.outbox.BufferMarkComplete(ctx, task.ExternalID); err != nil {
				uc.logger.Warn("failed to buffer external completion", zap.String("task_id", id), zap.Error(err))
			}
		}
	}

	return task, nil
}

func (uc *UseCase) Uncomplete(ctx context.Context, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.Completed {
		return task, nil
	}
	task.Completed = false
	task.CompletedAt = nil
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) Delete(ctx context.Context, id string) error {
	return uc.tasks.Delete(ctx, id)
}

// UndoLastCompletion reverses the single most recent completion, retracting
// any instance it spawned. Returns the restored title, empty when there is
// nothing to undo.
func (uc *UseCase) UndoLastCompletion(ctx context.Context) (string, error) {
	if uc.undo == nil {
		return "", nil
	}
	return uc.undo.Undo(ctx)
}

func validate(task *domain.Task) error {
	if task == nil || task.Title == "" {
		return domain.ErrInvalidPayload
	}
	if !task.Importance.Valid() || !task.Urgency.Valid() {
		return domain.ErrInvalidPayload
	}
	if task.Pattern != "" && !task.Pattern.Valid() {
		return domain.ErrInvalidPayload
	}
	if task.SourceSystem != "" && !task.SourceSystem.Valid() {
		return domain.ErrInvalidPayload
	}
	for _, d := range task.Weekdays {
		if d < 1 || d > 7 {
			return domain.ErrInvalidPayload
		}
	}
	return nil
}
