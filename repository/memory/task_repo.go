// Package memory provides in-memory repository implementations used by tests
// and by the local development mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
)

type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]domain.Task)}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (r *TaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return r.collect(func(t domain.Task) bool {
		if filter.Completed != nil && t.Completed != *filter.Completed {
			return false
		}
		if filter.IsTemplate != nil && t.IsTemplate != *filter.IsTemplate {
			return false
		}
		if filter.GroupID != "" && t.GroupID != filter.GroupID {
			return false
		}
		if filter.SourceSystem != "" && t.SourceSystem != filter.SourceSystem {
			return false
		}
		return true
	}), nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.Title == "" {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Pattern == "" {
		task.Pattern = domain.PatternNone
	}
	if task.SourceSystem == "" {
		task.SourceSystem = domain.SourceLocal
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	r.tasks[task.ID] = *cloneTask(*task)
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[task.ID] = *cloneTask(*task)
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Task, error) {
	if externalID == "" {
		return nil, domain.ErrTaskNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tasks {
		if t.SourceSystem == domain.SourceExternal && t.ExternalID == externalID {
			return cloneTask(t), nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (r *TaskRepository) FindByTitle(ctx context.Context, title string) ([]domain.Task, error) {
	return r.collect(func(t domain.Task) bool {
		return !t.IsTemplate && t.Title == title
	}), nil
}

func (r *TaskRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Task, error) {
	if groupID == "" {
		return nil, nil
	}
	return r.collect(func(t domain.Task) bool {
		return t.GroupID == groupID
	}), nil
}

func (r *TaskRepository) ListLinked(ctx context.Context) ([]domain.Task, error) {
	return r.collect(func(t domain.Task) bool {
		return t.SourceSystem == domain.SourceExternal && t.ExternalID != ""
	}), nil
}

func (r *TaskRepository) ListTemplates(ctx context.Context) ([]domain.Task, error) {
	return r.collect(func(t domain.Task) bool {
		return t.IsTemplate
	}), nil
}

func (r *TaskRepository) ListRecurring(ctx context.Context) ([]domain.Task, error) {
	return r.collect(func(t domain.Task) bool {
		return (t.Pattern != "" && t.Pattern != domain.PatternNone) || t.GroupID != ""
	}), nil
}

func (r *TaskRepository) ListVisible(ctx context.Context, now time.Time) ([]domain.Task, error) {
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return r.collect(func(t domain.Task) bool {
		if t.IsTemplate || t.Completed {
			return false
		}
		if t.DueDate == nil || t.Pattern == domain.PatternNone || t.Pattern == "" {
			return true
		}
		return t.DueDate.Before(endOfDay)
	}), nil
}

func (r *TaskRepository) collect(match func(domain.Task) bool) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Task
	for _, t := range r.tasks {
		if match(t) {
			out = append(out, *cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneTask(t domain.Task) *domain.Task {
	clone := t
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		clone.CompletedAt = &completed
	}
	clone.Tags = append([]string(nil), t.Tags...)
	clone.Weekdays = append([]int(nil), t.Weekdays...)
	return &clone
}
