package memory

import (
	"context"
	"sync"
	"time"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
)

// ExternalIDRegistry is the in-memory counterpart of the Redis registry.
type ExternalIDRegistry struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewExternalIDRegistry() *ExternalIDRegistry {
	return &ExternalIDRegistry{ids: make(map[string]struct{})}
}

var _ repository.ExternalIDRegistry = (*ExternalIDRegistry)(nil)

func (r *ExternalIDRegistry) Replace(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
	return nil
}

func (r *ExternalIDRegistry) Union(ctx context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	union := make(map[string]struct{}, len(r.ids))
	for id := range r.ids {
		union[id] = struct{}{}
	}
	return union, nil
}

// SettingsRepository keeps settings in memory.
type SettingsRepository struct {
	mu       sync.RWMutex
	settings domain.Settings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

var _ repository.SettingsRepository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	settings := r.settings
	settings.VisibleCollections = append([]string(nil), r.settings.VisibleCollections...)
	return &settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	if settings == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	settings.UpdatedAt = time.Now()
	r.settings = *settings
	r.settings.VisibleCollections = append([]string(nil), settings.VisibleCollections...)
	return nil
}
