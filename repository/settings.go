package repository

import (
	"context"

	"github.com/taskmirror/backend/domain"
)

type SettingsRepository interface {
	// Get returns the persisted settings, or defaults when none are stored.
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, settings *domain.Settings) error
}
