package settings

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
	"github.com/taskmirror/backend/usecase"
)

type UseCase struct {
	settings repository.SettingsRepository
	source   usecase.ReminderSource
	logger   *zap.Logger
}

func New(settings repository.SettingsRepository, source usecase.ReminderSource, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		settings: settings,
		source:   source,
		logger:   logger,
	}
}

func (uc *UseCase) Get(ctx context.Context) (*domain.Settings, error) {
	return uc.settings.Get(ctx)
}

func (uc *UseCase) Update(ctx context.Context, settings *domain.Settings) (*domain.Settings, error) {
	if settings == nil {
		return nil, domain.ErrInvalidPayload
	}
	if err := uc.settings.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ListCollections surfaces the external side's lists so the user can choose
// which ones stay visible.
func (uc *UseCase) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	return uc.source.FetchCollections(ctx)
}
