package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
)

// Settings live in a single well-known row; the service is single-user.
const settingsKey = "default"

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a Postgres-backed SettingsRepository.
func NewSettingsRepository(pool *pgxpool.Pool) repository.SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	const query = `
	SELECT visible_collections, mark_external_complete, updated_at
	FROM settings
	WHERE key = $1
	`
	var (
		collections []byte
		settings    domain.Settings
	)
	err := r.pool.QueryRow(ctx, query, settingsKey).Scan(
		&collections,
		&settings.MarkExternalComplete,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Settings{}, nil
		}
		return nil, err
	}
	if len(collections) > 0 {
		_ = json.Unmarshal(collections, &settings.VisibleCollections)
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	if settings == nil {
		return domain.ErrInvalidPayload
	}
	settings.UpdatedAt = time.Now()

	const query = `
	INSERT INTO settings (key, visible_collections, mark_external_complete, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (key) DO UPDATE
	SET visible_collections = EXCLUDED.visible_collections,
		mark_external_complete = EXCLUDED.mark_external_complete,
		updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		settingsKey,
		marshalStrings(settings.VisibleCollections),
		settings.MarkExternalComplete,
		settings.UpdatedAt,
	)
	return err
}
