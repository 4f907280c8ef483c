package usecase

import (
	"context"

	"github.com/taskmirror/backend/domain"
)

// ReminderSource is the collaborator contract expected from the external
// reminder/calendar store.
type ReminderSource interface {
	FetchOpenRecords(ctx context.Context) ([]domain.ExternalRecord, error)
	FetchCollections(ctx context.Context) ([]domain.Collection, error)
	MarkComplete(ctx context.Context, id string) error
	CreateRecord(ctx context.Context, record *domain.ExternalRecord) (string, error)
	UpdateRecord(ctx context.Context, record *domain.ExternalRecord) error
}

// ExportBuffer abstracts the outbox so use cases can queue outbound external
// writes without knowing about the persistence behind it.
type ExportBuffer interface {
	BufferMarkComplete(ctx context.Context, externalID string) error
	BufferCreate(ctx context.Context, record *domain.ExternalRecord) error
	BufferUpdate(ctx context.Context, record *domain.ExternalRecord) error
}

// Enricher is an optional idempotent post-processing step that only fills
// fields still unset on the task.
type Enricher interface {
	Enrich(ctx context.Context, task *domain.Task) error
}

// NopEnricher is the default enricher; it changes nothing.
type NopEnricher struct{}

func (NopEnricher) Enrich(ctx context.Context, task *domain.Task) error {
	return nil
}
