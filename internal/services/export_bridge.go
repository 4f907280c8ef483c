package services

import (
	"context"
	"encoding/json"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/internal/infrastructure/outbox"
	"github.com/taskmirror/backend/usecase"
)

// ExportBridge adapts the outbox processor to the usecase.ExportBuffer port.
type ExportBridge struct {
	processor *OutboxProcessor
}

func NewExportBridge(processor *OutboxProcessor) *ExportBridge {
	return &ExportBridge{processor: processor}
}

var _ usecase.ExportBuffer = (*ExportBridge)(nil)

func (b *ExportBridge) BufferMarkComplete(ctx context.Context, externalID string) error {
	if b.processor == nil || externalID == "" {
		return domain.ErrInvalidPayload
	}
	return b.processor.Push(ctx, outbox.Item{
		ExternalID: externalID,
		Operation:  outbox.OperationMarkComplete,
		Priority:   2,
	})
}

func (b *ExportBridge) BufferCreate(ctx context.Context, record *domain.ExternalRecord) error {
	return b.push(ctx, outbox.OperationCreate, record)
}

func (b *ExportBridge) BufferUpdate(ctx context.Context, record *domain.ExternalRecord) error {
	return b.push(ctx, outbox.OperationUpdate, record)
}

func (b *ExportBridge) push(ctx context.Context, operation string, record *domain.ExternalRecord) error {
	if b.processor == nil || record == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return b.processor.Push(ctx, outbox.Item{
		ExternalID: record.ID,
		Operation:  operation,
		Data:       payload,
		Priority:   3,
	})
}
