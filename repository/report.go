package repository

import (
	"context"

	"github.com/taskmirror/backend/domain"
)

type ReportFilter struct {
	Trigger string
	Limit   int
	Offset  int
}

type ReportRepository interface {
	Get(ctx context.Context, id string) (*domain.SyncReport, error)
	List(ctx context.Context, filter ReportFilter) ([]domain.SyncReport, error)
	Save(ctx context.Context, report *domain.SyncReport) error
}
