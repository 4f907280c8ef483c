package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
)

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a Postgres-backed ReportRepository implementation.
func NewReportRepository(pool *pgxpool.Pool) repository.ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Get(ctx context.Context, id string) (*domain.SyncReport, error) {
	const query = `
	SELECT id, trigger, imported, skipped_duplicates, marked_complete,
		mark_complete_failures, errors, started_at, finished_at
	FROM sync_reports
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanReport(row)
}

func (r *reportRepository) List(ctx context.Context, filter repository.ReportFilter) ([]domain.SyncReport, error) {
	const query = `
	SELECT id, trigger, imported, skipped_duplicates, marked_complete,
		mark_complete_failures, errors, started_at, finished_at
	FROM sync_reports
	WHERE ($1 = '' OR trigger = $1)
	ORDER BY started_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.Trigger, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.SyncReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func (r *reportRepository) Save(ctx context.Context, report *domain.SyncReport) error {
	if report == nil {
		return domain.ErrInvalidPayload
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.Touch()

	const query = `
	INSERT INTO sync_reports (
		id, trigger, imported, skipped_duplicates, marked_complete,
		mark_complete_failures, errors, started_at, finished_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE
	SET imported = EXCLUDED.imported,
		skipped_duplicates = EXCLUDED.skipped_duplicates,
		marked_complete = EXCLUDED.marked_complete,
		mark_complete_failures = EXCLUDED.mark_complete_failures,
		errors = EXCLUDED.errors,
		finished_at = EXCLUDED.finished_at
	`
	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.Trigger,
		report.Imported,
		report.SkippedDuplicates,
		report.MarkedComplete,
		report.MarkCompleteFailures,
		marshalStrings(report.Errors),
		report.StartedAt,
		report.FinishedAt,
	)
	return err
}

func scanReport(row interface {
	Scan(dest ...interface{}) error
}) (*domain.SyncReport, error) {
	var report domain.SyncReport
	var errorsPayload []byte

	if err := row.Scan(
		&report.ID,
		&report.Trigger,
		&report.Imported,
		&report.SkippedDuplicates,
		&report.MarkedComplete,
		&report.MarkCompleteFailures,
		&errorsPayload,
		&report.StartedAt,
		&report.FinishedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.ErrCodeNotFound, "sync report not found")
		}
		return nil, err
	}

	if len(errorsPayload) > 0 {
		_ = json.Unmarshal(errorsPayload, &report.Errors)
	}
	return &report, nil
}
