package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
)

const taskColumns = `
	id, title, description, importance, urgency, category, duration_minutes,
	due_date, tags, completed, completed_at, created_at, sort_order,
	reschedule_count, next_up, time_block_id, pattern, weekdays, month_day,
	recur_interval, group_id, is_template, external_id, source_system`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}
	const query = `SELECT` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE ($1::boolean IS NULL OR completed = $1)
	  AND ($2::boolean IS NULL OR is_template = $2)
	  AND ($3 = '' OR group_id = $3)
	  AND ($4 = '' OR source_system = $4)
	ORDER BY created_at DESC
	LIMIT $5 OFFSET $6
	`
	rows, err := r.pool.Query(ctx, query,
		filter.Completed,
		filter.IsTemplate,
		filter.GroupID,
		string(filter.SourceSystem),
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.Title == "" {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Pattern == "" {
		task.Pattern = domain.PatternNone
	}
	if task.SourceSystem == "" {
		task.SourceSystem = domain.SourceLocal
	}

	const query = `
	INSERT INTO tasks (
		id, title, description, importance, urgency, category, duration_minutes,
		due_date, tags, completed, completed_at, sort_order, reschedule_count,
		next_up, time_block_id, pattern, weekdays, month_day, recur_interval,
		group_id, is_template, external_id, source_system
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23)
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Importance),
		string(task.Urgency),
		task.Category,
		task.DurationMinutes,
		dueValue(task.DueDate),
		marshalStrings(task.Tags),
		task.Completed,
		dueValue(task.CompletedAt),
		task.SortOrder,
		task.RescheduleCount,
		task.NextUp,
		task.TimeBlockID,
		string(task.Pattern),
		marshalInts(task.Weekdays),
		task.MonthDay,
		task.Interval,
		task.GroupID,
		task.IsTemplate,
		task.ExternalID,
		string(task.SourceSystem),
	).Scan(&task.CreatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		importance = $4,
		urgency = $5,
		category = $6,
		duration_minutes = $7,
		due_date = $8,
		tags = $9,
		completed = $10,
		completed_at = $11,
		sort_order = $12,
		reschedule_count = $13,
		next_up = $14,
		time_block_id = $15,
		pattern = $16,
		weekdays = $17,
		month_day = $18,
		recur_interval = $19,
		group_id = $20,
		is_template = $21,
		external_id = $22,
		source_system = $23
	WHERE id = $1
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Importance),
		string(task.Urgency),
		task.Category,
		task.DurationMinutes,
		dueValue(task.DueDate),
		marshalStrings(task.Tags),
		task.Completed,
		dueValue(task.CompletedAt),
		task.SortOrder,
		task.RescheduleCount,
		task.NextUp,
		task.TimeBlockID,
		string(task.Pattern),
		marshalInts(task.Weekdays),
		task.MonthDay,
		task.Interval,
		task.GroupID,
		task.IsTemplate,
		task.ExternalID,
		string(task.SourceSystem),
	).Scan(&task.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrTaskNotFound
	}
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Task, error) {
	if externalID == "" {
		return nil, domain.ErrTaskNotFound
	}
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE external_id = $1 AND source_system = 'external'
	LIMIT 1
	`
	row := r.pool.QueryRow(ctx, query, externalID)
	return scanTask(row)
}

func (r *taskRepository) FindByTitle(ctx context.Context, title string) ([]domain.Task, error) {
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE title = $1 AND is_template = FALSE
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, title)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Task, error) {
	if groupID == "" {
		return nil, nil
	}
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE group_id = $1
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) ListLinked(ctx context.Context) ([]domain.Task, error) {
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE source_system = 'external' AND external_id <> ''
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) ListTemplates(ctx context.Context) ([]domain.Task, error) {
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE is_template = TRUE
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) ListRecurring(ctx context.Context) ([]domain.Task, error) {
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE pattern <> 'none' OR group_id <> ''
	ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) ListVisible(ctx context.Context, now time.Time) ([]domain.Task, error) {
	const query = `
	SELECT` + taskColumns + `
	FROM tasks
	WHERE is_template = FALSE
	  AND completed = FALSE
	  AND (due_date IS NULL OR due_date < $1 OR pattern = 'none')
	ORDER BY sort_order, created_at
	`
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	rows, err := r.pool.Query(ctx, query, endOfDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		due         *time.Time
		completedAt *time.Time
		tags        []byte
		weekdays    []byte
		importance  string
		urgency     string
		pattern     string
		source      string
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&importance,
		&urgency,
		&task.Category,
		&task.DurationMinutes,
		&due,
		&tags,
		&task.Completed,
		&completedAt,
		&task.CreatedAt,
		&task.SortOrder,
		&task.RescheduleCount,
		&task.NextUp,
		&task.TimeBlockID,
		&pattern,
		&weekdays,
		&task.MonthDay,
		&task.Interval,
		&task.GroupID,
		&task.IsTemplate,
		&task.ExternalID,
		&source,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.DueDate = due
	task.CompletedAt = completedAt
	task.Importance = domain.Importance(importance)
	task.Urgency = domain.Urgency(urgency)
	task.Pattern = domain.RecurrencePattern(pattern)
	task.SourceSystem = domain.SourceSystem(source)
	if len(tags) > 0 {
		_ = json.Unmarshal(tags, &task.Tags)
	}
	if len(weekdays) > 0 {
		_ = json.Unmarshal(weekdays, &task.Weekdays)
	}

	return &task, nil
}

func dueValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
