package repository

import (
	"context"
	"time"

	"github.com/taskmirror/backend/domain"
)

type TaskFilter struct {
	Completed    *bool
	IsTemplate   *bool
	GroupID      string
	SourceSystem domain.SourceSystem
	Limit        int
	Offset       int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error

	// GetByExternalID matches only tasks still flagged as externally sourced.
	GetByExternalID(ctx context.Context, externalID string) (*domain.Task, error)
	// FindByTitle returns non-template tasks with an exact title match.
	FindByTitle(ctx context.Context, title string) ([]domain.Task, error)
	// ListByGroup returns every member of a recurrence group, templates included.
	ListByGroup(ctx context.Context, groupID string) ([]domain.Task, error)
	// ListLinked returns tasks participating in external reconciliation.
	ListLinked(ctx context.Context) ([]domain.Task, error)
	// ListTemplates returns every series template.
	ListTemplates(ctx context.Context) ([]domain.Task, error)
	// ListRecurring returns every task with a non-none pattern or a group
	// identifier, completed ones included.
	ListRecurring(ctx context.Context) ([]domain.Task, error)
	// ListVisible returns the backlog: open non-templates that are overdue,
	// due today, or carry no due date. Future-dated recurring occurrences
	// stay hidden until their day arrives.
	ListVisible(ctx context.Context, now time.Time) ([]domain.Task, error)
}
