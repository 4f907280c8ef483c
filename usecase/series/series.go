// Package series owns the template/instance invariants of recurring tasks:
// exactly one open occurrence per series, exactly one template per series.
package series

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/pkg/recurrence"
	"github.com/taskmirror/backend/repository"
)

type Manager struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	now    func() time.Time
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
}

// Bootstrap runs the self-healing passes in dependency order. Intended to run
// once at startup.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if err := m.EnsureGroupIDs(ctx); err != nil {
		return err
	}
	if err := m.MaterializeTemplates(ctx); err != nil {
		return err
	}
	if err := m.DeduplicateTemplates(ctx); err != nil {
		return err
	}
	return m.RepairOrphanSeries(ctx)
}

// EnsureGroupIDs assigns a fresh group identifier to legacy recurring tasks
// created before series tracking existed.
func (m *Manager) EnsureGroupIDs(ctx context.Context) error {
	tasks, err := m.tasks.ListRecurring(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		task := tasks[i]
		if task.GroupID != "" {
			continue
		}
		task.GroupID = uuid.NewString()
		if err := m.tasks.Update(ctx, &task); err != nil {
			return err
		}
		m.logger.Debug("assigned series group", zap.String("task_id", task.ID), zap.String("group_id", task.GroupID))
	}
	return nil
}

// MaterializeTemplates creates a template for every series that lacks one.
// The template carries the attributes of the most-recently-created member,
// never a due date, and becomes the canonical holder of the series'
// recurrence configuration.
func (m *Manager) MaterializeTemplates(ctx context.Context) error {
	tasks, err := m.tasks.ListRecurring(ctx)
	if err != nil {
		return err
	}

	groups := make(map[string][]domain.Task)
	for _, task := range tasks {
		if task.GroupID == "" {
			continue
		}
		groups[task.GroupID] = append(groups[task.GroupID], task)
	}

	for groupID, members := range groups {
		hasTemplate := false
		var newest *domain.Task
		for i := range members {
			if members[i].IsTemplate {
				hasTemplate = true
				break
			}
			if newest == nil || members[i].CreatedAt.After(newest.CreatedAt) {
				newest = &members[i]
			}
		}
		if hasTemplate || newest == nil || !newest.IsRecurring() {
			continue
		}

		template := copySeriesAttributes(newest)
		template.GroupID = groupID
		template.IsTemplate = true
		if _, err := m.tasks.Create(ctx, template); err != nil {
			return err
		}
		m.logger.Info("materialized series template",
			zap.String("group_id", groupID),
			zap.String("template_id", template.ID))
	}
	return nil
}

// SpawnNext creates the successor of a completed recurring instance. It
// returns nil when the pattern terminates, when the task is a template, or
// when an open sibling already occupies the successor's calendar day.
func (m *Manager) SpawnNext(ctx context.Context, completed *domain.Task) (*domain.Task, error) {
	if completed == nil || completed.IsTemplate || !completed.IsRecurring() {
		return nil, nil
	}

	next := recurrence.NextForTask(completed, m.now())
	if next == nil {
		return nil, nil
	}

	if completed.GroupID == "" {
		completed.GroupID = uuid.NewString()
		if err := m.tasks.Update(ctx, completed); err != nil {
			return nil, err
		}
	}

	siblings, err := m.tasks.ListByGroup(ctx, completed.GroupID)
	if err != nil {
		return nil, err
	}

	probe := &domain.Task{DueDate: next}
	var template *domain.Task
	for i := range siblings {
		sibling := siblings[i]
		if sibling.IsTemplate {
			template = &siblings[i]
			continue
		}
		if !sibling.Completed && domain.SameDueDay(&sibling, probe) {
			m.logger.Debug("successor already exists for day",
				zap.String("group_id", completed.GroupID),
				zap.Timep("due", next))
			return nil, nil
		}
	}

	source := completed
	if template != nil {
		source = template
	}

	instance := copySeriesAttributes(source)
	instance.GroupID = completed.GroupID
	instance.DueDate = next
	if _, err := m.tasks.Create(ctx, instance); err != nil {
		return nil, err
	}

	m.logger.Info("spawned next occurrence",
		zap.String("group_id", instance.GroupID),
		zap.String("task_id", instance.ID),
		zap.Timep("due", next))
	return instance, nil
}

// DeduplicateTemplates collapses multiple templates that describe the same
// logical series. Templates are grouped by title; the most-recently-created
// one survives and every child of a deleted template migrates to the
// survivor's group identifier, completed children included.
func (m *Manager) DeduplicateTemplates(ctx context.Context) error {
	templates, err := m.tasks.ListTemplates(ctx)
	if err != nil {
		return err
	}

	byTitle := make(map[string][]domain.Task)
	for _, tpl := range templates {
		byTitle[tpl.Title] = append(byTitle[tpl.Title], tpl)
	}

	for title, group := range byTitle {
		if len(group) < 2 {
			continue
		}

		survivor := group[0]
		for _, tpl := range group[1:] {
			if tpl.CreatedAt.After(survivor.CreatedAt) {
				survivor = tpl
			}
		}

		for _, tpl := range group {
			if tpl.ID == survivor.ID {
				continue
			}
			children, err := m.tasks.ListByGroup(ctx, tpl.GroupID)
			if err != nil {
				return err
			}
			for i := range children {
				child := children[i]
				if child.ID == tpl.ID {
					continue
				}
				child.GroupID = survivor.GroupID
				if err := m.tasks.Update(ctx, &child); err != nil {
					return err
				}
			}
			if err := m.tasks.Delete(ctx, tpl.ID); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return err
			}
			m.logger.Info("merged duplicate template",
				zap.String("title", title),
				zap.String("deleted_id", tpl.ID),
				zap.String("survivor_id", survivor.ID))
		}
	}
	return nil
}

// RepairOrphanSeries spawns a successor for every series whose members are
// all completed, healing series that failed to spawn (e.g. a crash between
// completion and spawn).
func (m *Manager) RepairOrphanSeries(ctx context.Context) error {
	tasks, err := m.tasks.ListRecurring(ctx)
	if err != nil {
		return err
	}

	type groupState struct {
		hasOpen       bool
		lastCompleted *domain.Task
	}
	groups := make(map[string]*groupState)
	for i := range tasks {
		task := tasks[i]
		if task.GroupID == "" || task.IsTemplate {
			continue
		}
		state := groups[task.GroupID]
		if state == nil {
			state = &groupState{}
			groups[task.GroupID] = state
		}
		if !task.Completed {
			state.hasOpen = true
			continue
		}
		if !task.IsRecurring() {
			continue
		}
		if state.lastCompleted == nil || completedAfter(&task, state.lastCompleted) {
			state.lastCompleted = &tasks[i]
		}
	}

	for groupID, state := range groups {
		if state.hasOpen || state.lastCompleted == nil {
			continue
		}
		spawned, err := m.SpawnNext(ctx, state.lastCompleted)
		if err != nil {
			return err
		}
		if spawned != nil {
			m.logger.Info("repaired orphan series",
				zap.String("group_id", groupID),
				zap.String("task_id", spawned.ID))
		}
	}
	return nil
}

func completedAfter(a, b *domain.Task) bool {
	at, bt := a.CreatedAt, b.CreatedAt
	if a.CompletedAt != nil {
		at = *a.CompletedAt
	}
	if b.CompletedAt != nil {
		bt = *b.CompletedAt
	}
	return at.After(bt)
}

// copySeriesAttributes builds a fresh open instance carrying the series
// attributes of source. Completion state, staging flag and time-block
// assignment start empty; due date is set by the caller.
func copySeriesAttributes(source *domain.Task) *domain.Task {
	return &domain.Task{
		Title:           source.Title,
		Description:     source.Description,
		Importance:      source.Importance,
		Urgency:         source.Urgency,
		Category:        source.Category,
		DurationMinutes: source.DurationMinutes,
		Tags:            append([]string(nil), source.Tags...),
		Pattern:         source.Pattern,
		Weekdays:        append([]int(nil), source.Weekdays...),
		MonthDay:        source.MonthDay,
		Interval:        source.Interval,
		GroupID:         source.GroupID,
		SourceSystem:    domain.SourceLocal,
	}
}
