// Package reconcile implements the batch import/export cycle against the
// external reminder source: identity matching, soft-delete and reactivation
// transitions, and attribute protection.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskmirror/backend/domain"
	"github.com/taskmirror/backend/repository"
	"github.com/taskmirror/backend/usecase"
)

const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerStartup   = "startup"
)

type Engine struct {
	tasks    repository.TaskRepository
	settings repository.SettingsRepository
	registry repository.ExternalIDRegistry
	reports  repository.ReportRepository
	source   usecase.ReminderSource
	enricher usecase.Enricher
	logger   *zap.Logger
	now      func() time.Time
}

func New(
	tasks repository.TaskRepository,
	settings repository.SettingsRepository,
	registry repository.ExternalIDRegistry,
	reports repository.ReportRepository,
	source usecase.ReminderSource,
	enricher usecase.Enricher,
	logger *zap.Logger,
) *Engine {
	if enricher == nil {
		enricher = usecase.NopEnricher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tasks:    tasks,
		settings: settings,
		registry: registry,
		reports:  reports,
		source:   source,
		enricher: enricher,
		logger:   logger,
		now:      time.Now,
	}
}

// RunCycle executes one reconciliation cycle. An authorization failure aborts
// the cycle before any local mutation; every other failure is accumulated per
// record and reported, never thrown as a whole-cycle abort.
func (e *Engine) RunCycle(ctx context.Context, trigger string, markExternalComplete bool) (*domain.SyncReport, error) {
	report := &domain.SyncReport{
		Trigger:   trigger,
		StartedAt: e.now(),
	}

	records, err := e.source.FetchOpenRecords(ctx)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "fetching external records failed", err)
	}

	settings, err := e.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	// The full unfiltered fetch feeds the soft-delete safety set, hidden
	// collections included. Visibility narrows the import scope only.
	known := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		known[rec.ID] = struct{}{}
		ids = append(ids, rec.ID)
	}
	if e.registry != nil {
		if err := e.registry.Replace(ctx, ids); err != nil {
			e.logger.Warn("failed to persist external id registry", zap.Error(err))
		}
	}

	for i := range records {
		rec := records[i]
		if !settings.CollectionVisible(rec.CollectionID) {
			continue
		}
		if rec.Title == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("record %s: empty title", rec.ID))
			continue
		}
		if err := e.applyRecord(ctx, &rec, report); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("record %s: %v", rec.ID, err))
			e.logger.Error("failed to apply external record",
				zap.String("record_id", rec.ID), zap.Error(err))
		}
	}

	if markExternalComplete {
		e.pushCompletions(ctx, known, report)
	}

	if err := e.softDeleteVanished(ctx, known, report); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("soft-delete pass: %v", err))
	}

	report.Touch()
	if e.reports != nil {
		if err := e.reports.Save(ctx, report); err != nil {
			e.logger.Warn("failed to persist sync report", zap.Error(err))
		}
	}

	e.logger.Info("reconciliation cycle finished",
		zap.String("trigger", trigger),
		zap.Int("imported", report.Imported),
		zap.Int("skipped_duplicates", report.SkippedDuplicates),
		zap.Int("marked_complete", report.MarkedComplete),
		zap.Int("mark_complete_failures", report.MarkCompleteFailures),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

// applyRecord runs the identity-matching ladder for one external record:
// externalID equality first, then an orphan restore by exact title, then
// creation of a new task.
func (e *Engine) applyRecord(ctx context.Context, rec *domain.ExternalRecord, report *domain.SyncReport) error {
	linked, err := e.tasks.GetByExternalID(ctx, rec.ID)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}

	orphan, err := e.findOrphan(ctx, rec, linked)
	if err != nil {
		return err
	}

	switch {
	case linked != nil && orphan != nil:
		// A duplicate pair: an earlier pass created linked while the richer
		// orphan survived a soft-delete. The orphan's enrichment moves onto
		// the linked task, never the reverse, and the orphan goes away.
		domain.AbsorbEnrichment(linked, orphan)
		if err := e.tasks.Delete(ctx, orphan.ID); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		report.SkippedDuplicates++
		return e.writeLinked(ctx, linked, rec, true)

	case linked != nil:
		report.SkippedDuplicates++
		return e.writeLinked(ctx, linked, rec, false)

	case orphan != nil:
		// Restore in place: relink and reactivate, keeping every enriched
		// field exactly as the user left it.
		orphan.ExternalID = rec.ID
		orphan.SourceSystem = domain.SourceExternal
		report.SkippedDuplicates++
		return e.writeLinked(ctx, orphan, rec, true)

	default:
		return e.createFromRecord(ctx, rec, report)
	}
}

// findOrphan locates the residue of an earlier soft-delete or an
// independently-created duplicate: a local, non-template task matching the
// record's title exactly. Candidates whose retained externalID matches the
// incoming record win over candidates with no externalID, which win over
// stale-ID residue.
func (e *Engine) findOrphan(ctx context.Context, rec *domain.ExternalRecord, linked *domain.Task) (*domain.Task, error) {
	candidates, err := e.tasks.FindByTitle(ctx, rec.Title)
	if err != nil {
		return nil, err
	}

	var sameID, unlinked, stale *domain.Task
	for i := range candidates {
		c := &candidates[i]
		if c.SourceSystem != domain.SourceLocal {
			continue
		}
		if linked != nil && c.ID == linked.ID {
			continue
		}
		switch {
		case c.ExternalID == rec.ID && sameID == nil:
			sameID = c
		case c.ExternalID == "" && unlinked == nil:
			unlinked = c
		case c.ExternalID != "" && stale == nil:
			stale = c
		}
	}
	if sameID != nil {
		return sameID, nil
	}
	if unlinked != nil {
		return unlinked, nil
	}
	return stale, nil
}

// writeLinked applies the external side of an already-linked task. Only
// title, due date and completion-derived state are ever overwritten; unset
// fields accept a first write and everything else stays frozen.
func (e *Engine) writeLinked(ctx context.Context, task *domain.Task, rec *domain.ExternalRecord, force bool) error {
	changed := force

	if task.Title != rec.Title {
		task.Title = rec.Title
		changed = true
	}
	if !sameTime(task.DueDate, rec.DueDate) {
		task.DueDate = copyTime(rec.DueDate)
		changed = true
	}
	if task.ExternalID != rec.ID {
		task.ExternalID = rec.ID
		changed = true
	}
	if task.SourceSystem != domain.SourceExternal {
		task.SourceSystem = domain.SourceExternal
		changed = true
	}
	// Restore paths reactivate: the record is open externally and the local
	// task is soft-delete residue. An ordinary linked task completed locally
	// stays completed so the completion can be pushed out, not reversed.
	if force && task.Completed {
		task.Completed = false
		task.CompletedAt = nil
		changed = true
	}
	if merged := domain.MergeString(task.Description, rec.Notes); merged != task.Description {
		task.Description = merged
		changed = true
	}
	if merged := domain.MergeImportance(task.Importance, domain.ImportanceFromExternalPriority(rec.Priority)); merged != task.Importance {
		task.Importance = merged
		changed = true
	}

	if !changed {
		return nil
	}
	return e.tasks.Update(ctx, task)
}

func (e *Engine) createFromRecord(ctx context.Context, rec *domain.ExternalRecord, report *domain.SyncReport) error {
	task := &domain.Task{
		Title:        rec.Title,
		Description:  rec.Notes,
		Importance:   domain.ImportanceFromExternalPriority(rec.Priority),
		DueDate:      copyTime(rec.DueDate),
		Pattern:      domain.PatternNone,
		ExternalID:   rec.ID,
		SourceSystem: domain.SourceExternal,
	}
	if err := e.enricher.Enrich(ctx, task); err != nil {
		e.logger.Warn("enrichment failed", zap.String("record_id", rec.ID), zap.Error(err))
	}
	if _, err := e.tasks.Create(ctx, task); err != nil {
		return err
	}
	report.Imported++
	return nil
}

// pushCompletions marks external records complete for linked tasks the user
// already completed locally. Failures are counted per record and surfaced in
// the report, never silently swallowed.
func (e *Engine) pushCompletions(ctx context.Context, known map[string]struct{}, report *domain.SyncReport) {
	linked, err := e.tasks.ListLinked(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("mark-complete pass: %v", err))
		return
	}
	for i := range linked {
		task := linked[i]
		if !task.Completed {
			continue
		}
		if _, stillOpen := known[task.ExternalID]; !stillOpen {
			continue
		}
		if err := e.source.MarkComplete(ctx, task.ExternalID); err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				// Record vanished between fetch and mark: already done.
				report.MarkedComplete++
				continue
			}
			report.MarkCompleteFailures++
			report.Errors = append(report.Errors, fmt.Sprintf("mark complete %s: %v", task.ExternalID, err))
			continue
		}
		report.MarkedComplete++
	}
}

// softDeleteVanished transitions linked tasks whose external record is gone:
// completed locally, demoted to the local source system, externalID retained
// so identity survives external-side churn.
func (e *Engine) softDeleteVanished(ctx context.Context, known map[string]struct{}, report *domain.SyncReport) error {
	linked, err := e.tasks.ListLinked(ctx)
	if err != nil {
		return err
	}

	// Prefer the persisted union when available; a cycle that fetched only a
	// subset of collections must not soft-delete tasks whose records simply
	// were not re-fetched.
	if e.registry != nil {
		if union, err := e.registry.Union(ctx); err == nil {
			for id := range union {
				known[id] = struct{}{}
			}
		} else {
			e.logger.Warn("failed to read external id registry", zap.Error(err))
		}
	}

	now := e.now()
	for i := range linked {
		task := linked[i]
		if _, present := known[task.ExternalID]; present {
			continue
		}
		// A task the user already completed keeps its original timestamp;
		// only the source demotion applies.
		if !task.Completed {
			task.Completed = true
			completedAt := now
			task.CompletedAt = &completedAt
		}
		task.SourceSystem = domain.SourceLocal
		if err := e.tasks.Update(ctx, &task); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("soft-delete %s: %v", task.ID, err))
			continue
		}
		e.logger.Info("soft-deleted vanished task",
			zap.String("task_id", task.ID),
			zap.String("external_id", task.ExternalID))
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
